package discovery

import (
	"encoding/json"
	"testing"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
)

func TestGetToolSchema_ExactMatch(t *testing.T) {
	cat, ctx := newInvocationContext(&catalog.Filter{})
	cat.Insert(&catalog.ToolEntry{
		Qualified: "gh__create_issue", ServerName: "gh", Kind: catalog.KindRemote,
		Tool: catalog.Tool{Description: "Create an issue", InputSchema: json.RawMessage(`{"type":"object"}`)},
	})

	result, err := GetToolSchema(ctx, "gh__create_issue")
	if err != nil {
		t.Fatalf("GetToolSchema: %v", err)
	}
	if result.Description != "Create an issue" {
		t.Errorf("Description = %q", result.Description)
	}
	if result.Hint == "" {
		t.Error("expected non-empty usage hint")
	}
}

func TestGetToolSchema_ShortNameWhenAllowed(t *testing.T) {
	cat, ctx := newInvocationContext(&catalog.Filter{})
	ctx.AllowShortToolNames = true
	cat.Insert(&catalog.ToolEntry{
		Qualified: "gh__create_issue", ServerName: "gh", Kind: catalog.KindRemote,
		Tool: catalog.Tool{Description: "Create an issue"},
	})

	result, err := GetToolSchema(ctx, "create_issue")
	if err != nil {
		t.Fatalf("GetToolSchema: %v", err)
	}
	if result.Qualified != "gh__create_issue" {
		t.Errorf("Qualified = %q", result.Qualified)
	}
}

func TestGetToolSchema_ShortNameDisallowed(t *testing.T) {
	cat, ctx := newInvocationContext(&catalog.Filter{})
	cat.Insert(&catalog.ToolEntry{Qualified: "gh__create_issue", ServerName: "gh", Kind: catalog.KindRemote})

	_, err := GetToolSchema(ctx, "create_issue")
	if err == nil {
		t.Fatal("expected error when short names disallowed and no exact match")
	}
}
