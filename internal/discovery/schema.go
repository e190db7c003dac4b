package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
)

// ToolSchemaResult is get_tool_schema's successful payload.
type ToolSchemaResult struct {
	Qualified   catalog.QualifiedName
	Description string
	InputSchema json.RawMessage
	Hint        string
}

// GetToolSchema implements get_tool_schema (spec.md §4.6): resolve tool to
// a QualifiedName, using short-name resolution when
// ctx.AllowShortToolNames is true, then return its cached declaration.
func GetToolSchema(ctx *catalog.InvocationContext, tool string) (*ToolSchemaResult, error) {
	qualified, err := resolveInput(ctx.Catalog, tool, ctx.AllowShortToolNames)
	if err != nil {
		return nil, err
	}

	entry, ok := ctx.Catalog.Get(qualified)
	if !ok {
		return nil, fmt.Errorf("tool %q not found", qualified)
	}

	return &ToolSchemaResult{
		Qualified:   qualified,
		Description: entry.Tool.Description,
		InputSchema: entry.Tool.InputSchema,
		Hint:        fmt.Sprintf("Call bridge_tool_request with tool=%q and matching arguments.", qualified),
	}, nil
}

// resolveInput applies exact-match-first resolution: an exact QualifiedName
// hit always wins; only on a miss, and when allowed, do we fall back to
// short-name resolution (spec.md §4.8's "exact QualifiedName first" rule,
// shared by get_tool_schema and bridge_tool_request).
func resolveInput(cat *catalog.Catalog, tool string, allowShortNames bool) (catalog.QualifiedName, error) {
	if _, ok := cat.Get(catalog.QualifiedName(tool)); ok {
		return catalog.QualifiedName(tool), nil
	}
	if !allowShortNames {
		return "", fmt.Errorf("tool %q not found", tool)
	}
	return ResolveShortName(cat, tool)
}
