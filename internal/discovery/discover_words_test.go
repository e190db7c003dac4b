package discovery

import (
	"strings"
	"testing"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
)

func newInvocationContext(filter *catalog.Filter) (*catalog.Catalog, *catalog.InvocationContext) {
	cat := catalog.New(filter)
	return cat, &catalog.InvocationContext{Catalog: cat, Filter: filter}
}

func TestDiscoverByWords_EmptyWords(t *testing.T) {
	_, ctx := newInvocationContext(&catalog.Filter{})
	got := DiscoverByWords(ctx, "   ", false)
	if got != "no tools found" {
		t.Errorf("got %q, want no tools found", got)
	}
}

func TestDiscoverByWords_KeywordScoringOrder(t *testing.T) {
	cat, ctx := newInvocationContext(&catalog.Filter{})
	cat.Insert(&catalog.ToolEntry{
		Qualified: "gh__create_issue", ServerName: "gh", Kind: catalog.KindRemote,
		Tool: catalog.Tool{Description: "Create an issue"},
	})
	cat.Insert(&catalog.ToolEntry{
		Qualified: "fs__read_tissue", ServerName: "fs", Kind: catalog.KindRemote,
		Tool: catalog.Tool{Description: "Read tissue samples"},
	})

	got := DiscoverByWords(ctx, "issue", false)
	createIdx := strings.Index(got, "gh__create_issue")
	tissueIdx := strings.Index(got, "fs__read_tissue")
	if createIdx == -1 || tissueIdx == -1 {
		t.Fatalf("expected both tools listed, got: %s", got)
	}
	if createIdx > tissueIdx {
		t.Errorf("expected gh__create_issue (whole-word match) ranked before fs__read_tissue (substring match)")
	}
}

func TestDiscoverByWords_EnableAddsToDynamicallyEnabled(t *testing.T) {
	cat, ctx := newInvocationContext(&catalog.Filter{EnableDynamicDiscovery: true})
	cat.Insert(&catalog.ToolEntry{
		Qualified: "s__alpha_1", ServerName: "s", Kind: catalog.KindRemote,
		Tool: catalog.Tool{Description: "alpha handler"},
	})

	notified := false
	ctx.NotifyListChanged = func() { notified = true }

	if cat.Listable("s__alpha_1") {
		t.Fatal("precondition: must not be listable before enablement")
	}

	got := DiscoverByWords(ctx, "alpha", true)
	if !strings.Contains(got, "s__alpha_1") {
		t.Errorf("expected enabled tool named in response: %s", got)
	}
	if !cat.IsDynamicallyEnabled("s__alpha_1") {
		t.Error("expected s__alpha_1 to be in DynamicallyEnabled")
	}
	if !cat.Listable("s__alpha_1") {
		t.Error("expected s__alpha_1 to be listable after enablement")
	}
	if !notified {
		t.Error("expected tools/list_changed notification to be requested")
	}
}

func TestDiscoverByWords_NoMatches(t *testing.T) {
	cat, ctx := newInvocationContext(&catalog.Filter{})
	cat.Insert(&catalog.ToolEntry{
		Qualified: "s__t1", ServerName: "s", Kind: catalog.KindRemote,
		Tool: catalog.Tool{Description: "unrelated thing"},
	})
	got := DiscoverByWords(ctx, "zzzznotfound", false)
	if got != "no tools found" {
		t.Errorf("got %q, want no tools found", got)
	}
}

func TestDiscoverByWords_TruncatesLongDescriptions(t *testing.T) {
	longDesc := strings.Repeat("x", maxMatchDescriptionRunes+50) + " widget"
	cat, ctx := newInvocationContext(&catalog.Filter{})
	cat.Insert(&catalog.ToolEntry{
		Qualified: "s__widget", ServerName: "s", Kind: catalog.KindRemote,
		Tool: catalog.Tool{Description: longDesc},
	})

	got := DiscoverByWords(ctx, "widget", false)
	if strings.Contains(got, longDesc) {
		t.Fatal("expected long description to be truncated in the report")
	}
	if !strings.Contains(got, "...") {
		t.Errorf("expected truncation marker in output: %s", got)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("Foo-Bar   baz\tqux")
	want := []string{"foo", "bar", "baz", "qux"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tokenize[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHasWholeWord(t *testing.T) {
	if !hasWholeWord("create an issue", "issue") {
		t.Error("expected whole-word match")
	}
	if hasWholeWord("read tissue samples", "issue") {
		t.Error("expected no whole-word match (issue is inside tissue)")
	}
}
