package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
)

// ToolsetInput is load_toolset's argument shape: exactly one of Name or
// Patterns must be set (spec.md §4.6's XOR requirement).
type ToolsetInput struct {
	Name     string
	Patterns []string
}

// LoadToolset implements load_toolset (spec.md §4.6). toolsets is the
// FunnelConfig.Toolsets map (name -> glob patterns); the unknown-name error
// message lists its keys, so this function doesn't need to reach back into
// configuration.
func LoadToolset(ctx *catalog.InvocationContext, input ToolsetInput, toolsets map[string][]string) (*catalog.CallResult, error) {
	hasName := input.Name != ""
	hasPatterns := len(input.Patterns) > 0

	if hasName == hasPatterns {
		return &catalog.CallResult{
			Text:    "load_toolset requires exactly one of `name` or `tools`",
			IsError: true,
		}, nil
	}

	patterns := input.Patterns
	if hasName {
		var ok bool
		patterns, ok = toolsets[input.Name]
		if !ok {
			return &catalog.CallResult{
				Text:    fmt.Sprintf("unknown toolset %q; available: %s", input.Name, strings.Join(availableNames(toolsets), ", ")),
				IsError: true,
			}, nil
		}
	}

	var matched []catalog.QualifiedName
	for _, e := range ctx.Catalog.DescriptionEntries() {
		if catalog.MatchAny(patterns, string(e.Qualified)) {
			matched = append(matched, e.Qualified)
		}
	}

	if len(matched) == 0 {
		return &catalog.CallResult{Text: "no tools matched the given patterns; no change made"}, nil
	}

	ctx.Catalog.EnableDynamic(matched...)
	if ctx.NotifyListChanged != nil {
		ctx.NotifyListChanged()
	}

	return &catalog.CallResult{Text: fmt.Sprintf("enabled %d tool(s)", len(matched))}, nil
}

func availableNames(toolsets map[string][]string) []string {
	names := make([]string, 0, len(toolsets))
	for name := range toolsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
