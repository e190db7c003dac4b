package discovery

import (
	"context"
	"fmt"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
)

// BridgeToolRequest implements bridge_tool_request (spec.md §4.6): resolve
// tool (exact QualifiedName first, falling back to short-name resolution
// when allowed), then dispatch by mapping kind. It never returns a Go
// error to its caller — every failure mode becomes an isError CallResult,
// matching the spec's "never propagates exceptions to the host" rule.
func BridgeToolRequest(ctx context.Context, ic *catalog.InvocationContext, tool string, arguments map[string]any) *catalog.CallResult {
	qualified, err := resolveInput(ic.Catalog, tool, ic.AllowShortToolNames)
	if err != nil {
		return &catalog.CallResult{Text: err.Error(), IsError: true}
	}

	entry, ok := ic.Catalog.Get(qualified)
	if !ok {
		return &catalog.CallResult{
			Text:    fmt.Sprintf("tool %q not found", qualified),
			IsError: true,
		}
	}

	switch entry.Kind {
	case catalog.KindRemote:
		if ic.Remote == nil {
			return &catalog.CallResult{Text: "no remote dispatcher configured", IsError: true}
		}
		result, err := ic.Remote.CallTool(ctx, entry.SessionKey, entry.OriginalName, arguments)
		if err != nil {
			return &catalog.CallResult{Text: err.Error(), IsError: true}
		}
		return result

	case catalog.KindCommand:
		if ic.Command == nil {
			return &catalog.CallResult{Text: "no command dispatcher configured", IsError: true}
		}
		result, err := ic.Command.Execute(ctx, entry.CommandKey, entry.OriginalName, arguments)
		if err != nil {
			return &catalog.CallResult{Text: err.Error(), IsError: true}
		}
		return result

	case catalog.KindCore:
		result, err := entry.Handler(ctx, ic, arguments)
		if err != nil {
			return &catalog.CallResult{Text: err.Error(), IsError: true}
		}
		return result

	default:
		return &catalog.CallResult{Text: fmt.Sprintf("unknown mapping kind for %q", qualified), IsError: true}
	}
}
