package engine

import (
	"context"
	"encoding/json"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
	"github.com/fastmcp-me/mcp-funnel/internal/discovery"
)

// The four core tool names, per spec.md §4.6.
const (
	toolDiscoverByWords   = "discover_tools_by_words"
	toolGetToolSchema     = "get_tool_schema"
	toolBridgeToolRequest = "bridge_tool_request"
	toolLoadToolset       = "load_toolset"
)

// registerCoreTools installs the four discovery tools as KindCore catalog
// entries, respecting FunnelConfig.ExposeCoreTools (spec.md §4.6, §6).
func (e *Engine) registerCoreTools() {
	for _, def := range []struct {
		name        string
		description string
		handler     catalog.CoreHandler
	}{
		{toolDiscoverByWords, "Search the aggregated tool catalog by keyword, optionally enabling matches for listing.", e.handleDiscoverByWords},
		{toolGetToolSchema, "Return the description and input schema for a tool by its qualified or short name.", e.handleGetToolSchema},
		{toolBridgeToolRequest, "Invoke a downstream or command tool by its qualified or short name.", e.handleBridgeToolRequest},
		{toolLoadToolset, "Enable a named toolset or a set of glob patterns for listing.", e.handleLoadToolset},
	} {
		if !e.filter.CoreToolEnabled(def.name) {
			continue
		}
		e.cat.Insert(&catalog.ToolEntry{
			Qualified: catalog.QualifiedName(def.name),
			Kind:      catalog.KindCore,
			Tool: catalog.Tool{
				Name:        def.name,
				Description: def.description,
				InputSchema: coreToolSchema(def.name),
			},
			Handler: def.handler,
		})
	}
}

// coreToolSchema returns a minimal JSON Schema object for each core tool's
// arguments. These are intentionally loose: the handlers themselves perform
// validation and return isError results on malformed input.
func coreToolSchema(name string) json.RawMessage {
	switch name {
	case toolDiscoverByWords:
		return json.RawMessage(`{"type":"object","properties":{"words":{"type":"string"},"enable":{"type":"boolean"}},"required":["words"]}`)
	case toolGetToolSchema:
		return json.RawMessage(`{"type":"object","properties":{"tool":{"type":"string"}},"required":["tool"]}`)
	case toolBridgeToolRequest:
		return json.RawMessage(`{"type":"object","properties":{"tool":{"type":"string"},"arguments":{"type":"object"}},"required":["tool"]}`)
	case toolLoadToolset:
		return json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"},"tools":{"type":"array","items":{"type":"string"}}}}`)
	default:
		return json.RawMessage(`{"type":"object"}`)
	}
}

func (e *Engine) handleDiscoverByWords(ctx context.Context, ic *catalog.InvocationContext, args map[string]any) (*catalog.CallResult, error) {
	words, _ := args["words"].(string)
	enable, _ := args["enable"].(bool)
	text := discovery.DiscoverByWords(ic, words, enable)
	return &catalog.CallResult{Text: text}, nil
}

func (e *Engine) handleGetToolSchema(ctx context.Context, ic *catalog.InvocationContext, args map[string]any) (*catalog.CallResult, error) {
	tool, _ := args["tool"].(string)
	result, err := discovery.GetToolSchema(ic, tool)
	if err != nil {
		return &catalog.CallResult{Text: err.Error(), IsError: true}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return &catalog.CallResult{Text: err.Error(), IsError: true}, nil
	}
	return &catalog.CallResult{Text: string(data)}, nil
}

func (e *Engine) handleBridgeToolRequest(ctx context.Context, ic *catalog.InvocationContext, args map[string]any) (*catalog.CallResult, error) {
	tool, _ := args["tool"].(string)
	arguments, _ := args["arguments"].(map[string]any)
	return discovery.BridgeToolRequest(ctx, ic, tool, arguments), nil
}

func (e *Engine) handleLoadToolset(ctx context.Context, ic *catalog.InvocationContext, args map[string]any) (*catalog.CallResult, error) {
	name, _ := args["name"].(string)
	var patterns []string
	if raw, ok := args["tools"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				patterns = append(patterns, s)
			}
		}
	}
	input := discovery.ToolsetInput{Name: name, Patterns: patterns}
	return discovery.LoadToolset(ic, input, e.cfg.Toolsets)
}
