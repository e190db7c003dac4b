package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
	"github.com/fastmcp-me/mcp-funnel/internal/discovery"
	"github.com/fastmcp-me/mcp-funnel/internal/wire"
)

// codeToolNotFound and codeToolCallFailed are the JSON-RPC error codes the
// upstream endpoint raises for a direct tools/call that cannot be resolved
// or whose remote dispatch fails (spec.md §7: "raised as a protocol error
// for direct tools/call", unlike bridge_tool_request's isError wrapping).
// Both sit in the implementation-defined server-error range.
const (
	codeToolNotFound   = -32001
	codeToolCallFailed = -32002
)

// protocolVersion is the MCP protocol version the funnel's upstream
// endpoint advertises to the host.
const protocolVersion = "2024-11-05"

// wireTool is the tools/list entry shape sent to the host. InputSchema is
// carried as raw JSON rather than decoded into a struct: the funnel never
// needs to interpret a downstream tool's schema, only forward it verbatim
// (spec.md §3's "schemas are opaque" invariant).
type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type listToolsResult struct {
	Tools []wireTool `json:"tools"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callToolResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Serve runs the upstream JSON-RPC loop: read newline-framed requests from
// in, dispatch them, and write newline-framed responses to out, until in is
// exhausted or ctx is cancelled. Serve also owns out for notification
// emission for the lifetime of the call.
func (e *Engine) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	e.writeMu.Lock()
	e.out = out
	e.writeMu.Unlock()

	// A read blocked on in would not notice cancellation, so closing in
	// (when it can be closed) on ctx.Done unblocks the loop below.
	if c, ok := in.(io.Closer); ok {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				_ = c.Close()
			case <-stop:
			}
		}()
	}

	scanner := wire.LineReader(in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg wire.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Printf("[Engine] malformed request line: %v", err)
			continue
		}
		if !msg.IsRequest() {
			// Notifications from the host (e.g. notifications/initialized)
			// need no reply.
			continue
		}

		go e.handleRequest(ctx, msg)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return scanner.Err()
}

// handleRequest dispatches one host request and writes its response.
// Requests run concurrently; responses are correlated by id so the host
// sees out-of-order replies exactly as spec.md §5 permits.
func (e *Engine) handleRequest(ctx context.Context, req wire.Message) {
	var resp wire.Message
	switch req.Method {
	case "initialize":
		resp = e.respondInitialize(req)
	case "tools/list":
		resp = e.respondToolsList(req)
	case "tools/call":
		resp = e.respondToolsCall(ctx, req)
	case "ping":
		result, _ := wire.NewResult(req.ID, map[string]any{})
		resp = result
	default:
		resp = wire.NewError(req.ID, wire.CodeMethodNotFound, "method not found: "+req.Method)
	}

	if err := e.writeMessage(resp); err != nil {
		log.Printf("[Engine] failed to write response for %s: %v", req.Method, err)
	}
}

func (e *Engine) respondInitialize(req wire.Message) wire.Message {
	result := initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": true},
		},
		ServerInfo: serverInfo{Name: "mcp-funnel", Version: "0.1.0"},
	}
	msg, err := wire.NewResult(req.ID, result)
	if err != nil {
		return wire.NewError(req.ID, wire.CodeInternalError, err.Error())
	}
	return msg
}

func (e *Engine) respondToolsList(req wire.Message) wire.Message {
	var tools []wireTool
	for _, entry := range e.cat.ListableEntries() {
		tools = append(tools, wireTool{
			Name:        string(entry.Qualified),
			Description: entry.Tool.Description,
			InputSchema: entry.Tool.InputSchema,
		})
	}
	msg, err := wire.NewResult(req.ID, listToolsResult{Tools: tools})
	if err != nil {
		return wire.NewError(req.ID, wire.CodeInternalError, err.Error())
	}
	return msg
}

// respondToolsCall resolves and dispatches a direct tools/call. Resolution
// mirrors BridgeToolRequest (exact QualifiedName first, then short-name
// when allowed) and kind-based dispatch mirrors it too, but the error
// handling diverges deliberately (spec.md §4.8, §7): an unresolved name or
// a remote session/transport failure is raised as a JSON-RPC protocol
// error here, not wrapped into an isError CallToolResult — only
// bridge_tool_request does that wrapping. Command errors are already
// converted to isError results by commands.Dispatch, and core tool
// handlers return their CallToolResult directly, so both flow through
// unchanged.
func (e *Engine) respondToolsCall(ctx context.Context, req wire.Message) wire.Message {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return wire.NewError(req.ID, wire.CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.ToolCallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.ToolCallTimeout)*time.Second)
		defer cancel()
	}

	qualified, err := e.resolveDirectCall(params.Name)
	if err != nil {
		return wire.NewError(req.ID, codeToolNotFound, err.Error())
	}

	entry, ok := e.cat.Get(qualified)
	if !ok {
		return wire.NewError(req.ID, codeToolNotFound, fmt.Sprintf("tool %q not found", qualified))
	}

	var result *catalog.CallResult
	switch entry.Kind {
	case catalog.KindRemote:
		result, err = e.CallTool(callCtx, entry.SessionKey, entry.OriginalName, params.Arguments)
		if err != nil {
			return wire.NewError(req.ID, codeToolCallFailed, err.Error())
		}
	case catalog.KindCommand:
		result, err = e.Execute(callCtx, entry.CommandKey, entry.OriginalName, params.Arguments)
		if err != nil {
			// commands.Dispatch already converts the command's own errors
			// into isError results; reaching a Go error here means the
			// command itself could not be found, which is a resolution
			// failure, not a wrapped command error.
			return wire.NewError(req.ID, codeToolNotFound, err.Error())
		}
	case catalog.KindCore:
		result, err = entry.Handler(callCtx, e.invocationContext(), params.Arguments)
		if err != nil {
			result = &catalog.CallResult{Text: err.Error(), IsError: true}
		}
	default:
		return wire.NewError(req.ID, wire.CodeInternalError, fmt.Sprintf("unknown mapping kind for %q", qualified))
	}

	msg, err := wire.NewResult(req.ID, callToolResult{
		Content: []textContent{{Type: "text", Text: result.Text}},
		IsError: result.IsError,
	})
	if err != nil {
		return wire.NewError(req.ID, wire.CodeInternalError, err.Error())
	}
	return msg
}

// resolveDirectCall applies exact-match-first resolution: an exact
// QualifiedName hit always wins; only on a miss, and when allowed, does it
// fall back to short-name resolution. Mirrors discovery's resolveInput,
// which is unexported and therefore not directly callable here.
func (e *Engine) resolveDirectCall(tool string) (catalog.QualifiedName, error) {
	if _, ok := e.cat.Get(catalog.QualifiedName(tool)); ok {
		return catalog.QualifiedName(tool), nil
	}
	if !e.cfg.AllowShortToolNames {
		return "", fmt.Errorf("tool %q not found", tool)
	}
	return discovery.ResolveShortName(e.cat, tool)
}
