package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	sdk_mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/fastmcp-me/mcp-funnel/internal/funnelerrors"
	"github.com/fastmcp-me/mcp-funnel/internal/wire"
)

// DefaultInitTimeout is the handshake deadline spec.md §5 specifies when the
// caller does not supply its own context deadline.
const DefaultInitTimeout = 30 * time.Second

// clientName/clientVersion identify the funnel to every downstream server it
// spawns, per the initialize handshake in spec.md §4.2.
const (
	clientName    = "mcp-funnel"
	clientVersion = "0.1.0"
)

// pendingCall is the state kept for one in-flight request awaiting its
// correlated response.
type pendingCall struct {
	resultCh chan wire.Message
}

// Session is the minimum MCP client needed to perform initialize, tools/list
// and tools/call against one downstream server, correlating replies by
// integer request id over a Transport (spec.md §4.2).
//
// Built on Transport rather than mcp-go's client package: that package
// performs its own framing and request/response bookkeeping internally,
// leaving no seam for the per-line diagnostic reclassification spec.md §4.1
// requires. The sdk_mcp type package is still used here for its JSON-shaped
// request/result structs, which saves hand-rolling the MCP wire vocabulary.
type Session struct {
	name      string
	transport *Transport

	nextID int64

	mu      sync.Mutex
	pending map[int64]*pendingCall
	closed  bool
}

// NewSession wraps transport in a correlating JSON-RPC session named name
// (the downstream server's configured name, used only for error context).
func NewSession(name string, transport *Transport) *Session {
	s := &Session{
		name:      name,
		transport: transport,
		pending:   make(map[int64]*pendingCall),
	}
	transport.OnMessage(s.handleMessage)
	transport.OnClose(s.handleClose)
	return s
}

// handleMessage routes a response to its waiting caller by id. Notifications
// and requests from the downstream side (neither occurs in the current
// protocol surface) are ignored rather than causing an error.
func (s *Session) handleMessage(msg wire.Message) {
	if !msg.IsResponse() {
		return
	}
	var id int64
	if err := json.Unmarshal(msg.ID, &id); err != nil {
		return
	}

	s.mu.Lock()
	call, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !ok {
		// Late reply to a call whose context was already cancelled; drop it
		// silently per spec.md §4.2's cancellation contract.
		return
	}
	call.resultCh <- msg
}

// handleClose fails every pending call with session_disconnected once the
// child process exits or the transport is closed out from under us.
func (s *Session) handleClose() {
	s.mu.Lock()
	s.closed = true
	pending := s.pending
	s.pending = make(map[int64]*pendingCall)
	s.mu.Unlock()

	for _, call := range pending {
		close(call.resultCh)
	}
}

// call sends a request and blocks for its correlated response, respecting
// ctx cancellation. On cancellation the pending entry is discarded; a later
// reply (if one ever arrives) is dropped by handleMessage.
func (s *Session) call(ctx context.Context, method string, params, result any) error {
	id := atomic.AddInt64(&s.nextID, 1)

	req, err := wire.NewRequest(id, method, params)
	if err != nil {
		return fmt.Errorf("mcpclient: encode %s request to %q: %w", method, s.name, err)
	}

	pc := &pendingCall{resultCh: make(chan wire.Message, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("mcpclient: %q: %w", s.name, funnelerrors.ErrSessionDisconnected)
	}
	s.pending[id] = pc
	s.mu.Unlock()

	if err := s.transport.Send(req); err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return fmt.Errorf("mcpclient: send %s to %q: %w", method, s.name, err)
	}

	select {
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return ctx.Err()

	case resp, ok := <-pc.resultCh:
		if !ok {
			return fmt.Errorf("mcpclient: %q: %w", s.name, funnelerrors.ErrSessionDisconnected)
		}
		if resp.Error != nil {
			return fmt.Errorf("mcpclient: %s on %q: %w: %s", method, s.name, funnelerrors.ErrToolCallFailed, resp.Error.Message)
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("mcpclient: decode %s result from %q: %w", method, s.name, err)
		}
		return nil
	}
}

// Initialize performs the MCP handshake, failing with session_init_failed on
// timeout or transport error. Callers that want the spec's default 30s
// ceiling should pass a context built with DefaultInitTimeout.
func (s *Session) Initialize(ctx context.Context) (*sdk_mcp.InitializeResult, error) {
	params := sdk_mcp.InitializeRequest{}
	params.Params.ProtocolVersion = sdk_mcp.LATEST_PROTOCOL_VERSION
	params.Params.ClientInfo = sdk_mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}

	var result sdk_mcp.InitializeResult
	if err := s.call(ctx, "initialize", params.Params, &result); err != nil {
		return nil, fmt.Errorf("mcpclient: initialize %q: %w: %v", s.name, funnelerrors.ErrSessionInitFailed, err)
	}
	return &result, nil
}

// ListTools returns the ordered tool declarations this session's downstream
// server advertises.
func (s *Session) ListTools(ctx context.Context) ([]sdk_mcp.Tool, error) {
	var result sdk_mcp.ListToolsResult
	if err := s.call(ctx, "tools/list", sdk_mcp.ListToolsRequest{}.Params, &result); err != nil {
		return nil, fmt.Errorf("mcpclient: tools/list %q: %w", s.name, err)
	}
	return result.Tools, nil
}

// CallTool invokes name with args on the downstream server and returns the
// MCP result verbatim, including any isError content — per spec.md §4.2,
// only network/parse/protocol failures surface as tool_call_failed; a
// downstream tool reporting its own failure is a normal successful return.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*sdk_mcp.CallToolResult, error) {
	req := sdk_mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var result sdk_mcp.CallToolResult
	if err := s.call(ctx, "tools/call", req.Params, &result); err != nil {
		return nil, fmt.Errorf("mcpclient: tools/call %q on %q: %w", name, s.name, err)
	}
	return &result, nil
}

// Close terminates the underlying transport and fails any call still
// in flight with session_disconnected.
func (s *Session) Close() error {
	return s.transport.Close()
}
