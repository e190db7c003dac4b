package mcpclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastmcp-me/mcp-funnel/internal/funnelerrors"
)

// fakeServerScript returns a shell script that reads one JSON-RPC request
// line from stdin and writes back a single canned response line, acting as
// a minimal scripted downstream MCP server for one round trip.
func fakeServerScript(response string) string {
	return "read line; printf '%s\\n' '" + response + "'"
}

func newTestSession(t *testing.T, script string) *Session {
	t.Helper()
	tr := newShellTransport(t, script)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return NewSession("test-server", tr)
}

func TestSession_Initialize(t *testing.T) {
	resp := `{"jsonrpc":"2.0","id":1,"result":{"protocolVersion":"2024-11-05","capabilities":{},"serverInfo":{"name":"fake","version":"1.0"}}}`
	s := newTestSession(t, fakeServerScript(resp))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := s.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.ServerInfo.Name != "fake" {
		t.Errorf("ServerInfo.Name = %q, want fake", result.ServerInfo.Name)
	}
}

func TestSession_Initialize_ErrorResponse(t *testing.T) {
	resp := `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`
	s := newTestSession(t, fakeServerScript(resp))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.Initialize(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, funnelerrors.ErrSessionInitFailed) {
		t.Errorf("error = %v, want wrapping ErrSessionInitFailed", err)
	}
}

func TestSession_ListTools(t *testing.T) {
	resp := `{"jsonrpc":"2.0","id":1,"result":{"tools":[{"name":"search","description":"search the web","inputSchema":{"type":"object"}}]}}`
	s := newTestSession(t, fakeServerScript(resp))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tools, err := s.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "search" {
		t.Fatalf("tools = %+v", tools)
	}
}

func TestSession_CallTool(t *testing.T) {
	resp := `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"42"}],"isError":false}}`
	s := newTestSession(t, fakeServerScript(resp))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := s.CallTool(ctx, "search", map[string]any{"q": "go"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Error("IsError = true, want false")
	}
	if len(result.Content) != 1 {
		t.Fatalf("Content = %+v", result.Content)
	}
}

func TestSession_CallTool_DownstreamReportsError(t *testing.T) {
	// A downstream tool reporting isError=true is a normal successful
	// return, not a tool_call_failed error — spec.md §4.2.
	resp := `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"bad input"}],"isError":true}}`
	s := newTestSession(t, fakeServerScript(resp))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := s.CallTool(ctx, "search", nil)
	if err != nil {
		t.Fatalf("CallTool returned infra error for a tool-level failure: %v", err)
	}
	if !result.IsError {
		t.Error("IsError = false, want true")
	}
}

func TestSession_CallTool_TransportFailure(t *testing.T) {
	// Reads the request (so Send succeeds) then exits without replying,
	// so the in-flight call must fail with session_disconnected.
	s := newTestSession(t, "read line; exit 1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.CallTool(ctx, "search", nil)
	if err == nil {
		t.Fatal("expected error when transport closes without replying")
	}
	if !errors.Is(err, funnelerrors.ErrSessionDisconnected) {
		t.Errorf("error = %v, want wrapping ErrSessionDisconnected", err)
	}
}

func TestSession_ContextCancelDiscardsCorrelation(t *testing.T) {
	// sleep forever: no reply will ever arrive, so the call must return
	// once ctx is cancelled rather than blocking.
	s := newTestSession(t, "read line; sleep 10")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.CallTool(ctx, "search", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}
