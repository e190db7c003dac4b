package catalog

import (
	"context"
	"encoding/json"
)

// QualifiedName uniquely identifies a tool within the funnel at any given
// time: "<serverName>__<toolName>" for server-sourced tools,
// "<commandName>" or "<commandName>_<toolName>" for command-sourced tools,
// "cmd__<commandName>__<toolName>" for legacy command aliases (spec.md §3).
type QualifiedName string

// Kind distinguishes how a QualifiedName's ToolEntry is dispatched.
type Kind int

const (
	// KindRemote forwards to a ClientSession.
	KindRemote Kind = iota
	// KindCommand is executed in-process by a command plugin.
	KindCommand
	// KindCore is executed by a built-in discovery tool.
	KindCore
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindCommand:
		return "command"
	case KindCore:
		return "core"
	default:
		return "unknown"
	}
}

// Tool is an MCP tool declaration: immutable for the lifetime of its
// session (spec.md §3).
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// CoreHandler executes a core discovery tool invocation. ctx carries host
// request cancellation through to any remote dispatch a handler performs
// (e.g. bridge_tool_request forwarding to a ClientSession).
type CoreHandler func(ctx context.Context, ic *InvocationContext, args map[string]any) (*CallResult, error)

// CallResult is the funnel's dispatch-agnostic view of an MCP tool call
// reply: text content plus the MCP isError flag. Mapping kinds translate to
// and from this so the filter/discovery layer never needs to know about
// mcp-go's Content interface directly.
type CallResult struct {
	Text    string
	IsError bool
}

// ToolEntry is the tagged union spec.md §9's Design Note suggests in place
// of three separately-keyed maps: one struct per QualifiedName carrying
// both its dispatch mapping and its cached Tool declaration, tagged by Kind.
//
// ServerName is the owning server name for KindRemote entries, or the
// command name for KindCommand entries; it is what discovery scoring and
// the "[serverName]" listing prefix use.
type ToolEntry struct {
	Qualified QualifiedName
	Kind      Kind
	Tool      Tool

	// ServerName is the owning server or command name (empty for core
	// tools, which have no namespace prefix).
	ServerName string

	// OriginalName is the tool's name as known to its remote session or
	// command plugin, before qualification.
	OriginalName string

	// SessionKey identifies which ClientSession a KindRemote entry belongs
	// to; the engine resolves it to an actual session at dispatch time so
	// this package stays free of any dependency on mcpclient.
	SessionKey string

	// CommandKey identifies which registered command a KindCommand entry
	// belongs to.
	CommandKey string

	// Handler executes a KindCore entry directly.
	Handler CoreHandler

	// Listable is not set or read by Catalog: listability is computed on
	// demand by Catalog.Listable from the Filter and the current
	// DynamicallyEnabled membership.
	Listable bool

	// Hidden marks an entry intentionally excluded from caches while
	// remaining invocable (legacy command aliases; spec.md §4.7).
	Hidden bool
}

// RemoteCaller forwards a tools/call to the ClientSession identified by
// sessionKey. Implemented by the engine, which owns the actual sessions;
// this narrow interface keeps catalog/discovery free of any dependency on
// mcpclient (spec.md §9's "graph shape" design note).
type RemoteCaller interface {
	CallTool(ctx context.Context, sessionKey, originalName string, args map[string]any) (*CallResult, error)
}

// CommandCaller dispatches to the registered command identified by
// commandKey. Implemented by the engine over a commands.Registry.
type CommandCaller interface {
	Execute(ctx context.Context, commandKey, originalName string, args map[string]any) (*CallResult, error)
}

// InvocationContext is the handle a core tool handler receives to read and
// mutate catalog state, reach remote sessions and commands, and request
// notification emission, without importing the engine package (which
// imports catalog). Treat it as a narrow capability bag per spec.md §9.
type InvocationContext struct {
	Catalog *Catalog
	Filter  *Filter
	Remote  RemoteCaller
	Command CommandCaller

	// AllowShortToolNames mirrors FunnelConfig.AllowShortToolNames so core
	// tools don't need their own copy of the configuration.
	AllowShortToolNames bool

	// NotifyListChanged is called by a core tool after it mutates
	// DynamicallyEnabled, so the engine can emit
	// notifications/tools/list_changed (spec.md §4.5, §4.6).
	NotifyListChanged func()
}
