// Package engine implements the aggregation engine and upstream MCP
// endpoint (spec.md §4.8): it orchestrates downstream connections, owns
// catalog state, and serves the host's JSON-RPC requests over stdio.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	sdk_mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
	"github.com/fastmcp-me/mcp-funnel/internal/commands"
	"github.com/fastmcp-me/mcp-funnel/internal/config"
	"github.com/fastmcp-me/mcp-funnel/internal/funnelerrors"
	"github.com/fastmcp-me/mcp-funnel/internal/mcpclient"
	"github.com/fastmcp-me/mcp-funnel/internal/wire"
)

// session pairs a live downstream session with the server name it was
// spawned under, so log lines and the catalog's SessionKey can refer to it.
type session struct {
	name      string
	transport *mcpclient.Transport
	client    *mcpclient.Session
	failed    bool
}

// Engine owns the funnel's catalog, its downstream sessions, its registered
// commands, and the upstream JSON-RPC loop over stdio.
type Engine struct {
	cfg    *config.FunnelConfig
	filter *catalog.Filter
	cat    *catalog.Catalog

	sessions map[string]*session
	commands *commands.Registry

	writeMu sync.Mutex // single writer per transport, spec.md §5
	out     io.Writer

	notifyMu        sync.Mutex
	notifyPending   bool
	notifyScheduled bool
}

// New builds an Engine from cfg. cmdRegistry may be nil if no command
// plugins are configured.
func New(cfg *config.FunnelConfig, cmdRegistry *commands.Registry) *Engine {
	filter := &catalog.Filter{
		ExposeTools:            cfg.ExposeTools,
		HideTools:              cfg.HideTools,
		AlwaysVisibleTools:     cfg.AlwaysVisibleTools,
		EnableDynamicDiscovery: cfg.EnableDynamicDiscovery,
		ExposeCoreTools:        derefStrings(cfg.ExposeCoreTools),
	}
	if cmdRegistry == nil {
		cmdRegistry = commands.NewRegistry()
	}
	return &Engine{
		cfg:      cfg,
		filter:   filter,
		cat:      catalog.New(filter),
		sessions: make(map[string]*session),
		commands: cmdRegistry,
	}
}

func derefStrings(p *[]string) []string {
	if p == nil {
		return nil
	}
	return *p
}

// invocationContext builds the capability bag core tool handlers receive.
func (e *Engine) invocationContext() *catalog.InvocationContext {
	return &catalog.InvocationContext{
		Catalog:             e.cat,
		Filter:              e.filter,
		Remote:              e,
		Command:             e,
		AllowShortToolNames: e.cfg.AllowShortToolNames,
		NotifyListChanged:   e.scheduleListChangedNotification,
	}
}

// Init runs the ordered initialization sequence of spec.md §4.8: register
// core tools, connect downstream servers concurrently (non-fatal partial
// failure), register command plugins, and only then list each connected
// session's tools into the catalog — so a command's QualifiedName is
// already present by the time a colliding remote tool is inserted, and
// Catalog.Insert's command-wins guard actually fires on a real collision.
func (e *Engine) Init(ctx context.Context) error {
	e.registerCoreTools()
	e.connectServers(ctx)
	e.registerCommands()
	e.catalogSessionTools(ctx)
	return nil
}

// connectServers spawns and initializes every configured ServerSpec
// concurrently; a per-server failure is logged and recorded, never fatal
// to the others (spec.md §4.8 step 2, §7). It only establishes sessions —
// tool listing happens later, in catalogSessionTools, after commands are
// registered.
func (e *Engine) connectServers(ctx context.Context) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, spec := range e.cfg.Servers {
		wg.Add(1)
		go func(spec config.ServerSpec) {
			defer wg.Done()
			sess, err := e.connectOne(ctx, spec)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[Engine] server %q failed to connect: %v", spec.Name, err)
				return
			}
			e.sessions[spec.Name] = sess
		}(spec)
	}
	wg.Wait()
}

// catalogSessionTools lists tools for every connected session and inserts
// them into the catalog, in cfg.Servers order, so tools/list groups them by
// session in configuration order (spec.md §4.8 step 4).
func (e *Engine) catalogSessionTools(ctx context.Context) {
	for _, spec := range e.cfg.Servers {
		sess, ok := e.sessions[spec.Name]
		if !ok {
			continue
		}
		e.registerSessionTools(ctx, sess)
	}
}

// connectOne spawns one child process and completes its initialize
// handshake under the spec's default 30s timeout.
func (e *Engine) connectOne(ctx context.Context, spec config.ServerSpec) (*session, error) {
	transport := mcpclient.NewTransport(spec.Name, spec.Command, spec.Args, spec.Env)
	if err := transport.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", funnelerrors.ErrSpawnFailed, err)
	}

	client := mcpclient.NewSession(spec.Name, transport)

	initCtx, cancel := context.WithTimeout(ctx, mcpclient.DefaultInitTimeout)
	defer cancel()
	if _, err := client.Initialize(initCtx); err != nil {
		_ = transport.Close()
		return nil, err
	}

	return &session{name: spec.Name, transport: transport, client: client}, nil
}

// registerSessionTools lists sess's tools and inserts a KindRemote mapping
// for each, per spec.md §4.4 phase 1.
func (e *Engine) registerSessionTools(ctx context.Context, sess *session) {
	tools, err := sess.client.ListTools(ctx)
	if err != nil {
		log.Printf("[Engine] server %q: tools/list failed: %v", sess.name, err)
		return
	}
	for _, t := range tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			schema = json.RawMessage("{}")
		}
		qualified := catalog.QualifiedName(fmt.Sprintf("%s__%s", sess.name, t.Name))
		e.cat.Insert(&catalog.ToolEntry{
			Qualified:    qualified,
			Kind:         catalog.KindRemote,
			ServerName:   sess.name,
			OriginalName: t.Name,
			SessionKey:   sess.name,
			Tool: catalog.Tool{
				Name:        t.Name,
				Description: fmt.Sprintf("[%s] %s", sess.name, t.Description),
				InputSchema: schema,
			},
		})
	}
}

// registerCommands registers every command in e.commands that
// commands.enabled/commands.list allow, per spec.md §6 and §4.7.
func (e *Engine) registerCommands() {
	if !e.cfg.Commands.Enabled {
		return
	}
	allowed := map[string]bool{}
	for _, name := range e.cfg.Commands.List {
		allowed[name] = true
	}
	restrict := len(e.cfg.Commands.List) > 0

	for _, cmd := range e.commands.All() {
		if restrict && !allowed[cmd.Name()] {
			continue
		}
		commands.Register(e.cat, cmd)
	}
}

// CallTool implements catalog.RemoteCaller by forwarding to the named
// session.
func (e *Engine) CallTool(ctx context.Context, sessionKey, originalName string, args map[string]any) (*catalog.CallResult, error) {
	sess, ok := e.sessions[sessionKey]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", funnelerrors.ErrSessionDisconnected, sessionKey)
	}
	result, err := sess.client.CallTool(ctx, originalName, args)
	if err != nil {
		return nil, err
	}
	return toCallResult(result), nil
}

// Execute implements catalog.CommandCaller by forwarding to the registered
// command.
func (e *Engine) Execute(ctx context.Context, commandKey, originalName string, args map[string]any) (*catalog.CallResult, error) {
	cmd, ok := e.commands.Get(commandKey)
	if !ok {
		return nil, fmt.Errorf("%w: command %q", funnelerrors.ErrToolNotFound, commandKey)
	}
	return commands.Dispatch(ctx, cmd, &catalog.ToolEntry{OriginalName: originalName}, args)
}

// toCallResult flattens an mcp-go CallToolResult's text content into the
// funnel's dispatch-agnostic CallResult.
func toCallResult(result *sdk_mcp.CallToolResult) *catalog.CallResult {
	var text string
	for _, c := range result.Content {
		if tc, ok := c.(sdk_mcp.TextContent); ok {
			if text != "" {
				text += "\n"
			}
			text += tc.Text
		}
	}
	return &catalog.CallResult{Text: text, IsError: result.IsError}
}

// Close terminates every downstream session. In-flight requests on those
// sessions fail with session_disconnected (spec.md §5).
func (e *Engine) Close() {
	for _, sess := range e.sessions {
		_ = sess.transport.Close()
	}
}

// scheduleListChangedNotification emits notifications/tools/list_changed,
// coalescing concurrent triggers: triggers that arrive while a notification
// is being emitted or within the 50ms window after it are folded into one
// follow-up notification, sent once that window ends, per spec.md §5's
// "coalescing is permitted" allowance.
func (e *Engine) scheduleListChangedNotification() {
	e.notifyMu.Lock()
	if e.notifyScheduled {
		e.notifyPending = true
		e.notifyMu.Unlock()
		return
	}
	e.notifyScheduled = true
	e.notifyMu.Unlock()

	go func() {
		e.emitListChanged()
		time.Sleep(50 * time.Millisecond)

		e.notifyMu.Lock()
		again := e.notifyPending
		e.notifyPending = false
		e.notifyScheduled = false
		e.notifyMu.Unlock()

		if again {
			e.scheduleListChangedNotification()
		}
	}()
}

func (e *Engine) emitListChanged() {
	notif, err := wire.NewNotification("notifications/tools/list_changed", nil)
	if err != nil {
		return
	}
	if err := e.writeMessage(notif); err != nil {
		log.Printf("[Engine] failed to emit tools/list_changed: %v", err)
	}
}

func (e *Engine) writeMessage(msg wire.Message) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return wire.WriteLine(e.out, msg)
}
