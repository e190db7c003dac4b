// Command funnel is the mcp-funnel process entrypoint: it loads
// configuration, brings up the aggregation engine, and serves the upstream
// MCP endpoint over stdio until the host disconnects or it is signaled to
// shut down.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastmcp-me/mcp-funnel/internal/commands"
	"github.com/fastmcp-me/mcp-funnel/internal/config"
	"github.com/fastmcp-me/mcp-funnel/internal/engine"
	pkgconfig "github.com/fastmcp-me/mcp-funnel/pkg/config"
)

// Exit codes: 0 success, 1 configuration or unrecoverable runtime error.
// Downstream tool failures reach the host as isError results while the
// server keeps running, so no exit code is used for them. All
// startup/shutdown logging goes to stderr via log.Printf — stdout is
// reserved exclusively for the JSON-RPC protocol stream.
const (
	exitOK   = 0
	exitFail = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	pkgconfig.LoadEnv()

	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("[funnel] failed to load config %q: %v", cfgPath, err)
		return exitFail
	}
	log.Printf("[funnel] loaded config %q: %d server(s) configured", cfgPath, len(cfg.Servers))

	reg := commands.NewRegistry()
	eng := engine.New(cfg, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Init(ctx); err != nil {
		log.Printf("[funnel] engine init failed: %v", err)
		return exitFail
	}
	defer eng.Close()

	log.Printf("[funnel] serving MCP requests over stdio")
	err = eng.Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[funnel] serve loop ended with error: %v", err)
		return exitFail
	}

	log.Printf("[funnel] shutting down")
	return exitOK
}
