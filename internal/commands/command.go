// Package commands implements the funnel's in-process command plugin host
// (spec.md §4.7): commands expose one or more MCP tools under a command
// namespace, registered into the catalog alongside remote server tools.
package commands

import (
	"context"
	"fmt"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
)

// Command is an in-process component exposing one or more MCP tools under
// its own namespace. The CLI-facing ExecuteViaCLI method described in
// spec.md §4.7 is out of core scope and is not part of this interface.
type Command interface {
	// Name is unique among registered commands.
	Name() string
	Description() string
	// Definitions returns the ordered list of Tool declarations this
	// command exposes.
	Definitions() []catalog.Tool
	// Execute runs toolName with args and returns the funnel's
	// dispatch-agnostic call result. Any error returned here is converted
	// by Dispatch into an isError CallResult, preserving the error's
	// message, per spec.md §4.7's error-conversion rule.
	Execute(ctx context.Context, toolName string, args map[string]any) (*catalog.CallResult, error)
}

// qualifyTool computes the QualifiedName(s) a single tool of command gets:
// the compact form when command exposes exactly one tool sharing the
// command's name, otherwise "<command>_<tool>"; plus the legacy alias
// "cmd__<command>__<tool>" (or "cmd__<command>" in the compact case),
// registered invocable-only (spec.md §4.7).
func qualifyTool(cmdName, toolName string, compact bool) (primary, legacy catalog.QualifiedName) {
	if compact {
		return catalog.QualifiedName(cmdName), catalog.QualifiedName(fmt.Sprintf("cmd__%s", cmdName))
	}
	return catalog.QualifiedName(fmt.Sprintf("%s_%s", cmdName, toolName)),
		catalog.QualifiedName(fmt.Sprintf("cmd__%s__%s", cmdName, toolName))
}

// Register inserts every tool cmd exposes into cat: the listable primary
// QualifiedName plus an invocable-only legacy alias, per spec.md §4.7.
// Each entry carries cmd's name as CommandKey and the tool's original name
// as OriginalName, from which the engine looks the command up and calls
// Dispatch.
func Register(cat *catalog.Catalog, cmd Command) {
	defs := cmd.Definitions()
	compact := len(defs) == 1 && defs[0].Name == cmd.Name()

	for _, def := range defs {
		primary, legacy := qualifyTool(cmd.Name(), def.Name, compact)

		base := &catalog.ToolEntry{
			Kind:         catalog.KindCommand,
			ServerName:   cmd.Name(),
			CommandKey:   cmd.Name(),
			OriginalName: def.Name,
			Tool:         def,
		}

		primaryEntry := *base
		primaryEntry.Qualified = primary
		cat.Insert(&primaryEntry)

		legacyEntry := *base
		legacyEntry.Qualified = legacy
		legacyEntry.Hidden = true
		cat.Insert(&legacyEntry)
	}
}

// Dispatch runs entry (a KindCommand catalog entry) against cmd.
func Dispatch(ctx context.Context, cmd Command, entry *catalog.ToolEntry, args map[string]any) (*catalog.CallResult, error) {
	result, err := cmd.Execute(ctx, entry.OriginalName, args)
	if err != nil {
		return &catalog.CallResult{Text: err.Error(), IsError: true}, nil
	}
	return result, nil
}
