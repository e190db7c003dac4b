// Package funnelerrors defines the funnel's error taxonomy (by kind, not by
// type name) so callers can distinguish failure classes with errors.Is
// without depending on string matching.
package funnelerrors

import "errors"

// Sentinel kinds. Wrap these with fmt.Errorf("...: %w", Err*) to attach
// context while keeping errors.Is comparisons working.
var (
	// ErrConfigInvalid marks a structurally invalid configuration, or one
	// that references a toolset that does not exist. Fatal to startup.
	ErrConfigInvalid = errors.New("config_invalid")

	// ErrSpawnFailed marks a child process that could not be started.
	// Per-session fatal; other sessions continue.
	ErrSpawnFailed = errors.New("spawn_failed")

	// ErrSessionInitFailed marks an initialize handshake that failed or
	// timed out. Per-session fatal.
	ErrSessionInitFailed = errors.New("session_init_failed")

	// ErrSessionDisconnected marks a session whose child exited or whose
	// transport closed. In-flight requests on that session fail with this.
	ErrSessionDisconnected = errors.New("session_disconnected")

	// ErrToolNotFound marks a QualifiedName unknown at dispatch time.
	ErrToolNotFound = errors.New("tool_not_found")

	// ErrToolCallFailed marks a downstream protocol error or a transport
	// failure mid-call.
	ErrToolCallFailed = errors.New("tool_call_failed")

	// ErrInvalidArguments marks arguments a core tool or command rejected.
	ErrInvalidArguments = errors.New("invalid_arguments")

	// ErrAmbiguousShortName marks a short name resolving to more than one
	// QualifiedName.
	ErrAmbiguousShortName = errors.New("ambiguous_short_name")
)
