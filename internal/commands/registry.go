package commands

import "sync"

// Registry holds the set of enabled commands by name, so the engine can
// resolve a catalog entry's CommandKey back to the Command implementation
// that must execute it.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Add registers cmd under its own Name(). A later Add with the same name
// overwrites the earlier one; callers are expected to have already applied
// commands.enabled/commands.list filtering before calling Add.
func (r *Registry) Add(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = cmd
}

// Get returns the Command registered under name, if any.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns every registered command, in no particular order.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	return out
}
