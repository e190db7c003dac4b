package catalog

import (
	"log"
	"sort"
	"sync"
)

// Catalog is the funnel's tool state: the single tagged-union mapping table
// from QualifiedName to ToolEntry (collapsing spec.md §3's mapping table
// plus description/definition caches, per SPEC_FULL.md's Open Question
// decision), and the DynamicallyEnabled set.
//
// Reads and writes are serialized with a single RWMutex, satisfying
// spec.md §5's "a reader never observes a half-inserted entry" requirement
// without needing an actor or event-loop discipline.
type Catalog struct {
	mu sync.RWMutex

	entries map[QualifiedName]*ToolEntry
	order   []QualifiedName // insertion order, for deterministic tools/list

	dynamicallyEnabled map[QualifiedName]bool

	filter *Filter
}

// New builds an empty Catalog governed by filter.
func New(filter *Filter) *Catalog {
	return &Catalog{
		entries:            make(map[QualifiedName]*ToolEntry),
		dynamicallyEnabled: make(map[QualifiedName]bool),
		filter:             filter,
	}
}

// Insert adds or overwrites entry's mapping. Collision policy (spec.md §3,
// §4.4): last writer wins, except a KindCommand entry is never overwritten
// by a KindRemote entry with the same QualifiedName — commands register
// before server tools are cataloged, so a collision there is a
// configuration error and the command keeps priority. Insert logs a warning
// in that case and reports false.
func (c *Catalog) Insert(entry *ToolEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, exists := c.entries[entry.Qualified]
	if exists && existing.Kind == KindCommand && entry.Kind == KindRemote {
		log.Printf("[Catalog] qualified name %q from server %q collides with command %q; command wins",
			entry.Qualified, entry.ServerName, existing.ServerName)
		return false
	}

	if !exists {
		c.order = append(c.order, entry.Qualified)
	}
	c.entries[entry.Qualified] = entry
	return true
}

// Get returns the entry for name, if any.
func (c *Catalog) Get(name QualifiedName) (*ToolEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// All returns every entry in insertion order. Callers must not mutate the
// returned entries.
func (c *Catalog) All() []*ToolEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ToolEntry, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name])
	}
	return out
}

// IsDynamicallyEnabled reports whether name is in the DynamicallyEnabled
// set. Meaningful only when EnableDynamicDiscovery is on (spec.md §3).
func (c *Catalog) IsDynamicallyEnabled(name QualifiedName) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dynamicallyEnabled[name]
}

// EnableDynamic adds names to the DynamicallyEnabled set. Entries are never
// automatically removed (spec.md §3).
func (c *Catalog) EnableDynamic(names ...QualifiedName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		c.dynamicallyEnabled[n] = true
	}
}

// Listable reports whether name should appear in tools/list right now,
// combining the filter configuration with the current DynamicallyEnabled
// membership. Hidden entries (legacy command aliases) are never listable
// regardless of filter configuration.
func (c *Catalog) Listable(name QualifiedName) bool {
	c.mu.RLock()
	entry, ok := c.entries[name]
	dyn := c.dynamicallyEnabled[name]
	c.mu.RUnlock()

	if !ok || entry.Hidden {
		return false
	}
	// Core tools are gated once, at registration, by CoreToolEnabled; once
	// present in the catalog they are always listable and never subject to
	// expose/hide/alwaysVisible (spec.md §4.4).
	if entry.Kind == KindCore {
		return true
	}
	return c.filter.Listable(name, dyn)
}

// ListableEntries returns every entry currently listable, in the order
// spec.md §4.8 requires: core tools first, then remote tools, then command
// tools. Within each kind, catalog insertion order is kept, so remote tools
// stay grouped by session in the order their sessions were cataloged.
func (c *Catalog) ListableEntries() []*ToolEntry {
	all := c.All()
	out := make([]*ToolEntry, 0, len(all))
	for _, e := range all {
		if c.Listable(e.Qualified) {
			out = append(out, e)
		}
	}
	rank := map[Kind]int{KindCore: 0, KindRemote: 1, KindCommand: 2}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Kind] < rank[out[j].Kind]
	})
	return out
}

// DescriptionEntries returns the entries that belong in the description and
// definition caches: every non-hidden entry, independent of its current
// Listable status. Matches spec.md §3's invariant that the description and
// definition cache key sets are identical (both derive from this one
// predicate) and spec.md §8's dynamic-gating scenario, where
// discover_tools_by_words must find tools that are not yet listable —
// hiding something from tools/list is a visibility decision, not a
// searchability one. Legacy command aliases (Hidden) are the only entries
// excluded, per spec.md §4.7.
func (c *Catalog) DescriptionEntries() []*ToolEntry {
	all := c.All()
	out := make([]*ToolEntry, 0, len(all))
	for _, e := range all {
		if !e.Hidden {
			out = append(out, e)
		}
	}
	return out
}

// SearchableEntries returns every entry eligible for
// discover_tools_by_words scoring, sorted by QualifiedName to give the
// search's tie-break rule (ascending QualifiedName) a stable input order.
func (c *Catalog) SearchableEntries() []*ToolEntry {
	entries := c.DescriptionEntries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Qualified < entries[j].Qualified
	})
	return entries
}
