package catalog

// Filter holds the glob-pattern configuration that decides whether a
// QualifiedName is listable in tools/list (spec.md §4.4).
type Filter struct {
	ExposeTools        []string
	HideTools          []string
	AlwaysVisibleTools []string

	EnableDynamicDiscovery bool

	// ExposeCoreTools: nil means "all core tools enabled" (spec's default),
	// non-nil (including empty) means "enabled iff a pattern matches".
	ExposeCoreTools []string
}

// Listable computes whether name should appear in tools/list, given whether
// it is currently in the DynamicallyEnabled set. It is the single listing
// decision function: Catalog.Listable calls it for every non-core entry,
// and no other code path repeats the dynamic-discovery gating.
func (f *Filter) Listable(name QualifiedName, dynamicallyEnabled bool) bool {
	s := string(name)

	if MatchAny(f.AlwaysVisibleTools, s) {
		return true
	}

	if f.EnableDynamicDiscovery {
		return dynamicallyEnabled
	}

	if len(f.ExposeTools) > 0 {
		return MatchAny(f.ExposeTools, s)
	}
	if len(f.HideTools) > 0 {
		return !MatchAny(f.HideTools, s)
	}
	return true
}

// CoreToolEnabled decides whether a core tool named name is enabled, per
// the ExposeCoreTools rule in spec.md §4.6: absent (nil) enables all four,
// an empty non-nil list enables none, otherwise a pattern match is
// required. Core tools are never subject to expose/hide/alwaysVisible.
func (f *Filter) CoreToolEnabled(name string) bool {
	if f.ExposeCoreTools == nil {
		return true
	}
	return MatchAny(f.ExposeCoreTools, name)
}
