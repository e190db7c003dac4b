// Package config loads and normalizes the funnel's FunnelConfig document
// (spec.md §6): downstream server topology, filter patterns, toolsets, and
// command-plugin selection.
package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fastmcp-me/mcp-funnel/internal/funnelerrors"
)

// DefaultPath is used when FUNNEL_CONFIG is unset.
const DefaultPath = "funnel.yaml"

// ServerSpec describes one downstream MCP server (spec.md §3).
type ServerSpec struct {
	Name    string            `yaml:"name,omitempty"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// CommandsConfig governs in-process command plugin registration
// (spec.md §6).
type CommandsConfig struct {
	Enabled bool     `yaml:"enabled"`
	List    []string `yaml:"list,omitempty"`
}

// rawFunnelConfig mirrors the on-disk document shape before servers are
// normalized out of their map-or-list ambiguity.
type rawFunnelConfig struct {
	Servers yaml.Node `yaml:"servers"`

	HideTools          []string `yaml:"hideTools,omitempty"`
	ExposeTools        []string `yaml:"exposeTools,omitempty"`
	AlwaysVisibleTools []string `yaml:"alwaysVisibleTools,omitempty"`

	EnableDynamicDiscovery bool `yaml:"enableDynamicDiscovery,omitempty"`

	// ExposeCoreTools uses a pointer so "absent" (nil) and "present but
	// empty" ([]string{}) are distinguishable, per spec.md §6.
	ExposeCoreTools *[]string `yaml:"exposeCoreTools,omitempty"`

	AllowShortToolNames bool                `yaml:"allowShortToolNames,omitempty"`
	Toolsets            map[string][]string `yaml:"toolsets,omitempty"`
	Commands            CommandsConfig      `yaml:"commands,omitempty"`

	ToolCallTimeoutSeconds int `yaml:"toolCallTimeoutSeconds,omitempty"`

	// Legacy fields accepted but ignored, per spec.md §6.
	HackyDiscovery        *bool `yaml:"hackyDiscovery,omitempty"`
	LegacyEnableDiscovery *bool `yaml:"enable_dynamic_discovery,omitempty"`
}

// FunnelConfig is the funnel's normalized root configuration (spec.md §6).
type FunnelConfig struct {
	Servers []ServerSpec

	HideTools          []string
	ExposeTools        []string
	AlwaysVisibleTools []string

	EnableDynamicDiscovery bool

	// ExposeCoreTools: nil means all four core tools enabled (the spec's
	// default); non-nil (including empty) restricts to pattern matches.
	ExposeCoreTools *[]string

	AllowShortToolNames bool
	Toolsets            map[string][]string
	Commands            CommandsConfig

	// ToolCallTimeout is SPEC_FULL.md's Open Question decision 4: a
	// configurable ceiling on tools/call dispatch. Zero means no timeout,
	// matching spec.md §5's "no timeout is imposed in the core" default.
	ToolCallTimeout int
}

// Path returns the configuration file path: FUNNEL_CONFIG if set, else
// DefaultPath, per SPEC_FULL.md's Configuration section.
func Path() string {
	if p := os.Getenv("FUNNEL_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and normalizes the FunnelConfig document at path.
func Load(path string) (*FunnelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w: %v", path, funnelerrors.ErrConfigInvalid, err)
	}

	var raw rawFunnelConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w: %v", path, funnelerrors.ErrConfigInvalid, err)
	}

	servers, err := normalizeServers(raw.Servers)
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w: %v", path, funnelerrors.ErrConfigInvalid, err)
	}
	if err := validateServers(servers); err != nil {
		return nil, fmt.Errorf("config: %q: %w: %v", path, funnelerrors.ErrConfigInvalid, err)
	}

	if raw.HackyDiscovery != nil {
		log.Printf("[Config] WARNING: %q is a legacy field and is ignored", "hackyDiscovery")
	}
	if raw.LegacyEnableDiscovery != nil {
		log.Printf("[Config] WARNING: %q is a legacy field and is ignored; use enableDynamicDiscovery", "enable_dynamic_discovery")
	}

	if err := validateToolsets(raw.Toolsets); err != nil {
		return nil, fmt.Errorf("config: %q: %w: %v", path, funnelerrors.ErrConfigInvalid, err)
	}

	return &FunnelConfig{
		Servers:                servers,
		HideTools:              raw.HideTools,
		ExposeTools:            raw.ExposeTools,
		AlwaysVisibleTools:     raw.AlwaysVisibleTools,
		EnableDynamicDiscovery: raw.EnableDynamicDiscovery,
		ExposeCoreTools:        raw.ExposeCoreTools,
		AllowShortToolNames:    raw.AllowShortToolNames,
		Toolsets:               raw.Toolsets,
		Commands:               raw.Commands,
		ToolCallTimeout:        raw.ToolCallTimeoutSeconds,
	}, nil
}

// normalizeServers accepts either a YAML sequence of ServerSpec or a
// mapping of name -> ServerSpec-without-name, producing the list form with
// the map key installed as Name (spec.md §6).
func normalizeServers(node yaml.Node) ([]ServerSpec, error) {
	switch node.Kind {
	case 0:
		return nil, nil

	case yaml.SequenceNode:
		var list []ServerSpec
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("servers: %w", err)
		}
		return list, nil

	case yaml.MappingNode:
		named := make(map[string]ServerSpec)
		if err := node.Decode(&named); err != nil {
			return nil, fmt.Errorf("servers: %w", err)
		}
		// Map iteration order is nondeterministic; sort by name so
		// spawn order (and thus log interleaving) is reproducible.
		names := make([]string, 0, len(named))
		for name := range named {
			names = append(names, name)
		}
		sortStrings(names)

		list := make([]ServerSpec, 0, len(named))
		for _, name := range names {
			spec := named[name]
			spec.Name = name
			list = append(list, spec)
		}
		return list, nil

	default:
		return nil, fmt.Errorf("servers: expected a list or mapping, got %v", node.Kind)
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// validateServers enforces spec.md §3: name is non-empty and unique.
func validateServers(servers []ServerSpec) error {
	seen := make(map[string]bool, len(servers))
	for _, s := range servers {
		if s.Name == "" {
			return fmt.Errorf("server entry missing name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate server name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Command == "" {
			return fmt.Errorf("server %q missing command", s.Name)
		}
	}
	return nil
}

// validateToolsets rejects a toolsets map containing an empty pattern list
// under a name — configuration that can never match anything is almost
// certainly a mistake the funnel should surface at startup rather than
// silently accept.
func validateToolsets(toolsets map[string][]string) error {
	for name, patterns := range toolsets {
		if len(patterns) == 0 {
			return fmt.Errorf("toolset %q has no patterns", name)
		}
	}
	return nil
}
