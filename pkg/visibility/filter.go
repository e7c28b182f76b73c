package visibility

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/snarldev/snarl/pkg/snapshot"
)

// FilterSpec enumerates the inclusion/exclusion facets for entity
// visibility. Empty include lists admit everything; exclusion always wins
// over inclusion. The zero value shows the full graph with loners hidden.
//
// The struct is TOML-loadable so the CLI can keep filter presets in a
// config file.
type FilterSpec struct {
	IncludeCrates    []string `toml:"include_crates" json:"include_crates,omitempty"`
	ExcludeCrates    []string `toml:"exclude_crates" json:"exclude_crates,omitempty"`
	IncludeProcesses []string `toml:"include_processes" json:"include_processes,omitempty"`
	ExcludeProcesses []string `toml:"exclude_processes" json:"exclude_processes,omitempty"`
	IncludeKinds     []string `toml:"include_kinds" json:"include_kinds,omitempty"`
	ExcludeKinds     []string `toml:"exclude_kinds" json:"exclude_kinds,omitempty"`
	IncludeIDs       []string `toml:"include_ids" json:"include_ids,omitempty"`
	ExcludeIDs       []string `toml:"exclude_ids" json:"exclude_ids,omitempty"`

	// Source filters match by substring so a file path or a module prefix
	// both work.
	IncludeSources []string `toml:"include_sources" json:"include_sources,omitempty"`
	ExcludeSources []string `toml:"exclude_sources" json:"exclude_sources,omitempty"`

	// ShowLoners keeps entities with zero incident edges after collapsing.
	ShowLoners bool `toml:"show_loners" json:"show_loners,omitempty"`
}

// IsZero reports whether the spec restricts nothing beyond the loner
// default.
func (s FilterSpec) IsZero() bool {
	return len(s.IncludeCrates) == 0 && len(s.ExcludeCrates) == 0 &&
		len(s.IncludeProcesses) == 0 && len(s.ExcludeProcesses) == 0 &&
		len(s.IncludeKinds) == 0 && len(s.ExcludeKinds) == 0 &&
		len(s.IncludeIDs) == 0 && len(s.ExcludeIDs) == 0 &&
		len(s.IncludeSources) == 0 && len(s.ExcludeSources) == 0
}

// Visible applies the spec's predicate to one entity.
func (s FilterSpec) Visible(e *snapshot.Entity) bool {
	if slices.Contains(s.ExcludeIDs, string(e.ID)) ||
		slices.Contains(s.ExcludeCrates, e.Crate) ||
		slices.Contains(s.ExcludeProcesses, e.ProcessID) ||
		slices.Contains(s.ExcludeKinds, string(e.Kind)) {
		return false
	}
	for _, sub := range s.ExcludeSources {
		if sub != "" && strings.Contains(e.Source, sub) {
			return false
		}
	}

	if len(s.IncludeIDs) > 0 && !slices.Contains(s.IncludeIDs, string(e.ID)) {
		return false
	}
	if len(s.IncludeCrates) > 0 && !slices.Contains(s.IncludeCrates, e.Crate) {
		return false
	}
	if len(s.IncludeProcesses) > 0 && !slices.Contains(s.IncludeProcesses, e.ProcessID) {
		return false
	}
	if len(s.IncludeKinds) > 0 && !slices.Contains(s.IncludeKinds, string(e.Kind)) {
		return false
	}
	if len(s.IncludeSources) > 0 {
		matched := false
		for _, sub := range s.IncludeSources {
			if sub != "" && strings.Contains(e.Source, sub) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// LoadFilterSpec reads a TOML filter preset from path.
func LoadFilterSpec(path string) (FilterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FilterSpec{}, fmt.Errorf("read %s: %w", path, err)
	}
	var spec FilterSpec
	if err := toml.Unmarshal(data, &spec); err != nil {
		return FilterSpec{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return spec, nil
}
