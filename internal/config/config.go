// Package config holds the translation overrides supplied by the user:
// custom rule mappings, extra dependencies, exclusions, and the external
// library table. An Overrides value is read-only after Load and safe to share
// across concurrent translation runs.
package config

import (
	"strings"
)

// RuleMapping overrides how one source command maps to an output rule.
type RuleMapping struct {
	// RuleKind is the output rule name, e.g. "cc_library" or "my_genrule".
	RuleKind string `toml:"rule_kind"`
	// Attributes renames attributes during rendering: source attribute name
	// to output attribute name.
	Attributes map[string]string `toml:"attributes"`
}

// Overrides is the full configuration structure. Absent sections default to
// empty.
type Overrides struct {
	// Mappings maps a source command name to its override rule.
	Mappings map[string]RuleMapping `toml:"mappings"`
	// AdditionalDependencies lists extra dependency labels to splice into a
	// target's deps during generation.
	AdditionalDependencies map[string][]string `toml:"additional_dependencies"`
	// ExcludedTargets names targets to drop entirely from output.
	ExcludedTargets []string `toml:"excluded_targets"`
	// ExternalLibraries maps an opaque external library token (as spelled in
	// the source script) to the label emitted in deps.
	ExternalLibraries map[string]string `toml:"external_libraries"`
}

// Default returns an empty configuration.
func Default() *Overrides {
	return &Overrides{}
}

// MappingFor returns the override rule for a source command. Command names
// in the source language are case-insensitive.
func (o *Overrides) MappingFor(command string) (RuleMapping, bool) {
	if m, ok := o.Mappings[command]; ok {
		return m, true
	}
	for name, m := range o.Mappings {
		if strings.EqualFold(name, command) {
			return m, true
		}
	}
	return RuleMapping{}, false
}

// IsExcluded reports whether the target is named in the exclusion set.
// Exclusion lists are short; a scan beats maintaining an index.
func (o *Overrides) IsExcluded(target string) bool {
	for _, name := range o.ExcludedTargets {
		if name == target {
			return true
		}
	}
	return false
}

// ExternalLabel resolves an external library token to its output label.
func (o *Overrides) ExternalLabel(name string) (string, bool) {
	label, ok := o.ExternalLibraries[name]
	return label, ok
}

// IsExternal reports whether the name is a declared external token.
func (o *Overrides) IsExternal(name string) bool {
	_, ok := o.ExternalLibraries[name]
	return ok
}

// ExtraDeps returns the configured additional dependencies for a target.
func (o *Overrides) ExtraDeps(target string) []string {
	return o.AdditionalDependencies[target]
}
