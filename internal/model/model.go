package model

import (
	"bazelize/internal/source"
)

// Model is the build graph for one translation unit.
type Model struct {
	Project    string
	MinVersion string

	// Directory-level includes and defines apply to every target declared in
	// the unit (include_directories / add_definitions).
	GlobalIncludes []string
	GlobalDefines  []string

	// Subdirs records add_subdirectory requests in order; the driver runs
	// them as independent child translations.
	Subdirs []SubdirRequest

	targets []*Target
	index   map[string]*Target
	sorted  []*Target
}

// SubdirRequest captures one add_subdirectory call together with a snapshot
// of the variables visible at that point.
type SubdirRequest struct {
	Dir      string
	Span     source.Span
	Snapshot map[string][]string
}

// New creates an empty build model.
func New() *Model {
	return &Model{index: make(map[string]*Target)}
}

// Declare creates a target. Target names are unique within a translation
// unit; redeclaring a name returns the existing target and false.
func (m *Model) Declare(name string, kind TargetKind, span source.Span, command string) (*Target, bool) {
	if existing, ok := m.index[name]; ok {
		return existing, false
	}
	t := &Target{
		Name:    name,
		Kind:    kind,
		Command: command,
		Order:   len(m.targets),
		Span:    span,
	}
	m.targets = append(m.targets, t)
	m.index[name] = t
	return t, true
}

// Lookup returns the target with the given name.
func (m *Model) Lookup(name string) (*Target, bool) {
	t, ok := m.index[name]
	return t, ok
}

// Targets returns all targets in declaration order.
func (m *Model) Targets() []*Target {
	return m.targets
}

// Sorted returns the targets in dependency order (every dependency before its
// first dependent, declaration order as the tie-break). Valid only after
// Finalize.
func (m *Model) Sorted() []*Target {
	return m.sorted
}

// Len returns the number of declared targets.
func (m *Model) Len() int {
	return len(m.targets)
}
