// Package model holds the build graph accumulated by evaluation: targets,
// their attributes partitioned by visibility, and dependency edges. Only the
// evaluator mutates it; Finalize checks the invariants the generator relies
// on.
package model

import (
	"bazelize/internal/source"
)

// TargetKind classifies a build target.
type TargetKind uint8

const (
	KindBinary TargetKind = iota
	KindLibrary
	KindTest
	KindCustomGenerated
	KindFileGroup
)

func (k TargetKind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindLibrary:
		return "library"
	case KindTest:
		return "test"
	case KindCustomGenerated:
		return "custom-generated"
	case KindFileGroup:
		return "file-group"
	}
	return "target(?)"
}

// Linkage applies to library targets only.
type Linkage uint8

const (
	LinkStatic Linkage = iota
	LinkShared
	LinkObject
	LinkInterface
)

func (l Linkage) String() string {
	switch l {
	case LinkStatic:
		return "static"
	case LinkShared:
		return "shared"
	case LinkObject:
		return "object"
	case LinkInterface:
		return "interface"
	}
	return "linkage(?)"
}

// Visibility controls whether an attribute or edge propagates to dependents.
type Visibility uint8

const (
	// Private attributes apply to the target itself only.
	Private Visibility = iota
	// Public attributes apply to the target and propagate to dependents.
	Public
	// Interface attributes propagate to dependents without applying to the
	// target itself; for propagation purposes it behaves like Public.
	Interface
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "PRIVATE"
	case Public:
		return "PUBLIC"
	case Interface:
		return "INTERFACE"
	}
	return "visibility(?)"
}

// Propagates reports whether attributes flow through an edge of this
// visibility to further dependents.
func (v Visibility) Propagates() bool {
	return v == Public || v == Interface
}

// Dep is one dependency edge: a reference to another target by name, or to
// an external library token, tagged with visibility.
type Dep struct {
	Name       string
	Visibility Visibility
	Span       source.Span
}

// Attrs is one visibility partition of a target's attributes.
type Attrs struct {
	Includes []string
	Defines  []string
	Copts    []string
}

func (a *Attrs) Empty() bool {
	return len(a.Includes) == 0 && len(a.Defines) == 0 && len(a.Copts) == 0
}

// Target is one build target. Targets are created by built-in command
// dispatch and never deleted; later commands mutate them in place by name.
type Target struct {
	Name    string
	Kind    TargetKind
	Linkage Linkage

	Sources []string
	Public  Attrs
	Private Attrs

	LinkOpts []string
	Deps     []Dep

	// Custom-generated targets carry their command line verbatim.
	GenOutputs []string
	GenCommand []string
	GenComment string

	// Command is the source command that declared the target; the generator
	// consults it for override mappings.
	Command string
	// Order is the declaration index, the tie-break for output ordering.
	Order int
	Span  source.Span

	// closure is the transitive public attribute closure, filled by Finalize.
	closure *Attrs
}

// AddDep appends an edge unless an identical one is already present.
func (t *Target) AddDep(d Dep) {
	for _, have := range t.Deps {
		if have.Name == d.Name && have.Visibility == d.Visibility {
			return
		}
	}
	t.Deps = append(t.Deps, d)
}

// AttrsFor returns the partition for a visibility; Interface folds into
// Public, which propagates the same way.
func (t *Target) AttrsFor(v Visibility) *Attrs {
	if v == Private {
		return &t.Private
	}
	return &t.Public
}

// PublicClosure returns the target's transitive public attributes. Valid only
// after Finalize.
func (t *Target) PublicClosure() Attrs {
	if t.closure == nil {
		return t.Public
	}
	return *t.closure
}
