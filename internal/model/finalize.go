package model

import (
	"fmt"
	"strings"

	"bazelize/internal/source"
)

// UnknownDependencyError is returned when a dependency edge resolves to
// neither a declared target nor a declared-external token.
type UnknownDependencyError struct {
	Target string
	Dep    string
	Span   source.Span
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("target %q depends on unknown name %q (declare it as a target or map it in external_libraries)", e.Target, e.Dep)
}

// CyclicDependencyError names the targets forming a dependency cycle.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// Finalize checks the model invariants after evaluation: every edge resolves
// to a declared target or an external token, the internal graph is acyclic,
// and each target's transitive public attribute closure is computed. It also
// fixes the topological output order, with declaration order as the
// tie-break.
func (m *Model) Finalize(isExternal func(name string) bool) error {
	if isExternal == nil {
		isExternal = func(string) bool { return false }
	}

	for _, t := range m.targets {
		for _, d := range t.Deps {
			if _, ok := m.index[d.Name]; ok {
				continue
			}
			if isExternal(d.Name) {
				continue
			}
			return &UnknownDependencyError{Target: t.Name, Dep: d.Name, Span: d.Span}
		}
	}

	if err := m.sortAndCheckCycles(); err != nil {
		return err
	}

	m.computeClosures()
	return nil
}

// sortAndCheckCycles runs a DFS over internal edges, producing a postorder
// (dependencies first) and detecting cycles. The cycle list is built in
// reverse as the checks unwind, the way a recursive dependency walker
// naturally reports it.
func (m *Model) sortAndCheckCycles() error {
	visited := make(map[*Target]bool, len(m.targets))
	checking := make(map[*Target]bool, len(m.targets))
	sorted := make([]*Target, 0, len(m.targets))

	var cycleErr *CyclicDependencyError

	var check func(t *Target) []*Target
	check = func(t *Target) []*Target {
		visited[t] = true
		checking[t] = true
		defer delete(checking, t)

		for _, d := range t.Deps {
			dep, ok := m.index[d.Name]
			if !ok {
				continue // external edge
			}
			if checking[dep] {
				return []*Target{dep, t}
			}
			if !visited[dep] {
				if cycle := check(dep); cycle != nil {
					if cycle[0] == t {
						// We are the start of the cycle and responsible for
						// reporting it; the list is in reverse order.
						if cycleErr == nil {
							cycleErr = newCycleError(cycle)
						}
					} else {
						return append(cycle, t)
					}
				}
			}
		}

		sorted = append(sorted, t)
		return nil
	}

	for _, t := range m.targets {
		if !visited[t] {
			if cycle := check(t); cycle != nil && cycleErr == nil {
				cycleErr = newCycleError(cycle)
			}
		}
	}

	if cycleErr != nil {
		return cycleErr
	}
	m.sorted = sorted
	return nil
}

func newCycleError(reversed []*Target) *CyclicDependencyError {
	names := make([]string, 0, len(reversed)+1)
	for i := len(reversed) - 1; i >= 0; i-- {
		names = append(names, reversed[i].Name)
	}
	names = append(names, names[0]) // close the loop in the message
	return &CyclicDependencyError{Cycle: names}
}

// computeClosures fills each target's transitive public attribute closure:
// its own public attributes plus the closure of every dependency reachable
// through public/interface edges. Private edges stop propagation. Runs on the
// topological order, so dependency closures are always ready.
func (m *Model) computeClosures() {
	for _, t := range m.sorted {
		closure := Attrs{
			Includes: append([]string(nil), t.Public.Includes...),
			Defines:  append([]string(nil), t.Public.Defines...),
			Copts:    append([]string(nil), t.Public.Copts...),
		}
		for _, d := range t.Deps {
			if !d.Visibility.Propagates() {
				continue
			}
			dep, ok := m.index[d.Name]
			if !ok {
				continue
			}
			depClosure := dep.PublicClosure()
			closure.Includes = appendUnique(closure.Includes, depClosure.Includes)
			closure.Defines = appendUnique(closure.Defines, depClosure.Defines)
			closure.Copts = appendUnique(closure.Copts, depClosure.Copts)
		}
		t.closure = &closure
	}
}

// EffectiveAttrs returns everything that applies to the target itself: its
// private and public attributes plus the public closure of every direct
// dependency, regardless of the edge's visibility. Valid only after
// Finalize.
func (m *Model) EffectiveAttrs(t *Target) Attrs {
	out := Attrs{}
	out.Includes = appendUnique(out.Includes, t.Private.Includes)
	out.Includes = appendUnique(out.Includes, t.Public.Includes)
	out.Defines = appendUnique(out.Defines, t.Private.Defines)
	out.Defines = appendUnique(out.Defines, t.Public.Defines)
	out.Copts = appendUnique(out.Copts, t.Private.Copts)
	out.Copts = appendUnique(out.Copts, t.Public.Copts)
	for _, d := range t.Deps {
		dep, ok := m.index[d.Name]
		if !ok {
			continue
		}
		c := dep.PublicClosure()
		out.Includes = appendUnique(out.Includes, c.Includes)
		out.Defines = appendUnique(out.Defines, c.Defines)
		out.Copts = appendUnique(out.Copts, c.Copts)
	}
	return out
}

func appendUnique(dst []string, src []string) []string {
	for _, s := range src {
		found := false
		for _, have := range dst {
			if have == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
