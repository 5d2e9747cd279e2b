// Package scope implements the CMake variable engine: a stack of frames with
// outward lookup, parent-scope write-through, and the function/macro calling
// asymmetry. A value is always a list of strings; a plain string is a
// one-element list.
package scope

// TargetScope selects which frame an assignment writes to.
type TargetScope uint8

const (
	// Current writes into the innermost frame.
	Current TargetScope = iota
	// Parent writes through to the enclosing frame (set(... PARENT_SCOPE)).
	Parent
	// Global writes into the outermost frame (cache-like semantics).
	Global
)

// Frame is one level of the variable stack. parent is a back-reference, never
// an owning one: frames are stacked, not shared.
type Frame struct {
	vars   map[string][]string
	parent *Frame
}

// invocation records one open procedure call so PopFrame can restore the
// caller's frame. Macro invocations add no frame but still push a marker,
// keeping push/pop symmetric.
type invocation struct {
	isMacro bool
	caller  *Frame
}

// Stack owns the frame chain for one evaluation run. It must not be shared
// across concurrent runs.
type Stack struct {
	global  *Frame
	current *Frame
	calls   []invocation
}

// NewStack creates a stack with a single global frame.
func NewStack() *Stack {
	g := &Frame{vars: make(map[string][]string)}
	return &Stack{global: g, current: g}
}

// Seed populates the global frame from a snapshot, used when a subdirectory
// run inherits its parent directory's variables.
func (s *Stack) Seed(snapshot map[string][]string) {
	for name, value := range snapshot {
		s.global.vars[name] = cloneValue(value)
	}
}

// Resolve walks the frame chain outward until the name is found.
// An undefined variable yields an empty value and ok=false; that is not an
// error in the source language.
func (s *Stack) Resolve(name string) (value []string, ok bool) {
	for f := s.current; f != nil; f = f.parent {
		if v, found := f.vars[name]; found {
			return v, true
		}
	}
	return nil, false
}

// Set assigns a value in the selected scope. Setting in Parent scope from the
// global frame is a no-op, matching the source language.
func (s *Stack) Set(name string, value []string, target TargetScope) {
	switch target {
	case Current:
		s.current.vars[name] = cloneValue(value)
	case Parent:
		if s.current.parent != nil {
			s.current.parent.vars[name] = cloneValue(value)
		}
	case Global:
		s.global.vars[name] = cloneValue(value)
	}
}

// Unset removes a variable from the selected scope.
func (s *Stack) Unset(name string, target TargetScope) {
	switch target {
	case Current:
		delete(s.current.vars, name)
	case Parent:
		if s.current.parent != nil {
			delete(s.current.parent.vars, name)
		}
	case Global:
		delete(s.global.vars, name)
	}
}

// PushFunctionFrame enters a fresh frame whose parent is the global frame:
// function bodies do not see caller locals.
func (s *Stack) PushFunctionFrame() {
	s.calls = append(s.calls, invocation{isMacro: false, caller: s.current})
	s.current = &Frame{vars: make(map[string][]string), parent: s.global}
}

// PushMacroFrame records a macro invocation without adding a frame: the macro
// body runs directly in the caller's frame, so its assignments leak to the
// caller.
func (s *Stack) PushMacroFrame() {
	s.calls = append(s.calls, invocation{isMacro: true, caller: s.current})
}

// PopFrame leaves the innermost procedure invocation, restoring the caller's
// frame for function calls.
func (s *Stack) PopFrame() {
	if len(s.calls) == 0 {
		return
	}
	call := s.calls[len(s.calls)-1]
	s.calls = s.calls[:len(s.calls)-1]
	if !call.isMacro {
		s.current = call.caller
	}
}

// Depth returns the number of open procedure invocations.
func (s *Stack) Depth() int {
	return len(s.calls)
}

// Snapshot flattens the visible variables into a copy, innermost binding
// winning, for seeding a child run.
func (s *Stack) Snapshot() map[string][]string {
	out := make(map[string][]string)
	var frames []*Frame
	for f := s.current; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	// Outermost first so inner frames overwrite.
	for i := len(frames) - 1; i >= 0; i-- {
		for name, value := range frames[i].vars {
			out[name] = cloneValue(value)
		}
	}
	return out
}

func cloneValue(v []string) []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}
