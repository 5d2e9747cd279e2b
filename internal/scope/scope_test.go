package scope

import (
	"reflect"
	"testing"
)

func TestResolveWalksOutward(t *testing.T) {
	s := NewStack()
	s.Set("G", []string{"global"}, Current)

	s.PushFunctionFrame()
	if v, ok := s.Resolve("G"); !ok || v[0] != "global" {
		t.Errorf("function frame should see globals, got %v %v", v, ok)
	}

	s.Set("L", []string{"local"}, Current)
	s.PopFrame()
	if _, ok := s.Resolve("L"); ok {
		t.Error("function local visible after return")
	}
}

func TestUndefinedIsEmptyNotError(t *testing.T) {
	s := NewStack()
	v, ok := s.Resolve("NEVER_SET")
	if ok || len(v) != 0 {
		t.Errorf("undefined = %v %v, want empty, false", v, ok)
	}
}

func TestFunctionDoesNotSeeCallerLocals(t *testing.T) {
	s := NewStack()
	s.PushFunctionFrame()
	s.Set("CALLER_LOCAL", []string{"x"}, Current)

	s.PushFunctionFrame()
	if _, ok := s.Resolve("CALLER_LOCAL"); ok {
		t.Error("nested function sees caller locals; parent must be the global frame")
	}
	s.PopFrame()

	// Back in the caller the local is visible again.
	if _, ok := s.Resolve("CALLER_LOCAL"); !ok {
		t.Error("caller local lost after nested call")
	}
	s.PopFrame()
}

func TestMacroRunsInCallerFrame(t *testing.T) {
	s := NewStack()
	s.PushMacroFrame()
	s.Set("FROM_MACRO", []string{"leaks"}, Current)
	s.PopFrame()

	if v, ok := s.Resolve("FROM_MACRO"); !ok || v[0] != "leaks" {
		t.Errorf("macro assignment should leak to the caller, got %v %v", v, ok)
	}
}

func TestParentScopeWriteThrough(t *testing.T) {
	s := NewStack()
	s.PushFunctionFrame()
	s.Set("RESULT", []string{"computed"}, Parent)

	if _, ok := s.Resolve("RESULT"); !ok {
		t.Error("parent-scope set should be visible through the chain")
	}
	s.PopFrame()
	if v, ok := s.Resolve("RESULT"); !ok || v[0] != "computed" {
		t.Errorf("parent-scope set lost after return: %v %v", v, ok)
	}
}

func TestParentScopeDoesNotSetCurrent(t *testing.T) {
	s := NewStack()
	s.Set("V", []string{"old"}, Current)
	s.PushFunctionFrame()
	s.Set("V", []string{"new"}, Parent)
	// The function frame itself still resolves through to the parent's copy.
	if v, _ := s.Resolve("V"); v[0] != "new" {
		t.Errorf("resolve after parent set = %v", v)
	}
	s.PopFrame()
	if v, _ := s.Resolve("V"); v[0] != "new" {
		t.Errorf("caller value = %v, want new", v)
	}
}

func TestGlobalScopeSet(t *testing.T) {
	s := NewStack()
	s.PushFunctionFrame()
	s.PushFunctionFrame()
	s.Set("CACHED", []string{"v"}, Global)
	s.PopFrame()
	s.PopFrame()
	if v, ok := s.Resolve("CACHED"); !ok || v[0] != "v" {
		t.Errorf("global set = %v %v", v, ok)
	}
}

func TestUnset(t *testing.T) {
	s := NewStack()
	s.Set("V", []string{"x"}, Current)
	s.Unset("V", Current)
	if _, ok := s.Resolve("V"); ok {
		t.Error("V still resolves after Unset")
	}
}

func TestSnapshotFlattens(t *testing.T) {
	s := NewStack()
	s.Set("A", []string{"global"}, Current)
	s.PushFunctionFrame()
	s.Set("A", []string{"shadowed"}, Current)
	s.Set("B", []string{"inner"}, Current)

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap["A"], []string{"shadowed"}) {
		t.Errorf("A = %v, want inner binding", snap["A"])
	}
	if !reflect.DeepEqual(snap["B"], []string{"inner"}) {
		t.Errorf("B = %v", snap["B"])
	}

	// The snapshot is a copy: mutating it must not touch the stack.
	snap["A"][0] = "mutated"
	if v, _ := s.Resolve("A"); v[0] != "shadowed" {
		t.Error("snapshot shares backing arrays with the stack")
	}
}

func TestSeed(t *testing.T) {
	s := NewStack()
	s.Seed(map[string][]string{"INHERITED": {"a", "b"}})
	if v, ok := s.Resolve("INHERITED"); !ok || len(v) != 2 {
		t.Errorf("seeded value = %v %v", v, ok)
	}
}

func TestValuesAreCopiedOnSet(t *testing.T) {
	s := NewStack()
	in := []string{"x"}
	s.Set("V", in, Current)
	in[0] = "mutated"
	if v, _ := s.Resolve("V"); v[0] != "x" {
		t.Errorf("Set should copy its input, got %v", v)
	}
}
