package model

import (
	"errors"
	"reflect"
	"testing"

	"bazelize/internal/source"
)

func declare(t *testing.T, m *Model, name string, kind TargetKind) *Target {
	t.Helper()
	tgt, fresh := m.Declare(name, kind, source.Span{}, "test")
	if !fresh {
		t.Fatalf("duplicate declaration of %q", name)
	}
	return tgt
}

func TestDeclareRejectsDuplicates(t *testing.T) {
	m := New()
	declare(t, m, "lib", KindLibrary)
	if _, fresh := m.Declare("lib", KindBinary, source.Span{}, "test"); fresh {
		t.Error("second Declare of the same name reported fresh")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestFinalizeUnknownDependency(t *testing.T) {
	m := New()
	app := declare(t, m, "app", KindBinary)
	app.AddDep(Dep{Name: "nowhere", Visibility: Private})

	err := m.Finalize(nil)
	var unknown *UnknownDependencyError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownDependencyError", err)
	}
	if unknown.Target != "app" || unknown.Dep != "nowhere" {
		t.Errorf("error context = %+v", unknown)
	}
}

func TestFinalizeAcceptsExternalTokens(t *testing.T) {
	m := New()
	app := declare(t, m, "app", KindBinary)
	app.AddDep(Dep{Name: "pthread", Visibility: Private})

	err := m.Finalize(func(name string) bool { return name == "pthread" })
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestFinalizeCycleDetection(t *testing.T) {
	m := New()
	a := declare(t, m, "a", KindLibrary)
	b := declare(t, m, "b", KindLibrary)
	a.AddDep(Dep{Name: "b", Visibility: Public})
	b.AddDep(Dep{Name: "a", Visibility: Public})

	err := m.Finalize(nil)
	var cyc *CyclicDependencyError
	if !errors.As(err, &cyc) {
		t.Fatalf("err = %v, want CyclicDependencyError", err)
	}
	names := map[string]bool{}
	for _, n := range cyc.Cycle {
		names[n] = true
	}
	if !names["a"] || !names["b"] {
		t.Errorf("cycle %v should name both a and b", cyc.Cycle)
	}
}

func TestTopologicalOrderWithDeclarationTieBreak(t *testing.T) {
	m := New()
	app := declare(t, m, "app", KindBinary)
	declare(t, m, "zlib", KindLibrary)
	declare(t, m, "base", KindLibrary)
	app.AddDep(Dep{Name: "base", Visibility: Private})

	if err := m.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, tgt := range m.Sorted() {
		order = append(order, tgt.Name)
	}
	// base must precede app; zlib keeps its declaration position otherwise.
	want := []string{"base", "app", "zlib"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestPrivateEdgeStopsPropagation(t *testing.T) {
	m := New()
	b := declare(t, m, "b", KindLibrary)
	b.Public.Includes = []string{"b/include"}
	b.Public.Defines = []string{"B_DEF"}

	a := declare(t, m, "a", KindLibrary)
	a.Public.Includes = []string{"a/include"}
	a.AddDep(Dep{Name: "b", Visibility: Private})

	c := declare(t, m, "c", KindBinary)
	c.AddDep(Dep{Name: "a", Visibility: Public})

	if err := m.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	cAttrs := m.EffectiveAttrs(c)
	for _, inc := range cAttrs.Includes {
		if inc == "b/include" {
			t.Error("b's public include leaked through a private edge")
		}
	}
	found := false
	for _, inc := range cAttrs.Includes {
		if inc == "a/include" {
			found = true
		}
	}
	if !found {
		t.Error("a's public include missing from c")
	}

	// a itself still sees b's public attributes.
	aAttrs := m.EffectiveAttrs(a)
	found = false
	for _, inc := range aAttrs.Includes {
		if inc == "b/include" {
			found = true
		}
	}
	if !found {
		t.Error("a should receive its private dependency's public includes")
	}
}

func TestPublicEdgePropagatesTransitively(t *testing.T) {
	m := New()
	b := declare(t, m, "b", KindLibrary)
	b.Public.Includes = []string{"b/include"}
	b.Public.Defines = []string{"B_DEF"}

	a := declare(t, m, "a", KindLibrary)
	a.AddDep(Dep{Name: "b", Visibility: Public})

	c := declare(t, m, "c", KindBinary)
	c.AddDep(Dep{Name: "a", Visibility: Private})

	if err := m.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	cAttrs := m.EffectiveAttrs(c)
	foundInc, foundDef := false, false
	for _, inc := range cAttrs.Includes {
		if inc == "b/include" {
			foundInc = true
		}
	}
	for _, def := range cAttrs.Defines {
		if def == "B_DEF" {
			foundDef = true
		}
	}
	if !foundInc || !foundDef {
		t.Errorf("c effective attrs missing b's public closure: %+v", cAttrs)
	}
}

func TestInterfaceEdgePropagates(t *testing.T) {
	m := New()
	hdr := declare(t, m, "hdr", KindLibrary)
	hdr.Linkage = LinkInterface
	hdr.Public.Includes = []string{"hdr/include"}

	a := declare(t, m, "a", KindLibrary)
	a.AddDep(Dep{Name: "hdr", Visibility: Interface})

	c := declare(t, m, "c", KindBinary)
	c.AddDep(Dep{Name: "a", Visibility: Public})

	if err := m.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	cAttrs := m.EffectiveAttrs(c)
	found := false
	for _, inc := range cAttrs.Includes {
		if inc == "hdr/include" {
			found = true
		}
	}
	if !found {
		t.Error("interface edge should propagate like public")
	}
}

func TestAddDepDeduplicates(t *testing.T) {
	m := New()
	a := declare(t, m, "a", KindBinary)
	a.AddDep(Dep{Name: "x", Visibility: Private})
	a.AddDep(Dep{Name: "x", Visibility: Private})
	if len(a.Deps) != 1 {
		t.Errorf("deps = %d, want 1", len(a.Deps))
	}
}
