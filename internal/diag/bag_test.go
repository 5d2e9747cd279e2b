package diag

import (
	"testing"

	"bazelize/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(LexUnknownChar, source.Span{}, "one")) {
		t.Fatal("first Add rejected")
	}
	if !b.Add(NewError(LexUnknownChar, source.Span{}, "two")) {
		t.Fatal("second Add rejected")
	}
	if b.Add(NewError(LexUnknownChar, source.Span{}, "three")) {
		t.Error("Add over the limit should return false")
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
}

func TestBagSeverityQueries(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevInfo, EvalInfo, source.Span{}, "info"))
	if b.HasWarnings() || b.HasErrors() {
		t.Error("info-only bag should report no warnings or errors")
	}
	b.Add(NewWarning(EvalUnresolvedVariable, source.Span{}, "warn"))
	if !b.HasWarnings() || b.HasErrors() {
		t.Error("bag with a warning should report warnings but not errors")
	}
	b.Add(NewError(ModelCyclicDependency, source.Span{}, "err"))
	if !b.HasErrors() {
		t.Error("bag with an error should report errors")
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(NewWarning(EvalUnresolvedVariable, source.Span{File: 1, Start: 20, End: 21}, "late"))
	b.Add(NewError(ParseUnexpectedToken, source.Span{File: 0, Start: 5, End: 6}, "early"))
	b.Add(NewError(LexUnknownChar, source.Span{File: 0, Start: 5, End: 6}, "same span, lower code"))
	b.Sort()

	items := b.Items()
	if items[0].Code != LexUnknownChar {
		t.Errorf("first = %s", items[0].Code)
	}
	if items[2].Message != "late" {
		t.Errorf("last = %q", items[2].Message)
	}
}

func TestBagDedup(t *testing.T) {
	sp := source.Span{File: 0, Start: 3, End: 7}
	b := NewBag(10)
	b.Add(NewError(EvalUnsupportedCommand, sp, "x"))
	b.Add(NewError(EvalUnsupportedCommand, sp, "x again"))
	b.Dedup()
	if b.Len() != 1 {
		t.Errorf("Len after Dedup = %d, want 1", b.Len())
	}
}

func TestBagMergeGrowsCap(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(LexUnknownChar, source.Span{}, "a"))
	b := NewBag(1)
	b.Add(NewError(LexUnknownChar, source.Span{}, "b"))
	a.Merge(b)
	if a.Len() != 2 {
		t.Errorf("Len after Merge = %d, want 2", a.Len())
	}
}
