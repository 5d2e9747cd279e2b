package parser_test

import (
	"strings"
	"testing"

	"bazelize/internal/ast"
	"bazelize/internal/diag"
	"bazelize/internal/lexer"
	"bazelize/internal/parser"
	"bazelize/internal/source"
)

func parseString(t *testing.T, input string) (*ast.File, *diag.Bag, error) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.cmake", []byte(input)))
	bag := diag.NewBag(50)
	lx := lexer.New(file, lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})
	tree, err := parser.ParseFile(file, lx, parser.Options{Reporter: &diag.BagReporter{Bag: bag}})
	return tree, bag, err
}

func mustParse(t *testing.T, input string) *ast.File {
	t.Helper()
	tree, bag, err := parseString(t, input)
	if err != nil {
		t.Fatalf("parse failed: %v\ndiagnostics: %+v", err, bag.Items())
	}
	return tree
}

func TestFlatInvocations(t *testing.T) {
	tree := mustParse(t, `
cmake_minimum_required(VERSION 3.16)
project(Example)

add_library(core STATIC src/core.cpp)
`)
	if len(tree.Nodes) != 3 {
		t.Fatalf("node count = %d, want 3", len(tree.Nodes))
	}
	for i, want := range []string{"cmake_minimum_required", "project", "add_library"} {
		n := tree.Nodes[i]
		if n.Kind != ast.KindInvocation || n.Name != want {
			t.Errorf("node %d = %v %q, want Invocation %q", i, n.Kind, n.Name, want)
		}
	}
	lib := tree.Nodes[2]
	if len(lib.Args) != 3 {
		t.Errorf("add_library args = %d, want 3", len(lib.Args))
	}
}

func TestConditionalShape(t *testing.T) {
	tree := mustParse(t, `
if(UNIX)
  add_definitions(-DUNIX)
elseif(WIN32)
  add_definitions(-DWIN)
else()
  message(STATUS "other")
endif()
`)
	if len(tree.Nodes) != 1 {
		t.Fatalf("node count = %d, want 1", len(tree.Nodes))
	}
	cond := tree.Nodes[0]
	if cond.Kind != ast.KindConditional {
		t.Fatalf("kind = %v", cond.Kind)
	}
	if len(cond.Branches) != 2 {
		t.Fatalf("branches = %d, want 2", len(cond.Branches))
	}
	if cond.Branches[0].Cond[0].Text != "UNIX" {
		t.Errorf("first condition = %q", cond.Branches[0].Cond[0].Text)
	}
	if len(cond.Branches[0].Body) != 1 || len(cond.Branches[1].Body) != 1 {
		t.Errorf("branch bodies = %d/%d, want 1/1", len(cond.Branches[0].Body), len(cond.Branches[1].Body))
	}
	if len(cond.Else) != 1 || cond.Else[0].Name != "message" {
		t.Errorf("else body = %+v", cond.Else)
	}
}

func TestNestedBlocks(t *testing.T) {
	tree := mustParse(t, `
foreach(cfg Debug Release)
  if(VERBOSE)
    message(STATUS ${cfg})
  endif()
endforeach()
`)
	loop := tree.Nodes[0]
	if loop.Kind != ast.KindLoop || loop.Binding != "cfg" {
		t.Fatalf("loop = %v binding %q", loop.Kind, loop.Binding)
	}
	if len(loop.Header) != 2 {
		t.Fatalf("header tokens = %d, want 2", len(loop.Header))
	}
	if len(loop.Body) != 1 || loop.Body[0].Kind != ast.KindConditional {
		t.Fatalf("loop body = %+v", loop.Body)
	}
}

func TestProcedureDefs(t *testing.T) {
	tree := mustParse(t, `
function(add_component name)
  add_library(${name} STATIC ${ARGN})
endfunction()

macro(set_default var value)
  set(${var} ${value})
endmacro()
`)
	fn := tree.Nodes[0]
	if fn.Kind != ast.KindProcedureDef || fn.Proc != ast.ProcFunction {
		t.Fatalf("first def = %v %v", fn.Kind, fn.Proc)
	}
	if fn.Name != "add_component" || len(fn.Params) != 1 || fn.Params[0] != "name" {
		t.Errorf("function = %q params %v", fn.Name, fn.Params)
	}
	mc := tree.Nodes[1]
	if mc.Proc != ast.ProcMacro || mc.Name != "set_default" || len(mc.Params) != 2 {
		t.Errorf("macro = %q %v params %v", mc.Name, mc.Proc, mc.Params)
	}
}

func TestNestedParensKeptInArgs(t *testing.T) {
	tree := mustParse(t, "if(NOT (A AND B))\nendif()\n")
	cond := tree.Nodes[0].Branches[0].Cond
	texts := make([]string, len(cond))
	for i, tok := range cond {
		texts[i] = tok.Text
	}
	if got := strings.Join(texts, " "); got != "NOT ( A AND B )" {
		t.Errorf("condition tokens = %q", got)
	}
}

func TestMismatchedTerminator(t *testing.T) {
	_, bag, err := parseString(t, "if(A)\nendforeach()\n")
	if err == nil {
		t.Fatal("expected parse failure")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.ParseMismatchedBlock {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ParseMismatchedBlock, got %+v", bag.Items())
	}
}

func TestUnterminatedBlock(t *testing.T) {
	_, bag, err := parseString(t, "foreach(x a b)\nmessage(STATUS ${x})\n")
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if bag.Items()[0].Code != diag.ParseUnterminatedBlock {
		t.Errorf("code = %v", bag.Items()[0].Code)
	}
}

func TestStrayTerminator(t *testing.T) {
	_, bag, err := parseString(t, "endif()\n")
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if bag.Items()[0].Code != diag.ParseStrayTerminator {
		t.Errorf("code = %v", bag.Items()[0].Code)
	}
}

func TestConstructArity(t *testing.T) {
	for _, src := range []string{"if()\nendif()\n", "foreach()\nendforeach()\n", "function()\nendfunction()\n"} {
		_, bag, err := parseString(t, src)
		if err == nil {
			t.Errorf("%q: expected parse failure", src)
			continue
		}
		if bag.Items()[0].Code != diag.ParseBadConstructArity {
			t.Errorf("%q: code = %v", src, bag.Items()[0].Code)
		}
	}
}

func TestCommentsAndBlankLinesAnywhere(t *testing.T) {
	tree := mustParse(t, `
# header comment

project(App) # trailing

# between statements
add_executable(app
  # inside args
  main.cpp
)
`)
	if len(tree.Nodes) != 2 {
		t.Fatalf("node count = %d, want 2", len(tree.Nodes))
	}
	exe := tree.Nodes[1]
	if len(exe.Args) != 2 {
		t.Errorf("args = %d, want 2", len(exe.Args))
	}
}

func TestCaseInsensitiveKeywords(t *testing.T) {
	tree := mustParse(t, "IF(A)\nELSE()\nENDIF()\n")
	if tree.Nodes[0].Kind != ast.KindConditional {
		t.Errorf("kind = %v", tree.Nodes[0].Kind)
	}
}
