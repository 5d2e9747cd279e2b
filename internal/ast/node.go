// Package ast defines the command tree built by the parser: a sequence of
// command invocations where block constructs (if/foreach/function/macro) own
// their bodies as nested sequences. Trees are read-only after parsing.
package ast

import (
	"bazelize/internal/source"
	"bazelize/internal/token"
)

// NodeKind tags the command tree node variants.
type NodeKind uint8

const (
	KindInvocation NodeKind = iota
	KindConditional
	KindLoop
	KindProcedureDef
)

func (k NodeKind) String() string {
	switch k {
	case KindInvocation:
		return "Invocation"
	case KindConditional:
		return "Conditional"
	case KindLoop:
		return "Loop"
	case KindProcedureDef:
		return "ProcedureDef"
	}
	return "Node(?)"
}

// ProcKind distinguishes functions from macros; the difference decides the
// call frame strategy at evaluation time.
type ProcKind uint8

const (
	ProcFunction ProcKind = iota
	ProcMacro
)

func (k ProcKind) String() string {
	if k == ProcMacro {
		return "macro"
	}
	return "function"
}

// Node is the tagged union over the four command tree variants. Only the
// fields of the active variant are populated.
type Node struct {
	Kind NodeKind
	Span source.Span

	// KindInvocation
	Name string        // command name, original spelling
	Args []token.Token // raw, unexpanded argument tokens

	// KindConditional
	Branches []CondBranch
	Else     []Node

	// KindLoop
	Binding string        // loop variable name
	Header  []token.Token // raw iterable expression tokens
	Body    []Node        // also the body for KindProcedureDef

	// KindProcedureDef
	Proc   ProcKind
	Params []string
}

// CondBranch is one if/elseif arm: raw condition tokens plus the body that
// runs when the condition is the first true one.
type CondBranch struct {
	Cond []token.Token
	Span source.Span
	Body []Node
}

// File is the parsed command tree for one CMake script.
type File struct {
	FileID source.FileID
	Path   string
	Nodes  []Node
}
