package token

import (
	"bazelize/internal/source"
)

// Token represents a single CMake token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsArgument reports whether the token can appear inside an argument list.
func (t Token) IsArgument() bool {
	switch t.Kind {
	case Ident, Unquoted, Quoted, Bracket, VarRef:
		return true
	default:
		return false
	}
}

// IsTrivia reports whether the token carries no syntactic weight between
// statements.
func (t Token) IsTrivia() bool {
	return t.Kind == Comment || t.Kind == Newline
}
