package lexer

import (
	"strings"

	"bazelize/internal/diag"
	"bazelize/internal/token"
)

func (lx *Lexer) scanIdent() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Ident, Span: sp, Text: lx.text(sp)}
}

// scanQuoted scans a "..." argument. Quoted arguments may span lines; the
// returned Text keeps the surrounding quotes so the evaluator can tell the
// forms apart.
func (lx *Lexer) scanQuoted() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '"' {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.Quoted, Span: sp, Text: lx.text(sp)}
		}
		if b == '\\' {
			lx.scanEscape()
			continue
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedQuote, sp, "unterminated quoted argument")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

// scanEscape consumes a backslash escape and validates the escaped byte.
func (lx *Lexer) scanEscape() {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '\'
	if lx.cursor.EOF() {
		lx.errLex(diag.LexBadEscape, lx.cursor.SpanFrom(start), "dangling backslash at end of file")
		return
	}
	b := lx.cursor.Bump()
	// CMake escapes: any non-alphanumeric byte, plus \n \r \t and \;.
	if isIdentContinue(b) && b != 'n' && b != 'r' && b != 't' {
		lx.errLex(diag.LexBadEscape, lx.cursor.SpanFrom(start), "invalid escape sequence \\"+string(b))
	}
}

// bracketOpenLevel reports the level of a bracket opener at the cursor:
// "[[" is level 0, "[=[" level 1, "[==[" level 2, and so on.
// Returns -1 when the cursor is not at a bracket opener.
func (lx *Lexer) bracketOpenLevel() int {
	if lx.cursor.Peek() != '[' {
		return -1
	}
	n := uint32(1)
	for lx.cursor.PeekAt(n) == '=' {
		n++
	}
	if lx.cursor.PeekAt(n) != '[' {
		return -1
	}
	return int(n) - 1
}

// scanBracket scans a [=*[...]=*] argument or comment body. The delimiters
// are stripped from Text; bracket content is raw and never expanded.
func (lx *Lexer) scanBracket(kind token.Kind) token.Token {
	level := lx.bracketOpenLevel()
	start := lx.cursor.Mark()
	for i := 0; i < level+2; i++ { // '[' + level '=' + '['
		lx.cursor.Bump()
	}
	// A newline directly after the opener is dropped, per the CMake rule.
	lx.cursor.Eat('\n')

	contentStart := lx.cursor.Mark()
	closer := "]" + strings.Repeat("=", level) + "]"
	for !lx.cursor.EOF() {
		if lx.cursor.Peek() == ']' && lx.matchesAhead(closer) {
			contentSpan := lx.cursor.SpanFrom(contentStart)
			for range closer {
				lx.cursor.Bump()
			}
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: kind, Span: sp, Text: lx.text(contentSpan)}
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedBracket, sp, "unterminated bracket argument")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

func (lx *Lexer) matchesAhead(s string) bool {
	for i := 0; i < len(s); i++ {
		if lx.cursor.PeekAt(uint32(i)) != s[i] { // #nosec G115
			return false
		}
	}
	return true
}

// scanComment scans a # line comment or a #[=*[...]=*] bracket comment.
func (lx *Lexer) scanComment() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '#'
	if lx.bracketOpenLevel() >= 0 {
		tok := lx.scanBracket(token.Comment)
		tok.Span.Start = uint32(start)
		return tok
	}
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Comment, Span: sp, Text: lx.text(sp)}
}

// scanUnquoted scans a bare argument. Embedded ${...} references are kept in
// the token text, with nested braces balanced; an argument that is exactly
// one reference becomes a VarRef token.
func (lx *Lexer) scanUnquoted() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '(' || b == ')' || b == '#' || b == '"' {
			break
		}
		if b == '\\' {
			lx.scanEscape()
			continue
		}
		if b == '$' && lx.cursor.PeekAt(1) == '{' {
			lx.scanVarRefBody()
			continue
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	kind := token.Unquoted
	if isWholeVarRef(text) {
		kind = token.VarRef
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}

// scanVarRefBody consumes "${" through its matching "}", balancing nested
// references like ${outer_${inner}}.
func (lx *Lexer) scanVarRefBody() {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '$'
	lx.cursor.Bump() // '{'
	depth := 1
	for !lx.cursor.EOF() && depth > 0 {
		switch lx.cursor.Bump() {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	if depth > 0 {
		lx.errLex(diag.LexUnterminatedVarRef, lx.cursor.SpanFrom(start), "unterminated variable reference")
	}
}

// isWholeVarRef reports whether text is a single balanced ${...} reference.
func isWholeVarRef(text string) bool {
	if !strings.HasPrefix(text, "${") || !strings.HasSuffix(text, "}") {
		return false
	}
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i == len(text)-1
			}
		}
	}
	return false
}
