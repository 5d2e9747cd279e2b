package lexer

import (
	"bazelize/internal/diag"
	"bazelize/internal/source"
	"bazelize/internal/token"
)

// Lexer produces the token stream for one CMake script. It is restartable
// only by constructing a new instance.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token // one-token lookahead buffer
	depth  int          // paren nesting; argument context when > 0
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next token. Comments are skipped unless KeepTrivia is set;
// newlines are emitted only at statement level, where they terminate logical
// statements. After EOF it always returns EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	for {
		lx.skipBlanks()

		if lx.cursor.EOF() {
			return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
		}

		switch ch := lx.cursor.Peek(); {
		case ch == '\n':
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.depth == 0 {
				return token.Token{Kind: token.Newline, Span: lx.cursor.SpanFrom(start), Text: "\n"}
			}
			// Inside an argument list a newline is just a separator.

		case ch == '#':
			tok := lx.scanComment()
			if lx.opts.KeepTrivia {
				return tok
			}

		case ch == '(':
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.depth++
			return token.Token{Kind: token.LParen, Span: lx.cursor.SpanFrom(start), Text: "("}

		case ch == ')':
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.depth > 0 {
				lx.depth--
			}
			return token.Token{Kind: token.RParen, Span: lx.cursor.SpanFrom(start), Text: ")"}

		case ch == '"':
			return lx.scanQuoted()

		case ch == '[' && lx.bracketOpenLevel() >= 0:
			return lx.scanBracket(token.Bracket)

		case lx.depth == 0:
			if isIdentStart(ch) {
				return lx.scanIdent()
			}
			start := lx.cursor.Mark()
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnknownChar, sp, "unexpected character at statement level")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}

		default:
			return lx.scanUnquoted()
		}
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// skipBlanks consumes spaces and tabs; newlines are handled by Next.
func (lx *Lexer) skipBlanks() {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == ' ' || b == '\t' || b == '\r' {
			lx.cursor.Bump()
			continue
		}
		// A backslash-newline is a line continuation in either context.
		if b == '\\' && lx.cursor.PeekAt(1) == '\n' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			continue
		}
		return
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
