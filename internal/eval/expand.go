package eval

import (
	"strings"

	"bazelize/internal/diag"
	"bazelize/internal/source"
	"bazelize/internal/token"
)

// argKind classifies one expanded argument. Paren markers survive expansion
// so the condition evaluator can group sub-expressions.
type argKind uint8

const (
	argWord argKind = iota
	argQuoted
	argLParen
	argRParen
)

// arg is one fully expanded argument. Quoted and bracket arguments stay a
// single arg regardless of content; unquoted arguments and standalone
// variable references flatten into one arg per list element.
type arg struct {
	Kind argKind
	Text string
	Span source.Span
}

// expandArgs applies the expansion rules to a raw argument token sequence:
//
//   - a standalone ${V} flattens to one argument per list element;
//   - ${V} embedded in quoted or unquoted text joins the list with ";";
//   - unquoted arguments re-split on unescaped ";" after expansion, and
//     vanish entirely when they expand to nothing;
//   - bracket arguments pass through raw, never expanded.
func (ev *Evaluator) expandArgs(tokens []token.Token) []arg {
	var out []arg
	for _, tok := range tokens {
		switch tok.Kind {
		case token.LParen:
			out = append(out, arg{Kind: argLParen, Text: "(", Span: tok.Span})
		case token.RParen:
			out = append(out, arg{Kind: argRParen, Text: ")", Span: tok.Span})
		case token.Quoted:
			text := tok.Text
			if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
				text = text[1 : len(text)-1]
			}
			expanded := ev.expandString(text, tok.Span)
			out = append(out, arg{Kind: argQuoted, Text: unescape(expanded), Span: tok.Span})
		case token.Bracket:
			out = append(out, arg{Kind: argQuoted, Text: tok.Text, Span: tok.Span})
		case token.VarRef:
			name := ev.expandString(tok.Text[2:len(tok.Text)-1], tok.Span)
			value, ok := ev.scope.Resolve(name)
			if !ok {
				ev.unresolved(name, tok.Span)
				continue
			}
			for _, elem := range value {
				for _, piece := range splitList(elem) {
					if piece == "" {
						continue
					}
					out = append(out, arg{Kind: argWord, Text: unescape(piece), Span: tok.Span})
				}
			}
		case token.Ident, token.Unquoted:
			expanded := ev.expandString(tok.Text, tok.Span)
			for _, piece := range splitList(expanded) {
				if piece == "" {
					continue
				}
				out = append(out, arg{Kind: argWord, Text: unescape(piece), Span: tok.Span})
			}
		}
	}
	return out
}

// expandString replaces every ${name} in s with the referenced value joined
// by ";". Nested references expand innermost-first. Escaped characters pass
// through untouched for a later unescape.
func (ev *Evaluator) expandString(s string, sp source.Span) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) {
			b.WriteByte(s[i])
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			inner, end, ok := matchRef(s, i+2)
			if !ok {
				b.WriteString(s[i:])
				break
			}
			name := ev.expandString(inner, sp)
			if value, found := ev.scope.Resolve(name); found {
				b.WriteString(strings.Join(value, ";"))
			} else {
				ev.unresolved(name, sp)
			}
			i = end
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// matchRef scans s from start (just past "${") to the matching "}", tracking
// nested "${". Returns the inner text and the index past the close brace.
func matchRef(s string, start int) (inner string, end int, ok bool) {
	depth := 1
	for i := start; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			i++
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			depth++
			i++
		case s[i] == '}':
			depth--
			if depth == 0 {
				return s[start:i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// splitList splits a raw value on unescaped semicolons.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			b.WriteByte(s[i])
			b.WriteByte(s[i+1])
			i++
		case s[i] == ';':
			out = append(out, b.String())
			b.Reset()
		default:
			b.WriteByte(s[i])
		}
	}
	out = append(out, b.String())
	return out
}

// unescape resolves backslash escapes after splitting, so "\;" survives as a
// literal semicolon inside one element.
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// texts projects the Text fields of the expanded arguments.
func texts(args []arg) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		out = append(out, a.Text)
	}
	return out
}

func (ev *Evaluator) unresolved(name string, sp source.Span) {
	if !ev.opts.Strict {
		return
	}
	ev.reportf(diag.EvalUnresolvedVariable, diag.SevWarning, sp,
		"variable %q is not defined; expanding to empty", name)
}
