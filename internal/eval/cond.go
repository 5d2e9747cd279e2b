package eval

import (
	"regexp"
	"strconv"
	"strings"

	"bazelize/internal/diag"
	"bazelize/internal/source"
	"bazelize/internal/token"
)

// Condition evaluation. Grammar, loosest binding first:
//
//	or    = and ("OR" and)*
//	and   = not ("AND" not)*
//	not   = "NOT" not | cmp
//	cmp   = operand (binop operand)?
//	group = "(" or ")"
//
// Unary predicates (DEFINED, TARGET, COMMAND, EXISTS) consume the following
// word. Unquoted operands that name a defined variable dereference once;
// quoted operands never dereference.

var binaryOps = map[string]bool{
	"STREQUAL":        true,
	"MATCHES":         true,
	"EQUAL":           true,
	"LESS":            true,
	"GREATER":         true,
	"VERSION_EQUAL":   true,
	"VERSION_LESS":    true,
	"VERSION_GREATER": true,
}

var unaryOps = map[string]bool{
	"DEFINED": true,
	"TARGET":  true,
	"COMMAND": true,
	"EXISTS":  true,
}

// evalCondition evaluates one if/elseif condition. Malformed conditions are
// reported and evaluate to false; the branch is skipped rather than aborting
// the run.
func (ev *Evaluator) evalCondition(tokens []token.Token, sp source.Span) bool {
	args := ev.expandArgs(tokens)
	if len(args) == 0 {
		return false
	}
	p := &condParser{ev: ev, args: args, span: sp}
	result := p.parseOr()
	if !p.failed && p.pos != len(p.args) {
		p.fail("unexpected %q after condition", p.args[p.pos].Text)
	}
	if p.failed {
		return false
	}
	return result
}

type condParser struct {
	ev     *Evaluator
	args   []arg
	pos    int
	span   source.Span
	failed bool
}

func (p *condParser) fail(format string, fargs ...any) {
	if p.failed {
		return
	}
	p.failed = true
	p.ev.reportf(diag.EvalBadCondition, diag.SevError, p.span, format, fargs...)
}

func (p *condParser) peek() (arg, bool) {
	if p.pos >= len(p.args) {
		return arg{}, false
	}
	return p.args[p.pos], true
}

// peekKeyword reports whether the next argument is the given unquoted
// keyword. Keywords are only keywords when unquoted, and case matters: CMake
// operators are upper-case.
func (p *condParser) peekKeyword(kw string) bool {
	a, ok := p.peek()
	return ok && a.Kind == argWord && a.Text == kw
}

func (p *condParser) parseOr() bool {
	result := p.parseAnd()
	for p.peekKeyword("OR") {
		p.pos++
		right := p.parseAnd()
		result = result || right
	}
	return result
}

func (p *condParser) parseAnd() bool {
	result := p.parseNot()
	for p.peekKeyword("AND") {
		p.pos++
		right := p.parseNot()
		result = result && right
	}
	return result
}

func (p *condParser) parseNot() bool {
	if p.peekKeyword("NOT") {
		p.pos++
		return !p.parseNot()
	}
	return p.parseCmp()
}

func (p *condParser) parseCmp() bool {
	next, ok := p.peek()
	if !ok {
		p.fail("condition ended unexpectedly")
		return false
	}

	// Parenthesized group: a boolean, never a comparison operand.
	if next.Kind == argLParen {
		p.pos++
		result := p.parseOr()
		if closing, ok := p.peek(); !ok || closing.Kind != argRParen {
			p.fail("missing closing parenthesis in condition")
			return false
		}
		p.pos++
		return result
	}

	if next.Kind == argWord && unaryOps[next.Text] {
		p.pos++
		operand, ok := p.peek()
		if !ok || operand.Kind == argLParen || operand.Kind == argRParen {
			p.fail("%s requires an operand", next.Text)
			return false
		}
		p.pos++
		return p.evalUnary(next.Text, operand)
	}

	left := next
	p.pos++
	op, ok := p.peek()
	if !ok || op.Kind != argWord || !binaryOps[op.Text] {
		return p.truthiness(left)
	}
	p.pos++
	right, ok := p.peek()
	if !ok || right.Kind == argLParen || right.Kind == argRParen {
		p.fail("%s requires a right-hand operand", op.Text)
		return false
	}
	p.pos++
	return p.evalBinary(op.Text, left, right)
}

func (p *condParser) evalUnary(op string, operand arg) bool {
	switch op {
	case "DEFINED":
		_, ok := p.ev.scope.Resolve(operand.Text)
		return ok
	case "TARGET":
		_, ok := p.ev.lookupTarget(operand.Text)
		return ok
	case "COMMAND":
		name := strings.ToLower(operand.Text)
		if _, ok := builtins[name]; ok {
			return true
		}
		_, ok := p.ev.procs[name]
		return ok
	case "EXISTS":
		// The core performs no filesystem access; EXISTS always fails.
		if p.ev.opts.Strict {
			p.ev.reportf(diag.EvalUnsupportedClause, diag.SevWarning, p.span,
				"EXISTS is not evaluated (no filesystem access); treating as false")
		}
		return false
	}
	return false
}

// operandValue dereferences an unquoted operand that names a defined
// variable; anything else is its literal text.
func (p *condParser) operandValue(a arg) string {
	if a.Kind == argWord {
		if value, ok := p.ev.scope.Resolve(a.Text); ok {
			return strings.Join(value, ";")
		}
	}
	return a.Text
}

func (p *condParser) evalBinary(op string, left, right arg) bool {
	l, r := p.operandValue(left), p.operandValue(right)
	switch op {
	case "STREQUAL":
		return l == r
	case "MATCHES":
		re, err := regexp.Compile(r)
		if err != nil {
			p.fail("MATCHES pattern %q: %v", r, err)
			return false
		}
		return re.MatchString(l)
	case "EQUAL", "LESS", "GREATER":
		ln, errL := strconv.ParseInt(l, 10, 64)
		rn, errR := strconv.ParseInt(r, 10, 64)
		if errL != nil || errR != nil {
			p.fail("%s requires numeric operands, got %q and %q", op, l, r)
			return false
		}
		switch op {
		case "EQUAL":
			return ln == rn
		case "LESS":
			return ln < rn
		default:
			return ln > rn
		}
	case "VERSION_EQUAL", "VERSION_LESS", "VERSION_GREATER":
		c := compareVersions(l, r)
		switch op {
		case "VERSION_EQUAL":
			return c == 0
		case "VERSION_LESS":
			return c < 0
		default:
			return c > 0
		}
	}
	return false
}

// truthiness applies the constant rules to a standalone operand. Unquoted
// words that are not constants dereference as variables; a defined variable
// is true unless its value is a false constant.
func (p *condParser) truthiness(a arg) bool {
	if isTrueConstant(a.Text) {
		return true
	}
	if isFalseConstant(a.Text) {
		return false
	}
	if a.Kind == argWord {
		if value, ok := p.ev.scope.Resolve(a.Text); ok {
			return !isFalseConstant(strings.Join(value, ";"))
		}
	}
	return false
}

func isTrueConstant(s string) bool {
	switch strings.ToUpper(s) {
	case "1", "ON", "YES", "TRUE", "Y":
		return true
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0
	}
	return false
}

func isFalseConstant(s string) bool {
	up := strings.ToUpper(s)
	switch up {
	case "", "0", "OFF", "NO", "FALSE", "N", "IGNORE", "NOTFOUND":
		return true
	}
	return strings.HasSuffix(up, "-NOTFOUND")
}

// compareVersions compares dotted version strings component-wise, missing
// components counting as zero.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int64
		if i < len(as) {
			av, _ = strconv.ParseInt(as[i], 10, 64)
		}
		if i < len(bs) {
			bv, _ = strconv.ParseInt(bs[i], 10, 64)
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
