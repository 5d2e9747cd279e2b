// Package parser builds the command tree for one CMake script. Block
// constructs are matched with an explicit stack of open constructs; closing a
// construct with the wrong terminator is a hard parse failure, since
// structural well-formedness is a precondition for evaluation.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"bazelize/internal/ast"
	"bazelize/internal/diag"
	"bazelize/internal/lexer"
	"bazelize/internal/source"
	"bazelize/internal/token"
)

// ErrParse is returned for any hard parse failure; the diagnostic with
// position context goes through Options.Reporter.
var ErrParse = errors.New("parse failed")

// Options configures a parser run.
type Options struct {
	Reporter diag.Reporter
}

// Parser holds the state for parsing a single file.
type Parser struct {
	lx    *lexer.Lexer
	file  *source.File
	opts  Options
	stack []*blockFrame
}

type blockKind uint8

const (
	blockTop blockKind = iota
	blockIf
	blockForeach
	blockFunction
	blockMacro
)

func (k blockKind) String() string {
	switch k {
	case blockIf:
		return "if"
	case blockForeach:
		return "foreach"
	case blockFunction:
		return "function"
	case blockMacro:
		return "macro"
	}
	return "top level"
}

func (k blockKind) terminator() string {
	switch k {
	case blockIf:
		return "endif"
	case blockForeach:
		return "endforeach"
	case blockFunction:
		return "endfunction"
	case blockMacro:
		return "endmacro"
	}
	return ""
}

// blockFrame is one open construct on the block stack. body collects the
// nodes of the currently active branch or body.
type blockFrame struct {
	kind     blockKind
	openSpan source.Span
	body     []ast.Node

	// blockIf
	branches []ast.CondBranch
	inElse   bool
	elseBody []ast.Node

	// blockForeach
	binding string
	header  []token.Token

	// blockFunction / blockMacro
	name   string
	params []string
}

// ParseFile consumes the token stream once and produces the command tree,
// or ErrParse on the first structural error.
func ParseFile(file *source.File, lx *lexer.Lexer, opts Options) (*ast.File, error) {
	p := &Parser{
		lx:    lx,
		file:  file,
		opts:  opts,
		stack: []*blockFrame{{kind: blockTop}},
	}
	if err := p.parseStatements(); err != nil {
		return nil, err
	}
	if len(p.stack) > 1 {
		open := p.stack[len(p.stack)-1]
		p.err(diag.ParseUnterminatedBlock, open.openSpan,
			fmt.Sprintf("missing %s for this %s", open.kind.terminator(), open.kind))
		return nil, ErrParse
	}
	return &ast.File{
		FileID: file.ID,
		Path:   file.Path,
		Nodes:  p.stack[0].body,
	}, nil
}

func (p *Parser) err(code diag.Code, sp source.Span, msg string, notes ...diag.Note) {
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, sp, msg, notes)
	}
}

func (p *Parser) top() *blockFrame {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) push(f *blockFrame) {
	p.stack = append(p.stack, f)
}

func (p *Parser) pop() *blockFrame {
	f := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return f
}

func (p *Parser) append(n ast.Node) {
	top := p.top()
	top.body = append(top.body, n)
}

func (p *Parser) parseStatements() error {
	for {
		tok := p.lx.Next()
		switch tok.Kind {
		case token.EOF:
			return nil
		case token.Newline, token.Comment:
			continue
		case token.Ident:
			if err := p.parseStatement(tok); err != nil {
				return err
			}
		default:
			p.err(diag.ParseExpectedCommand, tok.Span,
				fmt.Sprintf("expected a command name, found %s", tok.Kind))
			return ErrParse
		}
	}
}

// parseStatement handles one `name ( args... )` statement, dispatching block
// openers/terminators to the block stack.
func (p *Parser) parseStatement(name token.Token) error {
	args, closeSpan, err := p.parseArgList(name)
	if err != nil {
		return err
	}
	span := name.Span.Cover(closeSpan)

	// Statement must end the logical line.
	if next := p.lx.Peek(); next.Kind != token.Newline && next.Kind != token.EOF {
		p.err(diag.ParseUnexpectedToken, next.Span,
			fmt.Sprintf("expected end of statement after %q, found %s", name.Text, next.Kind))
		return ErrParse
	}

	switch strings.ToLower(name.Text) {
	case "if":
		return p.openIf(name, args, span)
	case "elseif":
		return p.continueIf(name, args, span, false)
	case "else":
		return p.continueIf(name, args, span, true)
	case "endif":
		return p.closeBlock(name, blockIf, span)
	case "foreach":
		return p.openForeach(name, args, span)
	case "endforeach":
		return p.closeBlock(name, blockForeach, span)
	case "function":
		return p.openProcedure(name, args, span, blockFunction)
	case "endfunction":
		return p.closeBlock(name, blockFunction, span)
	case "macro":
		return p.openProcedure(name, args, span, blockMacro)
	case "endmacro":
		return p.closeBlock(name, blockMacro, span)
	default:
		p.append(ast.Node{
			Kind: ast.KindInvocation,
			Span: span,
			Name: name.Text,
			Args: args,
		})
		return nil
	}
}

// parseArgList consumes `( ... )`, keeping nested paren tokens inside the
// argument slice so condition groups survive for the evaluator.
func (p *Parser) parseArgList(name token.Token) (args []token.Token, closeSpan source.Span, err error) {
	open := p.lx.Next()
	if open.Kind != token.LParen {
		p.err(diag.ParseExpectedParen, open.Span,
			fmt.Sprintf("expected ( after command %q, found %s", name.Text, open.Kind))
		return nil, source.Span{}, ErrParse
	}
	depth := 1
	for {
		tok := p.lx.Next()
		switch tok.Kind {
		case token.EOF:
			p.err(diag.ParseExpectedParen, tok.Span,
				fmt.Sprintf("unexpected end of file in argument list of %q", name.Text),
				diag.Note{Span: open.Span, Msg: "argument list opened here"})
			return nil, source.Span{}, ErrParse
		case token.LParen:
			depth++
			args = append(args, tok)
		case token.RParen:
			depth--
			if depth == 0 {
				return args, tok.Span, nil
			}
			args = append(args, tok)
		case token.Comment, token.Newline:
			// Separators only.
		default:
			args = append(args, tok)
		}
	}
}

func (p *Parser) openIf(name token.Token, args []token.Token, span source.Span) error {
	if len(args) == 0 {
		p.err(diag.ParseBadConstructArity, span, "if() requires a condition")
		return ErrParse
	}
	p.push(&blockFrame{
		kind:     blockIf,
		openSpan: name.Span,
		branches: []ast.CondBranch{{Cond: args, Span: span}},
	})
	return nil
}

// continueIf handles elseif/else, sealing the active branch body.
func (p *Parser) continueIf(name token.Token, args []token.Token, span source.Span, isElse bool) error {
	top := p.top()
	if top.kind != blockIf {
		p.err(diag.ParseStrayTerminator, span,
			fmt.Sprintf("%s without a matching if", strings.ToLower(name.Text)))
		return ErrParse
	}
	if top.inElse {
		p.err(diag.ParseMismatchedBlock, span,
			fmt.Sprintf("%s after else", strings.ToLower(name.Text)),
			diag.Note{Span: top.openSpan, Msg: "if opened here"})
		return ErrParse
	}
	top.branches[len(top.branches)-1].Body = top.body
	top.body = nil
	if isElse {
		top.inElse = true
		return nil
	}
	if len(args) == 0 {
		p.err(diag.ParseBadConstructArity, span, "elseif() requires a condition")
		return ErrParse
	}
	top.branches = append(top.branches, ast.CondBranch{Cond: args, Span: span})
	return nil
}

func (p *Parser) openForeach(name token.Token, args []token.Token, span source.Span) error {
	if len(args) == 0 {
		p.err(diag.ParseBadConstructArity, span, "foreach() requires a binding variable")
		return ErrParse
	}
	p.push(&blockFrame{
		kind:     blockForeach,
		openSpan: name.Span,
		binding:  args[0].Text,
		header:   args[1:],
	})
	return nil
}

func (p *Parser) openProcedure(name token.Token, args []token.Token, span source.Span, kind blockKind) error {
	if len(args) == 0 {
		p.err(diag.ParseBadConstructArity, span,
			fmt.Sprintf("%s() requires a name", kind))
		return ErrParse
	}
	params := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		params = append(params, a.Text)
	}
	p.push(&blockFrame{
		kind:     kind,
		openSpan: name.Span,
		name:     args[0].Text,
		params:   params,
	})
	return nil
}

// closeBlock pops the stack for an end* terminator and materializes the node.
func (p *Parser) closeBlock(name token.Token, want blockKind, span source.Span) error {
	top := p.top()
	if top.kind == blockTop {
		p.err(diag.ParseStrayTerminator, span,
			fmt.Sprintf("%s without a matching %s", strings.ToLower(name.Text), want))
		return ErrParse
	}
	if top.kind != want {
		p.err(diag.ParseMismatchedBlock, span,
			fmt.Sprintf("expected %s to close %s, found %s",
				top.kind.terminator(), top.kind, strings.ToLower(name.Text)),
			diag.Note{Span: top.openSpan, Msg: fmt.Sprintf("%s opened here", top.kind)})
		return ErrParse
	}

	frame := p.pop()
	node := ast.Node{Span: frame.openSpan.Cover(span)}
	switch frame.kind {
	case blockIf:
		if frame.inElse {
			frame.elseBody = frame.body
		} else {
			frame.branches[len(frame.branches)-1].Body = frame.body
		}
		node.Kind = ast.KindConditional
		node.Branches = frame.branches
		node.Else = frame.elseBody
	case blockForeach:
		node.Kind = ast.KindLoop
		node.Binding = frame.binding
		node.Header = frame.header
		node.Body = frame.body
	case blockFunction, blockMacro:
		node.Kind = ast.KindProcedureDef
		node.Name = frame.name
		node.Params = frame.params
		node.Body = frame.body
		if frame.kind == blockMacro {
			node.Proc = ast.ProcMacro
		} else {
			node.Proc = ast.ProcFunction
		}
	}
	p.append(node)
	return nil
}
