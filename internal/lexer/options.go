package lexer

import (
	"bazelize/internal/diag"
	"bazelize/internal/source"
)

// Options configures a Lexer instance.
type Options struct {
	// Reporter receives lexical diagnostics; nil discards them (the lexer
	// still recovers and keeps scanning).
	Reporter diag.Reporter
	// KeepTrivia makes Next return Comment tokens instead of skipping them.
	// Newline tokens are always emitted at statement level.
	KeepTrivia bool
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}
