// Package driver wires the translation pipeline together for the CLI:
// loading files, running lexer, parser, evaluator and generator, fanning out
// over directories, and caching generated output on disk. All filesystem
// access lives here; the core packages stay pure.
package driver

import (
	"bazelize/internal/diag"
	"bazelize/internal/lexer"
	"bazelize/internal/source"
	"bazelize/internal/token"
)

// TokenizeResult carries everything the tokenize subcommand prints.
type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes one script, keeping comment tokens so the dump shows the
// full surface.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(clampMax(maxDiagnostics))
	lx := lexer.New(file, lexer.Options{
		Reporter:   &diag.BagReporter{Bag: bag},
		KeepTrivia: true,
	})

	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	bag.Sort()
	return &TokenizeResult{FileSet: fs, File: file, Tokens: tokens, Bag: bag}, nil
}

func clampMax(maxDiagnostics int) int {
	if maxDiagnostics <= 0 {
		return 100
	}
	return maxDiagnostics
}
