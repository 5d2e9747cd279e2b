package driver

import (
	"bazelize/internal/ast"
	"bazelize/internal/diag"
	"bazelize/internal/lexer"
	"bazelize/internal/parser"
	"bazelize/internal/source"
)

// ParseResult carries the command tree for one script.
type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tree    *ast.File
	Bag     *diag.Bag
}

// Parse lexes and parses one script. A non-nil error means the tree is
// structurally unusable; the bag still holds the diagnostics explaining why.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(clampMax(maxDiagnostics))
	rep := &diag.BagReporter{Bag: bag}
	lx := lexer.New(file, lexer.Options{Reporter: rep})
	tree, parseErr := parser.ParseFile(file, lx, parser.Options{Reporter: rep})
	bag.Sort()
	result := &ParseResult{FileSet: fs, File: file, Tree: tree, Bag: bag}
	if parseErr != nil {
		return result, parseErr
	}
	return result, nil
}
