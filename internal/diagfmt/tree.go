package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bazelize/internal/ast"
	"bazelize/internal/source"
	"bazelize/internal/token"
)

// FormatTreePretty выводит командное дерево с отступами по вложенности.
func FormatTreePretty(w io.Writer, file *ast.File, fs *source.FileSet) error {
	fmt.Fprintf(w, "File %s (%d top-level nodes)\n", file.Path, len(file.Nodes))
	printNodes(w, file.Nodes, fs, 1)
	return nil
}

func printNodes(w io.Writer, nodes []ast.Node, fs *source.FileSet, depth int) {
	indent := strings.Repeat("  ", depth)
	for i := range nodes {
		n := &nodes[i]
		pos := fs.SpanStart(n.Span)
		switch n.Kind {
		case ast.KindInvocation:
			fmt.Fprintf(w, "%sInvocation %s(%s) @%d:%d\n", indent, n.Name, argPreview(n.Args), pos.Line, pos.Col)
		case ast.KindConditional:
			fmt.Fprintf(w, "%sConditional @%d:%d\n", indent, pos.Line, pos.Col)
			for bi := range n.Branches {
				b := &n.Branches[bi]
				fmt.Fprintf(w, "%s  branch (%s)\n", indent, argPreview(b.Cond))
				printNodes(w, b.Body, fs, depth+2)
			}
			if len(n.Else) > 0 {
				fmt.Fprintf(w, "%s  else\n", indent)
				printNodes(w, n.Else, fs, depth+2)
			}
		case ast.KindLoop:
			fmt.Fprintf(w, "%sLoop %s in (%s) @%d:%d\n", indent, n.Binding, argPreview(n.Header), pos.Line, pos.Col)
			printNodes(w, n.Body, fs, depth+1)
		case ast.KindProcedureDef:
			fmt.Fprintf(w, "%s%s %s(%s) @%d:%d\n", indent, n.Proc.String(), n.Name, strings.Join(n.Params, " "), pos.Line, pos.Col)
			printNodes(w, n.Body, fs, depth+1)
		}
	}
}

const argPreviewMax = 6

func argPreview(args []token.Token) string {
	var parts []string
	for _, a := range args {
		if !a.IsArgument() {
			continue
		}
		parts = append(parts, a.Text)
		if len(parts) == argPreviewMax {
			parts = append(parts, "...")
			break
		}
	}
	return strings.Join(parts, " ")
}

type TreeNodeOutput struct {
	Kind     string           `json:"kind"`
	Name     string           `json:"name,omitempty"`
	Args     []string         `json:"args,omitempty"`
	Binding  string           `json:"binding,omitempty"`
	Params   []string         `json:"params,omitempty"`
	Span     source.Span      `json:"span"`
	Children []TreeNodeOutput `json:"children,omitempty"`
}

// FormatTreeJSON выводит командное дерево в JSON формате.
func FormatTreeJSON(w io.Writer, file *ast.File) error {
	out := struct {
		Path  string           `json:"path"`
		Nodes []TreeNodeOutput `json:"nodes"`
	}{Path: file.Path, Nodes: treeNodes(file.Nodes)}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func treeNodes(nodes []ast.Node) []TreeNodeOutput {
	var out []TreeNodeOutput
	for i := range nodes {
		n := &nodes[i]
		item := TreeNodeOutput{Kind: n.Kind.String(), Span: n.Span}
		switch n.Kind {
		case ast.KindInvocation:
			item.Name = n.Name
			item.Args = tokenTexts(n.Args)
		case ast.KindConditional:
			for bi := range n.Branches {
				b := &n.Branches[bi]
				item.Children = append(item.Children, TreeNodeOutput{
					Kind:     "Branch",
					Args:     tokenTexts(b.Cond),
					Span:     b.Span,
					Children: treeNodes(b.Body),
				})
			}
			if len(n.Else) > 0 {
				item.Children = append(item.Children, TreeNodeOutput{
					Kind:     "Else",
					Children: treeNodes(n.Else),
				})
			}
		case ast.KindLoop:
			item.Binding = n.Binding
			item.Args = tokenTexts(n.Header)
			item.Children = treeNodes(n.Body)
		case ast.KindProcedureDef:
			item.Name = n.Name
			item.Kind = n.Proc.String()
			item.Params = n.Params
			item.Children = treeNodes(n.Body)
		}
		out = append(out, item)
	}
	return out
}

func tokenTexts(tokens []token.Token) []string {
	var out []string
	for _, t := range tokens {
		if t.IsArgument() {
			out = append(out, t.Text)
		}
	}
	return out
}
