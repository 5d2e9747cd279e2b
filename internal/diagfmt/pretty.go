// Package diagfmt renders collected diagnostics for the terminal and for
// tooling. The core never prints; cmd/ routes bags through these renderers.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"bazelize/internal/diag"
	"bazelize/internal/source"
)

// PrettyOpts configures the human-readable renderer.
type PrettyOpts struct {
	Color bool
	// ShowNotes prints each diagnostic's secondary notes indented under it.
	ShowNotes bool
	// Max truncates the output, 0 for unlimited. Truncation adds a trailing
	// "... and N more" line.
	Max int
}

// Pretty writes one line per diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// Callers sort the bag first; Pretty preserves the order it is given.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	shown := len(items)
	if opts.Max > 0 && shown > opts.Max {
		shown = opts.Max
	}
	for _, d := range items[:shown] {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			location(fs, d.Primary), severityLabel(d.Severity, opts.Color), d.Code.ID(), d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			fmt.Fprintf(w, "  %s: note: %s\n", location(fs, note.Span), note.Msg)
		}
	}
	if rest := len(items) - shown; rest > 0 {
		fmt.Fprintf(w, "... and %d more\n", rest)
	}
}

func location(fs *source.FileSet, sp source.Span) string {
	file := fs.Get(sp.File)
	if file == nil {
		return "<unknown>"
	}
	pos := fs.SpanStart(sp)
	return fmt.Sprintf("%s:%d:%d", file.Path, pos.Line, pos.Col)
}

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow, color.Bold)
	infoLabel    = color.New(color.FgCyan)
)

func severityLabel(sev diag.Severity, colored bool) string {
	if !colored {
		return sev.String()
	}
	switch sev {
	case diag.SevError:
		return errorLabel.Sprint(sev.String())
	case diag.SevWarning:
		return warningLabel.Sprint(sev.String())
	default:
		return infoLabel.Sprint(sev.String())
	}
}
