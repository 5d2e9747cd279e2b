package diagfmt

import (
	"encoding/json"
	"io"

	"bazelize/internal/diag"
	"bazelize/internal/source"
)

// LocationJSON is a resolved source position for machine consumers.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	Line      uint32 `json:"line"`
	Col       uint32 `json:"col"`
}

// NoteJSON is one secondary note.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is one diagnostic in the machine-readable stream.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root object of the JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// JSON writes the bag as one indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, bag.Len())}
	for _, d := range bag.Items() {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(fs, d.Primary),
		}
		for _, note := range d.Notes {
			dj.Notes = append(dj.Notes, NoteJSON{
				Message:  note.Msg,
				Location: makeLocation(fs, note.Span),
			})
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func makeLocation(fs *source.FileSet, sp source.Span) LocationJSON {
	loc := LocationJSON{StartByte: sp.Start, EndByte: sp.End}
	if file := fs.Get(sp.File); file != nil {
		loc.File = file.Path
		pos := fs.SpanStart(sp)
		loc.Line, loc.Col = pos.Line, pos.Col
	}
	return loc
}
