package diag

import (
	"bazelize/internal/source"
)

// Note attaches secondary context to a diagnostic, e.g. the span of the
// opening `if` for a mismatched `endforeach`, or a suggested remediation.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one reported condition with enough context to render an
// actionable message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
