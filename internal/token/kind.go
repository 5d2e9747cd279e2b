package token

// Kind identifies the lexical class of a CMake token.
type Kind uint8

const (
	// Invalid marks a token produced during error recovery.
	Invalid Kind = iota
	// EOF terminates every token stream.
	EOF

	// Ident is a command name: add_library, if, endforeach, ...
	Ident
	// Unquoted is a bare argument, terminated by whitespace or a paren.
	// Embedded ${...} references stay inside Text.
	Unquoted
	// Quoted is a "..." argument; Text keeps the surrounding quotes.
	Quoted
	// Bracket is a [=*[...]=*] argument; Text is the raw content without
	// the delimiters. Never subject to variable expansion.
	Bracket
	// VarRef is an argument that consists of a single ${...} reference;
	// Text is the reference including the delimiters.
	VarRef

	LParen
	RParen
	// Comment is a #... line comment or a #[=*[...]=*] bracket comment.
	Comment
	// Newline terminates a logical statement.
	Newline
)

var kindNames = [...]string{
	Invalid:  "Invalid",
	EOF:      "EOF",
	Ident:    "Ident",
	Unquoted: "Unquoted",
	Quoted:   "Quoted",
	Bracket:  "Bracket",
	VarRef:   "VarRef",
	LParen:   "LParen",
	RParen:   "RParen",
	Comment:  "Comment",
	Newline:  "Newline",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}
