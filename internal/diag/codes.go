package diag

import (
	"fmt"
)

// Code identifies one diagnostic kind. Ranges are reserved per phase:
// 1xxx lexer, 2xxx parser, 3xxx evaluator, 4xxx build model, 5xxx generator,
// 6xxx driver I/O.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                Code = 1000
	LexUnknownChar         Code = 1001
	LexUnterminatedQuote   Code = 1002
	LexUnterminatedBracket Code = 1003
	LexBadEscape           Code = 1004
	LexUnterminatedVarRef  Code = 1005

	// Syntactic
	ParseInfo               Code = 2000
	ParseUnexpectedToken    Code = 2001
	ParseUnterminatedBlock  Code = 2002
	ParseMismatchedBlock    Code = 2003
	ParseStrayTerminator    Code = 2004
	ParseBadConstructArity  Code = 2005
	ParseExpectedCommand    Code = 2006
	ParseExpectedParen      Code = 2007

	// Evaluation
	EvalInfo               Code = 3000
	EvalUnsupportedCommand Code = 3001
	EvalUnresolvedVariable Code = 3002
	EvalBadCommandArity    Code = 3003
	EvalBadCondition       Code = 3004
	EvalUnknownTarget      Code = 3005
	EvalDuplicateTarget    Code = 3006
	EvalUnsupportedClause  Code = 3007
	EvalRecursionLimit     Code = 3008

	// Build model finalization
	ModelUnknownDependency Code = 4001
	ModelCyclicDependency  Code = 4002

	// Generation
	GenInfo               Code = 5000
	GenBadMapping         Code = 5001
	GenExcludedDependency Code = 5002
	GenExcludedTarget     Code = 5003

	// Driver I/O
	IOLoadFileError Code = 6001
)

var codeIDs = map[Code]string{
	UnknownCode: "UNKNOWN",

	LexInfo:                "LEX_INFO",
	LexUnknownChar:         "LEX_UNKNOWN_CHAR",
	LexUnterminatedQuote:   "LEX_UNTERMINATED_QUOTE",
	LexUnterminatedBracket: "LEX_UNTERMINATED_BRACKET",
	LexBadEscape:           "LEX_BAD_ESCAPE",
	LexUnterminatedVarRef:  "LEX_UNTERMINATED_VARREF",

	ParseInfo:               "PARSE_INFO",
	ParseUnexpectedToken:    "PARSE_UNEXPECTED_TOKEN",
	ParseUnterminatedBlock:  "PARSE_UNTERMINATED_BLOCK",
	ParseMismatchedBlock:    "PARSE_MISMATCHED_BLOCK",
	ParseStrayTerminator:    "PARSE_STRAY_TERMINATOR",
	ParseBadConstructArity:  "PARSE_BAD_CONSTRUCT_ARITY",
	ParseExpectedCommand:    "PARSE_EXPECTED_COMMAND",
	ParseExpectedParen:      "PARSE_EXPECTED_PAREN",

	EvalInfo:               "EVAL_INFO",
	EvalUnsupportedCommand: "EVAL_UNSUPPORTED_COMMAND",
	EvalUnresolvedVariable: "EVAL_UNRESOLVED_VARIABLE",
	EvalBadCommandArity:    "EVAL_BAD_COMMAND_ARITY",
	EvalBadCondition:       "EVAL_BAD_CONDITION",
	EvalUnknownTarget:      "EVAL_UNKNOWN_TARGET",
	EvalDuplicateTarget:    "EVAL_DUPLICATE_TARGET",
	EvalUnsupportedClause:  "EVAL_UNSUPPORTED_CLAUSE",
	EvalRecursionLimit:     "EVAL_RECURSION_LIMIT",

	ModelUnknownDependency: "MODEL_UNKNOWN_DEPENDENCY",
	ModelCyclicDependency:  "MODEL_CYCLIC_DEPENDENCY",

	GenInfo:               "GEN_INFO",
	GenBadMapping:         "GEN_BAD_MAPPING",
	GenExcludedDependency: "GEN_EXCLUDED_DEPENDENCY",
	GenExcludedTarget:     "GEN_EXCLUDED_TARGET",

	IOLoadFileError: "IO_LOAD_FILE_ERROR",
}

// ID returns the stable identifier used in rendered output.
func (c Code) ID() string {
	if id, ok := codeIDs[c]; ok {
		return id
	}
	return fmt.Sprintf("CODE_%04d", uint16(c))
}

func (c Code) String() string {
	return c.ID()
}
