// Package diag carries structured diagnostics between translation phases.
//
// The core never writes to a log: lexer, parser, evaluator, and generator
// report into a Bag through the Reporter interface, and the caller decides
// how to render the result. Severity and Code make every diagnostic
// machine-distinguishable; the Primary span points back at the CMake source.
package diag
