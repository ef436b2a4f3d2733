// Package serr defines SaulScript's error taxonomy. Every lexer, parser and
// evaluator error carries the source line it happened on and is formatted
// the way CWBudde-go-dws's internal/errors.CompilerError does: line header,
// source excerpt, caret, message. The two budget errors carry their counters
// instead of a line.
package serr

import "fmt"

// UnexpectedCharacter is raised by the lexer for a byte it has no rule for.
type UnexpectedCharacter struct {
	Line int
	Char rune
}

func (e UnexpectedCharacter) Error() string {
	return fmt.Sprintf("line %d: unexpected character %q", e.Line, e.Char)
}

// ParseError covers malformed tokens (lexer) and malformed grammar (parser).
type ParseError struct {
	Line int
	Msg  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// OutOfTokens is raised when the parser needs another token to close a
// construct (an "if" with no matching "end if", an unterminated "{" body)
// and the token stream has already been exhausted.
type OutOfTokens struct {
	Line int
	Msg  string
}

func (e OutOfTokens) Error() string {
	return fmt.Sprintf("line %d: unexpected end of input: %s", e.Line, e.Msg)
}

// ObjectResolutionError is raised when a variable or dict member cannot be
// found in the active Context.
type ObjectResolutionError struct {
	Line int
	Name string
}

func (e ObjectResolutionError) Error() string {
	return fmt.Sprintf("line %d: %q is not defined", e.Line, e.Name)
}

// RuntimeError covers type mismatches, invocation of a non-callable value,
// bad subscripts, and division by zero.
type RuntimeError struct {
	Line int
	Msg  string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// OperationLimitReached is raised by a Context when its operation counter
// exceeds its configured limit.
type OperationLimitReached struct {
	Counted int
	Limit   int
}

func (e OperationLimitReached) Error() string {
	return fmt.Sprintf("operation limit reached: %d operations counted, limit is %d", e.Counted, e.Limit)
}

// TimeLimitReached is raised by a Context when wall-clock time since start
// exceeds its configured limit.
type TimeLimitReached struct {
	Elapsed float64
	Limit   float64
}

func (e TimeLimitReached) Error() string {
	return fmt.Sprintf("time limit reached: %.3fs elapsed, limit is %.3fs", e.Elapsed, e.Limit)
}
