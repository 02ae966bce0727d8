// SPDX-License-Identifier: Apache-2.0
package errors

import "fmt"

// DiagnosticBuilder provides a fluent interface for creating compiler errors
// with suggestions and notes.
type DiagnosticBuilder struct {
	err CompilerError
}

// NewParseError creates a syntax diagnostic anchored at a source position.
func NewParseError(message string, pos Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     ErrorSyntax,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewStructuralError creates a diagnostic for malformed IR: a jump whose
// target does not resolve, or an instruction the back end cannot interpret.
// Back-end diagnostics carry the failing function instead of a source
// position.
func NewStructuralError(code, fnName, message string) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:   Error,
			Code:    code,
			Message: fmt.Sprintf("in function %s: %s", fnName, message),
		},
	}
}

// NewInvariantViolation creates a diagnostic for a broken pass precondition,
// which indicates a front-end contract break rather than a user error.
func NewInvariantViolation(code, fnName, message string) *DiagnosticBuilder {
	b := NewStructuralError(code, fnName, message)
	b.err.Notes = append(b.err.Notes, "this is a compiler bug: the front end broke a back-end precondition")
	return b
}

// WithLength sets the length of the error span
func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion to the error
func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, message)
	return b
}

// WithNote adds a note to the error
func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// Build returns the completed compiler error
func (b *DiagnosticBuilder) Build() *CompilerError {
	err := b.err
	return &err
}
