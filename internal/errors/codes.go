// SPDX-License-Identifier: Apache-2.0
package errors

// Error codes for the pyrite compiler. The codes appear in error messages so
// failures are identifiable across the toolchain.
//
// Error code ranges:
// E0100-E0199: Parser and lexer errors
// E0200-E0299: Structural IR errors
// E0300-E0399: Pass invariant violations
// E0400-E0499: Driver and I/O errors

const (
	// E0100: Syntax errors from the parser
	ErrorSyntax = "E0100"

	// E0101: Indentation errors from the lexer
	ErrorIndentation = "E0101"

	// E0200: Malformed IR instruction
	ErrorMalformedInstruction = "E0200"

	// E0201: Jump target label does not resolve
	ErrorUnresolvedLabel = "E0201"

	// E0300: Value numbering met an operand without a number
	ErrorMissingValueNumber = "E0300"

	// E0301: Flattening contract break: a compound operand survived
	ErrorNotFlat = "E0301"

	// E0400: Input or output file errors
	ErrorFile = "E0400"
)
