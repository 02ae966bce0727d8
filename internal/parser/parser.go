// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"

	"pyrite/grammar"
	"pyrite/internal/ast"
)

var parser = buildParser()

func buildParser() *participle.Parser[grammar.Program] {
	p, err := participle.Build[grammar.Program](
		participle.Lexer(grammar.PyriteLexer),
		participle.UseLookahead(3),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build parser: %w", err))
	}

	return p
}

// ParseFile parses a source file into the compiler AST.
func ParseFile(path string) (*ast.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseSource(path, string(source))
}

// ParseSource parses source text into the compiler AST.
func ParseSource(sourceName string, source string) (*ast.Module, error) {
	program, err := parser.ParseString(sourceName, source)
	if err != nil {
		return nil, err
	}
	return Lower(program)
}
