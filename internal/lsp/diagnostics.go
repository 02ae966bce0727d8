// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ConvertParseError maps a parse failure onto LSP diagnostics. Participle
// errors carry a position; anything else anchors at the top of the document.
func ConvertParseError(err error) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := "pyrite"

	diagnostic := protocol.Diagnostic{
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}

	if pe, ok := err.(participle.Error); ok {
		pos := pe.Position()
		line := uint32(0)
		if pos.Line > 0 {
			line = uint32(pos.Line - 1)
		}
		character := uint32(0)
		if pos.Column > 0 {
			character = uint32(pos.Column - 1)
		}
		diagnostic.Range = protocol.Range{
			Start: protocol.Position{Line: line, Character: character},
			End:   protocol.Position{Line: line, Character: character + 1},
		}
		diagnostic.Message = pe.Message()
	}

	return []protocol.Diagnostic{diagnostic}
}
