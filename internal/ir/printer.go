// SPDX-License-Identifier: Apache-2.0
package ir

import "strings"

// Print renders a program in the textual form written to the _flat.ir dump.
func Print(p *Program) string {
	var out strings.Builder
	for _, fn := range p.Functions {
		out.WriteString(PrintFunction(fn))
	}
	return out.String()
}

// PrintFunction renders one function's instruction list, one per line.
func PrintFunction(fn *Function) string {
	var out strings.Builder
	for _, in := range fn.Insts {
		out.WriteString(in.String())
		out.WriteString("\n")
	}
	return out.String()
}
