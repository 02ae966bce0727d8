// SPDX-License-Identifier: Apache-2.0
package ast

import "fmt"

// NameGen mints the compiler's synthetic names. It is carried in a
// per-compilation context rather than a package global so that output is
// deterministic run to run: a fresh compilation starts both counters at zero.
type NameGen struct {
	tmp    int
	lambda int
}

func NewNameGen() *NameGen {
	return &NameGen{}
}

// Temp returns the next tmp_<n> name.
func (g *NameGen) Temp() string {
	g.tmp++
	return fmt.Sprintf("tmp_%d", g.tmp)
}

// TempPrefix returns the next <prefix>_<n> name off the temporary counter.
func (g *NameGen) TempPrefix(prefix string) string {
	g.tmp++
	return fmt.Sprintf("%s_%d", prefix, g.tmp)
}

// LambdaName returns the next lifted-closure name, optionally tagged with the
// source function's name. The lambda_ prefix is load-bearing: the back end
// treats lambda_-prefixed call targets as direct.
func (g *NameGen) LambdaName(base string) string {
	n := g.lambda
	g.lambda++
	if base == "" {
		return fmt.Sprintf("lambda_%d", n)
	}
	return fmt.Sprintf("lambda_%s_%d", base, n)
}
