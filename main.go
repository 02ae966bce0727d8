// SPDX-License-Identifier: Apache-2.0
package main

import (
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"pyrite/internal/driver"
	perrors "pyrite/internal/errors"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	dumpSpills := flag.Bool("dump-spills", false, "write per-round spill IR next to the input")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: pyrite [flags] <file.py>")
		os.Exit(1)
	}

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	path := flag.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	result, err := driver.CompileFile(path, driver.Options{DumpSpills: *dumpSpills})
	if err != nil {
		reportError(string(source), err)
		os.Exit(1)
	}

	color.Green("✅ Compiled %s -> %s", path, result.Assembly)
}

// reportError prints a friendly caret-style message for parse errors and a
// plain diagnostic for everything else.
func reportError(src string, err error) {
	var ce *perrors.CompilerError
	if stderrors.As(err, &ce) {
		reporter := perrors.NewErrorReporter(flag.Arg(0), src)
		fmt.Print(reporter.FormatError(*ce))
		return
	}

	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("❌ Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
