// SPDX-License-Identifier: Apache-2.0
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"pyrite/internal/ast"
	"pyrite/internal/cfg"
	"pyrite/internal/codegen"
	"pyrite/internal/ir"
	"pyrite/internal/parser"
	"pyrite/internal/regalloc"
	"pyrite/internal/rewrite"
)

var log = commonlog.GetLogger("pyrite.driver")

// Options control the compilation side outputs.
type Options struct {
	// DumpSpills writes the per-round spill IR next to the input file.
	DumpSpills bool
}

// Result lists the files a compilation produced.
type Result struct {
	Assembly string
	FlatDump string
	IRDump   string
}

// CompileFile runs the whole pipeline on one source file and writes the
// assembly and the intermediate dumps alongside it.
func CompileFile(path string, opts Options) (*Result, error) {
	module, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	log.Debugf("parsed %s", path)

	base := strings.TrimSuffix(path, filepath.Ext(path))
	return compile(module, base, opts)
}

// CompileSource compiles in-memory source, writing outputs under base.
func CompileSource(name, source, base string, opts Options) (*Result, error) {
	module, err := parser.ParseSource(name, source)
	if err != nil {
		return nil, err
	}
	return compile(module, base, opts)
}

func compile(module *ast.Module, base string, opts Options) (*Result, error) {
	names := ast.NewNameGen()

	// front-end rewrites, in pipeline order
	module = rewrite.Uniquify(module)
	heapVars := rewrite.HeapVars(module)
	module = rewrite.Heapify(module, heapVars)
	module = rewrite.ConvertClosures(module, heapVars, names)
	module = rewrite.Explicate(module, names)
	module = rewrite.Flatten(module, names)
	log.Debugf("front end done: %d heapified variables", len(heapVars))

	result := &Result{
		Assembly: base + ".s",
		FlatDump: base + "_flat.py",
		IRDump:   base + "_flat.ir",
	}

	if err := os.WriteFile(result.FlatDump, []byte(ast.Print(module)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write flat dump: %w", err)
	}

	prog, err := ir.Generate(module, names)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(result.IRDump, []byte(ir.Print(prog)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write IR dump: %w", err)
	}

	var asm strings.Builder
	for _, fn := range prog.Functions {
		text, err := compileFunction(fn, names, base, opts)
		if err != nil {
			return nil, err
		}
		asm.WriteString(text)
	}

	if err := os.WriteFile(result.Assembly, []byte(asm.String()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write assembly: %w", err)
	}
	return result, nil
}

// compileFunction runs the back end for one function: dead-store elimination,
// value numbering, allocation with the spill loop, then materialization.
func compileFunction(fn *ir.Function, names *ast.NameGen, base string, opts Options) (string, error) {
	flow, err := cfg.Build(fn.Name, fn.Insts)
	if err != nil {
		return "", err
	}
	insts := flow.EliminateDeadStores()
	log.Debugf("%s: %d instructions after dead-store elimination", fn.Name, len(insts))

	flow, err = cfg.Build(fn.Name, insts)
	if err != nil {
		return "", err
	}
	insts, err = flow.RunLVN()
	if err != nil {
		return "", err
	}

	var dump func(round int, insts []ir.Instr)
	if opts.DumpSpills {
		dump = func(round int, spillInsts []ir.Instr) {
			path := fmt.Sprintf("%s_%s_spill_%d.ir", base, fn.Name, round)
			dumpFn := ir.Function{Name: fn.Name, Insts: spillInsts}
			if err := os.WriteFile(path, []byte(ir.PrintFunction(&dumpFn)), 0o644); err != nil {
				log.Warningf("failed to write spill dump %s: %s", path, err)
			}
		}
	}

	alloc, err := regalloc.Allocate(fn.Name, insts, names, dump)
	if err != nil {
		return "", err
	}
	log.Debugf("%s: frame size %d bytes", fn.Name, codegen.FrameSize(alloc.Graph))

	return codegen.EmitFunction(fn.Name, alloc), nil
}
