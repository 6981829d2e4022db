package decompiler

import (
	"fmt"
	"os"

	"github.com/openSVM/solisp-go/idl"
)

// Result is everything a decompile run produced: rendered source plus the
// intermediate artifacts (instructions, CFG, IDL), for callers that want
// to inspect the recovery beyond the printed text.
type Result struct {
	Source       string
	Instructions []Instr
	CFG          *CFG
	Idl          *idl.Idl
	Warnings     []string
}

// Decompiler turns compiled sBPF ELF bytes back into SRC.
type Decompiler struct {
	options Options
}

// New creates a decompiler with the given options.
func New(options Options) *Decompiler {
	return &Decompiler{options: options}
}

// Decompile disassembles elfBytes, recovers its CFG, optionally loads an
// IDL for semantic naming, and renders SRC. A malformed or missing IDL
// only produces a warning, never a hard failure — decompilation without
// semantic names is still useful.
func (d *Decompiler) Decompile(elfBytes []byte) (*Result, error) {
	var warnings []string

	disasm := NewDisassembler()
	instructions, err := disasm.Disassemble(elfBytes)
	if err != nil {
		return nil, err
	}
	if len(instructions) == 0 {
		return nil, fmt.Errorf("decompiler: no instructions found in ELF")
	}

	cfg := BuildCFG(instructions)

	var anchorIdl *idl.Idl
	if d.options.IdlPath != "" {
		loaded, err := idl.Load(d.options.IdlPath)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to load IDL: %v", err))
		} else {
			anchorIdl = loaded
		}
	}

	emitter := NewEmitter(&d.options, anchorIdl)
	source, err := emitter.Emit(cfg, instructions)
	if err != nil {
		return nil, err
	}

	return &Result{
		Source:       source,
		Instructions: instructions,
		CFG:          cfg,
		Idl:          anchorIdl,
		Warnings:     warnings,
	}, nil
}

// DecompileFile reads path and decompiles its contents.
func (d *Decompiler) DecompileFile(path string) (*Result, error) {
	elfBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("decompiler: read file %s: %w", path, err)
	}
	return d.Decompile(elfBytes)
}
