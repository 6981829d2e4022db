package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/openSVM/solisp-go/abi"
	"github.com/openSVM/solisp-go/internal/config"
	"github.com/openSVM/solisp-go/internal/diag"
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/irgen"
	"github.com/openSVM/solisp-go/optimizer"

	astpkg "github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/vcgen"
)

func cmdCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	defaults := config.Load()
	optLevel := fs.Int("O", int(defaults.OptLevel), "optimization level 0-3")
	vcMode := fs.String("vc", defaults.VCMode, "verification-condition mode: skip|warn|strict")
	strictMemory := fs.Bool("strict-memory", defaults.StrictMemory, "fail generation on any memory-model error")
	maxAccounts := fs.Int("max-accounts", int(defaults.MaxAccounts), "known account-count bound (0 = unknown)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: solispc compile <program.json> [flags]")
	}
	path := fs.Arg(0)
	// Flags may also follow the path.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	program, err := astpkg.DecodeProgram(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	collector := diag.NewCollector(20)

	irProgram, genErr := irgen.Generate(program, irgen.Options{
		StrictMemory: *strictMemory,
		NumAccounts:  uint8(*maxAccounts),
	})
	if memErrs, ok := genErr.(*irgen.MemoryErrors); ok {
		for _, e := range memErrs.Errors {
			collector.Add(diag.MemoryError(e.Error(), diag.Location{}))
		}
	} else if genErr != nil {
		return genErr
	}

	opt := optimizer.New(uint8(*optLevel))
	opt.Optimize(irProgram)
	irProgram.Instructions = abi.InjectEntrypointWrapper(irProgram.Instructions)

	mode := vcgen.ParseMode(*vcMode)
	vcs := vcgen.New(mode).Run(program)
	if mode == vcgen.Strict && vcgen.AnyFailed(vcs) {
		for _, vc := range vcs {
			if vc.Status == vcgen.Failed {
				collector.Add(diag.VerificationFailure(vc.Description+": "+vc.Property, diag.Location{Line: vc.Location.Line}))
			}
		}
	}

	fmt.Println(dumpProgram(irProgram))
	if mode != vcgen.Skip && len(vcs) > 0 {
		fmt.Println("--- verification conditions ---")
		fmt.Print(vcgen.Pretty(vcs))
	}

	if collector.HasErrors() {
		fmt.Fprint(os.Stderr, collector.Report(true))
		if *strictMemory || mode == vcgen.Strict {
			return fmt.Errorf("compilation failed")
		}
	}
	return nil
}

// dumpProgram renders an IR program as a flat listing, one instruction
// per line, the same shape the optimizer/decompiler tests assert against
// informally.
func dumpProgram(p *ir.Program) string {
	var out string
	for i, instr := range p.Instructions {
		out += fmt.Sprintf("%4d  %s\n", i, dumpInstr(instr))
	}
	return out
}

func dumpInstr(in ir.Instruction) string {
	switch in.Op {
	case ir.OpLabel:
		return in.Target + ":"
	case ir.OpJump:
		return fmt.Sprintf("jump %s", in.Target)
	case ir.OpJumpIf:
		return fmt.Sprintf("jumpif %s, %s", in.Src1, in.Target)
	case ir.OpJumpIfNot:
		return fmt.Sprintf("jumpifnot %s, %s", in.Src1, in.Target)
	case ir.OpCall, ir.OpSyscall:
		if in.HasDst {
			return fmt.Sprintf("%s = %s %s(%v)", in.Dst, in.Op, in.Target, in.Args)
		}
		return fmt.Sprintf("%s %s(%v)", in.Op, in.Target, in.Args)
	case ir.OpReturn:
		if in.HasDst {
			return fmt.Sprintf("return %s", in.Src1)
		}
		return "return"
	case ir.OpConstI64:
		return fmt.Sprintf("%s = %d", in.Dst, in.ImmI)
	case ir.OpNop:
		return "nop"
	default:
		if in.HasDst {
			return fmt.Sprintf("%s = %s %s, %s", in.Dst, in.Op, in.Src1, in.Src2)
		}
		return fmt.Sprintf("%s %s, %s, off=%d", in.Op, in.Src1, in.Src2, in.ImmI)
	}
}
