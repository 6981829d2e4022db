// Command solispc is the thin CLI front end over the compiler core: it
// parses the subcommand, reads the relevant file(s), and calls into
// irgen/optimizer/abi/vcgen/decompiler, rendering their output as text.
// It does not itself lower IR to sBPF bytecode or link an ELF — that
// stage is a downstream concern this core only describes by contract.
package main

import (
	"fmt"
	"os"
)

const versionString = "solispc (solisp-go core) dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return cmdHelp()
	}

	switch args[0] {
	case "compile":
		if len(args) < 2 {
			return fmt.Errorf("usage: solispc compile <program.json> [-O level] [-vc mode]")
		}
		return cmdCompile(args[1:])
	case "decompile":
		if len(args) < 2 {
			return fmt.Errorf("usage: solispc decompile <program.elf>")
		}
		return cmdDecompile(args[1:])
	case "watch":
		if len(args) < 2 {
			return fmt.Errorf("usage: solispc watch <program.json>")
		}
		return cmdWatch(args[1:])
	case "help", "--help", "-h":
		return cmdHelp()
	case "version", "--version", "-V":
		fmt.Println(versionString)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\n\nRun 'solispc help' for usage information", args[0])
	}
}

func cmdHelp() error {
	fmt.Println(`solispc - Solana sBPF core compiler

Usage:
  solispc compile <program.json> [-O 0-3] [-vc skip|warn|strict]
      Lower an AST program (the external parser's JSON contract) to IR,
      run the optimizer and ABI wrapper, and walk the AST for
      verification conditions. Prints the optimized IR and the VC report.

  solispc decompile <program.elf>
      Disassemble a compiled sBPF ELF object, recover its control flow
      graph, and print the reconstructed pseudo-source.

  solispc watch <program.json>
      Recompile on every save (Linux only; uses inotify).

  solispc help
  solispc version`)
	return nil
}
