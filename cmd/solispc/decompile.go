package main

import (
	"flag"
	"fmt"

	"github.com/openSVM/solisp-go/decompiler"
)

func cmdDecompile(args []string) error {
	fs := flag.NewFlagSet("decompile", flag.ContinueOnError)
	idlPath := fs.String("idl", "", "Anchor IDL path for semantic-name substitution")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: solispc decompile <program.elf> [-idl path]")
	}
	path := fs.Arg(0)
	// Flags may also follow the path.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}

	d := decompiler.New(decompiler.Options{IdlPath: *idlPath})
	result, err := d.DecompileFile(path)
	if err != nil {
		return fmt.Errorf("decompiling %s: %w", path, err)
	}
	fmt.Println(result.Source)
	return nil
}
