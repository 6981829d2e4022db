package decompiler

import (
	"fmt"
	"strings"

	"github.com/openSVM/solisp-go/idl"
)

// Options controls how Emit renders recovered SRC.
type Options struct {
	IdlPath        string
	ShowAddresses  bool
	InlineConstants bool
	UseIdlNames    bool
}

// knownSyscalls maps a handful of well-known Solana syscall hashes to their
// symbol name. The full symbol table this is grounded on (a hash->name
// map built at codegen time from the linked syscall symbol list) wasn't
// available to build this package from, so only the most common entries
// are seeded here; anything else renders as "syscall-0x...".
var knownSyscalls = map[uint32]string{
	0x5b79fd70: "sol_log_",
	0x2a2a7ae9: "sol_log_64_",
	0x7317b434: "sol_log_pubkey",
	0x207e06ca: "sol_log_compute_units_",
	0xa22b9c85: "sol_invoke_signed_c",
	0x6a2b8b6c: "sol_invoke_signed_rust",
	0x52ba5096: "sol_create_program_address",
	0x9377323c: "sol_try_find_program_address",
	0x717cc4a3: "sol_get_clock_sysvar",
	0x3b97b73c: "sol_get_rent_sysvar",
	0xc4947c21: "sol_memcpy_",
	0x3770fb22: "sol_memset_",
	0x3fdd7409: "sol_memcmp_",
}

// syscallName converts an immediate call hash into an OVSM-style symbol
// name (sol_log_ -> sol-log), falling back to a hex label when the hash
// isn't in the known table.
func syscallName(hash int32) string {
	h := uint32(hash)
	if name, ok := knownSyscalls[h]; ok {
		name = strings.TrimRight(name, "_")
		name = strings.ReplaceAll(name, "sol_", "sol-")
		name = strings.ReplaceAll(name, "_", "-")
		return name
	}
	return fmt.Sprintf("syscall-%#x", h)
}

// Emitter renders a recovered CFG as SRC, a pseudo-Lisp dialect with the
// same overall (define-program ...) shape this compiler's front end
// accepts as input.
type Emitter struct {
	options *Options
	idl     *idl.Idl
}

// NewEmitter creates an emitter. idl may be nil when no IDL was supplied.
func NewEmitter(options *Options, anchorIdl *idl.Idl) *Emitter {
	return &Emitter{options: options, idl: anchorIdl}
}

// Emit renders the whole program: a header comment, then one
// (define-program ...) form with every recovered block in topological
// order inside its single entrypoint body.
func (e *Emitter) Emit(cfg *CFG, instructions []Instr) (string, error) {
	var out strings.Builder

	out.WriteString(";;; Decompiled from sBPF bytecode\n")
	if e.idl != nil {
		fmt.Fprintf(&out, ";;; Program: %s v%s\n", e.idl.Name, e.idl.Version)
	}
	out.WriteString(";;;\n\n")

	out.WriteString("(define-program decompiled\n")
	out.WriteString("  (entrypoint (accounts instruction-data)\n")

	for _, blockID := range cfg.BlocksTopoOrder() {
		block, ok := cfg.GetBlock(blockID)
		if !ok {
			continue
		}
		blockCode, err := e.emitBlock(block, instructions, cfg)
		if err != nil {
			return "", err
		}
		out.WriteString(blockCode)
	}

	out.WriteString("    ))\n")

	return out.String(), nil
}

func (e *Emitter) emitBlock(block *Block, instructions []Instr, cfg *CFG) (string, error) {
	var out strings.Builder
	const indent = "    "

	if e.options.ShowAddresses {
		fmt.Fprintf(&out, "%s  ;; Block %d (offset 0x%x)\n", indent, block.ID, block.StartOffset)
	}
	if cfg.IsLoopHeader(block.ID) {
		fmt.Fprintf(&out, "%s  ;; Loop header\n", indent)
	}

	for _, idx := range block.Instructions {
		if idx >= len(instructions) {
			continue
		}
		in := instructions[idx]
		rendered, err := e.emitInstruction(in)
		if err != nil {
			return "", err
		}
		if rendered == "" {
			continue
		}
		if e.options.ShowAddresses {
			fmt.Fprintf(&out, "%s  ;; 0x%04x: %s\n", indent, in.Offset, in.ToAsm())
		}
		fmt.Fprintf(&out, "%s  %s\n", indent, rendered)
	}

	return out.String(), nil
}

// regAlias names the low argument/return registers the Solana calling
// convention gives fixed meaning, so rendered SRC reads "arg1" rather
// than "r1".
func regAlias(r byte) string {
	switch r {
	case 0:
		return "result"
	case 1:
		return "arg1"
	case 2:
		return "arg2"
	case 3:
		return "arg3"
	case 4:
		return "arg4"
	case 5:
		return "arg5"
	case 10:
		return "frame-ptr"
	default:
		return fmt.Sprintf("r%d", r)
	}
}

// emitInstruction renders one decoded instruction as an SRC form. An
// unconditional ja renders as a `;; jump +N` comment and a conditional
// jump as an (if ...) form with an elided branch body: full branch
// reconstruction belongs to the CFG/block structure the caller already
// walks, not to a single instruction's text.
func (e *Emitter) emitInstruction(in Instr) (string, error) {
	dst := regAlias(in.Dst)
	src := regAlias(in.Src)

	switch in.Opcode {
	case 0xb7:
		return fmt.Sprintf("(define %s %d)", dst, in.Imm), nil
	case 0xbf:
		return fmt.Sprintf("(define %s %s)", dst, src), nil

	case 0x07:
		return fmt.Sprintf("(set! %s (+ %s %d))", dst, dst, in.Imm), nil
	case 0x0f:
		return fmt.Sprintf("(set! %s (+ %s %s))", dst, dst, src), nil
	case 0x17:
		return fmt.Sprintf("(set! %s (- %s %d))", dst, dst, in.Imm), nil
	case 0x1f:
		return fmt.Sprintf("(set! %s (- %s %s))", dst, dst, src), nil
	case 0x27:
		return fmt.Sprintf("(set! %s (* %s %d))", dst, dst, in.Imm), nil
	case 0x2f:
		return fmt.Sprintf("(set! %s (* %s %s))", dst, dst, src), nil
	case 0x37:
		return fmt.Sprintf("(set! %s (/ %s %d))", dst, dst, in.Imm), nil
	case 0x3f:
		return fmt.Sprintf("(set! %s (/ %s %s))", dst, dst, src), nil
	case 0x97:
		return fmt.Sprintf("(set! %s (%% %s %d))", dst, dst, in.Imm), nil
	case 0x9f:
		return fmt.Sprintf("(set! %s (%% %s %s))", dst, dst, src), nil
	case 0x57:
		return fmt.Sprintf("(set! %s (and %s %d))", dst, dst, in.Imm), nil
	case 0x5f:
		return fmt.Sprintf("(set! %s (and %s %s))", dst, dst, src), nil
	case 0x47:
		return fmt.Sprintf("(set! %s (or %s %d))", dst, dst, in.Imm), nil
	case 0x4f:
		return fmt.Sprintf("(set! %s (or %s %s))", dst, dst, src), nil
	case 0x87:
		return fmt.Sprintf("(set! %s (- 0 %s))", dst, dst), nil

	case 0x79:
		if e.options.UseIdlNames {
			return fmt.Sprintf("(define %s (load %s %d))", dst, src, in.Off), nil
		}
		return fmt.Sprintf("(define %s (mem-load %s %d))", dst, src, in.Off), nil
	case 0x7b:
		return fmt.Sprintf("(mem-store %s %d %s)", dst, in.Off, src), nil

	case 0x05:
		return fmt.Sprintf(";; jump +%d", in.Off), nil

	case 0x15:
		return fmt.Sprintf("(if (= %s %d) ...)", dst, in.Imm), nil
	case 0x1d:
		return fmt.Sprintf("(if (= %s %s) ...)", dst, src), nil
	case 0x55:
		return fmt.Sprintf("(if (!= %s %d) ...)", dst, in.Imm), nil
	case 0x5d:
		return fmt.Sprintf("(if (!= %s %s) ...)", dst, src), nil
	case 0x25:
		return fmt.Sprintf("(if (> %s %d) ...)", dst, in.Imm), nil
	case 0x2d:
		return fmt.Sprintf("(if (> %s %s) ...)", dst, src), nil
	case 0x35:
		return fmt.Sprintf("(if (>= %s %d) ...)", dst, in.Imm), nil
	case 0x3d:
		return fmt.Sprintf("(if (>= %s %s) ...)", dst, src), nil
	case 0xa5:
		return fmt.Sprintf("(if (< %s %d) ...)", dst, in.Imm), nil
	case 0xad:
		return fmt.Sprintf("(if (< %s %s) ...)", dst, src), nil
	case 0xb5:
		return fmt.Sprintf("(if (<= %s %d) ...)", dst, in.Imm), nil
	case 0xbd:
		return fmt.Sprintf("(if (<= %s %s) ...)", dst, src), nil

	case 0x85:
		return fmt.Sprintf("(%s)", syscallName(in.Imm)), nil
	case 0x95:
		return "(return result)", nil

	default:
		if e.options.ShowAddresses {
			return fmt.Sprintf(";; unknown: %s", in.ToAsm()), nil
		}
		return "", nil
	}
}
