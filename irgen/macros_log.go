package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
)

// macroSolLog lowers (sol_log_ "message") to the sol_log_ syscall, which
// takes a pointer/length pair over a UTF-8 buffer.
func macroSolLog(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "sol_log_ expects exactly one message argument")
	}
	msgReg, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_log_", []ir.Reg{msgReg}))
	return dst, nil
}

// macroSolLog64 lowers (sol_log_64_ a b c d e), the five-register raw
// debug logger.
func macroSolLog64(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 5 {
		return ir.Reg{}, genError(form, "sol_log_64_ expects exactly 5 arguments")
	}
	regs := make([]ir.Reg, 0, 5)
	for _, a := range args {
		r, err := gs.genExpr(a)
		if err != nil {
			return ir.Reg{}, err
		}
		regs = append(regs, r)
	}
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_log_64_", regs))
	return dst, nil
}

// macroSolLogPubkey lowers (sol_log_pubkey ptr).
func macroSolLogPubkey(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "sol_log_pubkey expects exactly one pubkey pointer argument")
	}
	ptr, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_log_pubkey", []ir.Reg{ptr}))
	return dst, nil
}

// macroSolLogComputeUnits lowers the zero-argument compute-budget logger.
func macroSolLogComputeUnits(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 0 {
		return ir.Reg{}, genError(form, "sol_log_compute_units_ takes no arguments")
	}
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_log_compute_units_", nil))
	return dst, nil
}

// macroSyscall lowers the generic escape hatch (syscall "name" arg...)
// for any syscall this core doesn't have a dedicated macro for.
func macroSyscall(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 1 {
		return ir.Reg{}, genError(form, "syscall expects (syscall \"name\" arg...)")
	}
	name, ok := requireString(args[0])
	if !ok {
		return ir.Reg{}, genError(form, "syscall name must be a string literal")
	}
	regs := make([]ir.Reg, 0, len(args)-1)
	for _, a := range args[1:] {
		r, err := gs.genExpr(a)
		if err != nil {
			return ir.Reg{}, err
		}
		regs = append(regs, r)
	}
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, name, regs))
	return dst, nil
}

// macroMsg lowers both `msg` and `log` forms. Source programs write
// `(msg "literal")` or `(log :level "info" "literal")`; the level
// keyword is accepted and discarded (there is no structured-logging
// syscall on-chain — everything becomes a sol_log_ call).
func macroMsg(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	var text *ast.Node
	for i := 0; i < len(args); i++ {
		if args[i].Kind == ast.NodeSymbol && len(args[i].Sym) > 0 && args[i].Sym[0] == ':' {
			i++ // skip the keyword's value too
			continue
		}
		text = args[i]
	}
	if text == nil {
		return ir.Reg{}, genError(form, "msg/log requires a message argument")
	}
	msgReg, err := gs.genExpr(text)
	if err != nil {
		return ir.Reg{}, err
	}
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_log_", []ir.Reg{msgReg}))
	return dst, nil
}
