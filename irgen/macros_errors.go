package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
)

// anchorErrorBase is added to a user error code to form the final
// logged/returned value, matching the Anchor convention of reserving
// codes below 6000 for framework-internal errors.
const anchorErrorBase = 6000

// macroAnchorError lowers (anchor-error code) to: compute 6000+code, log
// it via sol_log_64_, and return the computed value (the caller, usually
// `require`, is responsible for deciding whether that return aborts the
// instruction).
func macroAnchorError(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "anchor-error expects (anchor-error code)")
	}
	code, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	full := gs.newReg()
	gs.emit(ir.Add(full, code, constReg(gs, anchorErrorBase)))
	zero := constReg(gs, 0)
	gs.emit(ir.Syscall(ir.Reg{}, false, "sol_log_64_", []ir.Reg{full, zero, zero, zero, zero}))
	return full, nil
}

// macroRequire lowers (require cond code) to a guard identical in shape
// to the account assertions: jump to OK when cond holds, otherwise emit
// the anchor-error path and sol_panic_ with the computed error code so
// the transaction actually aborts rather than merely logging.
func macroRequire(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "require expects (require cond code)")
	}
	cond, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	okLabel := gs.newLabel("require_ok")
	gs.emit(ir.JumpIf(cond, okLabel))

	code, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	full := gs.newReg()
	gs.emit(ir.Add(full, code, constReg(gs, anchorErrorBase)))
	zero := constReg(gs, 0)
	gs.emit(ir.Syscall(ir.Reg{}, false, "sol_log_64_", []ir.Reg{full, zero, zero, zero, zero}))
	gs.emit(ir.Syscall(ir.Reg{}, false, "sol_panic_", []ir.Reg{full}))

	gs.emit(ir.Label(okLabel))
	dst := gs.newReg()
	gs.emit(ir.ConstI64(dst, 0))
	return dst, nil
}

// macroAssume lowers (assume pred) to a ConstI64 0 placeholder and
// records the predicate in gs.Assumptions. The verification-condition
// generator reads assume forms from the AST itself and treats each
// exactly like an `if`-branch guard (a fact the rest of the enclosing
// form may rely on without re-proving it).
func macroAssume(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "assume expects (assume predicate)")
	}
	gs.Assumptions = append(gs.Assumptions, Assumption{Predicate: args[0], Line: form.Line})
	dst := gs.newReg()
	gs.emit(ir.ConstI64(dst, 0))
	return dst, nil
}
