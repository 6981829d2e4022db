package irgen

import (
	"math"

	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/internal/suggest"
	"github.com/openSVM/solisp-go/ir"
)

// genStatement lowers one top-level form. A statement is just an
// expression whose result register is discarded, except for the core
// special forms (if/while/for/return) which don't produce a meaningful
// value of their own.
func (gs *GeneratorState) genStatement(form *ast.Node) (ir.Reg, error) {
	return gs.genExpr(form)
}

// genExpr is the single recursive entry point for lowering any form:
// atoms, core special forms, domain macros, and the generic call
// fallback all go through here.
func (gs *GeneratorState) genExpr(form *ast.Node) (ir.Reg, error) {
	if form == nil {
		r := gs.newReg()
		gs.emit(ir.ConstNull(r))
		return r, nil
	}

	switch form.Kind {
	case ast.NodeInt:
		r := gs.newReg()
		gs.emit(ir.ConstI64(r, form.Int))
		return r, nil
	case ast.NodeFloat:
		r := gs.newReg()
		gs.emit(ir.ConstF64(r, math.Float64bits(form.Flt)))
		return r, nil
	case ast.NodeString:
		r := gs.newReg()
		idx := gs.Program.InternString(form.Str)
		gs.emit(ir.ConstString(r, idx))
		return r, nil
	case ast.NodeBool:
		r := gs.newReg()
		gs.emit(ir.ConstBool(r, form.Bool))
		return r, nil
	case ast.NodeNil:
		r := gs.newReg()
		gs.emit(ir.ConstNull(r))
		return r, nil
	case ast.NodeSymbol:
		if reg, ok := gs.lookupVar(form.Sym); ok {
			return reg, nil
		}
		if near := suggest.Candidates(form.Sym, gs.varNames(), 1); len(near) > 0 {
			return ir.Reg{}, genError(form, "undefined variable %q (did you mean %q?)", form.Sym, near[0])
		}
		return ir.Reg{}, genError(form, "undefined variable %q", form.Sym)
	case ast.NodeList:
		return gs.genList(form)
	default:
		return ir.Reg{}, genError(form, "unrecognized node kind")
	}
}

func (gs *GeneratorState) genList(form *ast.Node) (ir.Reg, error) {
	if len(form.List) == 0 {
		r := gs.newReg()
		gs.emit(ir.ConstNull(r))
		return r, nil
	}

	head := form.HeadSymbol()
	args := form.Args()

	switch head {
	case "define":
		return gs.genDefine(form, args)
	case "set!":
		return gs.genSet(form, args)
	case "if":
		return gs.genIf(form, args)
	case "while":
		return gs.genWhile(form, args)
	case "for":
		return gs.genFor(form, args)
	case "return":
		return gs.genReturn(form, args)
	case "do":
		return gs.genDo(form, args)
	case ":":
		return gs.genTypeAnnotation(form, args)
	case "lambda":
		return gs.genLambda(form, args)
	case "+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "and", "or":
		return gs.genBinOp(form, head, args)
	case "not":
		return gs.genUnaryNot(form, args)
	case "neg":
		return gs.genUnaryNeg(form, args)
	}

	if handler, ok := macroTable[head]; ok {
		return handler(gs, form, args)
	}

	return gs.genGenericCall(form, head, args)
}

// genDefine binds name to a freshly generated expression's register.
func (gs *GeneratorState) genDefine(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 || args[0].Kind != ast.NodeSymbol {
		return ir.Reg{}, genError(form, "define expects (define name expr)")
	}
	reg, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	gs.bindVar(args[0].Sym, reg)
	return reg, nil
}

// genSet emits a Move into the pre-existing binding's register, so the
// variable's identity (and every outstanding reference to its register)
// stays valid across the mutation.
func (gs *GeneratorState) genSet(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 || args[0].Kind != ast.NodeSymbol {
		return ir.Reg{}, genError(form, "set! expects (set! name expr)")
	}
	existing, ok := gs.lookupVar(args[0].Sym)
	if !ok {
		return ir.Reg{}, genError(form, "set! of undefined variable %q", args[0].Sym)
	}
	value, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	gs.emit(ir.Move(existing, value))
	return existing, nil
}

// genIf builds the standard diamond CFG: condition, conditional jump to
// the else branch, then branch, unconditional jump to merge, else label,
// else branch, merge label. Both arms' results are moved into a shared
// merge register.
func (gs *GeneratorState) genIf(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 2 || len(args) > 3 {
		return ir.Reg{}, genError(form, "if expects (if cond then [else])")
	}

	cond, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}

	elseLabel := gs.newLabel("if_else")
	endLabel := gs.newLabel("if_end")
	merge := gs.newReg()

	gs.emit(ir.JumpIfNot(cond, elseLabel))

	thenVal, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	gs.emit(ir.Move(merge, thenVal))
	gs.emit(ir.Jump(endLabel))

	gs.emit(ir.Label(elseLabel))
	if len(args) == 3 {
		elseVal, err := gs.genExpr(args[2])
		if err != nil {
			return ir.Reg{}, err
		}
		gs.emit(ir.Move(merge, elseVal))
	} else {
		gs.emit(ir.ConstNull(merge))
	}
	gs.emit(ir.Label(endLabel))

	return merge, nil
}

// genWhile lowers (while cond body...): test label, condition, exit jump,
// body statements, jump back to test, exit label.
func (gs *GeneratorState) genWhile(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 1 {
		return ir.Reg{}, genError(form, "while expects (while cond body...)")
	}

	testLabel := gs.newLabel("while_test")
	exitLabel := gs.newLabel("while_exit")

	gs.emit(ir.Label(testLabel))
	cond, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	gs.emit(ir.JumpIfNot(cond, exitLabel))

	for _, stmt := range args[1:] {
		if _, err := gs.genStatement(stmt); err != nil {
			return ir.Reg{}, err
		}
	}
	gs.emit(ir.Jump(testLabel))
	gs.emit(ir.Label(exitLabel))

	r := gs.newReg()
	gs.emit(ir.ConstNull(r))
	return r, nil
}

// genFor lowers (for item iterable body...) using generic length/get
// calls over the iterable, per the design's "For uses generic length and
// get calls on the iterable" rule.
func (gs *GeneratorState) genFor(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 2 || args[0].Kind != ast.NodeSymbol {
		return ir.Reg{}, genError(form, "for expects (for item iterable body...)")
	}

	iterable, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}

	length := gs.newReg()
	gs.emit(ir.Call(length, true, "length", []ir.Reg{iterable}))

	idx := gs.newReg()
	gs.emit(ir.ConstI64(idx, 0))

	testLabel := gs.newLabel("for_test")
	exitLabel := gs.newLabel("for_exit")
	gs.emit(ir.Label(testLabel))

	done := gs.newReg()
	gs.emit(ir.Ge(done, idx, length))
	gs.emit(ir.JumpIf(done, exitLabel))

	item := gs.newReg()
	gs.emit(ir.Call(item, true, "get", []ir.Reg{iterable, idx}))
	gs.bindVar(args[0].Sym, item)

	for _, stmt := range args[2:] {
		if _, err := gs.genStatement(stmt); err != nil {
			return ir.Reg{}, err
		}
	}

	one := gs.newReg()
	gs.emit(ir.ConstI64(one, 1))
	gs.emit(ir.Add(idx, idx, one))
	gs.emit(ir.Jump(testLabel))
	gs.emit(ir.Label(exitLabel))

	r := gs.newReg()
	gs.emit(ir.ConstNull(r))
	return r, nil
}

func (gs *GeneratorState) genReturn(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) == 0 {
		gs.emit(ir.Return(ir.Reg{}, false))
		return ir.Reg{}, nil
	}
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "return expects at most one value")
	}
	val, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	gs.emit(ir.Return(val, true))
	return val, nil
}

// genDo evaluates every form in sequence and returns the last one's
// register. (`while` has its own lowering, genWhile.)
func (gs *GeneratorState) genDo(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) == 0 {
		return ir.Reg{}, genError(form, "do expects at least one form")
	}
	var last ir.Reg
	for _, a := range args {
		r, err := gs.genExpr(a)
		if err != nil {
			return ir.Reg{}, err
		}
		last = r
	}
	return last, nil
}

// genTypeAnnotation lowers `e`, then records `T` as e's IR register type
// via the type bridge, per the `(: e T)` form. A RefinedTypeExpr is
// treated as its base type for code generation; its predicate isn't
// consulted here at all (only vcgen reads it).
func (gs *GeneratorState) genTypeAnnotation(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, ": expects (: expr type)")
	}
	reg, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	srcType, err := parseSourceType(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	irType := gs.Bridge.SourceToIr(srcType, gs.Types)

	if existing, ok := gs.TypeEnv.GetType(reg); ok {
		if !gs.Bridge.TypesCompatible(srcType, existing, gs.Types) {
			return ir.Reg{}, genError(form, "type annotation mismatch: expected %s, inferred %s", irType.String(), existing.String())
		}
	}
	gs.TypeEnv.SetType(reg, irType)
	return reg, nil
}

// genLambda emits ConstNull — first-class closures are never lowered to
// sBPF by this core. The lambda's parameter types are not recorded in
// the source type context.
func (gs *GeneratorState) genLambda(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	_ = args
	_ = form
	r := gs.newReg()
	gs.emit(ir.ConstNull(r))
	return r, nil
}

func (gs *GeneratorState) genBinOp(form *ast.Node, op string, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "%s expects exactly 2 operands", op)
	}
	lhs, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	rhs, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}

	dst := gs.newReg()
	var instr ir.Instruction
	switch op {
	case "+":
		instr = ir.Add(dst, lhs, rhs)
	case "-":
		instr = ir.Sub(dst, lhs, rhs)
	case "*":
		instr = ir.Mul(dst, lhs, rhs)
	case "/":
		instr = ir.Div(dst, lhs, rhs)
	case "%":
		instr = ir.Mod(dst, lhs, rhs)
	case "==":
		instr = ir.Eq(dst, lhs, rhs)
	case "!=":
		instr = ir.Ne(dst, lhs, rhs)
	case "<":
		instr = ir.Lt(dst, lhs, rhs)
	case "<=":
		instr = ir.Le(dst, lhs, rhs)
	case ">":
		instr = ir.Gt(dst, lhs, rhs)
	case ">=":
		instr = ir.Ge(dst, lhs, rhs)
	case "and":
		instr = ir.And(dst, lhs, rhs)
	case "or":
		instr = ir.Or(dst, lhs, rhs)
	default:
		return ir.Reg{}, genError(form, "unknown binary operator %q", op)
	}
	gs.emit(instr)
	return dst, nil
}

func (gs *GeneratorState) genUnaryNot(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "not expects exactly 1 operand")
	}
	src, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	dst := gs.newReg()
	gs.emit(ir.Not(dst, src))
	return dst, nil
}

func (gs *GeneratorState) genUnaryNeg(form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "neg expects exactly 1 operand")
	}
	src, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	dst := gs.newReg()
	gs.emit(ir.Neg(dst, src))
	return dst, nil
}

// genGenericCall is the fallback for any head symbol that isn't a core
// special form or a recognized domain macro: lower every argument, emit
// a Call.
func (gs *GeneratorState) genGenericCall(form *ast.Node, name string, args []*ast.Node) (ir.Reg, error) {
	_ = form
	argRegs := make([]ir.Reg, 0, len(args))
	for _, a := range args {
		r, err := gs.genExpr(a)
		if err != nil {
			return ir.Reg{}, err
		}
		argRegs = append(argRegs, r)
	}
	dst := gs.newReg()
	gs.emit(ir.Call(dst, true, name, argRegs))
	return dst, nil
}

// requireInt parses a literal int form used as a compile-time constant
// argument (array counts, account indices in some macros).
func requireInt(form *ast.Node) (int64, bool) {
	if form == nil || form.Kind != ast.NodeInt {
		return 0, false
	}
	return form.Int, true
}

func requireSymbol(form *ast.Node) (string, bool) {
	if form == nil || form.Kind != ast.NodeSymbol {
		return "", false
	}
	return form.Sym, true
}

func requireString(form *ast.Node) (string, bool) {
	if form == nil || form.Kind != ast.NodeString {
		return "", false
	}
	return form.Str, true
}
