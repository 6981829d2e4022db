// Package optimizer runs fixed IR optimization passes: constant folding,
// dead code elimination, common subexpression elimination, peephole
// optimizations, constant propagation, and (unimplemented) strength
// reduction, gated by a configurable optimization level.
package optimizer

import "github.com/openSVM/solisp-go/ir"

// Optimizer applies optimization passes up to a configured level:
//
//	0: no optimization
//	1: constant folding + dead code elimination
//	2: + common subexpression elimination + peephole optimizations
//	3: + constant propagation + strength reduction
//
// Nop removal always runs regardless of level, since generator output
// relies on Nop as a placeholder for instructions later optimizations
// may delete.
type Optimizer struct {
	level uint8
}

// New creates an optimizer at the given level (0-3; out-of-range values
// are clamped by the level checks below, not rejected).
func New(level uint8) *Optimizer {
	return &Optimizer{level: level}
}

// Level returns the optimizer's configured level.
func (o *Optimizer) Level() uint8 { return o.level }

// Optimize runs every pass this optimizer's level enables over program,
// mutating it in place.
func (o *Optimizer) Optimize(program *ir.Program) {
	if o.level >= 1 {
		o.constantFolding(program)
		o.deadCodeElimination(program)
	}
	if o.level >= 2 {
		o.commonSubexpressionElimination(program)
		o.peepholeOptimizations(program)
	}
	if o.level >= 3 {
		o.constantPropagation(program)
		o.strengthReduction(program)
	}
	o.removeNops(program)
}

// constantFolding evaluates arithmetic/comparison/unary ops whose
// operands are both known compile-time constants, replacing the
// instruction with a ConstI64 carrying the folded result. Labels and
// jumps invalidate the tracked constant set: a register's value at a
// jump target can't be assumed to be what it was before the jump.
func (o *Optimizer) constantFolding(program *ir.Program) {
	constants := make(map[uint32]int64)

	for idx := range program.Instructions {
		instr := &program.Instructions[idx]
		switch instr.Op {
		case ir.OpConstI64:
			constants[instr.Dst.ID] = instr.ImmI
		case ir.OpConstBool:
			v := int64(0)
			if instr.ImmBool {
				v = 1
			}
			constants[instr.Dst.ID] = v

		case ir.OpAdd:
			if v1, v2, ok := both(constants, instr.Src1, instr.Src2); ok {
				result := v1 + v2 // wrapping semantics: Go int64 add already wraps
				*instr = ir.ConstI64(instr.Dst, result)
				constants[instr.Dst.ID] = result
			}
		case ir.OpSub:
			if v1, v2, ok := both(constants, instr.Src1, instr.Src2); ok {
				result := v1 - v2
				*instr = ir.ConstI64(instr.Dst, result)
				constants[instr.Dst.ID] = result
			}
		case ir.OpMul:
			if v1, v2, ok := both(constants, instr.Src1, instr.Src2); ok {
				result := v1 * v2
				*instr = ir.ConstI64(instr.Dst, result)
				constants[instr.Dst.ID] = result
			}
		case ir.OpDiv:
			if v1, v2, ok := both(constants, instr.Src1, instr.Src2); ok && v2 != 0 {
				result := v1 / v2
				*instr = ir.ConstI64(instr.Dst, result)
				constants[instr.Dst.ID] = result
			}
		case ir.OpMod:
			if v1, v2, ok := both(constants, instr.Src1, instr.Src2); ok && v2 != 0 {
				result := v1 % v2
				*instr = ir.ConstI64(instr.Dst, result)
				constants[instr.Dst.ID] = result
			}
		case ir.OpEq:
			if v1, v2, ok := both(constants, instr.Src1, instr.Src2); ok {
				*instr = ir.ConstI64(instr.Dst, boolToI64(v1 == v2))
				constants[instr.Dst.ID] = boolToI64(v1 == v2)
			}
		case ir.OpLt:
			if v1, v2, ok := both(constants, instr.Src1, instr.Src2); ok {
				*instr = ir.ConstI64(instr.Dst, boolToI64(v1 < v2))
				constants[instr.Dst.ID] = boolToI64(v1 < v2)
			}
		case ir.OpNeg:
			if v, ok := constants[instr.Src1.ID]; ok {
				result := -v
				*instr = ir.ConstI64(instr.Dst, result)
				constants[instr.Dst.ID] = result
			}
		case ir.OpNot:
			if v, ok := constants[instr.Src1.ID]; ok {
				result := boolToI64(v == 0)
				*instr = ir.ConstI64(instr.Dst, result)
				constants[instr.Dst.ID] = result
			}

		case ir.OpLabel, ir.OpJump, ir.OpJumpIf, ir.OpJumpIfNot:
			constants = make(map[uint32]int64)
		}
	}
}

func both(constants map[uint32]int64, a, b ir.Reg) (int64, int64, bool) {
	v1, ok1 := constants[a.ID]
	v2, ok2 := constants[b.ID]
	return v1, v2, ok1 && ok2
}

func boolToI64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// deadCodeElimination removes instructions whose destination register is
// never used as a source anywhere in the program, via a two-pass
// used-register marking scan: first collect every used register, then
// blank out any instruction whose destination wasn't in that set.
//
// The first pass only marks the same restricted opcode set the pass
// this is grounded on does — notably Store's value operand (Src2) is
// NOT marked used, only its base address (Src1); nor are Load1/2/4 or
// Store1/2/4 handled distinctly from their 8-byte counterparts (they
// fall through unmarked). This looks like a gap, but it's the original
// behavior and is preserved rather than silently widened.
func (o *Optimizer) deadCodeElimination(program *ir.Program) {
	used := make(map[uint32]bool)
	mark := func(r ir.Reg) { used[r.ID] = true }

	for _, instr := range program.Instructions {
		switch instr.Op {
		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
			ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe, ir.OpAnd, ir.OpOr:
			mark(instr.Src1)
			mark(instr.Src2)
		case ir.OpNeg, ir.OpNot, ir.OpMove:
			mark(instr.Src1)
		case ir.OpJumpIf, ir.OpJumpIfNot:
			mark(instr.Src1)
		case ir.OpReturn:
			if instr.HasDst {
				mark(instr.Src1)
			}
		case ir.OpLog:
			mark(instr.Src1)
		case ir.OpCall, ir.OpSyscall:
			for _, a := range instr.Args {
				mark(a)
			}
		case ir.OpLoad:
			mark(instr.Src1)
		case ir.OpStore:
			mark(instr.Src1)
		case ir.OpAlloc:
			mark(instr.Src1)
		}
	}

	for idx := range program.Instructions {
		instr := &program.Instructions[idx]
		dst, hasDst := definesValue(instr)
		if hasDst && !used[dst.ID] {
			*instr = ir.NopInstr()
		}
	}
}

// definesValue reports the destination register for instructions whose
// result dead-code elimination may delete. Control flow, calls,
// syscalls, stores, and memory ops with side effects are excluded even
// though some of them also set HasDst, matching the narrower defines-set
// the pass this is grounded on checks.
func definesValue(instr *ir.Instruction) (ir.Reg, bool) {
	switch instr.Op {
	case ir.OpConstI64, ir.OpConstF64, ir.OpConstBool, ir.OpConstNull, ir.OpConstString,
		ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe,
		ir.OpAnd, ir.OpOr, ir.OpNeg, ir.OpNot, ir.OpMove:
		return instr.Dst, true
	default:
		return ir.Reg{}, false
	}
}

// cseKey identifies a computed expression by opcode tag and operand ids,
// so two structurally identical Add/Sub/Mul instructions compute to the
// same key regardless of their destination register.
type cseKey struct {
	tag  uint8
	src1 uint32
	src2 uint32
}

// commonSubexpressionElimination replaces a recomputation of an
// already-computed Add/Sub/Mul expression with a Move from the register
// that already holds it. Only these three opcodes are tracked, matching
// the narrower CSE scope of the pass this is grounded on. Labels/jumps
// invalidate the tracked expression set.
func (o *Optimizer) commonSubexpressionElimination(program *ir.Program) {
	computed := make(map[cseKey]ir.Reg)

	tagFor := func(op ir.Opcode) (uint8, bool) {
		switch op {
		case ir.OpAdd:
			return 0, true
		case ir.OpSub:
			return 1, true
		case ir.OpMul:
			return 2, true
		default:
			return 0, false
		}
	}

	for idx := range program.Instructions {
		instr := &program.Instructions[idx]
		if instr.Op == ir.OpLabel || instr.Op == ir.OpJump {
			computed = make(map[cseKey]ir.Reg)
			continue
		}
		tag, ok := tagFor(instr.Op)
		if !ok {
			continue
		}
		key := cseKey{tag: tag, src1: instr.Src1.ID, src2: instr.Src2.ID}
		if existing, found := computed[key]; found {
			*instr = ir.Move(instr.Dst, existing)
		} else {
			computed[key] = instr.Dst
		}
	}
}

// peepholeOptimizations applies local pattern matching over pairs of
// adjacent instructions: x+0, x*1, x*0, and x*2 simplifications. Each
// pattern ONLY matches when the constant feeding it is the immediately
// preceding instruction — not any earlier instruction that happens to
// define the same register. This is a deliberate simplification (see
// Open Question 1 in the design notes): a full reaching-definitions
// analysis would catch more cases, but this mirrors the narrower
// single-lookback rule of the pass it's grounded on exactly.
func (o *Optimizer) peepholeOptimizations(program *ir.Program) {
	instructions := program.Instructions

	for i := range instructions {
		instr := instructions[i]
		if i == 0 {
			continue
		}
		prev := instructions[i-1]
		if prev.Op != ir.OpConstI64 {
			continue
		}

		switch instr.Op {
		case ir.OpAdd:
			if prev.Dst == instr.Src2 && prev.ImmI == 0 {
				instructions[i] = ir.Move(instr.Dst, instr.Src1)
			}
		case ir.OpMul:
			if prev.Dst == instr.Src2 {
				switch prev.ImmI {
				case 1:
					instructions[i] = ir.Move(instr.Dst, instr.Src1)
				case 0:
					instructions[i] = ir.ConstI64(instr.Dst, 0)
				case 2:
					instructions[i] = ir.Add(instr.Dst, instr.Src1, instr.Src1)
				}
			}
		}
	}
}

// constantPropagation replaces a Move from a register holding a known
// constant with a direct ConstI64. Labels and unconditional jumps clear
// the tracked set; unlike constant folding, conditional jumps do not.
func (o *Optimizer) constantPropagation(program *ir.Program) {
	constants := make(map[uint32]int64)

	for idx := range program.Instructions {
		instr := &program.Instructions[idx]
		switch instr.Op {
		case ir.OpConstI64:
			constants[instr.Dst.ID] = instr.ImmI
		case ir.OpMove:
			if v, ok := constants[instr.Src1.ID]; ok {
				*instr = ir.ConstI64(instr.Dst, v)
				constants[instr.Dst.ID] = v
			}
		case ir.OpLabel, ir.OpJump:
			constants = make(map[uint32]int64)
		}
	}
}

// strengthReduction is a stub: power-of-2 multiply/divide to
// shift-instruction rewrites require a shift opcode this IR doesn't have
// yet. Left unimplemented rather than silently "fixed" with a shift
// instruction invented for this port.
func (o *Optimizer) strengthReduction(program *ir.Program) {
	_ = program
}

// removeNops drops every Nop instruction, regardless of optimization
// level — generation and earlier passes use Nop as a tombstone, and
// final output should never contain one.
func (o *Optimizer) removeNops(program *ir.Program) {
	out := program.Instructions[:0]
	for _, instr := range program.Instructions {
		if instr.Op != ir.OpNop {
			out = append(out, instr)
		}
	}
	program.Instructions = out
}
