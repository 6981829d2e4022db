// Package ir defines the three-address-code intermediate representation
// emitted by the generator and consumed by the optimizer, ABI wrapper, and
// verification-condition generator.
package ir

import "fmt"

// Reg is a virtual register: an infinite supply of IDs allocated during IR
// generation, independent of the physical registers used at emission time.
type Reg struct {
	ID uint32
}

// NewReg creates a virtual register with the given id.
func NewReg(id uint32) Reg { return Reg{ID: id} }

func (r Reg) String() string { return fmt.Sprintf("r%d", r.ID) }

// Opcode identifies the operation an Instruction performs.
type Opcode int

const (
	OpConstI64 Opcode = iota
	OpConstF64
	OpConstBool
	OpConstNull
	OpConstString

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAnd
	OpOr
	OpNot

	OpNeg
	OpMove

	OpLabel
	OpJump
	OpJumpIf
	OpJumpIfNot

	OpCall
	OpReturn

	OpLoad
	OpLoad1
	OpLoad2
	OpLoad4
	OpStore
	OpStore1
	OpStore2
	OpStore4
	OpAlloc

	OpSyscall

	OpLog

	OpNop
)

var opcodeNames = map[Opcode]string{
	OpConstI64:    "ConstI64",
	OpConstF64:    "ConstF64",
	OpConstBool:   "ConstBool",
	OpConstNull:   "ConstNull",
	OpConstString: "ConstString",
	OpAdd:         "Add",
	OpSub:         "Sub",
	OpMul:         "Mul",
	OpDiv:         "Div",
	OpMod:         "Mod",
	OpEq:          "Eq",
	OpNe:          "Ne",
	OpLt:          "Lt",
	OpLe:          "Le",
	OpGt:          "Gt",
	OpGe:          "Ge",
	OpAnd:         "And",
	OpOr:          "Or",
	OpNot:         "Not",
	OpNeg:         "Neg",
	OpMove:        "Move",
	OpLabel:       "Label",
	OpJump:        "Jump",
	OpJumpIf:      "JumpIf",
	OpJumpIfNot:   "JumpIfNot",
	OpCall:        "Call",
	OpReturn:      "Return",
	OpLoad:        "Load",
	OpLoad1:       "Load1",
	OpLoad2:       "Load2",
	OpLoad4:       "Load4",
	OpStore:       "Store",
	OpStore1:      "Store1",
	OpStore2:      "Store2",
	OpStore4:      "Store4",
	OpAlloc:       "Alloc",
	OpSyscall:     "Syscall",
	OpLog:         "Log",
	OpNop:         "Nop",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(o))
}

// Instruction is a single IR instruction. It is a tagged struct rather than
// a Go sum type (Go has none): Op selects which fields are meaningful,
// mirroring the shape of original_source's IrInstruction enum variants.
//
//   - ConstI64(Dst, ImmI)           ConstF64(Dst, ImmBits)
//   - ConstBool(Dst, ImmBool)       ConstNull(Dst)
//   - ConstString(Dst, StrIdx)
//   - Add/Sub/Mul/Div/Mod/Eq/Ne/Lt/Le/Gt/Ge/And/Or(Dst, Src1, Src2)
//   - Not/Neg/Move(Dst, Src1)
//   - Label(Target)     Jump(Target)
//   - JumpIf/JumpIfNot(Src1, Target)
//   - Call(Dst?, Target, Args)      Return(Src1?)
//   - Load/Load1/Load2/Load4(Dst, Src1, ImmI=offset)
//   - Store/Store1/Store2/Store4(Src1=base, Src2=value, ImmI=offset)
//   - Alloc(Dst, Src1=size)
//   - Syscall(Dst?, Target, Args)
//   - Log(Src1, ImmI=length)
//   - Nop
type Instruction struct {
	Op Opcode

	Dst     Reg
	HasDst  bool
	Src1    Reg
	Src2    Reg
	ImmI    int64
	ImmBits uint64
	ImmBool bool
	StrIdx  int

	Target string
	Args   []Reg
}

// Constructors mirror original_source's tuple-variant constructors.

func ConstI64(dst Reg, v int64) Instruction {
	return Instruction{Op: OpConstI64, Dst: dst, HasDst: true, ImmI: v}
}

func ConstF64(dst Reg, bits uint64) Instruction {
	return Instruction{Op: OpConstF64, Dst: dst, HasDst: true, ImmBits: bits}
}

func ConstBool(dst Reg, v bool) Instruction {
	return Instruction{Op: OpConstBool, Dst: dst, HasDst: true, ImmBool: v}
}

func ConstNull(dst Reg) Instruction {
	return Instruction{Op: OpConstNull, Dst: dst, HasDst: true}
}

func ConstString(dst Reg, idx int) Instruction {
	return Instruction{Op: OpConstString, Dst: dst, HasDst: true, StrIdx: idx}
}

func binOp(op Opcode, dst, lhs, rhs Reg) Instruction {
	return Instruction{Op: op, Dst: dst, HasDst: true, Src1: lhs, Src2: rhs}
}

func Add(dst, lhs, rhs Reg) Instruction { return binOp(OpAdd, dst, lhs, rhs) }
func Sub(dst, lhs, rhs Reg) Instruction { return binOp(OpSub, dst, lhs, rhs) }
func Mul(dst, lhs, rhs Reg) Instruction { return binOp(OpMul, dst, lhs, rhs) }
func Div(dst, lhs, rhs Reg) Instruction { return binOp(OpDiv, dst, lhs, rhs) }
func Mod(dst, lhs, rhs Reg) Instruction { return binOp(OpMod, dst, lhs, rhs) }
func Eq(dst, lhs, rhs Reg) Instruction  { return binOp(OpEq, dst, lhs, rhs) }
func Ne(dst, lhs, rhs Reg) Instruction  { return binOp(OpNe, dst, lhs, rhs) }
func Lt(dst, lhs, rhs Reg) Instruction  { return binOp(OpLt, dst, lhs, rhs) }
func Le(dst, lhs, rhs Reg) Instruction  { return binOp(OpLe, dst, lhs, rhs) }
func Gt(dst, lhs, rhs Reg) Instruction  { return binOp(OpGt, dst, lhs, rhs) }
func Ge(dst, lhs, rhs Reg) Instruction  { return binOp(OpGe, dst, lhs, rhs) }
func And(dst, lhs, rhs Reg) Instruction { return binOp(OpAnd, dst, lhs, rhs) }
func Or(dst, lhs, rhs Reg) Instruction  { return binOp(OpOr, dst, lhs, rhs) }

func Not(dst, src Reg) Instruction  { return Instruction{Op: OpNot, Dst: dst, HasDst: true, Src1: src} }
func Neg(dst, src Reg) Instruction  { return Instruction{Op: OpNeg, Dst: dst, HasDst: true, Src1: src} }
func Move(dst, src Reg) Instruction { return Instruction{Op: OpMove, Dst: dst, HasDst: true, Src1: src} }

func Label(target string) Instruction      { return Instruction{Op: OpLabel, Target: target} }
func Jump(target string) Instruction       { return Instruction{Op: OpJump, Target: target} }
func JumpIf(cond Reg, target string) Instruction {
	return Instruction{Op: OpJumpIf, Src1: cond, Target: target}
}
func JumpIfNot(cond Reg, target string) Instruction {
	return Instruction{Op: OpJumpIfNot, Src1: cond, Target: target}
}

// Call builds a call instruction. dst may be the zero Reg with hasDst=false
// when the call's result is discarded.
func Call(dst Reg, hasDst bool, target string, args []Reg) Instruction {
	return Instruction{Op: OpCall, Dst: dst, HasDst: hasDst, Target: target, Args: args}
}

func Return(src Reg, hasSrc bool) Instruction {
	return Instruction{Op: OpReturn, Src1: src, HasDst: hasSrc}
}

func memOp(op Opcode, dst, base Reg, offset int64) Instruction {
	return Instruction{Op: op, Dst: dst, HasDst: true, Src1: base, ImmI: offset}
}

func Load(dst, base Reg, offset int64) Instruction  { return memOp(OpLoad, dst, base, offset) }
func Load1(dst, base Reg, offset int64) Instruction { return memOp(OpLoad1, dst, base, offset) }
func Load2(dst, base Reg, offset int64) Instruction { return memOp(OpLoad2, dst, base, offset) }
func Load4(dst, base Reg, offset int64) Instruction { return memOp(OpLoad4, dst, base, offset) }

func storeOp(op Opcode, base, value Reg, offset int64) Instruction {
	return Instruction{Op: op, Src1: base, Src2: value, ImmI: offset}
}

func Store(base, value Reg, offset int64) Instruction  { return storeOp(OpStore, base, value, offset) }
func Store1(base, value Reg, offset int64) Instruction { return storeOp(OpStore1, base, value, offset) }
func Store2(base, value Reg, offset int64) Instruction { return storeOp(OpStore2, base, value, offset) }
func Store4(base, value Reg, offset int64) Instruction { return storeOp(OpStore4, base, value, offset) }

func Alloc(dst, size Reg) Instruction {
	return Instruction{Op: OpAlloc, Dst: dst, HasDst: true, Src1: size}
}

func Syscall(dst Reg, hasDst bool, name string, args []Reg) Instruction {
	return Instruction{Op: OpSyscall, Dst: dst, HasDst: hasDst, Target: name, Args: args}
}

func Log(src Reg, length int) Instruction {
	return Instruction{Op: OpLog, Src1: src, ImmI: int64(length)}
}

func NopInstr() Instruction { return Instruction{Op: OpNop} }

// IsTerminator reports whether this instruction ends a basic block.
func (i Instruction) IsTerminator() bool {
	switch i.Op {
	case OpJump, OpJumpIf, OpJumpIfNot, OpReturn:
		return true
	default:
		return false
	}
}

// Defs returns the register this instruction writes, if any.
func (i Instruction) Defs() (Reg, bool) {
	return i.Dst, i.HasDst
}

// Uses returns every register this instruction reads.
func (i Instruction) Uses() []Reg {
	var out []Reg
	switch i.Op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr:
		out = append(out, i.Src1, i.Src2)
	case OpNot, OpNeg, OpMove:
		out = append(out, i.Src1)
	case OpJumpIf, OpJumpIfNot:
		out = append(out, i.Src1)
	case OpLoad, OpLoad1, OpLoad2, OpLoad4:
		out = append(out, i.Src1)
	case OpStore, OpStore1, OpStore2, OpStore4:
		out = append(out, i.Src1, i.Src2)
	case OpAlloc:
		out = append(out, i.Src1)
	case OpCall, OpSyscall:
		out = append(out, i.Args...)
	case OpReturn:
		if i.HasDst {
			out = append(out, i.Src1)
		}
	case OpLog:
		out = append(out, i.Src1)
	}
	return out
}
