// Package irgen lowers a parsed S-expression program into the three-
// address-code IR the optimizer, ABI wrapper, and verification-condition
// generator all consume. It is the biggest single component in this
// module: most expressions are ordinary arithmetic, but roughly sixty
// domain-specific "macros" each expand into a precisely laid-out run of
// instructions exercising the Solana CPI/account/PDA ABI.
package irgen

import (
	"fmt"

	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/memmodel"
	"github.com/openSVM/solisp-go/types"
	"github.com/openSVM/solisp-go/typebridge"
)

// Options configures generation.
type Options struct {
	// StrictMemory fails generation when the type environment
	// accumulates any memory-model error; otherwise errors are returned
	// alongside a best-effort program for warn-mode callers.
	StrictMemory bool
	// NumAccounts seeds the type environment's account-count bound when
	// known ahead of time (0 means "unknown": indices are then not checked).
	NumAccounts uint8
}

// GeneratorState is the mutable context threaded through every lowering
// routine: register/label allocation, the variable environment, the
// struct registry, the type environment and bridge, and the instruction
// stream being built. Grounded on the teacher's CompilerState shape
// (a single struct owning every sub-tracker, passed by reference rather
// than scattered across package-level globals or a trait hierarchy).
type GeneratorState struct {
	Alloc   *ir.Allocator
	Program *ir.Program

	// vars maps a bound name (from `define`/function parameters) to the
	// register currently holding its value.
	vars map[string]ir.Reg

	// structs is the struct registry: name -> definition. Monotonic
	// within a compilation; define-struct never redefines a name.
	structs map[string]*types.StructDef

	TypeEnv *memmodel.TypeEnv
	Bridge  *typebridge.TypeBridge
	Types   *ast.TypeContext

	opts Options

	// pdaBumpCacheAccount is set by pda-cache-init to the account index
	// holding the bump cache table, consulted by pda-cache-store/lookup.
	// It stays nil until pda-cache-init runs, so callers that haven't
	// initialized a cache get a generation error instead of silently
	// targeting account 0.
	pdaBumpCacheAccount *uint8

	// Assumptions accumulates every (assume pred) form encountered during
	// lowering, in source order. assume emits only a ConstI64 0
	// placeholder at runtime. The verification-condition generator does
	// not read this list: it finds assume forms in the AST itself.
	Assumptions []Assumption
}

// Assumption records one verification-only (assume pred) form: the
// predicate AST node plus the line it appeared on.
type Assumption struct {
	Predicate *ast.Node
	Line      int
}

// NewGeneratorState creates a fresh generator context.
func NewGeneratorState(opts Options) *GeneratorState {
	env := memmodel.NewTypeEnv()
	env.Strict = opts.StrictMemory
	if opts.NumAccounts > 0 {
		env.SetNumAccounts(opts.NumAccounts)
	}

	return &GeneratorState{
		Alloc:   ir.NewAllocator(),
		Program: ir.NewProgram(),
		vars:    make(map[string]ir.Reg),
		structs: make(map[string]*types.StructDef),
		TypeEnv: env,
		Bridge:  typebridge.New(),
		Types:   ast.NewTypeContext(),
		opts:    opts,
	}
}

func (gs *GeneratorState) emit(instr ir.Instruction) {
	gs.Program.Emit(instr)
	gs.recordType(instr)
}

// recordType is the central "every emission passes through here" type
// bookkeeping: it sets the destination register's type in the
// environment based on the instruction kind, and validates memory
// accesses as they're emitted rather than in a separate pass.
func (gs *GeneratorState) recordType(instr ir.Instruction) {
	switch instr.Op {
	case ir.OpConstI64:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(8, true))
	case ir.OpConstBool:
		gs.TypeEnv.SetType(instr.Dst, memmodel.BoolType())
	case ir.OpConstF64, ir.OpConstString, ir.OpConstNull:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(8, false))

	case ir.OpLoad:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(8, false))
		if err := gs.TypeEnv.ValidateLoad(instr.Src1, instr.ImmI, 8); err != nil {
			gs.recordMemoryError(err)
		}
	case ir.OpLoad1:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(1, false))
		if err := gs.TypeEnv.ValidateLoad(instr.Src1, instr.ImmI, 1); err != nil {
			gs.recordMemoryError(err)
		}
	case ir.OpLoad2:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(2, false))
		if err := gs.TypeEnv.ValidateLoad(instr.Src1, instr.ImmI, 2); err != nil {
			gs.recordMemoryError(err)
		}
	case ir.OpLoad4:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(4, false))
		if err := gs.TypeEnv.ValidateLoad(instr.Src1, instr.ImmI, 4); err != nil {
			gs.recordMemoryError(err)
		}

	case ir.OpStore:
		if err := gs.TypeEnv.ValidateStore(instr.Src1, instr.ImmI, 8); err != nil {
			gs.recordMemoryError(err)
		}
	case ir.OpStore1:
		if err := gs.TypeEnv.ValidateStore(instr.Src1, instr.ImmI, 1); err != nil {
			gs.recordMemoryError(err)
		}
	case ir.OpStore2:
		if err := gs.TypeEnv.ValidateStore(instr.Src1, instr.ImmI, 2); err != nil {
			gs.recordMemoryError(err)
		}
	case ir.OpStore4:
		if err := gs.TypeEnv.ValidateStore(instr.Src1, instr.ImmI, 4); err != nil {
			gs.recordMemoryError(err)
		}

	case ir.OpAdd:
		gs.recordAddType(instr)
	case ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(8, false))
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		gs.TypeEnv.SetType(instr.Dst, memmodel.BoolType())
	case ir.OpAnd, ir.OpOr:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(8, false))
	case ir.OpNot:
		gs.TypeEnv.SetType(instr.Dst, memmodel.BoolType())
	case ir.OpNeg:
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(8, true))
	case ir.OpMove:
		if ty, ok := gs.TypeEnv.GetType(instr.Src1); ok {
			gs.TypeEnv.SetType(instr.Dst, ty)
		}
	case ir.OpAlloc:
		gs.TypeEnv.SetType(instr.Dst, memmodel.PointerRegType(memmodel.HeapPtr(0, nil)))
	}
}

// recordAddType implements the Add typing rule from the design: a
// pointer plus a value yields a pointer with bounds cleared (the result
// offset is no longer statically known); value+value yields a value;
// anything else is Unknown.
func (gs *GeneratorState) recordAddType(instr ir.Instruction) {
	lhs, lhsOK := gs.TypeEnv.GetType(instr.Src1)
	rhs, rhsOK := gs.TypeEnv.GetType(instr.Src2)

	switch {
	case lhsOK && lhs.IsPointer() && (!rhsOK || rhs.IsValue()):
		p := *lhs.Pointer
		p.Bounds = nil
		p.Offset = 0
		gs.TypeEnv.SetType(instr.Dst, memmodel.PointerRegType(p))
	case rhsOK && rhs.IsPointer() && (!lhsOK || lhs.IsValue()):
		p := *rhs.Pointer
		p.Bounds = nil
		p.Offset = 0
		gs.TypeEnv.SetType(instr.Dst, memmodel.PointerRegType(p))
	case lhsOK && rhsOK && lhs.IsValue() && rhs.IsValue():
		size := lhs.Size
		if rhs.Size > size {
			size = rhs.Size
		}
		gs.TypeEnv.SetType(instr.Dst, memmodel.ValueType(size, lhs.Signed || rhs.Signed))
	default:
		gs.TypeEnv.SetType(instr.Dst, memmodel.UnknownType())
	}
}

func (gs *GeneratorState) recordMemoryError(err error) {
	if memErr, ok := err.(memmodel.MemoryError); ok {
		gs.TypeEnv.RecordError(memErr)
	}
}

func (gs *GeneratorState) newReg() ir.Reg       { return gs.Alloc.NewReg() }
func (gs *GeneratorState) newLabel(p string) string { return gs.Alloc.NewLabel(p) }

// bindVar records name -> reg in the variable environment, per the
// `define` lowering rule (the register identity doesn't change on
// `set!`, only its contents).
func (gs *GeneratorState) bindVar(name string, reg ir.Reg) { gs.vars[name] = reg }

func (gs *GeneratorState) lookupVar(name string) (ir.Reg, bool) {
	r, ok := gs.vars[name]
	return r, ok
}

// varNames lists every currently bound variable name, for the
// undefined-variable diagnostic's "did you mean" suggestion.
func (gs *GeneratorState) varNames() []string {
	names := make([]string, 0, len(gs.vars))
	for name := range gs.vars {
		names = append(names, name)
	}
	return names
}

// genError formats a source/AST-level error the way the ambient error
// taxonomy (spec §7 kind 1) expects: a one-line message naming the
// offending construct.
func genError(form *ast.Node, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if form != nil && form.Line != 0 {
		return fmt.Errorf("irgen: %s (line %d)", msg, form.Line)
	}
	return fmt.Errorf("irgen: %s", msg)
}
