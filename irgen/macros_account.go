package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/memmodel"
)

// accountBase resolves the first argument of an account-* macro (a
// compile-time account index literal) to a register holding that
// account's header base address, via one O(1) load from the offset
// table the prologue built — no per-call linear walk of the accounts
// buffer.
func (gs *GeneratorState) accountBase(form *ast.Node, idxForm *ast.Node) (ir.Reg, uint8, error) {
	n, ok := requireInt(idxForm)
	if !ok {
		return ir.Reg{}, 0, genError(form, "account index must be an integer literal")
	}
	idx := uint8(n)
	if err := gs.TypeEnv.ValidateAccountIndex(idx); err != nil {
		gs.recordMemoryError(err)
	}

	tableEntry := gs.newReg()
	gs.emit(ir.ConstI64(tableEntry, memmodel.HeapBase+memmodel.AccountTableOffset+n*8))
	relOffset := gs.newReg()
	gs.emit(ir.Load(relOffset, tableEntry, 0))

	base := gs.newReg()
	gs.emit(ir.Add(base, savedAccts, relOffset))
	gs.TypeEnv.SetType(base, memmodel.PointerRegType(memmodel.AccountFieldPtr(idx, 0, memmodel.AccountHeaderSize)))
	return base, idx, nil
}

func accountFieldLoadSize(offset int64) int64 {
	switch offset {
	case memAccountIsSigner, memAccountIsWritable, memAccountExecutable:
		return 1
	default:
		return 8
	}
}

// macroAccountField returns a handler for (account-<field> idx) forms
// reading a scalar account-header field: is_signer, is_writable,
// executable, lamports, data_len.
func macroAccountField(offset int64) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		if len(args) != 1 {
			return ir.Reg{}, genError(form, "account field macro expects exactly one account index argument")
		}
		base, _, err := gs.accountBase(form, args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		dst := gs.newReg()
		switch accountFieldLoadSize(offset) {
		case 1:
			gs.emit(ir.Load1(dst, base, offset))
		default:
			gs.emit(ir.Load(dst, base, offset))
		}
		return dst, nil
	}
}

// macroAccountPtrField returns a handler for (account-pubkey idx) /
// (account-owner idx): these return a pointer to the fixed-size field
// rather than loading its value, so callers can pass it on to syscalls
// expecting a pubkey pointer.
func macroAccountPtrField(offset, size int64) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		if len(args) != 1 {
			return ir.Reg{}, genError(form, "account pointer macro expects exactly one account index argument")
		}
		base, idx, err := gs.accountBase(form, args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		off := gs.newReg()
		gs.emit(ir.ConstI64(off, offset))
		ptr := gs.newReg()
		gs.emit(ir.Add(ptr, base, off))
		gs.TypeEnv.SetType(ptr, memmodel.PointerRegType(memmodel.AccountFieldPtr(idx, offset, size)))
		return ptr, nil
	}
}

// macroAccountDataPtr lowers (account-data idx), a pointer to the start
// of the account's variable-length data section. Bounds are left
// unknown (data_len is a runtime value); downstream dereferences
// through zero-copy/struct macros attach the actual struct bounds.
func macroAccountDataPtr(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "account-data expects exactly one account index argument")
	}
	base, idx, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	off := gs.newReg()
	gs.emit(ir.ConstI64(off, memmodel.AccountDataOffset))
	ptr := gs.newReg()
	gs.emit(ir.Add(ptr, base, off))
	gs.TypeEnv.SetType(ptr, memmodel.PointerRegType(memmodel.AccountDataPtr(idx, "", nil)))
	return ptr, nil
}

// macroAccountPtr lowers (account-ptr idx) to the raw header base
// pointer, the building block the CPI macros use to assemble
// SolAccountMeta entries.
func macroAccountPtr(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "account-ptr expects exactly one account index argument")
	}
	base, _, err := gs.accountBase(form, args[0])
	return base, err
}

// assertSignerCode and assertWritableCode are the category-distinct
// sol_panic_ error codes the runtime-abort paths use, per the fixed
// 0x05/0x06-and-up scheme (0x05 is reserved for memory-access-violation,
// 0x06 for invalid-account-index).
const (
	assertSignerCode   = 0x07
	assertWritableCode = 0x08
)

// macroAssertSigner/Writable lower to a jump-on-true guard: load the
// header flag, jump to an OK label if it's set, otherwise fall through
// to a sol_panic_ call carrying the assertion's distinct error code.
func macroAssertSigner(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	return gs.genAccountAssertion(form, args, memAccountIsSigner, assertSignerCode)
}

func macroAssertWritable(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	return gs.genAccountAssertion(form, args, memAccountIsWritable, assertWritableCode)
}

func (gs *GeneratorState) genAccountAssertion(form *ast.Node, args []*ast.Node, offset, panicCode int64) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "assertion expects exactly one account index argument")
	}
	base, _, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	flag := gs.newReg()
	gs.emit(ir.Load1(flag, base, offset))

	okLabel := gs.newLabel("assert_ok")
	gs.emit(ir.JumpIf(flag, okLabel))

	code := gs.newReg()
	gs.emit(ir.ConstI64(code, panicCode))
	gs.emit(ir.Syscall(ir.Reg{}, false, "sol_panic_", []ir.Reg{code}))

	gs.emit(ir.Label(okLabel))
	return flag, nil
}

// macroAssertOwner lowers (assert-owner idx expected-pubkey-ptr) — unlike
// the flag assertions this compares 32 bytes of memory, so it is handed
// off entirely to a memcmp-style syscall rather than a single loaded flag.
func macroAssertOwner(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "assert-owner expects (assert-owner idx expected-owner-ptr)")
	}
	base, idx, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	expected, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	off := gs.newReg()
	gs.emit(ir.ConstI64(off, memmodel.AccountOwner))
	ownerPtr := gs.newReg()
	gs.emit(ir.Add(ownerPtr, base, off))
	gs.TypeEnv.SetType(ownerPtr, memmodel.PointerRegType(memmodel.AccountFieldPtr(idx, memmodel.AccountOwner, memmodel.AccountOwnerLen)))

	lenReg := gs.newReg()
	gs.emit(ir.ConstI64(lenReg, memmodel.AccountOwnerLen))
	cmp := gs.newReg()
	gs.emit(ir.Syscall(cmp, true, "sol_memcmp_", []ir.Reg{ownerPtr, expected, lenReg}))

	zero := gs.newReg()
	gs.emit(ir.ConstI64(zero, 0))
	matches := gs.newReg()
	gs.emit(ir.Eq(matches, cmp, zero))

	okLabel := gs.newLabel("assert_owner_ok")
	gs.emit(ir.JumpIf(matches, okLabel))

	code := gs.newReg()
	gs.emit(ir.ConstI64(code, assertOwnerCode))
	gs.emit(ir.Syscall(ir.Reg{}, false, "sol_panic_", []ir.Reg{code}))

	gs.emit(ir.Label(okLabel))
	return matches, nil
}

const assertOwnerCode = 0x09
