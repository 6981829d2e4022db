package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/memmodel"
)

// cpiAccountMetaSize is the packed size of one SolAccountMeta entry this
// core writes into CPI scratch: pubkey pointer, is_writable, is_signer,
// each stored as a full 8-byte slot rather than packed bit flags, to
// keep every entry 8-byte aligned for the Load/Store instructions that
// read it back.
const cpiAccountMetaSize = 24

// cpiInstructionDataScratch reserves the back half of the CPI scratch
// region for instruction-data bytes, leaving the front half for the
// SolAccountMeta array and SolInstruction header so no single invoke call
// can clobber another's in-flight accounts array while building data.
const cpiInstructionDataScratch = memmodel.HeapBase + memmodel.CpiOffset + 0x800

// cpiAccount is one entry destined for a SolAccountMeta array: the
// account's pubkey pointer plus its writable/signer flags.
type cpiAccount struct {
	ptr      ir.Reg
	writable bool
	signer   bool
}

// emitAccountMetaArray writes accounts into the CPI scratch region as a
// packed SolAccountMeta array and returns a pointer to its first entry.
func (gs *GeneratorState) emitAccountMetaArray(accounts []cpiAccount) ir.Reg {
	base := gs.newReg()
	gs.emit(ir.ConstI64(base, memmodel.HeapBase+memmodel.CpiOffset))
	for i, a := range accounts {
		entryOffset := int64(i) * cpiAccountMetaSize
		gs.emit(ir.Store(base, a.ptr, entryOffset))

		writable := gs.newReg()
		gs.emit(ir.ConstI64(writable, boolToI64(a.writable)))
		gs.emit(ir.Store(base, writable, entryOffset+8))

		signer := gs.newReg()
		gs.emit(ir.ConstI64(signer, boolToI64(a.signer)))
		gs.emit(ir.Store(base, signer, entryOffset+16))
	}
	gs.TypeEnv.SetType(base, memmodel.PointerRegType(memmodel.HeapPtr(memmodel.CpiOffset, nil)))
	return base
}

func boolToI64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// emitInstructionHeader writes the SolInstruction struct (program_id
// ptr, accounts ptr/len, data ptr/len) right after the accounts array and
// returns a pointer to it, ready to hand to an invoke syscall.
func (gs *GeneratorState) emitInstructionHeader(programID, accountsPtr ir.Reg, accountsLen int, dataPtr, dataLen ir.Reg) ir.Reg {
	headerOffset := gs.newReg()
	gs.emit(ir.ConstI64(headerOffset, int64(accountsLen)*cpiAccountMetaSize))
	header := gs.newReg()
	gs.emit(ir.Add(header, accountsPtr, headerOffset))

	gs.emit(ir.Store(header, programID, 0))
	gs.emit(ir.Store(header, accountsPtr, 8))
	accLen := gs.newReg()
	gs.emit(ir.ConstI64(accLen, int64(accountsLen)))
	gs.emit(ir.Store(header, accLen, 16))
	gs.emit(ir.Store(header, dataPtr, 24))
	gs.emit(ir.Store(header, dataLen, 32))

	gs.TypeEnv.SetType(header, memmodel.PointerRegType(memmodel.HeapPtr(memmodel.CpiOffset, nil)))
	return header
}

// emitInvoke calls sol_invoke_signed_c with the built instruction and
// accounts array, plus an optional signer-seeds pointer/count for the
// -signed variant (a nil seeds pointer means an ordinary, unsigned
// invoke: the syscall accepts zero seed sets).
func (gs *GeneratorState) emitInvoke(instruction, accountsPtr ir.Reg, accountsLen int, seedsPtr *ir.Reg, seedsCount int64) ir.Reg {
	accLen := gs.newReg()
	gs.emit(ir.ConstI64(accLen, int64(accountsLen)))

	args := []ir.Reg{instruction, accountsPtr, accLen}
	if seedsPtr != nil {
		seedsLen := gs.newReg()
		gs.emit(ir.ConstI64(seedsLen, seedsCount))
		args = append(args, *seedsPtr, seedsLen)
	}
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_invoke_signed_c", args))
	return dst
}

// writeInstructionDataU32U64 writes a u32 discriminator followed by a
// u64 value (12 bytes, as a composite macro like system-transfer needs)
// into the instruction-data scratch region and returns
// (pointer, length-register).
func (gs *GeneratorState) writeInstructionDataU32U64(discriminator uint32, value ir.Reg) (ir.Reg, ir.Reg) {
	base := gs.newReg()
	gs.emit(ir.ConstI64(base, cpiInstructionDataScratch))
	disc := gs.newReg()
	gs.emit(ir.ConstI64(disc, int64(discriminator)))
	gs.emit(ir.Store4(base, disc, 0))
	gs.emit(ir.Store(base, value, 4))
	length := gs.newReg()
	gs.emit(ir.ConstI64(length, 12))
	return base, length
}

func (gs *GeneratorState) writeInstructionDataDiscOnly(discriminator uint32) (ir.Reg, ir.Reg) {
	base := gs.newReg()
	gs.emit(ir.ConstI64(base, cpiInstructionDataScratch))
	disc := gs.newReg()
	gs.emit(ir.ConstI64(disc, int64(discriminator)))
	gs.emit(ir.Store4(base, disc, 0))
	length := gs.newReg()
	gs.emit(ir.ConstI64(length, 4))
	return base, length
}

// macroSystemTransfer lowers (system-transfer from-idx to-idx lamports)
// to a System Program Transfer instruction (discriminator 2).
func macroSystemTransfer(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 3 {
		return ir.Reg{}, genError(form, "system-transfer expects (system-transfer from-idx to-idx lamports)")
	}
	fromBase, _, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	toBase, _, err := gs.accountBase(form, args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	lamports, err := gs.genExpr(args[2])
	if err != nil {
		return ir.Reg{}, err
	}

	fromPubkey := gs.fieldPointer(fromBase, memmodel.AccountPubkey)
	toPubkey := gs.fieldPointer(toBase, memmodel.AccountPubkey)
	programID := gs.systemProgramIDPlaceholder()

	accountsPtr := gs.emitAccountMetaArray([]cpiAccount{
		{ptr: fromPubkey, writable: true, signer: true},
		{ptr: toPubkey, writable: true, signer: false},
	})
	dataPtr, dataLen := gs.writeInstructionDataU32U64(2, lamports)
	header := gs.emitInstructionHeader(programID, accountsPtr, 2, dataPtr, dataLen)
	return gs.emitInvoke(header, accountsPtr, 2, nil, 0), nil
}

// macroSystemCreateAccount lowers (system-create-account from-idx
// new-idx lamports space owner-pubkey-ptr).
func macroSystemCreateAccount(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 5 {
		return ir.Reg{}, genError(form, "system-create-account expects (from-idx new-idx lamports space owner-ptr)")
	}
	fromBase, _, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	newBase, _, err := gs.accountBase(form, args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	lamports, err := gs.genExpr(args[2])
	if err != nil {
		return ir.Reg{}, err
	}
	space, err := gs.genExpr(args[3])
	if err != nil {
		return ir.Reg{}, err
	}
	owner, err := gs.genExpr(args[4])
	if err != nil {
		return ir.Reg{}, err
	}

	fromPubkey := gs.fieldPointer(fromBase, memmodel.AccountPubkey)
	newPubkey := gs.fieldPointer(newBase, memmodel.AccountPubkey)
	programID := gs.systemProgramIDPlaceholder()

	dataBase := gs.newReg()
	gs.emit(ir.ConstI64(dataBase, cpiInstructionDataScratch))
	disc := gs.newReg()
	gs.emit(ir.ConstI64(disc, 0))
	gs.emit(ir.Store4(dataBase, disc, 0))
	gs.emit(ir.Store(dataBase, lamports, 4))
	gs.emit(ir.Store(dataBase, space, 12))
	gs.emit(ir.Syscall(ir.Reg{}, false, "sol_memcpy_", []ir.Reg{addConst(gs, dataBase, 20), owner, constReg(gs, memmodel.AccountPubkeyLen)}))
	dataLen := gs.newReg()
	gs.emit(ir.ConstI64(dataLen, 20+memmodel.AccountPubkeyLen))

	accountsPtr := gs.emitAccountMetaArray([]cpiAccount{
		{ptr: fromPubkey, writable: true, signer: true},
		{ptr: newPubkey, writable: true, signer: true},
	})
	header := gs.emitInstructionHeader(programID, accountsPtr, 2, dataBase, dataLen)
	return gs.emitInvoke(header, accountsPtr, 2, nil, 0), nil
}

// macroSystemAllocate returns a handler for (system-allocate[-signed]
// idx space [seeds-ptr seeds-count]).
func macroSystemAllocate(signed bool) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		min := 2
		if signed {
			min = 4
		}
		if len(args) != min {
			return ir.Reg{}, genError(form, "system-allocate expects %d arguments", min)
		}
		base, _, err := gs.accountBase(form, args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		space, err := gs.genExpr(args[1])
		if err != nil {
			return ir.Reg{}, err
		}
		pubkey := gs.fieldPointer(base, memmodel.AccountPubkey)
		programID := gs.systemProgramIDPlaceholder()
		dataPtr, dataLen := gs.writeInstructionDataU32U64(8, space)
		accountsPtr := gs.emitAccountMetaArray([]cpiAccount{{ptr: pubkey, writable: true, signer: true}})
		header := gs.emitInstructionHeader(programID, accountsPtr, 1, dataPtr, dataLen)
		return gs.signedOrPlainInvoke(form, signed, args, 2, header, accountsPtr, 1)
	}
}

// macroSystemAssign returns a handler for (system-assign[-signed] idx
// owner-ptr [seeds-ptr seeds-count]).
func macroSystemAssign(signed bool) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		min := 2
		if signed {
			min = 4
		}
		if len(args) != min {
			return ir.Reg{}, genError(form, "system-assign expects %d arguments", min)
		}
		base, _, err := gs.accountBase(form, args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		owner, err := gs.genExpr(args[1])
		if err != nil {
			return ir.Reg{}, err
		}
		pubkey := gs.fieldPointer(base, memmodel.AccountPubkey)
		programID := gs.systemProgramIDPlaceholder()

		dataBase := gs.newReg()
		gs.emit(ir.ConstI64(dataBase, cpiInstructionDataScratch))
		disc := gs.newReg()
		gs.emit(ir.ConstI64(disc, 1))
		gs.emit(ir.Store4(dataBase, disc, 0))
		gs.emit(ir.Syscall(ir.Reg{}, false, "sol_memcpy_", []ir.Reg{addConst(gs, dataBase, 4), owner, constReg(gs, memmodel.AccountPubkeyLen)}))
		dataLen := gs.newReg()
		gs.emit(ir.ConstI64(dataLen, 4+memmodel.AccountPubkeyLen))

		accountsPtr := gs.emitAccountMetaArray([]cpiAccount{{ptr: pubkey, writable: true, signer: true}})
		header := gs.emitInstructionHeader(programID, accountsPtr, 1, dataBase, dataLen)
		return gs.signedOrPlainInvoke(form, signed, args, 2, header, accountsPtr, 1)
	}
}

// macroSplTokenTransfer returns a handler for (spl-token-transfer[-signed]
// src-idx dst-idx authority-idx amount [seeds-ptr seeds-count]).
func macroSplTokenTransfer(signed bool) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		min := 4
		if signed {
			min = 6
		}
		if len(args) != min {
			return ir.Reg{}, genError(form, "spl-token-transfer expects %d arguments", min)
		}
		src, _, err := gs.accountBase(form, args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		dstAcc, _, err := gs.accountBase(form, args[1])
		if err != nil {
			return ir.Reg{}, err
		}
		authority, _, err := gs.accountBase(form, args[2])
		if err != nil {
			return ir.Reg{}, err
		}
		amount, err := gs.genExpr(args[3])
		if err != nil {
			return ir.Reg{}, err
		}

		srcPubkey := gs.fieldPointer(src, memmodel.AccountPubkey)
		dstPubkey := gs.fieldPointer(dstAcc, memmodel.AccountPubkey)
		authPubkey := gs.fieldPointer(authority, memmodel.AccountPubkey)
		programID := gs.splTokenProgramIDPlaceholder()

		dataBase := gs.newReg()
		gs.emit(ir.ConstI64(dataBase, cpiInstructionDataScratch))
		disc := gs.newReg()
		gs.emit(ir.ConstI64(disc, 3)) // SPL Token Transfer discriminant
		gs.emit(ir.Store1(dataBase, disc, 0))
		gs.emit(ir.Store(dataBase, amount, 1))
		dataLen := gs.newReg()
		gs.emit(ir.ConstI64(dataLen, 9))

		accountsPtr := gs.emitAccountMetaArray([]cpiAccount{
			{ptr: srcPubkey, writable: true, signer: false},
			{ptr: dstPubkey, writable: true, signer: false},
			{ptr: authPubkey, writable: false, signer: true},
		})
		header := gs.emitInstructionHeader(programID, accountsPtr, 3, dataBase, dataLen)
		return gs.signedOrPlainInvoke(form, signed, args, 4, header, accountsPtr, 3)
	}
}

// macroSplTokenMintTo lowers (spl-token-mint-to mint-idx dest-idx
// authority-idx amount).
func macroSplTokenMintTo(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	return gs.splTokenSingleArgOp(form, args, 7, "spl-token-mint-to", true)
}

// macroSplTokenBurn lowers (spl-token-burn account-idx mint-idx
// authority-idx amount).
func macroSplTokenBurn(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	return gs.splTokenSingleArgOp(form, args, 8, "spl-token-burn", true)
}

// splTokenSingleArgOp shares the three-account, one-amount encoding
// mint_to and burn both use (mint_to: mint, destination, authority;
// burn: account, mint, authority — same wire shape either way).
func (gs *GeneratorState) splTokenSingleArgOp(form *ast.Node, args []*ast.Node, discriminant byte, name string, withAmount bool) (ir.Reg, error) {
	if len(args) != 4 {
		return ir.Reg{}, genError(form, "%s expects (%s a b c amount)", name, name)
	}
	a, _, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	b, _, err := gs.accountBase(form, args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	c, _, err := gs.accountBase(form, args[2])
	if err != nil {
		return ir.Reg{}, err
	}
	amount, err := gs.genExpr(args[3])
	if err != nil {
		return ir.Reg{}, err
	}

	pa := gs.fieldPointer(a, memmodel.AccountPubkey)
	pb := gs.fieldPointer(b, memmodel.AccountPubkey)
	pc := gs.fieldPointer(c, memmodel.AccountPubkey)
	programID := gs.splTokenProgramIDPlaceholder()

	dataBase := gs.newReg()
	gs.emit(ir.ConstI64(dataBase, cpiInstructionDataScratch))
	disc := gs.newReg()
	gs.emit(ir.ConstI64(disc, int64(discriminant)))
	gs.emit(ir.Store1(dataBase, disc, 0))
	gs.emit(ir.Store(dataBase, amount, 1))
	dataLen := gs.newReg()
	gs.emit(ir.ConstI64(dataLen, 9))

	accountsPtr := gs.emitAccountMetaArray([]cpiAccount{
		{ptr: pa, writable: true, signer: false},
		{ptr: pb, writable: true, signer: false},
		{ptr: pc, writable: false, signer: true},
	})
	header := gs.emitInstructionHeader(programID, accountsPtr, 3, dataBase, dataLen)
	return gs.emitInvoke(header, accountsPtr, 3, nil, 0), nil
}

// macroSplCloseAccount returns a handler for (spl-close-account[-signed]
// account-idx dest-idx authority-idx [seeds-ptr seeds-count]).
func macroSplCloseAccount(signed bool) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		min := 3
		if signed {
			min = 5
		}
		if len(args) != min {
			return ir.Reg{}, genError(form, "spl-close-account expects %d arguments", min)
		}
		acc, _, err := gs.accountBase(form, args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		dest, _, err := gs.accountBase(form, args[1])
		if err != nil {
			return ir.Reg{}, err
		}
		authority, _, err := gs.accountBase(form, args[2])
		if err != nil {
			return ir.Reg{}, err
		}

		pAcc := gs.fieldPointer(acc, memmodel.AccountPubkey)
		pDest := gs.fieldPointer(dest, memmodel.AccountPubkey)
		pAuth := gs.fieldPointer(authority, memmodel.AccountPubkey)
		programID := gs.splTokenProgramIDPlaceholder()

		dataPtr, dataLen := gs.writeInstructionDataDiscOnly(9)

		accountsPtr := gs.emitAccountMetaArray([]cpiAccount{
			{ptr: pAcc, writable: true, signer: false},
			{ptr: pDest, writable: true, signer: false},
			{ptr: pAuth, writable: false, signer: true},
		})
		header := gs.emitInstructionHeader(programID, accountsPtr, 3, dataPtr, dataLen)
		return gs.signedOrPlainInvoke(form, signed, args, 3, header, accountsPtr, 3)
	}
}

// macroInvoke returns a handler for the low-level (invoke[-signed]
// instruction-ptr accounts-ptr accounts-count [seeds-ptr seeds-count]),
// the escape hatch composite macros can't cover (an arbitrary
// caller-assembled instruction).
func macroInvoke(signed bool) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		min := 3
		if signed {
			min = 5
		}
		if len(args) != min {
			return ir.Reg{}, genError(form, "invoke expects %d arguments", min)
		}
		instruction, err := gs.genExpr(args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		accountsPtr, err := gs.genExpr(args[1])
		if err != nil {
			return ir.Reg{}, err
		}
		count, ok := requireInt(args[2])
		if !ok {
			return ir.Reg{}, genError(form, "invoke's accounts-count must be an integer literal")
		}
		if !signed {
			return gs.emitInvoke(instruction, accountsPtr, int(count), nil, 0), nil
		}
		seedsPtr, err := gs.genExpr(args[3])
		if err != nil {
			return ir.Reg{}, err
		}
		seedsCount, ok := requireInt(args[4])
		if !ok {
			return ir.Reg{}, genError(form, "invoke-signed's seeds-count must be an integer literal")
		}
		return gs.emitInvoke(instruction, accountsPtr, int(count), &seedsPtr, seedsCount), nil
	}
}

// macroBuildInstruction lowers (build-instruction program-id-ptr
// accounts-ptr accounts-count data-ptr data-len) to a SolInstruction
// header pointer, for callers assembling a CPI call the composite
// macros don't cover.
func macroBuildInstruction(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 5 {
		return ir.Reg{}, genError(form, "build-instruction expects (program-id accounts-ptr accounts-count data-ptr data-len)")
	}
	programID, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	accountsPtr, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	count, ok := requireInt(args[2])
	if !ok {
		return ir.Reg{}, genError(form, "build-instruction's accounts-count must be an integer literal")
	}
	dataPtr, err := gs.genExpr(args[3])
	if err != nil {
		return ir.Reg{}, err
	}
	dataLen, err := gs.genExpr(args[4])
	if err != nil {
		return ir.Reg{}, err
	}
	return gs.emitInstructionHeader(programID, accountsPtr, int(count), dataPtr, dataLen), nil
}

// signedOrPlainInvoke reads the trailing (seeds-ptr seeds-count) pair
// when signed is true and calls emitInvoke accordingly; argOffset is the
// index of the first seeds argument in args.
func (gs *GeneratorState) signedOrPlainInvoke(form *ast.Node, signed bool, args []*ast.Node, argOffset int, header, accountsPtr ir.Reg, accountsLen int) (ir.Reg, error) {
	if !signed {
		return gs.emitInvoke(header, accountsPtr, accountsLen, nil, 0), nil
	}
	seedsPtr, err := gs.genExpr(args[argOffset])
	if err != nil {
		return ir.Reg{}, err
	}
	seedsCount, ok := requireInt(args[argOffset+1])
	if !ok {
		return ir.Reg{}, genError(form, "seeds-count must be an integer literal")
	}
	return gs.emitInvoke(header, accountsPtr, accountsLen, &seedsPtr, seedsCount), nil
}

// fieldPointer returns a pointer register to a fixed-offset field within
// an already-resolved account base, without re-walking the offset table.
func (gs *GeneratorState) fieldPointer(base ir.Reg, offset int64) ir.Reg {
	off := gs.newReg()
	gs.emit(ir.ConstI64(off, offset))
	ptr := gs.newReg()
	gs.emit(ir.Add(ptr, base, off))
	return ptr
}

// systemProgramIDPlaceholder and splTokenProgramIDPlaceholder return a
// pointer to the corresponding well-known program ID, as a syscall the
// runtime resolves — the actual 32-byte constant lives in the runtime's
// rodata, not something this generator embeds itself (neither address is
// meaningful at IR-generation time without byte-encoding a literal
// pubkey, which downstream optimizer constant folding would only undo).
func (gs *GeneratorState) systemProgramIDPlaceholder() ir.Reg {
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_system_program_id", nil))
	return dst
}

func (gs *GeneratorState) splTokenProgramIDPlaceholder() ir.Reg {
	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_spl_token_program_id", nil))
	return dst
}

func addConst(gs *GeneratorState, base ir.Reg, delta int64) ir.Reg {
	off := gs.newReg()
	gs.emit(ir.ConstI64(off, delta))
	dst := gs.newReg()
	gs.emit(ir.Add(dst, base, off))
	return dst
}

func constReg(gs *GeneratorState, v int64) ir.Reg {
	r := gs.newReg()
	gs.emit(ir.ConstI64(r, v))
	return r
}
