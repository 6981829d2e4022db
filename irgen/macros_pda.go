package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/memmodel"
)

// pdaScratchBase is the heap carve-out find-pda and its relatives use to
// lay out the SolBytes seed array, the packed seed data, the output
// address, and the found bump, per the heap layout's
// 0x300000300 entry.
const pdaScratchBase = memmodel.HeapBase + 0x300

// pdaBumpCacheMagic is the fixed magic value a bump-cache table's first
// 4 bytes must hold (the next 4 hold the entry count), read back by
// pda-cache-lookup to confirm the table was actually initialized before
// anything is looked up in it.
const pdaBumpCacheMagic = 0x50444143

// emitSeedArray writes one SolBytes descriptor (addr, len) per seed
// expression into the descriptor array at pdaScratchBase, returning a
// pointer to the descriptor array and the seed count. The addr field
// holds the register genSeedBytes returns for the seed; seed bytes are
// not copied into a packed data region.
func (gs *GeneratorState) emitSeedArray(seeds []*ast.Node) (ir.Reg, int, error) {
	descBase := gs.newReg()
	gs.emit(ir.ConstI64(descBase, pdaScratchBase))

	for i, seedForm := range seeds {
		seedPtr, length, err := gs.genSeedBytes(seedForm)
		if err != nil {
			return ir.Reg{}, 0, err
		}
		descEntryOffset := int64(i) * 16
		gs.emit(ir.Store(descBase, seedPtr, descEntryOffset))
		lenReg := gs.newReg()
		gs.emit(ir.ConstI64(lenReg, length))
		gs.emit(ir.Store(descBase, lenReg, descEntryOffset+8))
	}
	return descBase, len(seeds), nil
}

// genSeedBytes lowers one seed form (a string literal, an integer
// constant, or an arbitrary dynamic pointer expression already sized in
// bytes) to (pointer, length).
func (gs *GeneratorState) genSeedBytes(seedForm *ast.Node) (ir.Reg, int64, error) {
	if seedForm.Kind == ast.NodeString {
		idx := gs.Program.InternString(seedForm.Str)
		r := gs.newReg()
		gs.emit(ir.ConstString(r, idx))
		return r, int64(len(seedForm.Str)), nil
	}
	if seedForm.Kind == ast.NodeInt {
		r := gs.newReg()
		gs.emit(ir.ConstI64(r, seedForm.Int))
		return r, 8, nil
	}
	reg, err := gs.genExpr(seedForm)
	if err != nil {
		return ir.Reg{}, 0, err
	}
	return reg, 32, nil
}

// macroDerivePda lowers (derive-pda program-id-ptr seed...) to a
// sol_create_program_address call — used when the bump is already
// known (supplied as the seed list's own trailing bump byte).
func macroDerivePda(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 1 {
		return ir.Reg{}, genError(form, "derive-pda expects (derive-pda program-id seed...)")
	}
	programID, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	descBase, count, err := gs.emitSeedArray(args[1:])
	if err != nil {
		return ir.Reg{}, err
	}
	countReg := gs.newReg()
	gs.emit(ir.ConstI64(countReg, int64(count)))
	outAddr := addConst(gs, descBase, int64(count)*16)

	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_create_program_address", []ir.Reg{descBase, countReg, programID, outAddr}))
	return outAddr, nil
}

// macroFindPda lowers (find-pda program-id-ptr seed...) — the bump-
// searching variant, calling sol_try_find_program_address and returning
// a pointer to the (address, bump) pair it wrote at the scratch area's
// tail.
func macroFindPda(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 1 {
		return ir.Reg{}, genError(form, "find-pda expects (find-pda program-id seed...)")
	}
	programID, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	descBase, count, err := gs.emitSeedArray(args[1:])
	if err != nil {
		return ir.Reg{}, err
	}
	countReg := gs.newReg()
	gs.emit(ir.ConstI64(countReg, int64(count)))
	outAddr := addConst(gs, descBase, int64(count)*16)
	outBump := addConst(gs, outAddr, 32)

	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_try_find_program_address", []ir.Reg{descBase, countReg, programID, outAddr, outBump}))
	return outAddr, nil
}

// macroCreatePda lowers (create-pda payer-idx new-idx program-id seed...)
// to a find-pda derivation followed by a System Program create-account
// call funding the derived address, the usual "create the PDA account"
// idiom.
func macroCreatePda(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 3 {
		return ir.Reg{}, genError(form, "create-pda expects (create-pda payer-idx new-idx program-id seed...)")
	}
	pdaAddr, err := macroFindPda(gs, form, args[2:])
	if err != nil {
		return ir.Reg{}, err
	}
	_ = pdaAddr
	return macroSystemCreateAccount(gs, form, args[:2])
}

// macroGetAta lowers (get-ata wallet-ptr mint-ptr) to the three-seed
// [wallet, token_program_id, mint] derivation against the ATA program
// id. The ATA program id bytes are resolved through a syscall rather
// than embedded as a literal, for the same reason the CPI program IDs
// are (see systemProgramIDPlaceholder).
func macroGetAta(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "get-ata expects (get-ata wallet-ptr mint-ptr)")
	}
	wallet, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	mint, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	tokenProgramID := gs.splTokenProgramIDPlaceholder()
	ataProgramID := gs.newReg()
	gs.emit(ir.Syscall(ataProgramID, true, "sol_ata_program_id", nil))

	descBase := gs.newReg()
	gs.emit(ir.ConstI64(descBase, pdaScratchBase))
	gs.emit(ir.Store(descBase, wallet, 0))
	gs.emit(ir.Store(descBase, constReg(gs, 32), 8))
	gs.emit(ir.Store(descBase, tokenProgramID, 16))
	gs.emit(ir.Store(descBase, constReg(gs, 32), 24))
	gs.emit(ir.Store(descBase, mint, 32))
	gs.emit(ir.Store(descBase, constReg(gs, 32), 40))

	countReg := gs.newReg()
	gs.emit(ir.ConstI64(countReg, 3))
	outAddr := addConst(gs, descBase, 48)
	outBump := addConst(gs, outAddr, 32)

	dst := gs.newReg()
	gs.emit(ir.Syscall(dst, true, "sol_try_find_program_address", []ir.Reg{descBase, countReg, ataProgramID, outAddr, outBump}))
	return outAddr, nil
}

// macroGetPdaBump lowers (get-pda-bump program-id seed...) to the same
// find-pda call, returning just the discovered bump byte.
func macroGetPdaBump(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	addr, err := macroFindPda(gs, form, args)
	if err != nil {
		return ir.Reg{}, err
	}
	bump := gs.newReg()
	gs.emit(ir.Load1(bump, addr, 32))
	return bump, nil
}

// macroPdaCacheInit lowers (pda-cache-init account-idx) — writes the
// cache table's magic/count header at the start of the named account's
// data section and records it as the active bump cache account for
// subsequent store/lookup calls.
func macroPdaCacheInit(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "pda-cache-init expects (pda-cache-init account-idx)")
	}
	idx, ok := requireInt(args[0])
	if !ok {
		return ir.Reg{}, genError(form, "pda-cache-init's account index must be an integer literal")
	}
	base, _, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	dataPtr := addConst(gs, base, memmodel.AccountDataOffset)
	magic := gs.newReg()
	gs.emit(ir.ConstI64(magic, pdaBumpCacheMagic))
	gs.emit(ir.Store4(dataPtr, magic, 0))
	count := gs.newReg()
	gs.emit(ir.ConstI64(count, 0))
	gs.emit(ir.Store4(dataPtr, count, 4))

	accIdx := uint8(idx)
	gs.pdaBumpCacheAccount = &accIdx
	return dataPtr, nil
}

// macroPdaCacheStore lowers (pda-cache-store seed-hash bump) — appends a
// (hash, bump) entry after the header, at offset 8 + count*9, then
// increments the stored count.
func macroPdaCacheStore(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if gs.pdaBumpCacheAccount == nil {
		return ir.Reg{}, genError(form, "pda-cache-store used before pda-cache-init")
	}
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "pda-cache-store expects (pda-cache-store seed-hash bump)")
	}
	hash, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	bump, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	idxForm := ast.Int(int64(*gs.pdaBumpCacheAccount))
	base, _, err := gs.accountBase(form, idxForm)
	if err != nil {
		return ir.Reg{}, err
	}
	dataPtr := addConst(gs, base, memmodel.AccountDataOffset)

	count := gs.newReg()
	gs.emit(ir.Load4(count, dataPtr, 4))
	entryOffsetBase := gs.newReg()
	gs.emit(ir.ConstI64(entryOffsetBase, 9))
	entryOffset := gs.newReg()
	gs.emit(ir.Mul(entryOffset, count, entryOffsetBase))
	headerSize := gs.newReg()
	gs.emit(ir.ConstI64(headerSize, 8))
	totalOffset := gs.newReg()
	gs.emit(ir.Add(totalOffset, entryOffset, headerSize))
	entryPtr := gs.newReg()
	gs.emit(ir.Add(entryPtr, dataPtr, totalOffset))

	gs.emit(ir.Store(entryPtr, hash, 0))
	gs.emit(ir.Store1(entryPtr, bump, 8))

	one := gs.newReg()
	gs.emit(ir.ConstI64(one, 1))
	newCount := gs.newReg()
	gs.emit(ir.Add(newCount, count, one))
	gs.emit(ir.Store4(dataPtr, newCount, 4))
	return newCount, nil
}

// macroPdaCacheLookup lowers (pda-cache-lookup seed-hash) to a linear
// scan over the stored entries, returning the matching bump or -1 if
// none matched (the cache is small by construction — one entry per PDA
// a program derives — so a linear scan is the right cost/complexity
// tradeoff over a hash table).
func macroPdaCacheLookup(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if gs.pdaBumpCacheAccount == nil {
		return ir.Reg{}, genError(form, "pda-cache-lookup used before pda-cache-init")
	}
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "pda-cache-lookup expects (pda-cache-lookup seed-hash)")
	}
	hash, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	idxForm := ast.Int(int64(*gs.pdaBumpCacheAccount))
	base, _, err := gs.accountBase(form, idxForm)
	if err != nil {
		return ir.Reg{}, err
	}
	dataPtr := addConst(gs, base, memmodel.AccountDataOffset)

	count := gs.newReg()
	gs.emit(ir.Load4(count, dataPtr, 4))
	i := gs.newReg()
	gs.emit(ir.ConstI64(i, 0))
	result := gs.newReg()
	gs.emit(ir.ConstI64(result, -1))

	testLabel := gs.newLabel("pda_cache_test")
	doneLabel := gs.newLabel("pda_cache_done")

	// A table without the magic is treated as empty: result stays -1.
	storedMagic := gs.newReg()
	gs.emit(ir.Load4(storedMagic, dataPtr, 0))
	magicOK := gs.newReg()
	gs.emit(ir.Eq(magicOK, storedMagic, constReg(gs, pdaBumpCacheMagic)))
	gs.emit(ir.JumpIfNot(magicOK, doneLabel))
	gs.emit(ir.Label(testLabel))

	outOfEntries := gs.newReg()
	gs.emit(ir.Ge(outOfEntries, i, count))
	gs.emit(ir.JumpIf(outOfEntries, doneLabel))

	entryOffsetBase := gs.newReg()
	gs.emit(ir.ConstI64(entryOffsetBase, 9))
	entryOffset := gs.newReg()
	gs.emit(ir.Mul(entryOffset, i, entryOffsetBase))
	headerSize := gs.newReg()
	gs.emit(ir.ConstI64(headerSize, 8))
	totalOffset := gs.newReg()
	gs.emit(ir.Add(totalOffset, entryOffset, headerSize))
	entryPtr := gs.newReg()
	gs.emit(ir.Add(entryPtr, dataPtr, totalOffset))

	storedHash := gs.newReg()
	gs.emit(ir.Load(storedHash, entryPtr, 0))
	matches := gs.newReg()
	gs.emit(ir.Eq(matches, storedHash, hash))

	foundLabel := gs.newLabel("pda_cache_found")
	gs.emit(ir.JumpIf(matches, foundLabel))

	one := gs.newReg()
	gs.emit(ir.ConstI64(one, 1))
	gs.emit(ir.Add(i, i, one))
	gs.emit(ir.Jump(testLabel))

	gs.emit(ir.Label(foundLabel))
	bump := gs.newReg()
	gs.emit(ir.Load1(bump, entryPtr, 8))
	gs.emit(ir.Move(result, bump))

	gs.emit(ir.Label(doneLabel))
	return result, nil
}
