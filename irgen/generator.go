package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/memmodel"
)

// accountsReg and instrDataReg are the pinned argument registers the
// Solana ABI hands the program at entry (R1: accounts buffer pointer, R2:
// instruction-data pointer). R6/R7 are callee-saved copies the generator
// rebinds "accounts"/"instruction-data" to, so later code can call
// arbitrary syscalls without worrying about R1/R2 clobber.
var (
	accountsReg  = ir.NewReg(1)
	instrDataReg = ir.NewReg(2)
	savedAccts   = ir.NewReg(6)
	savedInstr   = ir.NewReg(7)
)

// Generate lowers a parsed program to an IR program, running the
// standard prologue (register save, account offset table) before user
// forms and the standard epilogue (return 0) after.
func Generate(program *ast.Program, opts Options) (*ir.Program, error) {
	gs := NewGeneratorState(opts)

	// Reserve 0-9 for argument/frame-pointer pseudonyms, same convention
	// abi.EntrypointGenerator uses.
	for gs.Alloc.RegCount() < 10 {
		gs.newReg()
	}

	gs.emit(ir.Label("entry"))
	gs.emit(ir.Move(savedAccts, accountsReg))
	gs.emit(ir.Move(savedInstr, instrDataReg))
	gs.bindVar("accounts", savedAccts)
	gs.bindVar("instruction-data", savedInstr)

	gs.emitAccountOffsetTable()

	for _, form := range program.Forms {
		if _, err := gs.genStatement(form); err != nil {
			return nil, err
		}
	}

	zero := gs.newReg()
	gs.emit(ir.ConstI64(zero, 0))
	gs.emit(ir.Return(zero, true))

	if errs := gs.TypeEnv.Errors(); len(errs) > 0 {
		return gs.Program, &MemoryErrors{Errors: errs}
	}

	return gs.Program, nil
}

// MemoryErrors wraps the accumulated memory-model error batch Generate
// returns alongside the program; strict-mode generation fails with it and
// warn-mode callers report it — the source implementation's "compilation fails
// after lowering reports them batched" error-handling rule (spec §7.2).
type MemoryErrors struct {
	Errors []memmodel.MemoryError
}

func (e *MemoryErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple memory-model errors:"
	for _, err := range e.Errors {
		msg += "\n  " + err.Error()
	}
	return msg
}

// emitAccountOffsetTable walks every account once, writing its starting
// byte offset into the heap table at memmodel.HeapBase, and writes the
// offset where instruction-data begins into the table entry just past
// the last account. This turns every later "account i" macro into one
// table load instead of a re-walk.
//
// Per-account record layout: AccountHeaderSize header bytes, then
// data_len data bytes, then a fixed AccountReallocPad realloc buffer,
// padded to 8-byte alignment, then an 8-byte rent epoch.
func (gs *GeneratorState) emitAccountOffsetTable() {
	numAccounts := gs.newReg()
	gs.emit(ir.Load(numAccounts, savedAccts, 0))

	tableBase := gs.newReg()
	gs.emit(ir.ConstI64(tableBase, memmodel.HeapBase+memmodel.AccountTableOffset))

	cursor := gs.newReg()
	eight := gs.newReg()
	gs.emit(ir.ConstI64(eight, 8))
	gs.emit(ir.Add(cursor, savedAccts, eight)) // first account header starts after the u64 count

	i := gs.newReg()
	gs.emit(ir.ConstI64(i, 0))

	loopLabel := gs.newLabel("account_offset_table_loop")
	doneLabel := gs.newLabel("account_offset_table_done")
	gs.emit(ir.Label(loopLabel))

	done := gs.newReg()
	gs.emit(ir.Ge(done, i, numAccounts))
	gs.emit(ir.JumpIf(done, doneLabel))

	// table[i] = cursor - accounts_base (store the relative offset, the
	// form account-* macros add back onto the base they hold).
	relOffset := gs.newReg()
	gs.emit(ir.Sub(relOffset, cursor, savedAccts))

	entryOffset := gs.newReg()
	eightB := gs.newReg()
	gs.emit(ir.ConstI64(eightB, 8))
	gs.emit(ir.Mul(entryOffset, i, eightB))
	entryPtr := gs.newReg()
	gs.emit(ir.Add(entryPtr, tableBase, entryOffset))
	gs.emit(ir.Store(entryPtr, relOffset, 0))

	// dataLen = *(cursor + AccountDataLen)
	dataLen := gs.newReg()
	gs.emit(ir.Load(dataLen, cursor, memmodel.AccountDataLen))

	// cursor += header + data_len + realloc_pad, then round up to 8,
	// then += rent_epoch size.
	recordSize := gs.newReg()
	headerPad := gs.newReg()
	gs.emit(ir.ConstI64(headerPad, memmodel.AccountHeaderSize+memmodel.AccountReallocPad))
	gs.emit(ir.Add(recordSize, dataLen, headerPad))

	unaligned := gs.newReg()
	gs.emit(ir.Add(unaligned, cursor, recordSize))

	aligned := gs.emitAlignUp8(unaligned)

	rentEpoch := gs.newReg()
	gs.emit(ir.ConstI64(rentEpoch, memmodel.AccountRentEpochLen))
	gs.emit(ir.Add(cursor, aligned, rentEpoch))

	one := gs.newReg()
	gs.emit(ir.ConstI64(one, 1))
	gs.emit(ir.Add(i, i, one))
	gs.emit(ir.Jump(loopLabel))
	gs.emit(ir.Label(doneLabel))

	// Final table entry: offset of instruction-data length field,
	// relative to the accounts buffer, same convention as the per-account
	// entries.
	finalOffset := gs.newReg()
	gs.emit(ir.Sub(finalOffset, cursor, savedAccts))
	finalEntryOffset := gs.newReg()
	gs.emit(ir.Mul(finalEntryOffset, numAccounts, eight))
	finalEntryPtr := gs.newReg()
	gs.emit(ir.Add(finalEntryPtr, tableBase, finalEntryOffset))
	gs.emit(ir.Store(finalEntryPtr, finalOffset, 0))
}

// emitAlignUp8 rounds reg up to the next multiple of 8: (reg + 7) & ~7,
// expressed with the arithmetic this IR has (no bitwise-not/and-immediate
// opcode for masks), via (reg + 7) - ((reg + 7) mod 8).
func (gs *GeneratorState) emitAlignUp8(reg ir.Reg) ir.Reg {
	seven := gs.newReg()
	gs.emit(ir.ConstI64(seven, 7))
	padded := gs.newReg()
	gs.emit(ir.Add(padded, reg, seven))

	eight := gs.newReg()
	gs.emit(ir.ConstI64(eight, 8))
	rem := gs.newReg()
	gs.emit(ir.Mod(rem, padded, eight))

	result := gs.newReg()
	gs.emit(ir.Sub(result, padded, rem))
	return result
}
