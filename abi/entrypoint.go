// Package abi generates the Solana ABI compliance layer: the entrypoint
// wrapper that deserializes the raw account-info buffer and instruction
// data sBPF programs receive in R1/R2 into the layout the rest of the
// generated program expects, then jumps to user code.
package abi

import (
	"fmt"

	"github.com/openSVM/solisp-go/ir"
)

// Account-info and field sizes used while deserializing the raw input
// buffer at program entry.
const (
	AccountInfoSize = 258 // typical size with padding
	PubkeySize      = 32
	LamportsSize    = 8
	DataLenSize     = 8
	OwnerSize       = 32
)

// EntrypointGenerator emits the `_solana_entrypoint` prologue: account
// deserialization loop, instruction-data deserialization, and the final
// jump into user code at the `entry` label.
type EntrypointGenerator struct {
	instructions []ir.Instruction
	nextReg      uint32
}

// New creates an entrypoint generator. Virtual registers start at 10,
// reserving 0-9 the way the rest of the pipeline reserves low register
// ids for argument/frame pointer pseudonyms.
func New() *EntrypointGenerator {
	return &EntrypointGenerator{nextReg: 10}
}

func (g *EntrypointGenerator) allocReg() ir.Reg {
	r := ir.NewReg(g.nextReg)
	g.nextReg++
	return r
}

func (g *EntrypointGenerator) emit(instr ir.Instruction) {
	g.instructions = append(g.instructions, instr)
}

// GenerateEntrypoint builds the complete ABI wrapper and returns its
// instructions in emission order.
func (g *EntrypointGenerator) GenerateEntrypoint() []ir.Instruction {
	g.emit(ir.Label("_solana_entrypoint"))

	// R1 holds the serialized accounts buffer, R2 the instruction data —
	// both pre-allocated by the IR generator before this wrapper runs.
	numAccountsPtr := ir.NewReg(1)
	numAccounts := g.allocReg()

	// Format: [u64 num_accounts][AccountInfo 1][AccountInfo 2]...
	g.emit(ir.Load(numAccounts, numAccountsPtr, 0))

	accountsArraySize := g.allocReg()
	accountInfoSize := g.allocReg()
	g.emit(ir.ConstI64(accountInfoSize, AccountInfoSize))
	g.emit(ir.Mul(accountsArraySize, numAccounts, accountInfoSize))

	accountsArrayPtr := g.allocReg()
	g.emit(ir.Alloc(accountsArrayPtr, accountsArraySize))

	loopCounter := g.allocReg()
	g.emit(ir.ConstI64(loopCounter, 0))

	g.emit(ir.Label("deserialize_accounts_loop"))

	doneCheck := g.allocReg()
	g.emit(ir.Ge(doneCheck, loopCounter, numAccounts))
	g.emit(ir.JumpIf(doneCheck, "deserialize_accounts_done"))

	// Offset of the current account: skip the 8-byte count, then stride
	// by the typical serialized per-account size.
	currentOffset := g.allocReg()
	baseOffset := g.allocReg()
	g.emit(ir.ConstI64(baseOffset, 8))

	serializedSize := g.allocReg()
	g.emit(ir.ConstI64(serializedSize, 165))

	accountOffset := g.allocReg()
	g.emit(ir.Mul(accountOffset, loopCounter, serializedSize))
	g.emit(ir.Add(currentOffset, baseOffset, accountOffset))

	g.deserializeAccountInfo(numAccountsPtr, currentOffset, accountsArrayPtr, loopCounter)

	one := g.allocReg()
	g.emit(ir.ConstI64(one, 1))
	g.emit(ir.Add(loopCounter, loopCounter, one))

	g.emit(ir.Jump("deserialize_accounts_loop"))
	g.emit(ir.Label("deserialize_accounts_done"))

	// Instruction data: first 8 bytes are its length.
	instructionDataLenPtr := ir.NewReg(2)
	instructionDataLen := g.allocReg()
	g.emit(ir.Load(instructionDataLen, instructionDataLenPtr, 0))

	instructionDataBuffer := g.allocReg()
	g.emit(ir.Alloc(instructionDataBuffer, instructionDataLen))

	g.copyMemory(instructionDataLenPtr, instructionDataBuffer, instructionDataLen, 8)

	// Rebind R1/R2 to the deserialized buffers and hand off to user code.
	g.emit(ir.Move(ir.NewReg(1), accountsArrayPtr))
	g.emit(ir.Move(ir.NewReg(2), instructionDataBuffer))

	g.emit(ir.Jump("entry"))

	return g.instructions
}

// deserializeAccountInfo copies one serialized AccountInfo's fields into
// the destination array at the slot for `index`. Field offsets below are
// the fixed offsets the original serialization format guarantees — some
// fields here (owner/executable/rent_epoch past variable-length account
// data) assume a fixed-length layout rather than one computed from
// data_len, a simplification carried over as-is rather than fixed.
func (g *EntrypointGenerator) deserializeAccountInfo(serializedBase, offset, destArray, index ir.Reg) {
	destOffset := g.allocReg()
	accountSize := g.allocReg()
	g.emit(ir.ConstI64(accountSize, AccountInfoSize))
	g.emit(ir.Mul(destOffset, index, accountSize))

	srcPtr := g.allocReg()
	g.emit(ir.Add(srcPtr, serializedBase, offset))

	fieldOffset := g.allocReg()

	// 1. is_duplicate (1 byte)
	g.emit(ir.ConstI64(fieldOffset, 0))
	isDupPtr := g.allocReg()
	g.emit(ir.Add(isDupPtr, srcPtr, fieldOffset))
	isDup := g.allocReg()
	g.emit(ir.Load1(isDup, isDupPtr, 0))

	destPtr := g.allocReg()
	g.emit(ir.Add(destPtr, destArray, destOffset))
	g.emit(ir.Store(destPtr, isDup, 0))

	// 2. pubkey (32 bytes, as 4 u64 words)
	pubkeyOffset := int64(1)
	for i := int64(0); i < 4; i++ {
		srcOffset := pubkeyOffset + i*8
		srcField := g.allocReg()
		g.emit(ir.Load(srcField, srcPtr, srcOffset))
		g.emit(ir.Store(destPtr, srcField, 8+i*8))
	}

	// 3. is_signer (1 byte)
	isSigner := g.allocReg()
	g.emit(ir.Load1(isSigner, srcPtr, 33))
	g.emit(ir.Store(destPtr, isSigner, 40))

	// 4. is_writable (1 byte)
	isWritable := g.allocReg()
	g.emit(ir.Load1(isWritable, srcPtr, 34))
	g.emit(ir.Store(destPtr, isWritable, 41))

	// 5. lamports (8 bytes)
	lamports := g.allocReg()
	g.emit(ir.Load(lamports, srcPtr, 35))
	g.emit(ir.Store(destPtr, lamports, 48))

	// 6. data length (8 bytes)
	dataLen := g.allocReg()
	g.emit(ir.Load(dataLen, srcPtr, 43))
	g.emit(ir.Store(destPtr, dataLen, 56))

	// 7. account data
	dataPtr := g.allocReg()
	g.emit(ir.Alloc(dataPtr, dataLen))

	dataSrc := g.allocReg()
	g.emit(ir.ConstI64(fieldOffset, 51))
	g.emit(ir.Add(dataSrc, srcPtr, fieldOffset))
	g.copyMemory(dataSrc, dataPtr, dataLen, 0)

	g.emit(ir.Store(destPtr, dataPtr, 64))

	// 8. owner (32 bytes, as 4 u64 words)
	ownerOffset := int64(51)
	for i := int64(0); i < 4; i++ {
		srcField := g.allocReg()
		g.emit(ir.Load(srcField, srcPtr, ownerOffset+i*8))
		g.emit(ir.Store(destPtr, srcField, 72+i*8))
	}

	// 9. executable (1 byte)
	executable := g.allocReg()
	g.emit(ir.Load1(executable, srcPtr, 83))
	g.emit(ir.Store(destPtr, executable, 104))

	// 10. rent_epoch (8 bytes)
	rentEpoch := g.allocReg()
	g.emit(ir.Load(rentEpoch, srcPtr, 84))
	g.emit(ir.Store(destPtr, rentEpoch, 112))
}

// copyMemory emits a byte-at-a-time copy loop from src+srcOffset into
// dest, len bytes long.
func (g *EntrypointGenerator) copyMemory(src, dest, length ir.Reg, srcOffset int64) {
	loopCounter := g.allocReg()
	g.emit(ir.ConstI64(loopCounter, 0))

	loopLabel := fmt.Sprintf("copy_loop_%d", g.nextReg)
	doneLabel := fmt.Sprintf("copy_done_%d", g.nextReg)

	g.emit(ir.Label(loopLabel))

	done := g.allocReg()
	g.emit(ir.Ge(done, loopCounter, length))
	g.emit(ir.JumpIf(done, doneLabel))

	srcPtr := g.allocReg()
	offset := g.allocReg()
	g.emit(ir.ConstI64(offset, srcOffset))
	totalOffset := g.allocReg()
	g.emit(ir.Add(totalOffset, loopCounter, offset))
	g.emit(ir.Add(srcPtr, src, totalOffset))

	byteVal := g.allocReg()
	g.emit(ir.Load1(byteVal, srcPtr, 0))

	destPtr := g.allocReg()
	g.emit(ir.Add(destPtr, dest, loopCounter))
	g.emit(ir.Store1(destPtr, byteVal, 0))

	one := g.allocReg()
	g.emit(ir.ConstI64(one, 1))
	g.emit(ir.Add(loopCounter, loopCounter, one))

	g.emit(ir.Jump(loopLabel))
	g.emit(ir.Label(doneLabel))
}

// InjectEntrypointWrapper prepends the ABI wrapper to an existing
// instruction stream, so the user's own `entry` label (and everything
// after it) runs only once accounts and instruction data are
// deserialized.
func InjectEntrypointWrapper(instructions []ir.Instruction) []ir.Instruction {
	gen := New()
	wrapper := gen.GenerateEntrypoint()
	return append(wrapper, instructions...)
}
