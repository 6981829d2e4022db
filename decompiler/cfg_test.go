package decompiler

import "testing"

func TestBuildCFGEmpty(t *testing.T) {
	cfg := BuildCFG(nil)
	if len(cfg.Blocks) != 0 {
		t.Errorf("len(Blocks) = %d, want 0", len(cfg.Blocks))
	}
}

func TestBuildCFGLinear(t *testing.T) {
	instructions := []Instr{
		{Offset: 0, Opcode: 0xb7, Dst: 0, Imm: 42, Mnemonic: "mov64", Operands: "r0, 42"},
		{Offset: 8, Opcode: 0x95, Mnemonic: "exit"},
	}

	cfg := BuildCFG(instructions)

	if len(cfg.Blocks) != 1 {
		t.Fatalf("len(Blocks) = %d, want 1", len(cfg.Blocks))
	}
	if len(cfg.Exits) != 1 {
		t.Fatalf("len(Exits) = %d, want 1", len(cfg.Exits))
	}
}

func TestLoopHeaderDetection(t *testing.T) {
	// Leaders are instructions 0, 1, 2 and 4, giving four blocks:
	// Block 0: mov r0, 0 (falls through to block 1)
	// Block 1: jeq r0, 10, +2 (jumps to block 3 or falls through to block 2)
	// Block 2: add r0, 1; ja -3 (back edge to block 1, making it a loop header)
	// Block 3: exit
	instructions := []Instr{
		{Offset: 0, Opcode: 0xb7, Dst: 0, Imm: 0},
		{Offset: 8, Opcode: 0x15, Dst: 0, Imm: 10, Off: 2}, // jeq r0, 10, +2 -> targets idx 1+1+2=4
		{Offset: 16, Opcode: 0x07, Dst: 0, Imm: 1},
		{Offset: 24, Opcode: 0x05, Off: -3}, // ja -3 -> targets idx 3+1-3=1
		{Offset: 32, Opcode: 0x95},
	}

	cfg := BuildCFG(instructions)
	if len(cfg.Blocks) == 0 {
		t.Fatal("expected at least one block")
	}
	if !cfg.IsLoopHeader(1) {
		t.Error("IsLoopHeader(1) = false, want true (target of the back edge from block 2)")
	}
	if cfg.IsLoopHeader(0) {
		t.Error("IsLoopHeader(0) = true, want false")
	}
}
