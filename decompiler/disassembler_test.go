package decompiler

import "testing"

func TestDecodeInstructionMov(t *testing.T) {
	disasm := NewDisassembler()

	// mov64 r0, 42
	bytes := []byte{0xb7, 0x00, 0x00, 0x00, 0x2a, 0x00, 0x00, 0x00}
	in, err := disasm.decodeInstruction(bytes, 0)
	if err != nil {
		t.Fatalf("decodeInstruction() error = %v", err)
	}
	if in.Mnemonic != "mov64" {
		t.Errorf("Mnemonic = %q, want mov64", in.Mnemonic)
	}
	if in.Dst != 0 {
		t.Errorf("Dst = %d, want 0", in.Dst)
	}
	if in.Imm != 42 {
		t.Errorf("Imm = %d, want 42", in.Imm)
	}
}

func TestExitDetection(t *testing.T) {
	disasm := NewDisassembler()

	bytes := []byte{0x95, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	in, err := disasm.decodeInstruction(bytes, 0)
	if err != nil {
		t.Fatalf("decodeInstruction() error = %v", err)
	}
	if !in.IsExit() {
		t.Error("expected IsExit() to be true")
	}
	if in.IsCall() {
		t.Error("expected IsCall() to be false")
	}
}
