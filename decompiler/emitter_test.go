package decompiler

import "testing"

func TestEmitMov(t *testing.T) {
	opts := &Options{}
	e := NewEmitter(opts, nil)

	in := Instr{Opcode: 0xb7, Dst: 0, Imm: 42, Mnemonic: "mov64", Operands: "r0, 42"}
	got, err := e.emitInstruction(in)
	if err != nil {
		t.Fatalf("emitInstruction() error = %v", err)
	}
	if got != "(define result 42)" {
		t.Errorf("got %q, want (define result 42)", got)
	}
}

func TestEmitExit(t *testing.T) {
	opts := &Options{}
	e := NewEmitter(opts, nil)

	in := Instr{Opcode: 0x95}
	got, err := e.emitInstruction(in)
	if err != nil {
		t.Fatalf("emitInstruction() error = %v", err)
	}
	if got != "(return result)" {
		t.Errorf("got %q, want (return result)", got)
	}
}

func TestEmitUnknownSyscall(t *testing.T) {
	name := syscallName(0x1234)
	if name != "syscall-0x1234" {
		t.Errorf("syscallName(0x1234) = %q, want syscall-0x1234", name)
	}
}
