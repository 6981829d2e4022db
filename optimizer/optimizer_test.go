package optimizer

import (
	"testing"

	"github.com/openSVM/solisp-go/ir"
)

func TestOptimizerCreation(t *testing.T) {
	o := New(2)
	if o.Level() != 2 {
		t.Fatalf("Level() = %d, want 2", o.Level())
	}
}

func TestConstantFolding(t *testing.T) {
	program := ir.NewProgram()
	program.Instructions = []ir.Instruction{
		ir.ConstI64(ir.NewReg(0), 10),
		ir.ConstI64(ir.NewReg(1), 20),
		ir.Add(ir.NewReg(2), ir.NewReg(0), ir.NewReg(1)),
	}

	o := New(1)
	o.constantFolding(program)

	got := program.Instructions[2]
	if got.Op != ir.OpConstI64 {
		t.Fatalf("expected constant folding to fold Add into ConstI64, got op %s", got.Op)
	}
	if got.Dst.ID != 2 {
		t.Fatalf("dst = %d, want 2", got.Dst.ID)
	}
	if got.ImmI != 30 {
		t.Fatalf("value = %d, want 30", got.ImmI)
	}
}

func TestDeadCodeEliminationRemovesUnusedDef(t *testing.T) {
	program := ir.NewProgram()
	program.Instructions = []ir.Instruction{
		ir.ConstI64(ir.NewReg(0), 1), // unused
		ir.ConstI64(ir.NewReg(1), 2),
		ir.Log(ir.NewReg(1), 1),
	}
	o := New(1)
	o.deadCodeElimination(program)
	if program.Instructions[0].Op != ir.OpNop {
		t.Fatalf("expected unused ConstI64 to become Nop, got %s", program.Instructions[0].Op)
	}
	if program.Instructions[1].Op != ir.OpConstI64 {
		t.Fatalf("expected used ConstI64 to survive, got %s", program.Instructions[1].Op)
	}
}

func TestCommonSubexpressionElimination(t *testing.T) {
	program := ir.NewProgram()
	program.Instructions = []ir.Instruction{
		ir.Add(ir.NewReg(2), ir.NewReg(0), ir.NewReg(1)),
		ir.Add(ir.NewReg(3), ir.NewReg(0), ir.NewReg(1)),
	}
	o := New(2)
	o.commonSubexpressionElimination(program)
	second := program.Instructions[1]
	if second.Op != ir.OpMove {
		t.Fatalf("expected second Add to become Move, got %s", second.Op)
	}
	if second.Src1.ID != 2 {
		t.Fatalf("Move source = %d, want 2", second.Src1.ID)
	}
}

func TestPeepholeAddZero(t *testing.T) {
	program := ir.NewProgram()
	program.Instructions = []ir.Instruction{
		ir.ConstI64(ir.NewReg(1), 0),
		ir.Add(ir.NewReg(2), ir.NewReg(0), ir.NewReg(1)),
	}
	o := New(2)
	o.peepholeOptimizations(program)
	if program.Instructions[1].Op != ir.OpMove {
		t.Fatalf("expected x+0 to become Move, got %s", program.Instructions[1].Op)
	}
}

func TestPeepholeOnlyMatchesImmediatePredecessor(t *testing.T) {
	program := ir.NewProgram()
	program.Instructions = []ir.Instruction{
		ir.ConstI64(ir.NewReg(1), 0),
		ir.ConstI64(ir.NewReg(9), 999), // unrelated instruction sits between
		ir.Add(ir.NewReg(2), ir.NewReg(0), ir.NewReg(1)),
	}
	o := New(2)
	o.peepholeOptimizations(program)
	if program.Instructions[2].Op != ir.OpAdd {
		t.Fatalf("expected the pattern to miss when the constant isn't the immediate predecessor, got %s", program.Instructions[2].Op)
	}
}

func TestRemoveNops(t *testing.T) {
	program := ir.NewProgram()
	program.Instructions = []ir.Instruction{
		ir.NopInstr(),
		ir.ConstI64(ir.NewReg(0), 1),
		ir.NopInstr(),
	}
	o := New(0)
	o.removeNops(program)
	if len(program.Instructions) != 1 {
		t.Fatalf("len = %d, want 1", len(program.Instructions))
	}
}
