package irgen

import (
	"testing"

	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
)

// TestMacroTableHasNoNilHandlers guards against a typo'd entry losing its
// handler silently (a nil func value dispatches fine until called, then
// panics deep inside genList).
func TestMacroTableHasNoNilHandlers(t *testing.T) {
	for name, handler := range macroTable {
		if handler == nil {
			t.Errorf("macroTable[%q] is nil", name)
		}
	}
}

func program(forms ...*ast.Node) *ast.Program {
	return &ast.Program{Forms: forms}
}

func TestGenerateEmptyProgramHasPrologueAndEpilogue(t *testing.T) {
	prog, err := Generate(program(), Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(prog.Instructions) == 0 {
		t.Fatal("Generate on an empty program emitted no instructions")
	}
	last := prog.Instructions[len(prog.Instructions)-1]
	if last.Op != ir.OpReturn {
		t.Errorf("last instruction = %v, want a return", last.Op)
	}
}

func TestAssertSignerLowersToJumpOnTrueGuard(t *testing.T) {
	form := ast.List(ast.Symbol("assert-signer"), ast.Int(0))
	prog, err := Generate(program(form), Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var sawPanicCall, sawJumpIf bool
	for _, in := range prog.Instructions {
		if in.Op == ir.OpJumpIf {
			sawJumpIf = true
		}
		if in.Op == ir.OpSyscall && in.Target == "sol_panic_" {
			sawPanicCall = true
		}
	}
	if !sawJumpIf {
		t.Error("assert-signer should lower to a jump-on-true guard (no JumpIf emitted)")
	}
	if !sawPanicCall {
		t.Error("assert-signer should fall through to a sol_panic_ call on failure")
	}
}

func TestAssertSignerRejectsWrongArity(t *testing.T) {
	form := ast.List(ast.Symbol("assert-signer"))
	if _, err := Generate(program(form), Options{}); err == nil {
		t.Fatal("assert-signer with no account index: expected an error")
	}
}

func TestEmitEventRequiresDefinedStruct(t *testing.T) {
	form := ast.List(ast.Symbol("emit-event"), ast.Symbol("Order"), ast.Int(0))
	if _, err := Generate(program(form), Options{}); err == nil {
		t.Fatal("emit-event referencing an undefined struct: expected an error")
	}
}

func TestEmitEventLowersToSolLogData(t *testing.T) {
	defineStruct := ast.List(ast.Symbol("define-struct"), ast.Symbol("Order"),
		ast.List(ast.Symbol("amount"), ast.Symbol("u64")))
	emit := ast.List(ast.Symbol("emit-event"), ast.Symbol("Order"), ast.Int(0))

	prog, err := Generate(program(defineStruct, emit), Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var sawLogData bool
	for _, in := range prog.Instructions {
		if in.Op == ir.OpSyscall && in.Target == "sol_log_data" {
			sawLogData = true
		}
	}
	if !sawLogData {
		t.Error("emit-event should lower to a sol_log_data syscall")
	}
}

func TestDerivePdaLowersToCreateProgramAddress(t *testing.T) {
	form := ast.List(ast.Symbol("derive-pda"), ast.Int(0), ast.Str("seed"))
	prog, err := Generate(program(form), Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var sawCreate bool
	for _, in := range prog.Instructions {
		if in.Op == ir.OpSyscall && in.Target == "sol_create_program_address" {
			sawCreate = true
		}
	}
	if !sawCreate {
		t.Error("derive-pda should lower to a sol_create_program_address syscall")
	}
}

func TestUndefinedVariableSuggestsNearestName(t *testing.T) {
	defineX := ast.List(ast.Symbol("define"), ast.Symbol("amount"), ast.Int(1))
	useTypo := ast.List(ast.Symbol("+"), ast.Symbol("amonut"), ast.Int(1))

	_, err := Generate(program(defineX, useTypo), Options{})
	if err == nil {
		t.Fatal("referencing an undefined (typo'd) variable: expected an error")
	}
	if got := err.Error(); !contains(got, "did you mean") {
		t.Errorf("error %q does not suggest a correction", got)
	}
}

func TestStrictMemoryFailsOnOutOfBoundsAccountIndex(t *testing.T) {
	form := ast.List(ast.Symbol("assert-signer"), ast.Int(5))
	_, err := Generate(program(form), Options{StrictMemory: true, NumAccounts: 1})
	if err == nil {
		t.Fatal("account index 5 with only 1 known account: expected a MemoryErrors failure")
	}
	if _, ok := err.(*MemoryErrors); !ok {
		t.Errorf("error type = %T, want *MemoryErrors", err)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
