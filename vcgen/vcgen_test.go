package vcgen

import (
	"testing"

	"github.com/openSVM/solisp-go/ast"
)

func prog(forms ...*ast.Node) *ast.Program {
	return &ast.Program{Forms: forms}
}

func TestDivisionByLiteralZeroFails(t *testing.T) {
	form := ast.List(ast.Symbol("/"), ast.Symbol("x"), ast.Int(0))
	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 1 {
		t.Fatalf("got %d VCs, want 1", len(vcs))
	}
	if vcs[0].Category != DivisionSafety {
		t.Fatalf("category = %s, want DivisionSafety", vcs[0].Category)
	}
	if vcs[0].Status != Failed {
		t.Fatalf("status = %s, want Failed", vcs[0].Status)
	}
}

func TestDivisionByLiteralNonzeroDischarges(t *testing.T) {
	form := ast.List(ast.Symbol("/"), ast.Symbol("x"), ast.Int(2))
	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 1 || vcs[0].Status != Discharged {
		t.Fatalf("got %+v, want a single Discharged VC", vcs)
	}
}

func TestDivisionByVariableIsPending(t *testing.T) {
	form := ast.List(ast.Symbol("/"), ast.Symbol("x"), ast.Symbol("y"))
	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 1 || vcs[0].Status != Pending {
		t.Fatalf("got %+v, want a single Pending VC", vcs)
	}
}

func TestArrayBoundsRule(t *testing.T) {
	form := ast.List(ast.Symbol("get"), ast.Symbol("arr"), ast.Symbol("i"))
	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 1 || vcs[0].Category != ArrayBounds {
		t.Fatalf("got %+v, want a single ArrayBounds VC", vcs)
	}
	want := "i < length(arr)"
	if vcs[0].Property != want {
		t.Fatalf("property = %q, want %q", vcs[0].Property, want)
	}
}

func TestBalanceUnderflowHeuristic(t *testing.T) {
	form := ast.List(ast.Symbol("-"), ast.Symbol("balance"), ast.Symbol("amount"))
	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 1 || vcs[0].Category != ArithmeticUnderflow {
		t.Fatalf("got %+v, want a single ArithmeticUnderflow VC", vcs)
	}
}

func TestNonBalanceSubEmitsNoUnderflowVC(t *testing.T) {
	form := ast.List(ast.Symbol("-"), ast.Symbol("x"), ast.Symbol("y"))
	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 0 {
		t.Fatalf("got %+v, want no VCs for a non-balance subtraction", vcs)
	}
}

// TestGuardPrependsCondition matches spec example 6: (if (> y 0) (/ x y) 0)
// must generate one DivisionSafety VC whose assumptions include the
// guard condition.
func TestGuardPrependsCondition(t *testing.T) {
	cond := ast.List(ast.Symbol(">"), ast.Symbol("y"), ast.Int(0))
	then := ast.List(ast.Symbol("/"), ast.Symbol("x"), ast.Symbol("y"))
	form := ast.List(ast.Symbol("if"), cond, then, ast.Int(0))

	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 1 {
		t.Fatalf("got %d VCs, want 1", len(vcs))
	}
	if len(vcs[0].Assumptions) != 1 || vcs[0].Assumptions[0] != cond.String() {
		t.Fatalf("assumptions = %v, want [%q]", vcs[0].Assumptions, cond.String())
	}
}

func TestElseBranchGetsNegatedGuard(t *testing.T) {
	cond := ast.List(ast.Symbol(">"), ast.Symbol("y"), ast.Int(0))
	thenForm := ast.Int(1)
	elseForm := ast.List(ast.Symbol("/"), ast.Symbol("x"), ast.Symbol("y"))
	form := ast.List(ast.Symbol("if"), cond, thenForm, elseForm)

	vcs := New(Warn).Run(prog(form))
	if len(vcs) != 1 {
		t.Fatalf("got %d VCs, want 1", len(vcs))
	}
	want := "¬(" + cond.String() + ")"
	if len(vcs[0].Assumptions) != 1 || vcs[0].Assumptions[0] != want {
		t.Fatalf("assumptions = %v, want [%q]", vcs[0].Assumptions, want)
	}
}

func TestSkipModeEmitsNothing(t *testing.T) {
	form := ast.List(ast.Symbol("/"), ast.Symbol("x"), ast.Int(0))
	vcs := New(Skip).Run(prog(form))
	if vcs != nil {
		t.Fatalf("got %+v, want nil in Skip mode", vcs)
	}
}

func TestFailedHelper(t *testing.T) {
	vcs := []VC{{Status: Pending}, {Status: Failed}}
	if !AnyFailed(vcs) {
		t.Fatal("AnyFailed() = false, want true")
	}
	if AnyFailed(vcs[:1]) {
		t.Fatal("AnyFailed() = true, want false for all-Pending slice")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"strict": Strict, "Strict": Strict, "skip": Skip, "warn": Warn, "": Warn, "garbage": Warn}
	for in, want := range cases {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
}
