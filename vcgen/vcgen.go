// Package vcgen walks the parsed AST collecting verification conditions
// (VCs): logical obligations that must hold for the program to be safe,
// in a backend-agnostic form an external proof assistant discharges.
// This package never runs an SMT solver itself — it only recognizes a
// handful of trivially decidable shapes (a literal zero divisor is
// `Failed`, a literal nonzero divisor `Discharged`) and otherwise leaves
// every VC `Pending`.
package vcgen

import (
	"fmt"
	"strings"

	"github.com/openSVM/solisp-go/ast"
)

// Category classifies the safety property a VC expresses.
type Category int

const (
	DivisionSafety Category = iota
	ArrayBounds
	ArithmeticUnderflow
	ArithmeticOverflow
	AccountChecks
	CPISafety
	PDADerivation
	BalanceConservation
	TypeSafety
)

var categoryNames = map[Category]string{
	DivisionSafety:      "DivisionSafety",
	ArrayBounds:         "ArrayBounds",
	ArithmeticUnderflow: "ArithmeticUnderflow",
	ArithmeticOverflow:  "ArithmeticOverflow",
	AccountChecks:       "AccountChecks",
	CPISafety:           "CPISafety",
	PDADerivation:       "PDADerivation",
	BalanceConservation: "BalanceConservation",
	TypeSafety:          "TypeSafety",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Status is the generator's own best-effort verdict on a VC. The core
// never runs a full solver; Failed is reserved for shapes a simple
// syntactic check can refute outright (a literal zero divisor), Pending
// is everything an external backend must still discharge.
type Status int

const (
	Pending Status = iota
	Discharged
	Failed
)

func (s Status) String() string {
	switch s {
	case Discharged:
		return "Discharged"
	case Failed:
		return "Failed"
	default:
		return "Pending"
	}
}

// SourceLocation locates the AST form a VC was derived from.
type SourceLocation struct {
	Line int
	Col  int
}

// VC is one verification condition: a property that must hold, under a
// set of accumulated assumptions, described in human-readable form.
type VC struct {
	Category    Category
	Property    string
	Assumptions []string
	Description string
	Location    SourceLocation
	Status      Status
}

// Mode selects how a generation run reacts to its own findings.
type Mode int

const (
	// Skip runs no VC generation at all; compilation proceeds untouched.
	Skip Mode = iota
	// Warn collects and reports VCs; compilation proceeds regardless of
	// their status.
	Warn
	// Strict fails compilation if any collected VC is Failed.
	Strict
)

func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "strict":
		return Strict
	case "skip":
		return Skip
	default:
		return Warn
	}
}

// balanceHeuristic names the substrings that mark an identifier as a
// "balance"-like quantity for the underflow/overflow/conservation rules,
// per the naming heuristic the rules are explicitly configurable by.
var balanceHeuristic = []string{"bal", "balance", "amount", "lamports"}

func looksLikeBalance(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range balanceHeuristic {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Generator walks a program's forms accumulating VCs under a lexical
// stack of guard assumptions (from enclosing `if` branches and `assume`
// forms).
type Generator struct {
	mode   Mode
	vcs    []VC
	guards []string
}

// New creates a VC generator in the given output mode.
func New(mode Mode) *Generator {
	return &Generator{mode: mode}
}

// Run walks every top-level form of prog and returns the collected VCs.
// In Skip mode it returns immediately with no VCs.
func (g *Generator) Run(prog *ast.Program) []VC {
	if g.mode == Skip {
		return nil
	}
	for _, form := range prog.Forms {
		g.walk(form)
	}
	return g.vcs
}

// AnyFailed reports whether any collected VC has Status Failed, the
// condition Strict mode fails compilation on.
func AnyFailed(vcs []VC) bool {
	for _, v := range vcs {
		if v.Status == Failed {
			return true
		}
	}
	return false
}

func (g *Generator) pushGuard(cond string) { g.guards = append(g.guards, cond) }
func (g *Generator) popGuard()             { g.guards = g.guards[:len(g.guards)-1] }

func (g *Generator) currentAssumptions() []string {
	out := make([]string, len(g.guards))
	copy(out, g.guards)
	return out
}

func (g *Generator) emit(vc VC) {
	vc.Assumptions = append(g.currentAssumptions(), vc.Assumptions...)
	g.vcs = append(g.vcs, vc)
}

func loc(n *ast.Node) SourceLocation {
	if n == nil {
		return SourceLocation{}
	}
	return SourceLocation{Line: n.Line, Col: n.Col}
}
