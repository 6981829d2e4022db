package vcgen

import (
	"fmt"

	"github.com/openSVM/solisp-go/ast"
)

// walk recurses through one form, dispatching to the rule for its head
// symbol (if any), then recursing into every child so nested forms are
// visited regardless of whether the parent matched a rule.
func (g *Generator) walk(n *ast.Node) {
	if n == nil {
		return
	}
	if !n.IsList() {
		return
	}

	switch n.HeadSymbol() {
	case "if":
		g.walkIf(n)
		return
	case "assume":
		g.walkAssume(n)
		return
	case "/", "%":
		g.ruleDivision(n)
	case "get":
		g.ruleArrayBounds(n)
	case "-":
		g.ruleSub(n)
	case "+":
		g.ruleAdd(n)
	case "system-transfer", "spl-token-transfer", "spl-token-transfer-signed":
		g.ruleBalanceConservation(n)
	case "invoke", "invoke-signed", "cpi-invoke", "cpi-invoke-signed":
		g.ruleCPISafety(n)
	case "derive-pda", "find-pda", "create-pda":
		g.rulePDADerivation(n)
	case "assert-signer", "assert-writable", "assert-owner":
		g.ruleAccountCheck(n)
	case ":":
		g.ruleTypeAnnotation(n)
	}

	depth := len(g.guards)
	for _, child := range n.Args() {
		g.walk(child)
	}
	// Drop any guard an assume among the children pushed.
	g.guards = g.guards[:depth]
}

// walkIf gathers VCs from the condition under the guards active on
// entry, then walks `then` with `cond` prepended and `else` (if present)
// with `¬cond`, per the guard-accumulation rule: guards nest lexically,
// they don't leak between sibling branches.
func (g *Generator) walkIf(n *ast.Node) {
	args := n.Args()
	if len(args) < 2 {
		return
	}
	cond, then := args[0], args[1]
	g.walk(cond)

	condText := cond.String()
	g.pushGuard(condText)
	g.walk(then)
	g.popGuard()

	if len(args) >= 3 {
		g.pushGuard("¬(" + condText + ")")
		g.walk(args[2])
		g.popGuard()
	}
}

// walkAssume adds the predicate as a top-level guard for the remainder
// of the enclosing form's scope. It pushes without a matching pop at this
// call site — walk truncates the guard stack back to its entry depth once
// it finishes the list form the assume appeared in, so the guard covers
// the later siblings in that form, and a top-level assume covers the rest
// of the program.
func (g *Generator) walkAssume(n *ast.Node) {
	args := n.Args()
	if len(args) != 1 {
		return
	}
	g.pushGuard(args[0].String())
}

func (g *Generator) ruleDivision(n *ast.Node) {
	args := n.Args()
	if len(args) != 2 {
		return
	}
	divisor := args[1]
	vc := VC{
		Category:    DivisionSafety,
		Property:    fmt.Sprintf("%s ≠ 0", divisor.String()),
		Description: fmt.Sprintf("divisor of %s must be non-zero", n.String()),
		Location:    loc(n),
		Status:      Pending,
	}
	if divisor.Kind == ast.NodeInt && divisor.Int == 0 {
		vc.Status = Failed
	} else if divisor.Kind == ast.NodeInt && divisor.Int != 0 {
		vc.Status = Discharged
	}
	g.emit(vc)
}

func (g *Generator) ruleArrayBounds(n *ast.Node) {
	args := n.Args()
	if len(args) != 2 {
		return
	}
	arr, idx := args[0], args[1]
	g.emit(VC{
		Category:    ArrayBounds,
		Property:    fmt.Sprintf("%s < length(%s)", idx.String(), arr.String()),
		Description: fmt.Sprintf("index into %s must stay in bounds", arr.String()),
		Location:    loc(n),
		Status:      Pending,
	})
}

func (g *Generator) ruleSub(n *ast.Node) {
	args := n.Args()
	if len(args) != 2 {
		return
	}
	a, b := args[0], args[1]
	if a.Kind != ast.NodeSymbol || !looksLikeBalance(a.Sym) {
		return
	}
	g.emit(VC{
		Category:    ArithmeticUnderflow,
		Property:    fmt.Sprintf("%s ≥ %s", a.String(), b.String()),
		Description: fmt.Sprintf("%s must not underflow below zero", a.Sym),
		Location:    loc(n),
		Status:      Pending,
	})
}

func (g *Generator) ruleAdd(n *ast.Node) {
	args := n.Args()
	if len(args) != 2 {
		return
	}
	a, b := args[0], args[1]
	if a.Kind != ast.NodeSymbol || !looksLikeBalance(a.Sym) {
		return
	}
	g.emit(VC{
		Category:    ArithmeticOverflow,
		Property:    fmt.Sprintf("%s + %s ≤ U64_MAX", a.String(), b.String()),
		Description: fmt.Sprintf("%s must not overflow u64", a.Sym),
		Location:    loc(n),
		Status:      Pending,
	})
}

// ruleBalanceConservation emits one VC per transfer-shaped macro
// asserting the source account's balance decreases by exactly the
// transferred amount. spec.md names BalanceConservation as a category
// without prescribing a literal formula source, so the property is built
// from the macro's own argument list.
func (g *Generator) ruleBalanceConservation(n *ast.Node) {
	args := n.Args()
	if len(args) < 3 {
		return
	}
	from, amount := args[0], args[len(args)-1]
	g.emit(VC{
		Category:    BalanceConservation,
		Property:    fmt.Sprintf("balance(%s)_after == balance(%s)_before - %s", from.String(), from.String(), amount.String()),
		Description: fmt.Sprintf("%s must debit exactly %s from %s", n.HeadSymbol(), amount.String(), from.String()),
		Location:    loc(n),
		Status:      Pending,
	})
}

func (g *Generator) ruleCPISafety(n *ast.Node) {
	g.emit(VC{
		Category:    CPISafety,
		Property:    "∀ account ∈ accounts(call): account.owner == expected_program_id ∨ account.is_signer",
		Description: fmt.Sprintf("%s must only touch accounts this program is authorized to mutate", n.HeadSymbol()),
		Location:    loc(n),
		Status:      Pending,
	})
}

func (g *Generator) rulePDADerivation(n *ast.Node) {
	g.emit(VC{
		Category:    PDADerivation,
		Property:    "0 ≤ bump ≤ 255 ∧ derived_address ∉ Ed25519_curve",
		Description: fmt.Sprintf("%s must derive an off-curve address with a valid bump", n.HeadSymbol()),
		Location:    loc(n),
		Status:      Pending,
	})
}

func (g *Generator) ruleAccountCheck(n *ast.Node) {
	args := n.Args()
	if len(args) == 0 {
		return
	}
	property := map[string]string{
		"assert-signer":   "account.is_signer == true",
		"assert-writable": "account.is_writable == true",
		"assert-owner":    "account.owner == expected_owner",
	}[n.HeadSymbol()]
	g.emit(VC{
		Category:    AccountChecks,
		Property:    property,
		Description: fmt.Sprintf("%s on account %s", n.HeadSymbol(), args[0].String()),
		Location:    loc(n),
		Status:      Pending,
	})
}

func (g *Generator) ruleTypeAnnotation(n *ast.Node) {
	args := n.Args()
	if len(args) != 2 {
		return
	}
	g.emit(VC{
		Category:    TypeSafety,
		Property:    fmt.Sprintf("typeof(%s) <: %s", args[0].String(), args[1].String()),
		Description: "annotated expression must be compatible with its declared type",
		Location:    loc(n),
		Status:      Pending,
	})
}
