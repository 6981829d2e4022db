// Package ast is the external data contract between the parser/lexer
// (out of scope for this module — an external collaborator) and the IR
// generator. A program is a flat sequence of Lisp-style S-expression
// forms; the generator pattern-matches on each form's head symbol to
// dispatch to a domain macro or core special form.
package ast

import (
	"encoding/json"
	"fmt"
)

// NodeKind discriminates the variants of Node.
type NodeKind int

const (
	NodeSymbol NodeKind = iota
	NodeInt
	NodeFloat
	NodeString
	NodeBool
	NodeNil
	NodeList
)

// Node is one S-expression node: either an atom (symbol, number, string,
// bool, nil) or a list of child nodes.
type Node struct {
	Kind NodeKind `json:"kind"`
	Sym  string   `json:"sym,omitempty"`
	Int  int64    `json:"int,omitempty"`
	Flt  float64  `json:"flt,omitempty"`
	Str  string   `json:"str,omitempty"`
	Bool bool     `json:"bool,omitempty"`
	List []*Node  `json:"list,omitempty"`

	// Line/Col locate this form in the original source for diagnostics.
	// Zero values mean "unknown" (e.g. synthesized nodes).
	Line int `json:"line,omitempty"`
	Col  int `json:"col,omitempty"`
}

func Symbol(s string) *Node { return &Node{Kind: NodeSymbol, Sym: s} }
func Int(v int64) *Node     { return &Node{Kind: NodeInt, Int: v} }
func Float(v float64) *Node { return &Node{Kind: NodeFloat, Flt: v} }
func Str(s string) *Node    { return &Node{Kind: NodeString, Str: s} }
func Bool(v bool) *Node     { return &Node{Kind: NodeBool, Bool: v} }
func Nil() *Node            { return &Node{Kind: NodeNil} }
func List(items ...*Node) *Node { return &Node{Kind: NodeList, List: items} }

// IsList reports whether n is a non-atom list form.
func (n *Node) IsList() bool { return n != nil && n.Kind == NodeList }

// IsSymbol reports whether n is the symbol s.
func (n *Node) IsSymbol(s string) bool { return n != nil && n.Kind == NodeSymbol && n.Sym == s }

// Head returns the first element of a list form, the form's "operator"
// symbol in call position — e.g. for `(define-account-var x 0 owner)` it
// returns the `define-account-var` symbol node.
func (n *Node) Head() *Node {
	if !n.IsList() || len(n.List) == 0 {
		return nil
	}
	return n.List[0]
}

// HeadSymbol returns the head's symbol name, or "" if n isn't a
// call-shaped list.
func (n *Node) HeadSymbol() string {
	h := n.Head()
	if h == nil || h.Kind != NodeSymbol {
		return ""
	}
	return h.Sym
}

// Args returns every element of a list form after the head.
func (n *Node) Args() []*Node {
	if !n.IsList() || len(n.List) == 0 {
		return nil
	}
	return n.List[1:]
}

func (n *Node) String() string {
	switch n.Kind {
	case NodeSymbol:
		return n.Sym
	case NodeInt:
		return fmt.Sprintf("%d", n.Int)
	case NodeFloat:
		return fmt.Sprintf("%g", n.Flt)
	case NodeString:
		return fmt.Sprintf("%q", n.Str)
	case NodeBool:
		return fmt.Sprintf("%t", n.Bool)
	case NodeNil:
		return "nil"
	case NodeList:
		out := "("
		for i, c := range n.List {
			if i > 0 {
				out += " "
			}
			out += c.String()
		}
		return out + ")"
	default:
		return "<invalid>"
	}
}

// Program is the top-level unit handed to the generator: the compilation
// unit's ordered forms plus export metadata the entrypoint wrapper needs.
type Program struct {
	Forms         []*Node  `json:"forms"`
	ExportedFuncs []string `json:"exported_funcs,omitempty"`
	EntryFunc     string   `json:"entry_func,omitempty"`
}

// DecodeProgram reads a JSON-encoded Program from raw bytes, the
// boundary format produced by the (out-of-scope) parser/lexer front end.
func DecodeProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode ast program: %w", err)
	}
	return &p, nil
}
