package ast

import "testing"

func TestHeadSymbol(t *testing.T) {
	cases := []struct {
		name string
		node *Node
		want string
	}{
		{"call form", List(Symbol("assert-signer"), Int(0)), "assert-signer"},
		{"atom has no head", Int(5), ""},
		{"empty list has no head", List(), ""},
		{"list headed by a non-symbol", List(Int(1), Int(2)), ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.node.HeadSymbol(); got != c.want {
				t.Errorf("HeadSymbol() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	n := List(Symbol("require"), Symbol("cond"), Int(6001))
	args := n.Args()
	if len(args) != 2 {
		t.Fatalf("len(Args()) = %d, want 2", len(args))
	}
	if !args[0].IsSymbol("cond") {
		t.Errorf("args[0] = %v, want symbol cond", args[0])
	}
	if args[1].Int != 6001 {
		t.Errorf("args[1].Int = %d, want 6001", args[1].Int)
	}
}

func TestArgsOnAtomIsNil(t *testing.T) {
	if got := Int(1).Args(); got != nil {
		t.Errorf("Args() on an atom = %v, want nil", got)
	}
}

func TestStringRendersRoundTrippableForm(t *testing.T) {
	n := List(Symbol("+"), Int(1), Int(2))
	want := "(+ 1 2)"
	if got := n.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDecodeProgramRoundTrip(t *testing.T) {
	data := []byte(`{"forms":[{"kind":6,"list":[{"kind":0,"sym":"define"},{"kind":0,"sym":"x"},{"kind":1,"int":1}]}],"entry_func":"main"}`)
	prog, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if prog.EntryFunc != "main" {
		t.Errorf("EntryFunc = %q, want main", prog.EntryFunc)
	}
	if len(prog.Forms) != 1 || prog.Forms[0].HeadSymbol() != "define" {
		t.Fatalf("unexpected decoded forms: %+v", prog.Forms)
	}
}

func TestDecodeProgramRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeProgram([]byte("not json")); err == nil {
		t.Fatal("DecodeProgram on garbage input: expected error, got nil")
	}
}

func TestTypeContextLookup(t *testing.T) {
	ctx := NewTypeContext()
	def := &TypedStructDef{
		Name: "Order",
		Fields: []TypedStructField{
			{Name: "owner", FieldType: Primitive(TPubkey), Offset: 0},
			{Name: "amount", FieldType: Primitive(TU64), Offset: 32},
		},
		TotalSize: 40,
	}
	ctx.DefineStruct(def)

	got, ok := ctx.LookupStruct("Order")
	if !ok {
		t.Fatal("LookupStruct(Order): not found")
	}
	if got.TotalSize != 40 || len(got.Fields) != 2 {
		t.Errorf("LookupStruct(Order) = %+v, unexpected shape", got)
	}

	if _, ok := ctx.LookupStruct("Missing"); ok {
		t.Error("LookupStruct(Missing): expected not found")
	}
}
