package idl

import "testing"

func TestParseMinimalIdl(t *testing.T) {
	raw := []byte(`{
		"name": "test_program",
		"version": "1.0.0",
		"instructions": [],
		"accounts": [],
		"types": [],
		"errors": []
	}`)

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Name != "test_program" {
		t.Errorf("Name = %q, want test_program", got.Name)
	}
	if got.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", got.Version)
	}
}

func TestParseInstruction(t *testing.T) {
	raw := []byte(`{
		"name": "test_program",
		"version": "1.0.0",
		"instructions": [
			{
				"name": "initialize",
				"accounts": [
					{"name": "user", "isMut": true, "isSigner": true}
				],
				"args": [
					{"name": "amount", "type": "u64"}
				]
			}
		],
		"accounts": [],
		"types": [],
		"errors": []
	}`)

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Instructions) != 1 {
		t.Fatalf("len(Instructions) = %d, want 1", len(got.Instructions))
	}
	in := got.Instructions[0]
	if in.Name != "initialize" {
		t.Errorf("Name = %q, want initialize", in.Name)
	}
	if len(in.Accounts) != 1 || !in.Accounts[0].IsMut || !in.Accounts[0].IsSigner {
		t.Errorf("Accounts = %+v, want one mut+signer account", in.Accounts)
	}
	if len(in.Args) != 1 || in.Args[0].Type != "u64" {
		t.Errorf("Args = %+v, want one u64 arg", in.Args)
	}
}

func TestTypeToStringComposedForms(t *testing.T) {
	cases := []struct {
		json string
		want string
	}{
		{`"u64"`, "u64"},
		{`{"defined": "Foo"}`, "Foo"},
		{`{"defined": {"name": "Foo"}}`, "Foo"},
		{`{"vec": "u8"}`, "Vec<u8>"},
		{`{"option": "u64"}`, "Option<u64>"},
		{`{"array": ["u8", 32]}`, "[u8; 32]"},
	}
	for _, c := range cases {
		got := typeToString([]byte(c.json))
		if got != c.want {
			t.Errorf("typeToString(%s) = %q, want %q", c.json, got, c.want)
		}
	}
}
