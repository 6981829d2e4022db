// Package idl parses Anchor IDL JSON files and provides semantic-name
// lookups the decompiler uses to make its rendered output more readable
// than raw register/offset references.
package idl

import (
	"encoding/json"
	"fmt"
	"os"
)

// Instruction is one instruction entry from an IDL file.
type Instruction struct {
	Name          string
	Discriminator *[8]byte
	Accounts      []InstructionAccount
	Args          []Arg
}

// InstructionAccount describes one account an instruction expects.
type InstructionAccount struct {
	Name        string
	IsMut       bool
	IsSigner    bool
	Description string
}

// Arg is one instruction argument.
type Arg struct {
	Name string
	Type string
}

// Account is an IDL account type: name, optional discriminator, and
// fields.
type Account struct {
	Name          string
	Discriminator *[8]byte
	Fields        []Field
}

// Field is one struct field name/type pair.
type Field struct {
	Name string
	Type string
}

// TypeKind discriminates a custom IDL type between struct and enum
// shapes.
type TypeKind int

const (
	KindStruct TypeKind = iota
	KindEnum
)

// Type is a custom type defined in the IDL's "types" section.
type Type struct {
	Name     string
	Kind     TypeKind
	Fields   []Field  // KindStruct
	Variants []string // KindEnum
}

// IdlError is one entry from the IDL's "errors" section (named IdlError,
// not Error, so it doesn't collide with the error interface or shadow the
// package's own error returns).
type IdlError struct {
	Code    uint32
	Name    string
	Message string
}

// Idl is a parsed Anchor IDL document.
type Idl struct {
	Name         string
	Version      string
	Instructions []Instruction
	Accounts     []Account
	Types        []Type
	Errors       []IdlError
}

// Load reads and parses an IDL JSON file from path.
func Load(path string) (*Idl, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("idl: read %s: %w", path, err)
	}
	return Parse(contents)
}

// Parse parses an IDL document from raw JSON bytes.
func Parse(data []byte) (*Idl, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("idl: parse JSON: %w", err)
	}

	idl := &Idl{
		Name:    stringField(raw, "name", "unknown"),
		Version: stringField(raw, "version", "0.0.0"),
	}

	if instrsRaw, ok := raw["instructions"]; ok {
		var instrs []map[string]json.RawMessage
		if err := json.Unmarshal(instrsRaw, &instrs); err == nil {
			for _, in := range instrs {
				idl.Instructions = append(idl.Instructions, parseInstruction(in))
			}
		}
	}

	if acctsRaw, ok := raw["accounts"]; ok {
		var accts []map[string]json.RawMessage
		if err := json.Unmarshal(acctsRaw, &accts); err == nil {
			for _, a := range accts {
				idl.Accounts = append(idl.Accounts, parseAccount(a))
			}
		}
	}

	if typesRaw, ok := raw["types"]; ok {
		var types []map[string]json.RawMessage
		if err := json.Unmarshal(typesRaw, &types); err == nil {
			for _, t := range types {
				idl.Types = append(idl.Types, parseType(t))
			}
		}
	}

	if errsRaw, ok := raw["errors"]; ok {
		var errs []map[string]json.RawMessage
		if err := json.Unmarshal(errsRaw, &errs); err == nil {
			for _, e := range errs {
				idl.Errors = append(idl.Errors, parseError(e))
			}
		}
	}

	return idl, nil
}

func stringField(obj map[string]json.RawMessage, key, fallback string) string {
	raw, ok := obj[key]
	if !ok {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fallback
	}
	return s
}

func boolField(obj map[string]json.RawMessage, key string) bool {
	raw, ok := obj[key]
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

func discriminatorField(obj map[string]json.RawMessage) *[8]byte {
	raw, ok := obj["discriminator"]
	if !ok {
		return nil
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil || len(ints) != 8 {
		return nil
	}
	var arr [8]byte
	for i, v := range ints {
		arr[i] = byte(v)
	}
	return &arr
}

func parseInstruction(obj map[string]json.RawMessage) Instruction {
	in := Instruction{
		Name:          stringField(obj, "name", "unknown"),
		Discriminator: discriminatorField(obj),
	}

	if acctsRaw, ok := obj["accounts"]; ok {
		var accts []map[string]json.RawMessage
		if err := json.Unmarshal(acctsRaw, &accts); err == nil {
			for _, a := range accts {
				acct := InstructionAccount{
					Name:     stringField(a, "name", "unknown"),
					IsMut:    boolField(a, "isMut"),
					IsSigner: boolField(a, "isSigner"),
				}
				if docsRaw, ok := a["docs"]; ok {
					var docs []string
					if err := json.Unmarshal(docsRaw, &docs); err == nil && len(docs) > 0 {
						acct.Description = docs[0]
					}
				}
				in.Accounts = append(in.Accounts, acct)
			}
		}
	}

	if argsRaw, ok := obj["args"]; ok {
		var args []map[string]json.RawMessage
		if err := json.Unmarshal(argsRaw, &args); err == nil {
			for _, a := range args {
				in.Args = append(in.Args, Arg{
					Name: stringField(a, "name", "unknown"),
					Type: typeToString(a["type"]),
				})
			}
		}
	}

	return in
}

func parseAccount(obj map[string]json.RawMessage) Account {
	acct := Account{
		Name:          stringField(obj, "name", "unknown"),
		Discriminator: discriminatorField(obj),
	}

	typeRaw, ok := obj["type"]
	if !ok {
		return acct
	}
	var typeObj map[string]json.RawMessage
	if err := json.Unmarshal(typeRaw, &typeObj); err != nil {
		return acct
	}
	fieldsRaw, ok := typeObj["fields"]
	if !ok {
		return acct
	}
	var fields []map[string]json.RawMessage
	if err := json.Unmarshal(fieldsRaw, &fields); err == nil {
		for _, f := range fields {
			acct.Fields = append(acct.Fields, Field{
				Name: stringField(f, "name", "unknown"),
				Type: typeToString(f["type"]),
			})
		}
	}
	return acct
}

func parseType(obj map[string]json.RawMessage) Type {
	t := Type{Name: stringField(obj, "name", "unknown"), Kind: KindStruct}

	typeRaw, ok := obj["type"]
	if !ok {
		return t
	}
	var typeObj map[string]json.RawMessage
	if err := json.Unmarshal(typeRaw, &typeObj); err != nil {
		return t
	}

	kind := stringField(typeObj, "kind", "struct")
	switch kind {
	case "enum":
		t.Kind = KindEnum
		if variantsRaw, ok := typeObj["variants"]; ok {
			var variants []map[string]json.RawMessage
			if err := json.Unmarshal(variantsRaw, &variants); err == nil {
				for _, v := range variants {
					t.Variants = append(t.Variants, stringField(v, "name", ""))
				}
			}
		}
	default:
		t.Kind = KindStruct
		if fieldsRaw, ok := typeObj["fields"]; ok {
			var fields []map[string]json.RawMessage
			if err := json.Unmarshal(fieldsRaw, &fields); err == nil {
				for _, f := range fields {
					t.Fields = append(t.Fields, Field{
						Name: stringField(f, "name", "unknown"),
						Type: typeToString(f["type"]),
					})
				}
			}
		}
	}

	return t
}

func parseError(obj map[string]json.RawMessage) IdlError {
	e := IdlError{Name: stringField(obj, "name", "unknown")}
	if codeRaw, ok := obj["code"]; ok {
		var code uint32
		_ = json.Unmarshal(codeRaw, &code)
		e.Code = code
	}
	if msgRaw, ok := obj["msg"]; ok {
		var msg string
		if err := json.Unmarshal(msgRaw, &msg); err == nil {
			e.Message = msg
		}
	}
	return e
}

// typeToString renders an IDL type value — a bare string, or one of the
// composed object forms ({defined}, {vec}, {option}, {array}) — into the
// textual type name the rest of the decompiler displays.
func typeToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown"
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "unknown"
	}

	if defined, ok := obj["defined"]; ok {
		var name string
		if err := json.Unmarshal(defined, &name); err == nil {
			return name
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(defined, &nested); err == nil {
			if nameRaw, ok := nested["name"]; ok {
				var name string
				if err := json.Unmarshal(nameRaw, &name); err == nil {
					return name
				}
			}
		}
	}
	if vec, ok := obj["vec"]; ok {
		return fmt.Sprintf("Vec<%s>", typeToString(vec))
	}
	if opt, ok := obj["option"]; ok {
		return fmt.Sprintf("Option<%s>", typeToString(opt))
	}
	if arr, ok := obj["array"]; ok {
		var pair []json.RawMessage
		if err := json.Unmarshal(arr, &pair); err == nil && len(pair) == 2 {
			var n int
			_ = json.Unmarshal(pair[1], &n)
			return fmt.Sprintf("[%s; %d]", typeToString(pair[0]), n)
		}
	}
	return "unknown"
}

// FindInstructionByDiscriminator looks up an instruction by its 8-byte
// discriminator.
func (idl *Idl) FindInstructionByDiscriminator(disc [8]byte) (*Instruction, bool) {
	for i := range idl.Instructions {
		if d := idl.Instructions[i].Discriminator; d != nil && *d == disc {
			return &idl.Instructions[i], true
		}
	}
	return nil, false
}

// FindInstruction looks up an instruction by name.
func (idl *Idl) FindInstruction(name string) (*Instruction, bool) {
	for i := range idl.Instructions {
		if idl.Instructions[i].Name == name {
			return &idl.Instructions[i], true
		}
	}
	return nil, false
}

// FindAccount looks up an account type by name.
func (idl *Idl) FindAccount(name string) (*Account, bool) {
	for i := range idl.Accounts {
		if idl.Accounts[i].Name == name {
			return &idl.Accounts[i], true
		}
	}
	return nil, false
}

// FindError looks up an error definition by code.
func (idl *Idl) FindError(code uint32) (*IdlError, bool) {
	for i := range idl.Errors {
		if idl.Errors[i].Code == code {
			return &idl.Errors[i], true
		}
	}
	return nil, false
}
