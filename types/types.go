// Package types holds the struct/type model used for compile-time layout:
// primitive scalar types, array/pubkey/struct field types, and struct
// definitions with Borsh-compatible packed offsets.
package types

import (
	"fmt"
	"strings"
)

// PrimitiveType is a fixed-size scalar field type.
type PrimitiveType int

const (
	U8 PrimitiveType = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
)

func (p PrimitiveType) String() string {
	switch p {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	default:
		return fmt.Sprintf("PrimitiveType(%d)", int(p))
	}
}

// Size returns the size of the primitive type in bytes.
func (p PrimitiveType) Size() int64 {
	switch p {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32:
		return 4
	case U64, I64:
		return 8
	default:
		return 0
	}
}

// ParsePrimitiveType parses a primitive type from its source spelling.
func ParsePrimitiveType(s string) (PrimitiveType, bool) {
	switch s {
	case "u8":
		return U8, true
	case "u16":
		return U16, true
	case "u32":
		return U32, true
	case "u64":
		return U64, true
	case "i8":
		return I8, true
	case "i16":
		return I16, true
	case "i32":
		return I32, true
	case "i64":
		return I64, true
	default:
		return 0, false
	}
}

// ToIdlType returns the Anchor IDL type string for this primitive.
func (p PrimitiveType) ToIdlType() string {
	return p.String()
}

// FieldKind discriminates the variants of FieldType.
type FieldKind int

const (
	FieldPrimitive FieldKind = iota
	FieldArray
	FieldPubkey
	FieldStruct
)

func (k FieldKind) String() string {
	switch k {
	case FieldPrimitive:
		return "Primitive"
	case FieldArray:
		return "Array"
	case FieldPubkey:
		return "Pubkey"
	case FieldStruct:
		return "Struct"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// FieldType is the extended field type: primitive, fixed-size array,
// Solana pubkey, or a reference to a nested struct definition.
type FieldType struct {
	Kind        FieldKind
	Primitive   PrimitiveType // valid when Kind == FieldPrimitive or FieldArray (element type)
	ArrayCount  int           // valid when Kind == FieldArray
	StructName  string        // valid when Kind == FieldStruct
}

func NewPrimitiveField(p PrimitiveType) FieldType {
	return FieldType{Kind: FieldPrimitive, Primitive: p}
}

func NewArrayField(elem PrimitiveType, count int) FieldType {
	return FieldType{Kind: FieldArray, Primitive: elem, ArrayCount: count}
}

func NewPubkeyField() FieldType {
	return FieldType{Kind: FieldPubkey}
}

func NewStructField(name string) FieldType {
	return FieldType{Kind: FieldStruct, StructName: name}
}

// Size returns the field's size in bytes. For FieldStruct it returns 0;
// use SizeWithStructs to resolve nested struct sizes.
func (f FieldType) Size() int64 {
	switch f.Kind {
	case FieldPrimitive:
		return f.Primitive.Size()
	case FieldArray:
		return f.Primitive.Size() * int64(f.ArrayCount)
	case FieldPubkey:
		return 32
	case FieldStruct:
		return 0
	default:
		return 0
	}
}

// SizeWithStructs resolves FieldStruct sizes against a struct-definition table.
func (f FieldType) SizeWithStructs(structDefs map[string]*StructDef) int64 {
	if f.Kind == FieldStruct {
		if def, ok := structDefs[f.StructName]; ok {
			return def.TotalSize
		}
		return 0
	}
	return f.Size()
}

// ParseFieldType parses a simple (non-array, non-struct) field type.
func ParseFieldType(s string) (FieldType, bool) {
	if s == "pubkey" {
		return NewPubkeyField(), true
	}
	if p, ok := ParsePrimitiveType(s); ok {
		return NewPrimitiveField(p), true
	}
	return FieldType{}, false
}

// ToIdlType renders the Anchor IDL JSON fragment for this field type.
func (f FieldType) ToIdlType() string {
	switch f.Kind {
	case FieldPrimitive:
		return f.Primitive.ToIdlType()
	case FieldArray:
		return fmt.Sprintf(`{ "array": ["%s", %d] }`, f.Primitive.ToIdlType(), f.ArrayCount)
	case FieldPubkey:
		return "publicKey"
	case FieldStruct:
		return fmt.Sprintf(`{ "defined": "%s" }`, f.StructName)
	default:
		return `"unknown"`
	}
}

// AsPrimitive returns the primitive type for load/store instruction
// selection, if this field is a plain primitive.
func (f FieldType) AsPrimitive() (PrimitiveType, bool) {
	if f.Kind == FieldPrimitive {
		return f.Primitive, true
	}
	return 0, false
}

// StructField is one field of a struct definition: name, type, byte
// offset from the start of the struct, and array metadata if applicable.
type StructField struct {
	Name        string
	FieldType   FieldType
	Offset      int64
	ElementSize *int64
	ArrayCount  *int
}

// StructDef is compile-time metadata for a struct: ordered fields with
// resolved offsets, and the struct's total (packed, Borsh-compatible) size.
type StructDef struct {
	Name      string
	Fields    []StructField
	TotalSize int64
}

// ToAnchorIdl renders this struct as an Anchor IDL JSON type definition,
// so TypeScript clients generated from the IDL can interact with programs
// compiled from this source.
func (s *StructDef) ToAnchorIdl() string {
	fieldLines := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		// Matches original_source's to_anchor_idl exactly: type is always
		// quoted, even when it is itself a composed JSON fragment (Array,
		// Struct). That produces nested unescaped quotes for those two
		// cases in the upstream implementation too; preserved rather than
		// silently repaired.
		fieldLines = append(fieldLines, fmt.Sprintf(`        { "name": "%s", "type": "%s" }`, f.Name, f.FieldType.ToIdlType()))
	}
	return fmt.Sprintf("{\n  \"name\": \"%s\",\n  \"type\": {\n    \"kind\": \"struct\",\n    \"fields\": [\n%s\n    ]\n  }\n}",
		s.Name, strings.Join(fieldLines, ",\n"))
}
