package ast

// TypeKind discriminates the variants of Type, the source-level (as
// opposed to IR-level) type system used by type annotations and the
// bidirectional checker that produced them.
type TypeKind int

const (
	TU8 TypeKind = iota
	TU16
	TU32
	TU64
	TI8
	TI16
	TI32
	TI64
	TF32
	TF64
	TBool
	TUnit
	TPtr
	TRef
	TRefMut
	TStruct
	TPubkey
	TString
	TArray
	TTuple
	TFn
	TAny
	TNever
	TVar
	TUnknown
	TRefined
)

// Type is the source-level type: captures programmer intent (gradual
// typing via TAny, refinement predicates for verification) rather than
// memory layout. typebridge.TypeBridge translates this down to
// memmodel.RegType for memory-safety validation.
type Type struct {
	Kind TypeKind

	Inner      *Type  // Ptr/Ref/RefMut/Refined(base)
	StructName string // Struct, Var (type variable name)
	Element    *Type  // Array
	ArrayLen   int    // Array
	Elems      []Type // Tuple
	Params     []Type // Fn
	Return     *Type  // Fn

	// Refined carries the base type's predicate, recorded as an opaque
	// string (a serialized boolean expression over the bound value) for
	// vcgen to pick up; this package doesn't evaluate it.
	Predicate string
}

func Primitive(k TypeKind) Type { return Type{Kind: k} }

func PtrTo(inner Type) Type    { return Type{Kind: TPtr, Inner: &inner} }
func RefTo(inner Type) Type    { return Type{Kind: TRef, Inner: &inner} }
func RefMutTo(inner Type) Type { return Type{Kind: TRefMut, Inner: &inner} }
func StructType(name string) Type { return Type{Kind: TStruct, StructName: name} }
func ArrayType(elem Type, n int) Type {
	return Type{Kind: TArray, Element: &elem, ArrayLen: n}
}
func TupleType(elems ...Type) Type { return Type{Kind: TTuple, Elems: elems} }
func FnType(params []Type, ret Type) Type {
	return Type{Kind: TFn, Params: params, Return: &ret}
}
func Refined(base Type, predicate string) Type {
	return Type{Kind: TRefined, Inner: &base, Predicate: predicate}
}

// TypedStructField is one field of a source-level struct definition.
type TypedStructField struct {
	Name      string
	FieldType Type
	Offset    int
}

// TypedStructDef is a source-level struct definition, as produced by the
// bidirectional checker, prior to translation into types.StructDef.
type TypedStructDef struct {
	Name      string
	Fields    []TypedStructField
	TotalSize int
}

// TypeContext is the lookup environment the bridge consults to resolve
// named struct types to their definitions.
type TypeContext struct {
	structs map[string]*TypedStructDef
}

func NewTypeContext() *TypeContext {
	return &TypeContext{structs: make(map[string]*TypedStructDef)}
}

func (c *TypeContext) DefineStruct(def *TypedStructDef) {
	c.structs[def.Name] = def
}

func (c *TypeContext) LookupStruct(name string) (*TypedStructDef, bool) {
	def, ok := c.structs[name]
	return def, ok
}
