// Package typebridge connects the source-level type system (ast.Type,
// which captures programmer intent and gradual typing) to the IR-level
// memory model (memmodel.RegType, which captures memory layout,
// provenance, and bounds). Type annotations constrain memory operations
// through this bridge, and memory errors are reported back in
// source-level terms for diagnostics.
package typebridge

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/memmodel"
	"github.com/openSVM/solisp-go/types"
)

// TypeBridge translates between ast.Type and memmodel.RegType.
type TypeBridge struct {
	structCache   map[string]*types.StructDef
	defaultRegion memmodel.RegionRef
}

// New creates a type bridge defaulting pointer provenance to the heap.
func New() *TypeBridge {
	return &TypeBridge{
		structCache:   make(map[string]*types.StructDef),
		defaultRegion: memmodel.Heap,
	}
}

// SetDefaultRegion overrides the default memory region used for pointer
// types converted without an explicit region (source_to_ir).
func (b *TypeBridge) SetDefaultRegion(r memmodel.RegionRef) { b.defaultRegion = r }

// SourceToIr converts a source-level type to its IR register type, using
// the bridge's configured default region for the pointers it produces,
// except strings, which always point into the heap region.
func (b *TypeBridge) SourceToIr(ty ast.Type, ctx *ast.TypeContext) memmodel.RegType {
	switch ty.Kind {
	case ast.TU8:
		return memmodel.ValueType(1, false)
	case ast.TU16:
		return memmodel.ValueType(2, false)
	case ast.TU32:
		return memmodel.ValueType(4, false)
	case ast.TU64:
		return memmodel.ValueType(8, false)
	case ast.TI8:
		return memmodel.ValueType(1, true)
	case ast.TI16:
		return memmodel.ValueType(2, true)
	case ast.TI32:
		return memmodel.ValueType(4, true)
	case ast.TI64:
		return memmodel.ValueType(8, true)
	case ast.TF32:
		return memmodel.ValueType(4, true)
	case ast.TF64:
		return memmodel.ValueType(8, true)
	case ast.TBool:
		return memmodel.BoolType()
	case ast.TUnit:
		return memmodel.ValueType(8, false)

	case ast.TPtr:
		size := b.TypeSize(*ty.Inner, ctx)
		return memmodel.PointerRegType(memmodel.PointerType{
			Region:     b.defaultRegion,
			Bounds:     boundsFromSize(size),
			StructType: b.extractStructName(*ty.Inner),
			Offset:     0,
			Alignment:  memmodel.AlignmentFromSize(sizeOr(size, 8)),
			Writable:   true,
		})
	case ast.TRef:
		size := b.TypeSize(*ty.Inner, ctx)
		return memmodel.PointerRegType(memmodel.PointerType{
			Region:     b.defaultRegion,
			Bounds:     boundsFromSize(size),
			StructType: b.extractStructName(*ty.Inner),
			Offset:     0,
			Alignment:  memmodel.AlignmentFromSize(sizeOr(size, 8)),
			Writable:   false,
		})
	case ast.TRefMut:
		size := b.TypeSize(*ty.Inner, ctx)
		return memmodel.PointerRegType(memmodel.PointerType{
			Region:     b.defaultRegion,
			Bounds:     boundsFromSize(size),
			StructType: b.extractStructName(*ty.Inner),
			Offset:     0,
			Alignment:  memmodel.AlignmentFromSize(sizeOr(size, 8)),
			Writable:   true,
		})

	case ast.TStruct:
		if def, ok := ctx.LookupStruct(ty.StructName); ok {
			return memmodel.ValueType(int64(def.TotalSize), false)
		}
		return memmodel.UnknownType()

	case ast.TPubkey:
		return memmodel.ValueType(32, false)

	case ast.TString:
		return memmodel.PointerRegType(memmodel.PointerType{
			Region:     memmodel.Heap,
			Bounds:     nil,
			StructType: "String",
			Offset:     0,
			Alignment:  memmodel.Byte1,
			Writable:   true,
		})

	case ast.TArray:
		elemSize := sizeOr(b.TypeSize(*ty.Element, ctx), 8)
		return memmodel.ValueType(elemSize*int64(ty.ArrayLen), false)

	case ast.TTuple:
		var total int64
		for _, t := range ty.Elems {
			total += sizeOr(b.TypeSize(t, ctx), 8)
		}
		return memmodel.ValueType(total, false)

	case ast.TFn:
		return memmodel.ValueType(8, false)

	case ast.TAny, ast.TNever, ast.TVar, ast.TUnknown:
		return memmodel.UnknownType()

	case ast.TRefined:
		// Refinement types are treated as their base type for IR purposes;
		// the predicate is consumed by vcgen, not code generation.
		return b.SourceToIr(*ty.Inner, ctx)

	default:
		return memmodel.UnknownType()
	}
}

// SourceToIrWithRegion converts a source type to an IR type the same way
// SourceToIr does, but pins any resulting pointer to a specific memory
// region (e.g. account data rather than the bridge's configured default).
func (b *TypeBridge) SourceToIrWithRegion(ty ast.Type, ctx *ast.TypeContext, region memmodel.RegionRef) memmodel.RegType {
	switch ty.Kind {
	case ast.TPtr, ast.TRef, ast.TRefMut:
		size := b.TypeSize(*ty.Inner, ctx)
		writable := ty.Kind != ast.TRef
		return memmodel.PointerRegType(memmodel.PointerType{
			Region:     region,
			Bounds:     boundsFromSize(size),
			StructType: b.extractStructName(*ty.Inner),
			Offset:     0,
			Alignment:  memmodel.AlignmentFromSize(sizeOr(size, 8)),
			Writable:   writable,
		})
	default:
		return b.SourceToIr(ty, ctx)
	}
}

// SourceToAccountPtr converts a source type to a pointer into a specific
// account's data section — the most common conversion for struct
// operations (struct-get/struct-set/zero-copy access).
func (b *TypeBridge) SourceToAccountPtr(ty ast.Type, ctx *ast.TypeContext, accountIdx uint8, dataLen *int64) memmodel.RegType {
	typeSize := b.TypeSize(ty, ctx)
	structName := b.extractStructName(ty)
	if structName == "" && ty.Kind == ast.TStruct {
		structName = ty.StructName
	}

	var bounds *[2]int64
	if dataLen != nil {
		bounds = &[2]int64{0, *dataLen}
	} else {
		bounds = boundsFromSize(typeSize)
	}

	return memmodel.PointerRegType(memmodel.PointerType{
		Region:     memmodel.AccountData(accountIdx),
		Bounds:     bounds,
		StructType: structName,
		Offset:     0,
		Alignment:  memmodel.Byte1,
		Writable:   true,
	})
}

// IrToSource converts an IR register type back to a source-level type,
// for user-friendly diagnostics (the reverse of SourceToIr; necessarily
// lossy, e.g. a 32-byte unsigned value is guessed to be a Pubkey).
func (b *TypeBridge) IrToSource(ir memmodel.RegType) ast.Type {
	switch ir.Kind {
	case memmodel.RegValue:
		switch {
		case ir.Size == 1 && !ir.Signed:
			return ast.Primitive(ast.TU8)
		case ir.Size == 1 && ir.Signed:
			return ast.Primitive(ast.TI8)
		case ir.Size == 2 && !ir.Signed:
			return ast.Primitive(ast.TU16)
		case ir.Size == 2 && ir.Signed:
			return ast.Primitive(ast.TI16)
		case ir.Size == 4 && !ir.Signed:
			return ast.Primitive(ast.TU32)
		case ir.Size == 4 && ir.Signed:
			return ast.Primitive(ast.TI32)
		case ir.Size == 8 && !ir.Signed:
			return ast.Primitive(ast.TU64)
		case ir.Size == 8 && ir.Signed:
			return ast.Primitive(ast.TI64)
		case ir.Size == 32 && !ir.Signed:
			return ast.Primitive(ast.TPubkey)
		default:
			return ast.Primitive(ast.TAny)
		}
	case memmodel.RegPointer:
		var inner ast.Type
		if ir.Pointer.StructType != "" {
			inner = ast.StructType(ir.Pointer.StructType)
		} else {
			inner = ast.Primitive(ast.TU8)
		}
		if ir.Pointer.Writable {
			return ast.PtrTo(inner)
		}
		return ast.RefTo(inner)
	case memmodel.RegBool:
		return ast.Primitive(ast.TBool)
	default:
		return ast.Primitive(ast.TAny)
	}
}

// SourceStructToIr converts a source-level struct definition to an
// IR-level types.StructDef.
func (b *TypeBridge) SourceStructToIr(src *ast.TypedStructDef) *types.StructDef {
	fields := make([]types.StructField, 0, len(src.Fields))
	for _, f := range src.Fields {
		fields = append(fields, types.StructField{
			Name:      f.Name,
			FieldType: b.sourceFieldTypeToIr(f.FieldType),
			Offset:    int64(f.Offset),
		})
	}
	return &types.StructDef{Name: src.Name, Fields: fields, TotalSize: int64(src.TotalSize)}
}

func (b *TypeBridge) sourceFieldTypeToIr(ty ast.Type) types.FieldType {
	switch ty.Kind {
	case ast.TU8:
		return types.NewPrimitiveField(types.U8)
	case ast.TU16:
		return types.NewPrimitiveField(types.U16)
	case ast.TU32:
		return types.NewPrimitiveField(types.U32)
	case ast.TU64:
		return types.NewPrimitiveField(types.U64)
	case ast.TI8:
		return types.NewPrimitiveField(types.I8)
	case ast.TI16:
		return types.NewPrimitiveField(types.I16)
	case ast.TI32:
		return types.NewPrimitiveField(types.I32)
	case ast.TI64:
		return types.NewPrimitiveField(types.I64)
	case ast.TPubkey:
		return types.NewPubkeyField()
	case ast.TArray:
		if prim, ok := b.sourceToPrimitive(*ty.Element); ok {
			return types.NewArrayField(prim, ty.ArrayLen)
		}
		return types.NewArrayField(types.U8, ty.ArrayLen)
	case ast.TStruct:
		return types.NewStructField(ty.StructName)
	default:
		return types.NewPrimitiveField(types.U64)
	}
}

func (b *TypeBridge) sourceToPrimitive(ty ast.Type) (types.PrimitiveType, bool) {
	switch ty.Kind {
	case ast.TU8:
		return types.U8, true
	case ast.TU16:
		return types.U16, true
	case ast.TU32:
		return types.U32, true
	case ast.TU64:
		return types.U64, true
	case ast.TI8:
		return types.I8, true
	case ast.TI16:
		return types.I16, true
	case ast.TI32:
		return types.I32, true
	case ast.TI64:
		return types.I64, true
	default:
		return 0, false
	}
}

// TypeSize returns the size in bytes of a source type, or nil if it
// can't be determined without further context (e.g. an unresolved
// struct name, or a type with no fixed size).
func (b *TypeBridge) TypeSize(ty ast.Type, ctx *ast.TypeContext) *int64 {
	one := func(v int64) *int64 { return &v }
	switch ty.Kind {
	case ast.TU8, ast.TI8, ast.TBool:
		return one(1)
	case ast.TU16, ast.TI16:
		return one(2)
	case ast.TU32, ast.TI32, ast.TF32:
		return one(4)
	case ast.TU64, ast.TI64, ast.TF64:
		return one(8)
	case ast.TPtr, ast.TRef, ast.TRefMut:
		return one(8)
	case ast.TPubkey:
		return one(32)
	case ast.TStruct:
		if def, ok := ctx.LookupStruct(ty.StructName); ok {
			return one(int64(def.TotalSize))
		}
		return nil
	case ast.TArray:
		elemSize := b.TypeSize(*ty.Element, ctx)
		if elemSize == nil {
			return nil
		}
		return one(*elemSize * int64(ty.ArrayLen))
	case ast.TTuple:
		var total int64
		for _, t := range ty.Elems {
			s := b.TypeSize(t, ctx)
			if s == nil {
				return nil
			}
			total += *s
		}
		return one(total)
	default:
		return nil
	}
}

func (b *TypeBridge) extractStructName(ty ast.Type) string {
	switch ty.Kind {
	case ast.TStruct:
		return ty.StructName
	case ast.TPtr, ast.TRef, ast.TRefMut:
		return b.extractStructName(*ty.Inner)
	default:
		return ""
	}
}

// TypesCompatible reports whether a source type and an IR register type
// describe the same shape: matching value sizes, matching pointer
// region/struct-type pairs, matching bools, or either side being
// Unknown (gradual typing always matches).
func (b *TypeBridge) TypesCompatible(source ast.Type, ir memmodel.RegType, ctx *ast.TypeContext) bool {
	converted := b.SourceToIr(source, ctx)

	if converted.Kind == memmodel.RegUnknown || ir.Kind == memmodel.RegUnknown {
		return true
	}
	if converted.Kind != ir.Kind {
		return false
	}
	switch converted.Kind {
	case memmodel.RegValue:
		return converted.Size == ir.Size
	case memmodel.RegPointer:
		return converted.Pointer.Region == ir.Pointer.Region && converted.Pointer.StructType == ir.Pointer.StructType
	case memmodel.RegBool:
		return true
	default:
		return false
	}
}

// AddStruct registers a source struct definition's IR translation in the
// bridge's cache, keyed by name.
func (b *TypeBridge) AddStruct(src *ast.TypedStructDef) {
	b.structCache[src.Name] = b.SourceStructToIr(src)
}

// GetStruct returns a cached IR struct definition, if one was added via
// AddStruct.
func (b *TypeBridge) GetStruct(name string) (*types.StructDef, bool) {
	def, ok := b.structCache[name]
	return def, ok
}

func boundsFromSize(size *int64) *[2]int64 {
	if size == nil {
		return nil
	}
	return &[2]int64{0, *size}
}

func sizeOr(size *int64, fallback int64) int64 {
	if size == nil {
		return fallback
	}
	return *size
}
