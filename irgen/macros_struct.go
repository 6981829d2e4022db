package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/memmodel"
	"github.com/openSVM/solisp-go/types"
)

// macroDefineStruct lowers (define-struct Name (field1 type1) (field2
// type2) ...) by registering a types.StructDef with packed
// Borsh-compatible offsets — never executed at runtime, purely
// compile-time bookkeeping the other struct macros and zerocopy
// accessors consult.
func macroDefineStruct(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) < 1 {
		return ir.Reg{}, genError(form, "define-struct expects (define-struct Name field...)")
	}
	name, ok := requireSymbol(args[0])
	if !ok {
		return ir.Reg{}, genError(form, "define-struct name must be a symbol")
	}

	var offset int64
	fields := make([]types.StructField, 0, len(args)-1)
	for _, fieldForm := range args[1:] {
		if !fieldForm.IsList() || len(fieldForm.List) != 2 {
			return ir.Reg{}, genError(form, "define-struct field must be (name type)")
		}
		fieldName, ok := requireSymbol(fieldForm.List[0])
		if !ok {
			return ir.Reg{}, genError(form, "define-struct field name must be a symbol")
		}
		ft, err := gs.parseFieldType(form, fieldForm.List[1])
		if err != nil {
			return ir.Reg{}, err
		}
		size := ft.SizeWithStructs(gs.structs)
		fields = append(fields, types.StructField{Name: fieldName, FieldType: ft, Offset: offset})
		offset += size
	}

	def := &types.StructDef{Name: name, Fields: fields, TotalSize: offset}
	gs.structs[name] = def
	gs.TypeEnv.AddStructDefs(map[string]*types.StructDef{name: def})

	r := gs.newReg()
	gs.emit(ir.ConstNull(r))
	return r, nil
}

// parseFieldType resolves a define-struct field type form: a bare symbol
// (primitive, "pubkey", or a previously-defined struct name), or an
// `(array elem-type count)` list form.
func (gs *GeneratorState) parseFieldType(form *ast.Node, typeForm *ast.Node) (types.FieldType, error) {
	if typeForm.Kind == ast.NodeSymbol {
		if ft, ok := types.ParseFieldType(typeForm.Sym); ok {
			return ft, nil
		}
		if _, ok := gs.structs[typeForm.Sym]; ok {
			return types.NewStructField(typeForm.Sym), nil
		}
		return types.FieldType{}, genError(form, "unknown field type %q", typeForm.Sym)
	}
	if typeForm.IsList() && typeForm.HeadSymbol() == "array" {
		a := typeForm.Args()
		if len(a) != 2 {
			return types.FieldType{}, genError(form, "array field type expects (array elem-type count)")
		}
		elemSym, ok := requireSymbol(a[0])
		if !ok {
			return types.FieldType{}, genError(form, "array element type must be a symbol")
		}
		prim, ok := types.ParsePrimitiveType(elemSym)
		if !ok {
			return types.FieldType{}, genError(form, "array element type %q is not a primitive", elemSym)
		}
		count, ok := requireInt(a[1])
		if !ok {
			return types.FieldType{}, genError(form, "array count must be an integer literal")
		}
		return types.NewArrayField(prim, int(count)), nil
	}
	return types.FieldType{}, genError(form, "malformed field type")
}

// macroStructGet lowers (struct-get struct-ptr field) to a bounds-
// checked field load — identical mechanism to zerocopy-load, kept as a
// distinct macro name because source programs use the two in different
// contexts (struct-get for ordinary struct access, zerocopy-* when the
// intent is explicitly "no copy, read through this pointer").
func macroStructGet(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	return macroZerocopyLoad(gs, form, args)
}

// macroStructSet mirrors macroStructGet for writes.
func macroStructSet(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	return macroZerocopyStore(gs, form, args)
}

// macroStructSize lowers (struct-size Name) to the struct's total packed
// size as a compile-time constant.
func macroStructSize(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "struct-size expects (struct-size Name)")
	}
	name, ok := requireSymbol(args[0])
	if !ok {
		return ir.Reg{}, genError(form, "struct-size argument must be a symbol")
	}
	def, ok := gs.structs[name]
	if !ok {
		return ir.Reg{}, genError(form, "struct %q is not defined", name)
	}
	r := gs.newReg()
	gs.emit(ir.ConstI64(r, def.TotalSize))
	return r, nil
}

// macroStructOffset lowers (struct-offset Name field) to the field's
// byte offset within the struct, as a compile-time constant.
func macroStructOffset(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	off, _, err := gs.lookupStructField(form, args)
	if err != nil {
		return ir.Reg{}, err
	}
	r := gs.newReg()
	gs.emit(ir.ConstI64(r, off))
	return r, nil
}

// macroStructFieldSize lowers (struct-field-size Name field) to the
// field's size in bytes.
func macroStructFieldSize(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	_, size, err := gs.lookupStructField(form, args)
	if err != nil {
		return ir.Reg{}, err
	}
	r := gs.newReg()
	gs.emit(ir.ConstI64(r, size))
	return r, nil
}

func (gs *GeneratorState) lookupStructField(form *ast.Node, args []*ast.Node) (offset, size int64, err error) {
	if len(args) != 2 {
		return 0, 0, genError(form, "expects (... Name field)")
	}
	name, ok := requireSymbol(args[0])
	if !ok {
		return 0, 0, genError(form, "struct name must be a symbol")
	}
	fieldName, ok := requireSymbol(args[1])
	if !ok {
		return 0, 0, genError(form, "field name must be a symbol")
	}
	def, ok := gs.structs[name]
	if !ok {
		return 0, 0, genError(form, "struct %q is not defined", name)
	}
	for _, f := range def.Fields {
		if f.Name == fieldName {
			return f.Offset, f.FieldType.SizeWithStructs(gs.structs), nil
		}
	}
	return 0, 0, genError(form, "struct %q has no field %q", name, fieldName)
}

// macroStructPtr lowers (struct-ptr account-idx Name) to a pointer
// overlaying the named struct on that account's data section.
func macroStructPtr(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "struct-ptr expects (struct-ptr account-idx Name)")
	}
	name, ok := requireSymbol(args[1])
	if !ok {
		return ir.Reg{}, genError(form, "struct-ptr struct name must be a symbol")
	}
	def, ok := gs.structs[name]
	if !ok {
		return ir.Reg{}, genError(form, "struct %q is not defined", name)
	}
	base, idx, err := gs.accountBase(form, args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	off := gs.newReg()
	gs.emit(ir.ConstI64(off, memmodel.AccountDataOffset))
	ptr := gs.newReg()
	gs.emit(ir.Add(ptr, base, off))
	gs.TypeEnv.SetType(ptr, memmodel.PointerRegType(memmodel.StructPtr(idx, name, def.TotalSize, nil)))
	return ptr, nil
}

// macroStructIdl lowers (struct-idl Name) to the struct's Anchor IDL
// JSON type definition as a string constant — generated programs embed
// this for off-chain clients rather than computing it at runtime.
func macroStructIdl(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 1 {
		return ir.Reg{}, genError(form, "struct-idl expects (struct-idl Name)")
	}
	name, ok := requireSymbol(args[0])
	if !ok {
		return ir.Reg{}, genError(form, "struct-idl argument must be a symbol")
	}
	def, ok := gs.structs[name]
	if !ok {
		return ir.Reg{}, genError(form, "struct %q is not defined", name)
	}
	r := gs.newReg()
	idx := gs.Program.InternString(def.ToAnchorIdl())
	gs.emit(ir.ConstString(r, idx))
	return r, nil
}

// macroBorshSerialize lowers (borsh-serialize struct-ptr dest-ptr) to a
// syscall handing the packed-layout copy off to a runtime helper — this
// core's structs are already Borsh-compatible by construction (packed,
// field order preserved), so serialization is a straight memcpy of
// struct-size bytes rather than a field-by-field encoder.
func macroBorshSerialize(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "borsh-serialize expects (borsh-serialize struct-ptr dest-ptr)")
	}
	src, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	dst, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}
	size, err := gs.structPointerSize(form, src)
	if err != nil {
		return ir.Reg{}, err
	}
	sizeReg := gs.newReg()
	gs.emit(ir.ConstI64(sizeReg, size))
	result := gs.newReg()
	gs.emit(ir.Syscall(result, true, "sol_memcpy_", []ir.Reg{dst, src, sizeReg}))
	return result, nil
}

// macroBorshDeserialize lowers (borsh-deserialize Name src-ptr) the same
// way in reverse: copy struct-size bytes from src-ptr into the fixed
// heap scratch region (HeapBase+ScratchOffset) and return a struct-typed
// pointer to it.
func macroBorshDeserialize(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "borsh-deserialize expects (borsh-deserialize Name src-ptr)")
	}
	name, ok := requireSymbol(args[0])
	if !ok {
		return ir.Reg{}, genError(form, "borsh-deserialize struct name must be a symbol")
	}
	def, ok := gs.structs[name]
	if !ok {
		return ir.Reg{}, genError(form, "struct %q is not defined", name)
	}
	src, err := gs.genExpr(args[1])
	if err != nil {
		return ir.Reg{}, err
	}

	scratchBase := gs.newReg()
	gs.emit(ir.ConstI64(scratchBase, memmodel.HeapBase+memmodel.ScratchOffset))
	sizeReg := gs.newReg()
	gs.emit(ir.ConstI64(sizeReg, def.TotalSize))
	result := gs.newReg()
	gs.emit(ir.Syscall(result, true, "sol_memcpy_", []ir.Reg{scratchBase, src, sizeReg}))

	gs.TypeEnv.SetType(scratchBase, memmodel.PointerRegType(memmodel.PointerType{
		Region:     memmodel.Heap,
		Bounds:     &[2]int64{0, def.TotalSize},
		StructType: name,
		Offset:     0,
		Alignment:  memmodel.Byte1,
		Writable:   true,
	}))
	return scratchBase, nil
}

// macroBorshSize lowers (borsh-size Name) identically to struct-size —
// kept as a distinct macro name since source programs reach for
// "borsh-size" specifically around serialization call sites.
func macroBorshSize(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	return macroStructSize(gs, form, args)
}

func (gs *GeneratorState) structPointerSize(form *ast.Node, reg ir.Reg) (int64, error) {
	ty, err := gs.TypeEnv.ExpectPointer(reg)
	if err != nil || ty.StructType == "" {
		return 0, genError(form, "expected a struct-typed pointer")
	}
	def, ok := gs.structs[ty.StructType]
	if !ok {
		return 0, genError(form, "struct %q is not defined", ty.StructType)
	}
	return def.TotalSize, nil
}
