package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
)

// macroMemLoad returns a handler for (mem-load{,1,2,4} ptr offset),
// a raw unchecked-by-construction memory read still validated through
// the normal ValidateLoad path (recordType runs on every emit, so a
// pointer whose bounds are known still gets checked here).
func macroMemLoad(size int64) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		if len(args) != 2 {
			return ir.Reg{}, genError(form, "mem-load expects (mem-load ptr offset)")
		}
		ptr, err := gs.genExpr(args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		// A constant offset goes into the load; a dynamic offset
		// expression is added to the pointer first and the load uses 0.
		offset, ok := requireInt(args[1])
		if !ok {
			offReg, err := gs.genExpr(args[1])
			if err != nil {
				return ir.Reg{}, err
			}
			addr := gs.newReg()
			gs.emit(ir.Add(addr, ptr, offReg))
			ptr, offset = addr, 0
		}
		dst := gs.newReg()
		switch size {
		case 1:
			gs.emit(ir.Load1(dst, ptr, offset))
		case 2:
			gs.emit(ir.Load2(dst, ptr, offset))
		case 4:
			gs.emit(ir.Load4(dst, ptr, offset))
		default:
			gs.emit(ir.Load(dst, ptr, offset))
		}
		return dst, nil
	}
}

// macroMemStore returns a handler for (mem-store{,1,2,4} ptr offset val).
func macroMemStore(size int64) macroHandler {
	return func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
		if len(args) != 3 {
			return ir.Reg{}, genError(form, "mem-store expects (mem-store ptr offset value)")
		}
		ptr, err := gs.genExpr(args[0])
		if err != nil {
			return ir.Reg{}, err
		}
		offset, ok := requireInt(args[1])
		if !ok {
			return ir.Reg{}, genError(form, "mem-store offset must be an integer literal")
		}
		value, err := gs.genExpr(args[2])
		if err != nil {
			return ir.Reg{}, err
		}
		switch size {
		case 1:
			gs.emit(ir.Store1(ptr, value, offset))
		case 2:
			gs.emit(ir.Store2(ptr, value, offset))
		case 4:
			gs.emit(ir.Store4(ptr, value, offset))
		default:
			gs.emit(ir.Store(ptr, value, offset))
		}
		return value, nil
	}
}

// macroZerocopyLoad lowers (zerocopy-load struct-ptr field) to a
// bounds-checked field load resolved against the struct registry, the
// zero-copy counterpart of struct-get but for an already-materialized
// struct pointer rather than one freshly looked up from an account index.
func macroZerocopyLoad(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 2 {
		return ir.Reg{}, genError(form, "zerocopy-load expects (zerocopy-load struct-ptr field)")
	}
	ptr, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	fieldName, ok := requireSymbol(args[1])
	if !ok {
		return ir.Reg{}, genError(form, "zerocopy-load field must be a symbol")
	}
	ptrType, err := gs.TypeEnv.ExpectPointer(ptr)
	if err != nil || ptrType.StructType == "" {
		return ir.Reg{}, genError(form, "zerocopy-load requires a struct-typed pointer")
	}
	offset, size, ok := gs.TypeEnv.ValidateStructField(ptrType.StructType, fieldName, ptr)
	if !ok {
		return ir.Reg{}, genError(form, "unknown field %q on struct %q", fieldName, ptrType.StructType)
	}
	dst := gs.newReg()
	switch size {
	case 1:
		gs.emit(ir.Load1(dst, ptr, offset))
	case 2:
		gs.emit(ir.Load2(dst, ptr, offset))
	case 4:
		gs.emit(ir.Load4(dst, ptr, offset))
	default:
		gs.emit(ir.Load(dst, ptr, offset))
	}
	return dst, nil
}

// macroZerocopyStore lowers (zerocopy-store struct-ptr field value).
func macroZerocopyStore(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error) {
	if len(args) != 3 {
		return ir.Reg{}, genError(form, "zerocopy-store expects (zerocopy-store struct-ptr field value)")
	}
	ptr, err := gs.genExpr(args[0])
	if err != nil {
		return ir.Reg{}, err
	}
	fieldName, ok := requireSymbol(args[1])
	if !ok {
		return ir.Reg{}, genError(form, "zerocopy-store field must be a symbol")
	}
	value, err := gs.genExpr(args[2])
	if err != nil {
		return ir.Reg{}, err
	}
	ptrType, err := gs.TypeEnv.ExpectPointer(ptr)
	if err != nil || ptrType.StructType == "" {
		return ir.Reg{}, genError(form, "zerocopy-store requires a struct-typed pointer")
	}
	offset, size, ok := gs.TypeEnv.ValidateStructField(ptrType.StructType, fieldName, ptr)
	if !ok {
		return ir.Reg{}, genError(form, "unknown field %q on struct %q", fieldName, ptrType.StructType)
	}
	switch size {
	case 1:
		gs.emit(ir.Store1(ptr, value, offset))
	case 2:
		gs.emit(ir.Store2(ptr, value, offset))
	case 4:
		gs.emit(ir.Store4(ptr, value, offset))
	default:
		gs.emit(ir.Store(ptr, value, offset))
	}
	return value, nil
}
