package memmodel

import (
	"github.com/openSVM/solisp-go/ir"
	"github.com/openSVM/solisp-go/types"
)

// TypedReg pairs a virtual register with its type, for call sites that
// want to pass both around together instead of recording into a TypeEnv
// immediately.
type TypedReg struct {
	Reg ir.Reg
	Ty  RegType
}

func NewTypedReg(reg ir.Reg, ty RegType) TypedReg { return TypedReg{Reg: reg, Ty: ty} }

func ValueReg(reg ir.Reg, size int64, signed bool) TypedReg {
	return TypedReg{Reg: reg, Ty: ValueType(size, signed)}
}

func PointerReg(reg ir.Reg, ptr PointerType) TypedReg {
	return TypedReg{Reg: reg, Ty: PointerRegType(ptr)}
}

func BoolReg(reg ir.Reg) TypedReg    { return TypedReg{Reg: reg, Ty: BoolType()} }
func UnknownReg(reg ir.Reg) TypedReg { return TypedReg{Reg: reg, Ty: UnknownType()} }

// TypeEnv tracks register types during code generation and validates
// memory operations against them. It accumulates errors rather than
// aborting at the first one, so a single generation pass can report every
// problem it finds; in warn mode (Strict == false) the same errors are
// recorded but HasErrors never trips, so generation can continue to
// completion for best-effort diagnostics.
type TypeEnv struct {
	regTypes        map[uint32]RegType
	numAccounts     *uint8
	accountWritable map[uint8]bool
	structDefs      map[string]*types.StructDef
	errs            []MemoryError
	Strict          bool
}

// NewTypeEnv creates an empty type environment with strict checking
// enabled.
func NewTypeEnv() *TypeEnv {
	return &TypeEnv{
		regTypes:        make(map[uint32]RegType),
		accountWritable: make(map[uint8]bool),
		structDefs:      make(map[string]*types.StructDef),
		Strict:          true,
	}
}

func (e *TypeEnv) SetNumAccounts(n uint8) { e.numAccounts = &n }

func (e *TypeEnv) SetAccountWritable(idx uint8, writable bool) {
	e.accountWritable[idx] = writable
}

func (e *TypeEnv) IsAccountWritable(idx uint8) bool {
	return e.accountWritable[idx]
}

func (e *TypeEnv) AddStructDefs(defs map[string]*types.StructDef) {
	for name, def := range defs {
		e.structDefs[name] = def
	}
}

func (e *TypeEnv) StructDef(name string) (*types.StructDef, bool) {
	def, ok := e.structDefs[name]
	return def, ok
}

// SetType records the type of a register.
func (e *TypeEnv) SetType(reg ir.Reg, ty RegType) {
	e.regTypes[reg.ID] = ty
}

// GetType returns the recorded type of a register, if any.
func (e *TypeEnv) GetType(reg ir.Reg) (RegType, bool) {
	ty, ok := e.regTypes[reg.ID]
	return ty, ok
}

// Record stores a TypedReg's type under its register id.
func (e *TypeEnv) Record(t TypedReg) {
	e.regTypes[t.Reg.ID] = t.Ty
}

// ExpectPointer validates that reg holds a pointer type and returns it.
func (e *TypeEnv) ExpectPointer(reg ir.Reg) (*PointerType, error) {
	ty, ok := e.GetType(reg)
	if !ok {
		return nil, &TypeMismatch{Expected: "pointer", Got: "unknown"}
	}
	if ty.Kind != RegPointer {
		return nil, &TypeMismatch{Expected: "pointer", Got: ty.String()}
	}
	return ty.Pointer, nil
}

// ExpectValue validates that reg holds a value type and returns its
// (size, signed) pair.
func (e *TypeEnv) ExpectValue(reg ir.Reg) (int64, bool, error) {
	ty, ok := e.GetType(reg)
	if !ok {
		return 0, false, &TypeMismatch{Expected: "value", Got: "unknown"}
	}
	if ty.Kind != RegValue {
		return 0, false, &TypeMismatch{Expected: "value", Got: ty.String()}
	}
	return ty.Size, ty.Signed, nil
}

// ValidateLoad checks bounds and alignment for a load at baseReg+offset.
// If baseReg's type is unknown, the load passes unchecked — no-worse-
// than-before behavior for registers fed from unvalidated sources.
func (e *TypeEnv) ValidateLoad(baseReg ir.Reg, offset, loadSize int64) error {
	ty, ok := e.GetType(baseReg)
	if !ok || ty.Kind != RegPointer {
		return nil
	}
	access := ty.Pointer.OffsetBy(offset)
	if err := access.CheckBounds(loadSize); err != nil {
		return err
	}
	return access.CheckAlignment(loadSize)
}

// ValidateStore checks bounds, alignment, and writability for a store at
// baseReg+offset.
func (e *TypeEnv) ValidateStore(baseReg ir.Reg, offset, storeSize int64) error {
	ty, ok := e.GetType(baseReg)
	if !ok || ty.Kind != RegPointer {
		return nil
	}
	access := ty.Pointer.OffsetBy(offset)
	if err := access.CheckBounds(storeSize); err != nil {
		return err
	}
	if err := access.CheckAlignment(storeSize); err != nil {
		return err
	}
	return access.CheckWritable()
}

// ValidateAccountIndex checks idx against the known account count, if set.
func (e *TypeEnv) ValidateAccountIndex(idx uint8) error {
	if e.numAccounts == nil {
		return nil
	}
	if idx >= *e.numAccounts {
		return &InvalidAccountIndex{Index: idx, MaxAccounts: *e.numAccounts}
	}
	return nil
}

// ValidateStructField validates a struct field access and, if valid,
// returns the field's (offset, size). On failure it records an error
// into the environment and returns ok == false.
func (e *TypeEnv) ValidateStructField(structName, fieldName string, baseReg ir.Reg) (offset int64, size int64, ok bool) {
	def, found := e.structDefs[structName]
	if !found {
		e.RecordError(&StructNotDefined{Name: structName})
		return 0, 0, false
	}

	var field *types.StructField
	for i := range def.Fields {
		if def.Fields[i].Name == fieldName {
			field = &def.Fields[i]
			break
		}
	}
	if field == nil {
		e.RecordError(&FieldNotFound{StructName: structName, FieldName: fieldName})
		return 0, 0, false
	}

	fieldSize := e.fieldSize(field.FieldType)

	if ty, has := e.GetType(baseReg); has && ty.Kind == RegPointer && ty.Pointer.Bounds != nil {
		start, length := ty.Pointer.Bounds[0], ty.Pointer.Bounds[1]
		fieldEnd := field.Offset + fieldSize
		if fieldEnd > length {
			e.RecordError(&OutOfBounds{
				Region: ty.Pointer.Region,
				Offset: field.Offset,
				Size:   fieldSize,
				Bounds: [2]int64{start, length},
			})
		}
	}

	return field.Offset, fieldSize, true
}

func (e *TypeEnv) fieldSize(ft types.FieldType) int64 {
	switch ft.Kind {
	case types.FieldStruct:
		if def, ok := e.structDefs[ft.StructName]; ok {
			return def.TotalSize
		}
		return 0
	default:
		return ft.Size()
	}
}

// RegisterStructPtr binds reg's type to a pointer at a known struct,
// either overlaid on a specific account's data (accountIdx != nil) or
// with unknown region provenance otherwise.
func (e *TypeEnv) RegisterStructPtr(reg ir.Reg, structName string, accountIdx *uint8) {
	def, ok := e.structDefs[structName]
	if !ok {
		return
	}
	var ptr PointerType
	if accountIdx != nil {
		ptr = StructPtr(*accountIdx, structName, def.TotalSize, nil)
	} else {
		ptr = PointerType{
			Region:     Unknown,
			Bounds:     &[2]int64{0, def.TotalSize},
			StructType: structName,
			Offset:     0,
			Alignment:  Byte1,
			Writable:   true,
		}
	}
	e.SetType(reg, PointerRegType(ptr))
}

// RecordError appends an error (or, in warn mode, a lint-level finding)
// to the environment's accumulated diagnostics.
func (e *TypeEnv) RecordError(err MemoryError) {
	e.errs = append(e.errs, err)
}

// Errors returns every accumulated error.
func (e *TypeEnv) Errors() []MemoryError { return e.errs }

// HasErrors reports whether compilation should fail: true only when
// errors were recorded AND strict mode is on.
func (e *TypeEnv) HasErrors() bool {
	return len(e.errs) > 0 && e.Strict
}
