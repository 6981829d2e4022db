package memmodel

// RegKind discriminates the variants of RegType.
type RegKind int

const (
	RegValue RegKind = iota
	RegPointer
	RegBool
	RegUnknown
)

// RegType is the type information attached to a virtual register: a raw
// value of known size/signedness, a provenance-tracked pointer, a
// boolean, or unknown (for registers fed by an external/unvalidated
// source).
type RegType struct {
	Kind    RegKind
	Size    int64 // valid when Kind == RegValue
	Signed  bool  // valid when Kind == RegValue
	Pointer *PointerType
}

func ValueType(size int64, signed bool) RegType {
	return RegType{Kind: RegValue, Size: size, Signed: signed}
}

func U64Type() RegType { return ValueType(8, false) }
func I64Type() RegType { return ValueType(8, true) }
func U8Type() RegType  { return ValueType(1, false) }

func PointerRegType(p PointerType) RegType {
	return RegType{Kind: RegPointer, Pointer: &p}
}

func BoolType() RegType    { return RegType{Kind: RegBool} }
func UnknownType() RegType { return RegType{Kind: RegUnknown} }

func (t RegType) IsPointer() bool { return t.Kind == RegPointer }
func (t RegType) IsValue() bool   { return t.Kind == RegValue }

func (t RegType) String() string {
	switch t.Kind {
	case RegValue:
		sign := "u"
		if t.Signed {
			sign = "i"
		}
		return sign + itoa(t.Size*8)
	case RegPointer:
		return "pointer(" + t.Pointer.Region.String() + ")"
	case RegBool:
		return "bool"
	default:
		return "unknown"
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// PointerType carries a pointer's provenance: which region it points
// into, its known bounds, the struct type it's believed to point to (if
// any), its current offset from the region base, the alignment required
// to dereference it, and whether the pointed-to memory is writable.
type PointerType struct {
	Region     RegionRef
	Bounds     *[2]int64 // (start, length); nil means unknown bounds
	StructType string    // empty means none
	Offset     int64
	Alignment  Alignment
	Writable   bool
}

// AccountDataPtr creates a pointer to an account's data section.
func AccountDataPtr(accountIdx uint8, structName string, dataLen *int64) PointerType {
	var bounds *[2]int64
	if dataLen != nil {
		bounds = &[2]int64{0, *dataLen}
	}
	return PointerType{
		Region:     AccountData(accountIdx),
		Bounds:     bounds,
		StructType: structName,
		Offset:     0,
		Alignment:  Byte1, // account data may not be aligned
		Writable:   true,  // validated separately (signer/writable flags)
	}
}

// AccountFieldPtr creates a pointer to an account metadata field
// (is_signer, is_writable, etc). Account metadata is always read-only.
func AccountFieldPtr(accountIdx uint8, fieldOffset, fieldSize int64) PointerType {
	return PointerType{
		Region:    Account(accountIdx),
		Bounds:    &[2]int64{fieldOffset, fieldSize},
		Offset:    fieldOffset,
		Alignment: AlignmentFromSize(fieldSize),
		Writable:  false,
	}
}

// HeapPtr creates a pointer into heap memory.
func HeapPtr(baseOffset int64, size *int64) PointerType {
	var bounds *[2]int64
	if size != nil {
		bounds = &[2]int64{baseOffset, *size}
	}
	return PointerType{
		Region:    Heap,
		Bounds:    bounds,
		Offset:    baseOffset,
		Alignment: Byte8,
		Writable:  true,
	}
}

// InstructionDataPtr creates a pointer into the instruction-data buffer.
func InstructionDataPtr(length *int64) PointerType {
	var bounds *[2]int64
	if length != nil {
		bounds = &[2]int64{0, *length}
	}
	return PointerType{
		Region:    InstructionData,
		Bounds:    bounds,
		Offset:    0,
		Alignment: Byte1,
		Writable:  false,
	}
}

// StructPtr creates a pointer to a struct overlaid on account data.
func StructPtr(accountIdx uint8, structName string, structSize int64, dataLen *int64) PointerType {
	bounds := &[2]int64{0, structSize}
	if dataLen != nil {
		bounds = &[2]int64{0, *dataLen}
	}
	return PointerType{
		Region:     AccountData(accountIdx),
		Bounds:     bounds,
		StructType: structName,
		Offset:     0,
		Alignment:  Byte1,
		Writable:   true,
	}
}

// StructFieldPtr creates a pointer to a named field within a struct,
// resolved from the struct's declared field list.
func StructFieldPtr(base PointerType, fieldName string, fieldOffset, fieldSize int64) PointerType {
	return PointerType{
		Region:     base.Region,
		Bounds:     &[2]int64{fieldOffset, fieldSize},
		StructType: fieldName,
		Offset:     base.Offset + fieldOffset,
		Alignment:  AlignmentFromSize(fieldSize),
		Writable:   base.Writable,
	}
}

// OffsetBy returns a copy of this pointer advanced by a constant delta.
func (p PointerType) OffsetBy(delta int64) PointerType {
	out := p
	out.Offset += delta
	return out
}

// FieldAccess offsets into a struct field from the pointer's *current*
// offset (as opposed to StructFieldPtr, which resolves from the struct's
// declared field list against the pointer's base). Kept distinct from
// StructFieldPtr because struct-get and zero-copy field access need
// different resolution rules.
func (p PointerType) FieldAccess(fieldOffset, fieldSize int64, fieldName string) PointerType {
	return PointerType{
		Region:     p.Region,
		Bounds:     &[2]int64{p.Offset + fieldOffset, fieldSize},
		StructType: fieldName,
		Offset:     p.Offset + fieldOffset,
		Alignment:  AlignmentFromSize(fieldSize),
		Writable:   p.Writable,
	}
}

// CheckBounds verifies that an access of accessSize at the pointer's
// current offset stays within its known bounds. Pointers with unknown
// bounds (Bounds == nil) always pass — there is nothing to check against.
func (p PointerType) CheckBounds(accessSize int64) error {
	if p.Bounds == nil {
		return nil
	}
	start, length := p.Bounds[0], p.Bounds[1]
	accessEnd := p.Offset + accessSize
	if p.Offset < start || accessEnd > start+length {
		return &OutOfBounds{Region: p.Region, Offset: p.Offset, Size: accessSize, Bounds: [2]int64{start, length}}
	}
	return nil
}

// CheckAlignment verifies that the pointer's current offset satisfies the
// alignment required for an access of accessSize.
func (p PointerType) CheckAlignment(accessSize int64) error {
	required := AlignmentFromSize(accessSize)
	remainder := p.Offset % required.Value()
	if remainder != 0 {
		return &MisalignedAccess{Region: p.Region, Offset: p.Offset, Required: required.Value(), Actual: remainder}
	}
	return nil
}

// CheckWritable verifies this pointer allows writing.
func (p PointerType) CheckWritable() error {
	if !p.Writable {
		return &ReadOnlyWrite{Region: p.Region}
	}
	return nil
}
