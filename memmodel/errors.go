package memmodel

import "fmt"

// MemoryError is the common interface satisfied by every compile-time
// memory-safety error variant below. Each variant is its own struct
// (rather than one struct with an error-kind tag) so a type switch at the
// call site can destructure the variant's fields directly, the way a
// match arm would in the source this was ported from.
type MemoryError interface {
	error
	isMemoryError()
}

// OutOfBounds reports an access that would read or write past a pointer's
// known bounds.
type OutOfBounds struct {
	Region RegionRef
	Offset int64
	Size   int64
	Bounds [2]int64 // (start, length)
}

func (e *OutOfBounds) isMemoryError() {}
func (e *OutOfBounds) Error() string {
	return fmt.Sprintf("out of bounds access in %s: offset %d + size %d exceeds bounds [%d, %d)",
		e.Region, e.Offset, e.Size, e.Bounds[0], e.Bounds[0]+e.Bounds[1])
}

// MisalignedAccess reports an access whose offset does not satisfy the
// alignment required by its size.
type MisalignedAccess struct {
	Region   RegionRef
	Offset   int64
	Required int64
	Actual   int64
}

func (e *MisalignedAccess) isMemoryError() {}
func (e *MisalignedAccess) Error() string {
	return fmt.Sprintf("misaligned access in %s: offset %d requires %d-byte alignment but has remainder %d",
		e.Region, e.Offset, e.Required, e.Actual)
}

// ReadOnlyWrite reports an attempted write to memory that isn't writable.
type ReadOnlyWrite struct {
	Region RegionRef
}

func (e *ReadOnlyWrite) isMemoryError() {}
func (e *ReadOnlyWrite) Error() string {
	return fmt.Sprintf("cannot write to read-only region %s", e.Region)
}

// TypeMismatch reports that a register held a different RegType kind than
// the operation expected (pointer vs. value, etc).
type TypeMismatch struct {
	Expected string
	Got      string
}

func (e *TypeMismatch) isMemoryError() {}
func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// InvalidAccountIndex reports an account index outside the known account
// count for this instruction invocation.
type InvalidAccountIndex struct {
	Index       uint8
	MaxAccounts uint8
}

func (e *InvalidAccountIndex) isMemoryError() {}
func (e *InvalidAccountIndex) Error() string {
	return fmt.Sprintf("invalid account index %d: only %d accounts available", e.Index, e.MaxAccounts)
}

// FieldNotFound reports a struct-field access naming a field the struct
// definition doesn't have.
type FieldNotFound struct {
	StructName string
	FieldName  string
}

func (e *FieldNotFound) isMemoryError() {}
func (e *FieldNotFound) Error() string {
	return fmt.Sprintf("field '%s' not found in struct '%s'", e.FieldName, e.StructName)
}

// StructNotDefined reports a reference to a struct name with no
// registered definition.
type StructNotDefined struct {
	Name string
}

func (e *StructNotDefined) isMemoryError() {}
func (e *StructNotDefined) Error() string {
	return fmt.Sprintf("struct '%s' is not defined", e.Name)
}

// IncompatiblePointers reports pointer arithmetic mixing two pointers
// from different memory regions.
type IncompatiblePointers struct {
	Op  string
	Lhs RegionRef
	Rhs RegionRef
}

func (e *IncompatiblePointers) isMemoryError() {}
func (e *IncompatiblePointers) Error() string {
	return fmt.Sprintf("cannot %s pointers from different regions: %s and %s", e.Op, e.Lhs, e.Rhs)
}
