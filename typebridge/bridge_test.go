package typebridge

import (
	"testing"

	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/memmodel"
)

func TestSourceToIrPrimitives(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()

	cases := []struct {
		name     string
		ty       ast.Type
		wantKind memmodel.RegKind
		wantSize int64
		signed   bool
	}{
		{"u8", ast.Primitive(ast.TU8), memmodel.RegValue, 1, false},
		{"i64", ast.Primitive(ast.TI64), memmodel.RegValue, 8, true},
		{"pubkey", ast.Primitive(ast.TPubkey), memmodel.RegValue, 32, false},
		{"bool", ast.Primitive(ast.TBool), memmodel.RegBool, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := b.SourceToIr(c.ty, ctx)
			if got.Kind != c.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, c.wantKind)
			}
			if c.wantKind == memmodel.RegValue {
				if got.Size != c.wantSize {
					t.Errorf("Size = %d, want %d", got.Size, c.wantSize)
				}
				if got.Signed != c.signed {
					t.Errorf("Signed = %v, want %v", got.Signed, c.signed)
				}
			}
		})
	}
}

func TestSourceToIrPointerUsesDefaultRegion(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()

	got := b.SourceToIr(ast.PtrTo(ast.Primitive(ast.TU64)), ctx)
	if got.Kind != memmodel.RegPointer {
		t.Fatalf("Kind = %v, want RegPointer", got.Kind)
	}
	if got.Pointer.Region != memmodel.Heap {
		t.Errorf("Region = %v, want Heap (the bridge's default)", got.Pointer.Region)
	}
	if !got.Pointer.Writable {
		t.Error("TPtr should translate to a writable pointer")
	}
}

func TestSourceToIrRefIsReadOnly(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()

	got := b.SourceToIr(ast.RefTo(ast.Primitive(ast.TU64)), ctx)
	if got.Pointer.Writable {
		t.Error("TRef should translate to a read-only pointer")
	}
}

func TestSourceToAccountPtrUsesAccountDataRegion(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()
	dataLen := int64(64)

	got := b.SourceToAccountPtr(ast.StructType("Order"), ctx, 2, &dataLen)
	if got.Kind != memmodel.RegPointer {
		t.Fatalf("Kind = %v, want RegPointer", got.Kind)
	}
	want := memmodel.AccountData(2)
	if got.Pointer.Region != want {
		t.Errorf("Region = %v, want %v", got.Pointer.Region, want)
	}
	if got.Pointer.Bounds == nil || got.Pointer.Bounds[1] != dataLen {
		t.Errorf("Bounds = %v, want upper bound %d", got.Pointer.Bounds, dataLen)
	}
}

func TestTypeSizeResolvesRegisteredStruct(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()
	ctx.DefineStruct(&ast.TypedStructDef{Name: "Order", TotalSize: 40})

	size := b.TypeSize(ast.StructType("Order"), ctx)
	if size == nil || *size != 40 {
		t.Fatalf("TypeSize(Order) = %v, want 40", size)
	}
}

func TestTypeSizeUnresolvedStructIsNil(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()
	if size := b.TypeSize(ast.StructType("Missing"), ctx); size != nil {
		t.Errorf("TypeSize(Missing) = %v, want nil", *size)
	}
}

func TestIrToSourceGuessesPubkeyFor32Bytes(t *testing.T) {
	b := New()
	got := b.IrToSource(memmodel.ValueType(32, false))
	if got.Kind != ast.TPubkey {
		t.Errorf("IrToSource(32-byte unsigned) = %v, want TPubkey", got.Kind)
	}
}

func TestTypesCompatibleUnknownAlwaysMatches(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()
	if !b.TypesCompatible(ast.Primitive(ast.TAny), memmodel.ValueType(8, true), ctx) {
		t.Error("TAny should be compatible with any IR type")
	}
}

func TestTypesCompatibleSizeMismatch(t *testing.T) {
	b := New()
	ctx := ast.NewTypeContext()
	if b.TypesCompatible(ast.Primitive(ast.TU8), memmodel.ValueType(8, false), ctx) {
		t.Error("a 1-byte source type should not be compatible with an 8-byte IR value")
	}
}

func TestAddStructAndGetStruct(t *testing.T) {
	b := New()
	src := &ast.TypedStructDef{
		Name: "Order",
		Fields: []ast.TypedStructField{
			{Name: "owner", FieldType: ast.Primitive(ast.TPubkey), Offset: 0},
			{Name: "amount", FieldType: ast.Primitive(ast.TU64), Offset: 32},
		},
		TotalSize: 40,
	}
	b.AddStruct(src)

	def, ok := b.GetStruct("Order")
	if !ok {
		t.Fatal("GetStruct(Order): not found after AddStruct")
	}
	if def.TotalSize != 40 || len(def.Fields) != 2 {
		t.Errorf("GetStruct(Order) = %+v, unexpected shape", def)
	}
}
