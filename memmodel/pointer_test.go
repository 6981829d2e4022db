package memmodel

import "testing"

func TestPointerBoundsCheck(t *testing.T) {
	len100 := int64(100)
	ptr := AccountDataPtr(0, "", &len100)
	if err := ptr.CheckBounds(50); err != nil {
		t.Fatalf("CheckBounds(50) = %v, want nil", err)
	}
	if err := ptr.CheckBounds(100); err != nil {
		t.Fatalf("CheckBounds(100) = %v, want nil", err)
	}
	if err := ptr.CheckBounds(101); err == nil {
		t.Fatalf("CheckBounds(101) = nil, want error")
	}

	offsetPtr := ptr.OffsetBy(50)
	if err := offsetPtr.CheckBounds(50); err != nil {
		t.Fatalf("offset CheckBounds(50) = %v, want nil", err)
	}
	if err := offsetPtr.CheckBounds(51); err == nil {
		t.Fatalf("offset CheckBounds(51) = nil, want error")
	}
}

func TestAlignmentCheck(t *testing.T) {
	size1000 := int64(1000)
	ptr := HeapPtr(0, &size1000)
	if err := ptr.CheckAlignment(1); err != nil {
		t.Fatalf("CheckAlignment(1) = %v, want nil", err)
	}
	if err := ptr.CheckAlignment(8); err != nil {
		t.Fatalf("CheckAlignment(8) = %v, want nil", err)
	}

	offsetPtr := ptr.OffsetBy(1)
	if err := offsetPtr.CheckAlignment(1); err != nil {
		t.Fatalf("offset CheckAlignment(1) = %v, want nil", err)
	}
	if err := offsetPtr.CheckAlignment(2); err == nil {
		t.Fatalf("offset CheckAlignment(2) = nil, want error")
	}
	if err := offsetPtr.CheckAlignment(4); err == nil {
		t.Fatalf("offset CheckAlignment(4) = nil, want error")
	}
}

func TestWritableCheck(t *testing.T) {
	dataPtr := AccountDataPtr(0, "", nil)
	if err := dataPtr.CheckWritable(); err != nil {
		t.Fatalf("data CheckWritable() = %v, want nil", err)
	}

	fieldPtr := AccountFieldPtr(0, AccountIsSigner, 1)
	if err := fieldPtr.CheckWritable(); err == nil {
		t.Fatalf("field CheckWritable() = nil, want error")
	}
}

func TestTypeEnvAccountIndex(t *testing.T) {
	env := NewTypeEnv()
	env.SetNumAccounts(3)

	if err := env.ValidateAccountIndex(0); err != nil {
		t.Fatalf("index 0: %v", err)
	}
	if err := env.ValidateAccountIndex(2); err != nil {
		t.Fatalf("index 2: %v", err)
	}
	if err := env.ValidateAccountIndex(3); err == nil {
		t.Fatalf("index 3: want error, got nil")
	}
	if err := env.ValidateAccountIndex(255); err == nil {
		t.Fatalf("index 255: want error, got nil")
	}
}
