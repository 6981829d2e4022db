package decompiler

import "testing"

func TestDecompilerDefaultOptions(t *testing.T) {
	d := New(Options{})
	if d.options.ShowAddresses {
		t.Error("expected ShowAddresses to default to false")
	}
}
