package buffer

import (
	"errors"
	"testing"
)

func TestVariant_AsMatchingKind(t *testing.T) {
	v := New([]float32{0.5, 1.5, 2.5})

	if v.Kind() != KindFloat32 {
		t.Fatalf("Expected kind float32, got %s", v.Kind())
	}
	if v.Len() != 3 {
		t.Errorf("Expected length 3, got %d", v.Len())
	}

	data, err := As[float32](v)
	if err != nil {
		t.Fatalf("As failed: %v", err)
	}
	if len(data) != 3 || data[1] != 1.5 {
		t.Errorf("Unexpected payload: %v", data)
	}
}

func TestVariant_AsWrongKind(t *testing.T) {
	v := New([]int32{1, 2, 3})

	_, err := As[float32](v)
	if err == nil {
		t.Fatal("Expected type mismatch error, got nil")
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch, got %v", err)
	}

	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected *TypeMismatchError, got %T", err)
	}
	if mismatch.Want != KindFloat32 || mismatch.Got != KindInt32 {
		t.Errorf("Unexpected mismatch details: want=%s got=%s", mismatch.Want, mismatch.Got)
	}
}

func TestVariant_Zero(t *testing.T) {
	var v Variant

	if v.Kind() != KindInvalid {
		t.Errorf("Expected invalid kind, got %s", v.Kind())
	}
	if v.Len() != 0 {
		t.Errorf("Expected zero length, got %d", v.Len())
	}
	if _, err := As[uint8](v); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch from zero variant, got %v", err)
	}
}

func TestVariant_AllKinds(t *testing.T) {
	cases := []struct {
		v    Variant
		kind Kind
	}{
		{New([]uint8{1}), KindUint8},
		{New([]uint16{1}), KindUint16},
		{New([]uint32{1}), KindUint32},
		{New([]int8{1}), KindInt8},
		{New([]int16{1}), KindInt16},
		{New([]int32{1}), KindInt32},
		{New([]float32{1}), KindFloat32},
	}
	for _, tc := range cases {
		if tc.v.Kind() != tc.kind {
			t.Errorf("Expected %s, got %s", tc.kind, tc.v.Kind())
		}
		if tc.v.Len() != 1 {
			t.Errorf("%s: expected length 1, got %d", tc.kind, tc.v.Len())
		}
	}
}

func TestKind_String(t *testing.T) {
	if got := KindUint16.String(); got != "uint16" {
		t.Errorf("Expected uint16, got %s", got)
	}
	if got := Kind(42).String(); got != "kind(42)" {
		t.Errorf("Expected kind(42), got %s", got)
	}
	if got := New([]int8{1, 2}).String(); got != "int8[2]" {
		t.Errorf("Expected int8[2], got %s", got)
	}
}
