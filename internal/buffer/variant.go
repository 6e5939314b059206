// Package buffer holds the numeric buffers handed from preprocessing to the
// batching stage.
package buffer

import (
	"errors"
	"fmt"
)

// Kind identifies the element type carried by a Variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUint8
	KindUint16
	KindUint32
	KindInt8
	KindInt16
	KindInt32
	KindFloat32
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindFloat32: "float32",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Element is the closed set of element types a Variant may carry.
type Element interface {
	uint8 | uint16 | uint32 | int8 | int16 | int32 | float32
}

// ErrTypeMismatch is matched by every error returned from As when the
// requested element type differs from the stored one.
var ErrTypeMismatch = errors.New("buffer type mismatch")

// TypeMismatchError reports which kind was requested and which was stored.
type TypeMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("buffer type mismatch: want %s, got %s", e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Variant carries exactly one owned slice of an Element type.
// The zero Variant holds nothing and has KindInvalid.
type Variant struct {
	kind Kind
	data any
}

// New wraps data in a Variant. The Variant takes ownership of the slice.
func New[T Element](data []T) Variant {
	return Variant{kind: kindOf[T](), data: data}
}

// As returns the stored slice if it holds elements of type T.
func As[T Element](v Variant) ([]T, error) {
	want := kindOf[T]()
	if v.kind != want {
		return nil, &TypeMismatchError{Want: want, Got: v.kind}
	}
	return v.data.([]T), nil
}

// Kind reports the active tag.
func (v Variant) Kind() Kind {
	return v.kind
}

// Len returns the number of elements, or 0 for the zero Variant.
func (v Variant) Len() int {
	switch d := v.data.(type) {
	case []uint8:
		return len(d)
	case []uint16:
		return len(d)
	case []uint32:
		return len(d)
	case []int8:
		return len(d)
	case []int16:
		return len(d)
	case []int32:
		return len(d)
	case []float32:
		return len(d)
	}
	return 0
}

func (v Variant) String() string {
	return fmt.Sprintf("%s[%d]", v.kind, v.Len())
}

func kindOf[T Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUint8
	case uint16:
		return KindUint16
	case uint32:
		return KindUint32
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case float32:
		return KindFloat32
	}
	return KindInvalid
}
