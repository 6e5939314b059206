package buffer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var errShortBuffer = errors.New("encoded buffer too short")

// MarshalBinary encodes the Variant as a kind byte followed by the
// little-endian elements.
func (v Variant) MarshalBinary() ([]byte, error) {
	if v.kind == KindInvalid {
		return nil, fmt.Errorf("cannot encode %s buffer", v.kind)
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(v.kind))
	if err := binary.Write(&buf, binary.LittleEndian, v.data); err != nil {
		return nil, fmt.Errorf("failed to encode %s buffer: %w", v.kind, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces v with the Variant encoded in data.
func (v *Variant) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return errShortBuffer
	}
	kind := Kind(data[0])
	payload := data[1:]

	var decoded Variant
	var err error
	switch kind {
	case KindUint8:
		decoded, err = decode[uint8](payload, 1)
	case KindUint16:
		decoded, err = decode[uint16](payload, 2)
	case KindUint32:
		decoded, err = decode[uint32](payload, 4)
	case KindInt8:
		decoded, err = decode[int8](payload, 1)
	case KindInt16:
		decoded, err = decode[int16](payload, 2)
	case KindInt32:
		decoded, err = decode[int32](payload, 4)
	case KindFloat32:
		decoded, err = decode[float32](payload, 4)
	default:
		return fmt.Errorf("unknown buffer kind %d", data[0])
	}
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func decode[T Element](payload []byte, size int) (Variant, error) {
	if len(payload)%size != 0 {
		return Variant{}, fmt.Errorf("%w: %d bytes is not a multiple of %d", errShortBuffer, len(payload), size)
	}
	out := make([]T, len(payload)/size)
	if err := binary.Read(bytes.NewReader(payload), binary.LittleEndian, out); err != nil {
		return Variant{}, fmt.Errorf("failed to decode buffer: %w", err)
	}
	return New(out), nil
}
