// Package preprocess turns decoded images into the planar float buffers the
// inference engine consumes.
package preprocess

import (
	"errors"
	"fmt"
)

// ChannelOrder is the order of the three interleaved colour channels.
type ChannelOrder int

const (
	RGB ChannelOrder = iota
	BGR
)

func (o ChannelOrder) String() string {
	switch o {
	case RGB:
		return "RGB"
	case BGR:
		return "BGR"
	}
	return fmt.Sprintf("ChannelOrder(%d)", int(o))
}

var (
	// ErrDecode wraps every failure to turn a query path into pixels.
	ErrDecode = errors.New("image decode failed")
	// ErrShape is returned when an image does not match the model input size.
	ErrShape = errors.New("image shape mismatch")
)

// Image is an 8-bit, 3-channel, channel-interleaved pixel grid.
type Image struct {
	Width  int
	Height int
	Order  ChannelOrder
	// Pix holds Height*Width*3 bytes in row-major HWC order.
	Pix []uint8
}

// Decoder resolves a query path to pixels.
type Decoder interface {
	Decode(path string) (*Image, error)
}
