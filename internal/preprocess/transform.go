package preprocess

import (
	"fmt"
)

const channels = 3

// Normalization holds per-channel standardization constants, indexed in the
// model's channel order.
type Normalization struct {
	Mean [channels]float32
	Std  [channels]float32
}

// ImageNet is the normalization used by torchvision-style classifiers.
var ImageNet = Normalization{
	Mean: [channels]float32{0.485, 0.456, 0.406},
	Std:  [channels]float32{0.229, 0.224, 0.225},
}

// Transform describes a model's expected input layout.
type Transform struct {
	Height int
	Width  int
	// Order is the channel order the model was trained on.
	Order ChannelOrder
	// Normalization is applied after rescaling to [0,1]. Nil means the
	// rescaled values are used as is, as detection models expect.
	Normalization *Normalization
}

// Elements is the number of values Apply produces.
func (t Transform) Elements() int {
	return channels * t.Height * t.Width
}

// Apply converts img into a channel-planar (CHW) buffer of Elements() values.
func (t Transform) Apply(img *Image) ([]float32, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrShape)
	}
	if img.Width != t.Width || img.Height != t.Height {
		return nil, fmt.Errorf("%w: got %dx%d, expected %dx%d", ErrShape, img.Width, img.Height, t.Width, t.Height)
	}
	plane := t.Height * t.Width
	if len(img.Pix) != plane*channels {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrShape, len(img.Pix), plane*channels)
	}

	// src[c] is the interleaved offset feeding model channel c.
	src := [channels]int{0, 1, 2}
	if img.Order != t.Order {
		src = [channels]int{2, 1, 0}
	}

	out := make([]float32, plane*channels)
	for c := 0; c < channels; c++ {
		dst := out[c*plane : (c+1)*plane]
		for i := range dst {
			v := float32(img.Pix[i*channels+src[c]]) / 255
			if t.Normalization != nil {
				v = (v - t.Normalization.Mean[c]) / t.Normalization.Std[c]
			}
			dst[i] = v
		}
	}
	return out, nil
}
