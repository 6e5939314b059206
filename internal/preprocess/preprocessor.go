package preprocess

import (
	"github.com/SyedDaiam9101/bmt-submitter/internal/buffer"
)

// Preprocessor resolves a query path to the float32 buffer a model expects.
type Preprocessor struct {
	Decoder   Decoder
	Transform Transform
}

// Process decodes path and applies the transform. Decode failures are
// returned wrapped in ErrDecode and produce no buffer.
func (p *Preprocessor) Process(path string) (buffer.Variant, error) {
	img, err := p.Decoder.Decode(path)
	if err != nil {
		return buffer.Variant{}, err
	}
	data, err := p.Transform.Apply(img)
	if err != nil {
		return buffer.Variant{}, err
	}
	return buffer.New(data), nil
}
