//go:build gocv

package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// CVDecoder decodes images with OpenCV. Pixels keep OpenCV's BGR order.
type CVDecoder struct {
	Width  int
	Height int
}

// Decode reads the file at path.
func (d CVDecoder) Decode(path string) (*Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: failed to load image: %s", ErrDecode, path)
	}
	defer mat.Close()

	if d.Width > 0 && d.Height > 0 && (mat.Cols() != d.Width || mat.Rows() != d.Height) {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Pt(d.Width, d.Height), 0, 0, gocv.InterpolationLinear)
		return fromMat(resized)
	}
	return fromMat(mat)
}

func fromMat(mat gocv.Mat) (*Image, error) {
	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	pix := make([]uint8, len(data))
	copy(pix, data)
	return &Image{Width: mat.Cols(), Height: mat.Rows(), Order: BGR, Pix: pix}, nil
}
