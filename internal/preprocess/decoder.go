package preprocess

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var supportedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// StdDecoder decodes images with the Go image codecs and stores them as RGB.
type StdDecoder struct {
	// Width and Height, when both non-zero, resize every decoded image to
	// that size. Leave zero to keep the source size.
	Width  int
	Height int
}

// Decode reads the file at path.
func (d StdDecoder) Decode(path string) (*Image, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if !mimetype.EqualsAny(mime.String(), supportedTypes...) {
		return nil, fmt.Errorf("%w: %s: unsupported content type %s", ErrDecode, path, mime.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	if d.Width > 0 && d.Height > 0 {
		b := img.Bounds()
		if b.Dx() != d.Width || b.Dy() != d.Height {
			img = resize.Resize(uint(d.Width), uint(d.Height), img, resize.Bilinear)
		}
	}
	return FromImage(img), nil
}

// FromImage copies img into an RGB Image. Alpha is dropped without
// premultiplying, so translucent pixels keep their stored color.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, 0, w*h*channels)

	if src, ok := img.(*image.NRGBA); ok {
		pix = appendRGB(pix, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), w, h)
	} else if src, ok := img.(*image.RGBA); ok && src.Opaque() {
		pix = appendRGB(pix, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), w, h)
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				pix = append(pix, c.R, c.G, c.B)
			}
		}
	}

	return &Image{Width: w, Height: h, Order: RGB, Pix: pix}
}

// appendRGB copies w*h four-byte pixels starting at off, dropping the fourth byte.
func appendRGB(dst, src []uint8, stride, off, w, h int) []uint8 {
	for y := 0; y < h; y++ {
		row := src[off+y*stride:]
		for x := 0; x < w; x++ {
			dst = append(dst, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return dst
}
