/*
Package raster lays a color sequence out as an RGB image.

Pixels go row by row, left to right. The last row is padded with a fill color
(the QUIT color when called by the compiler) and every logical pixel is
magnified to a PixelSize x PixelSize block.
*/
package raster

import (
	"errors"
	"fmt"
	"image"
	imgcolor "image/color"
	"image/png"
	"io"

	"github.com/vilmos-lang/vasm/pkg/vm/color"
)

// MaxImageWidth bounds the physical width of an image without explicit
// MaxWidth.
const MaxImageWidth = 1_000_000

// ErrInvalidOptions is returned for unusable layout parameters.
var ErrInvalidOptions = errors.New("invalid image options")

// Options describes image layout.
type Options struct {
	// PixelSize is the magnification factor, 1 if zero.
	PixelSize int `yaml:"PixelSize"`
	// MaxWidth is the maximum number of logical pixels per row, unlimited if
	// zero or negative.
	MaxWidth int `yaml:"MaxWidth"`
}

func (o Options) pixelSize() int {
	if o.PixelSize == 0 {
		return 1
	}
	return o.PixelSize
}

// Layout returns the number of logical pixels per row and the number of rows
// for n pixels.
func Layout(n int, o Options) (width int, height int, err error) {
	size := o.pixelSize()
	if size < 0 {
		return 0, 0, fmt.Errorf("%w: pixel size %d", ErrInvalidOptions, size)
	}
	width = MaxImageWidth / size
	if o.MaxWidth > 0 {
		width = o.MaxWidth
	}
	if width == 0 {
		return 0, 0, fmt.Errorf("%w: pixel size %d leaves no room for a row", ErrInvalidOptions, size)
	}
	// An empty program still needs one (fill) pixel.
	if n == 0 {
		n = 1
	}
	if width > n {
		width = n
	}
	height = (n + width - 1) / width
	return width, height, nil
}

// Render builds the magnified image for pix.
func Render(pix []color.Color, fill color.Color, o Options) (*image.NRGBA, error) {
	width, height, err := Layout(len(pix), o)
	if err != nil {
		return nil, err
	}
	size := o.pixelSize()
	img := image.NewNRGBA(image.Rect(0, 0, width*size, height*size))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := fill
			if i := y*width + x; i < len(pix) {
				c = pix[i]
			}
			nc := imgcolor.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
			for dy := 0; dy < size; dy++ {
				for dx := 0; dx < size; dx++ {
					img.SetNRGBA(x*size+dx, y*size+dy, nc)
				}
			}
		}
	}
	return img, nil
}

// Encode renders pix and writes it to w as an 8-bit RGB PNG.
func Encode(w io.Writer, pix []color.Color, fill color.Color, o Options) error {
	img, err := Render(pix, fill, o)
	if err != nil {
		return err
	}
	// Opaque images are written without alpha channel.
	return png.Encode(w, img)
}

// Decode reads a PNG written by Encode back into logical pixels, taking the
// top-left pixel of every PixelSize block. Fill pixels are included.
func Decode(r io.Reader, pixelSize int) ([]color.Color, error) {
	if pixelSize <= 0 {
		return nil, fmt.Errorf("%w: pixel size %d", ErrInvalidOptions, pixelSize)
	}
	img, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	var (
		b   = img.Bounds()
		res []color.Color
	)
	for y := b.Min.Y; y < b.Max.Y; y += pixelSize {
		for x := b.Min.X; x < b.Max.X; x += pixelSize {
			c := imgcolor.NRGBAModel.Convert(img.At(x, y)).(imgcolor.NRGBA)
			res = append(res, color.Color{R: c.R, G: c.G, B: c.B})
		}
	}
	return res, nil
}
