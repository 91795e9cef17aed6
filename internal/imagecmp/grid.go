package imagecmp

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"pixelwatch/internal/services"
)

// Grid is a rectangular pixel lookup rooted at (0, 0).
type Grid interface {
	Size() (width, height int)
	Pixel(x, y int) (color.NRGBA, error)
}

// Decode parses PNG bytes into a Grid.
func Decode(data []byte) (Grid, error) {
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrDecode, "compare", "decode", "empty image", nil)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "compare", "decode png", "", err)
	}
	return FromImage(img), nil
}

// FromImage converts any image into a Grid with canonical NRGBA pixels.
func FromImage(img image.Image) Grid {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgbaGrid{img: nrgba}
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return nrgbaGrid{img: dst}
}

type nrgbaGrid struct {
	img *image.NRGBA
}

func (g nrgbaGrid) Size() (int, int) {
	return g.img.Rect.Dx(), g.img.Rect.Dy()
}

func (g nrgbaGrid) Pixel(x, y int) (color.NRGBA, error) {
	if !(image.Point{X: x, Y: y}).In(g.img.Rect) {
		w, h := g.Size()
		return color.NRGBA{}, services.Wrap(services.ErrBounds, "compare", "pixel",
			fmt.Sprintf("(%d,%d) outside %dx%d image", x, y, w, h), nil)
	}
	return g.img.NRGBAAt(x, y), nil
}
