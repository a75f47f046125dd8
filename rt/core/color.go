package core

import "image/color"

// Color is a linear RGBA colour with components in [0,1].
type Color [4]float32

var (
	ColorRed         = Color{1, 0, 0, 1}
	ColorGreen       = Color{0, 1, 0, 1}
	ColorTransparent = Color{0, 0, 0, 0}
	ColorGray        = Color{0.35, 0.35, 0.4, 1}
	ColorWhite       = Color{1, 1, 1, 1}
)

func (c Color) R() float32 { return c[0] }
func (c Color) G() float32 { return c[1] }
func (c Color) B() float32 { return c[2] }
func (c Color) A() float32 { return c[3] }

// Visible reports whether the colour contributes anything when drawn.
func (c Color) Visible() bool {
	return c[3] > 0
}

// RGBA converts to a non-premultiplied 8-bit colour.
func (c Color) RGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c[0]),
		G: to8(c[1]),
		B: to8(c[2]),
		A: to8(c[3]),
	}
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
