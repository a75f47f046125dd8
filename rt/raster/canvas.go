// Package raster draws projected line work into an in-memory image and
// exports frames as PNG files.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/gekko3d/lasers/rt/core"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Canvas struct {
	img *image.RGBA

	// OutputDir receives frame_NNNNNN.png every Stride frames. Empty disables export.
	OutputDir string
	Stride    int

	written int
}

func New(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Image() *image.RGBA { return c.img }

// Written is the number of PNG frames exported so far.
func (c *Canvas) Written() int { return c.written }

func (c *Canvas) Viewport() core.Viewport {
	b := c.img.Bounds()
	return core.Viewport{Width: b.Dx(), Height: b.Dy(), PixelAspect: 1}
}

func (c *Canvas) Clear(bg core.Color) {
	px := bg.RGBA()
	fill := color.RGBA{
		R: uint8(uint16(px.R) * uint16(px.A) / 255),
		G: uint8(uint16(px.G) * uint16(px.A) / 255),
		B: uint8(uint16(px.B) * uint16(px.A) / 255),
		A: px.A,
	}
	for i := 0; i < len(c.img.Pix); i += 4 {
		c.img.Pix[i+0] = fill.R
		c.img.Pix[i+1] = fill.G
		c.img.Pix[i+2] = fill.B
		c.img.Pix[i+3] = fill.A
	}
}

// DrawLine rasterises a segment with Bresenham's algorithm after clipping it
// to the image. Transparent colours draw nothing.
func (c *Canvas) DrawLine(x0, y0, x1, y1 float32, col core.Color) {
	if !col.Visible() {
		return
	}
	b := c.img.Bounds()
	fx0, fy0, fx1, fy1, ok := clip(float64(x0), float64(y0), float64(x1), float64(y1),
		float64(b.Min.X), float64(b.Min.Y), float64(b.Max.X-1), float64(b.Max.Y-1))
	if !ok {
		return
	}

	px := col.RGBA()
	ix0, iy0 := int(math.Round(fx0)), int(math.Round(fy0))
	ix1, iy1 := int(math.Round(fx1)), int(math.Round(fy1))

	dx := abs(ix1 - ix0)
	dy := -abs(iy1 - iy0)
	sx, sy := 1, 1
	if ix0 > ix1 {
		sx = -1
	}
	if iy0 > iy1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.blend(ix0, iy0, px)
		if ix0 == ix1 && iy0 == iy1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ix0 += sx
		}
		if e2 <= dx {
			e += dx
			iy0 += sy
		}
	}
}

func (c *Canvas) blend(x, y int, src color.NRGBA) {
	if !(image.Point{x, y}).In(c.img.Bounds()) {
		return
	}
	i := c.img.PixOffset(x, y)
	a := uint32(src.A)
	inv := 255 - a
	p := c.img.Pix[i : i+4 : i+4]
	p[0] = uint8((uint32(src.R)*a + uint32(p[0])*inv) / 255)
	p[1] = uint8((uint32(src.G)*a + uint32(p[1])*inv) / 255)
	p[2] = uint8((uint32(src.B)*a + uint32(p[2])*inv) / 255)
	p[3] = uint8(a + uint32(p[3])*inv/255)
}

// DrawHUD writes one text line per row in the top-left corner.
func (c *Canvas) DrawHUD(lines []string, col core.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col.RGBA()),
		Face: face,
	}
	lineHeight := face.Metrics().Height
	for i, line := range lines {
		d.Dot = fixed.Point26_6{
			X: fixed.I(4),
			Y: fixed.I(4) + face.Metrics().Ascent + lineHeight.Mul(fixed.I(i)),
		}
		d.DrawString(line)
	}
}

// Present exports the frame when it falls on the stride.
func (c *Canvas) Present(frame uint64) error {
	if c.OutputDir == "" || c.Stride <= 0 || frame%uint64(c.Stride) != 0 {
		return nil
	}
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(c.OutputDir, fmt.Sprintf("frame_%06d.png", frame))
	if err := WritePNG(c.img, path); err != nil {
		return err
	}
	c.written++
	return nil
}

func WritePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// clip is Liang-Barsky against [minX,maxX]x[minY,maxY].
func clip(x0, y0, x1, y1, minX, minY, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	if math.IsNaN(x0) || math.IsNaN(y0) || math.IsNaN(x1) || math.IsNaN(y1) {
		return 0, 0, 0, 0, false
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0 - minX},
		{dx, maxX - x0},
		{-dy, y0 - minY},
		{dy, maxY - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
