package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a right-handed look-at camera; it looks down its local -Z axis.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32 // vertical, radians
	Near     float32
	Far      float32
}

func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, -5},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		Fov:      mgl32.DegToRad(75),
		Near:     0.1,
		Far:      1000,
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	up := c.Up
	if up.LenSqr() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	// Looking straight along up degenerates the basis; nudge the up vector
	fwd := NormalizeOrZero(c.Target.Sub(c.Position))
	if math.Abs(float64(fwd.Dot(NormalizeOrZero(up)))) > 0.9999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(c.Position, c.Target, up)
}

// WorldMatrix maps camera-local points to world space.
func (c *Camera) WorldMatrix() mgl32.Mat4 {
	return c.ViewMatrix().Inv()
}

func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.Fov, aspect, c.Near, c.Far)
}

// Viewport describes a raster target. PixelAspect is the height/width ratio
// of one pixel (2 for typical terminal cells, 1 for images).
type Viewport struct {
	Width       int
	Height      int
	PixelAspect float32
}

func (v Viewport) aspect() float32 {
	pa := v.PixelAspect
	if pa <= 0 {
		pa = 1
	}
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / (float32(v.Height) * pa)
}

// ProjectPoint returns screen coordinates of a world point. ok is false behind the near plane.
func (c *Camera) ProjectPoint(p mgl32.Vec3, vp Viewport) (x, y float32, ok bool) {
	view := c.ViewMatrix()
	pv := TransformCoordinates(p, view)
	if -pv.Z() < c.Near {
		return 0, 0, false
	}
	x, y = c.viewToScreen(pv, vp)
	return x, y, true
}

// ProjectSegment projects a world-space segment, clipping it against the near plane.
func (c *Camera) ProjectSegment(a, b mgl32.Vec3, vp Viewport) (x0, y0, x1, y1 float32, ok bool) {
	view := c.ViewMatrix()
	av := TransformCoordinates(a, view)
	bv := TransformCoordinates(b, view)

	da := -av.Z() - c.Near
	db := -bv.Z() - c.Near
	if da < 0 && db < 0 {
		return 0, 0, 0, 0, false
	}
	if da < 0 {
		av = av.Add(bv.Sub(av).Mul(da / (da - db)))
	} else if db < 0 {
		bv = bv.Add(av.Sub(bv).Mul(db / (db - da)))
	}

	x0, y0 = c.viewToScreen(av, vp)
	x1, y1 = c.viewToScreen(bv, vp)
	return x0, y0, x1, y1, true
}

func (c *Camera) viewToScreen(pv mgl32.Vec3, vp Viewport) (float32, float32) {
	clip := c.ProjectionMatrix(vp.aspect()).Mul4x1(pv.Vec4(1.0))
	w := clip.W()
	if w < 1e-6 {
		w = 1e-6
	}
	ndc := clip.Vec3().Mul(1.0 / w)
	x := (ndc.X()*0.5 + 0.5) * float32(vp.Width)
	y := (1.0 - (ndc.Y()*0.5 + 0.5)) * float32(vp.Height)
	return x, y
}

// OrbitPosition places an arc-rotate camera around target.
func OrbitPosition(target mgl32.Vec3, alpha, beta, radius float32) mgl32.Vec3 {
	sa, ca := math.Sincos(float64(alpha))
	sb, cb := math.Sincos(float64(beta))
	offset := mgl32.Vec3{
		float32(ca * sb),
		float32(cb),
		float32(sa * sb),
	}
	return target.Add(offset.Mul(radius))
}

// FrameDistance picks a camera distance that fits the bounds into 75% of the
// vertical field of view, with a 10% margin.
func FrameDistance(minB, maxB mgl32.Vec3, fov float32) float32 {
	const percentageOfView = 0.75

	size := maxB.Sub(minB)
	dim := float32(math.Abs(float64(size.Y())))
	if dim < 0.001 {
		dim = max(float32(math.Abs(float64(size.X()))), float32(math.Abs(float64(size.Z()))))
	}
	if dim < 0.001 {
		dim = 0.1
	}

	distance := float64(dim/(2*percentageOfView)) / math.Tan(float64(fov)/2)
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance <= 0 {
		distance = 10
	}
	return float32(distance * 1.1)
}
