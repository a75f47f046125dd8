package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NewPlaneMesh builds a width x height quad in the XY plane facing -Z.
func NewPlaneMesh(name string, width, height float32) *Mesh {
	hw, hh := width/2, height/2
	positions := []mgl32.Vec3{
		{-hw, -hh, 0},
		{hw, -hh, 0},
		{hw, hh, 0},
		{-hw, hh, 0},
	}
	n := mgl32.Vec3{0, 0, -1}
	normals := []mgl32.Vec3{n, n, n, n}
	indices := []uint32{0, 2, 1, 0, 3, 2}
	return NewMesh(name, positions, normals, indices)
}

// NewBoxMesh builds an axis-aligned box centred on the origin with flat face normals.
func NewBoxMesh(name string, size mgl32.Vec3) *Mesh {
	h := size.Mul(0.5)
	faces := []struct {
		normal mgl32.Vec3
		u, v   mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	var positions, normals []mgl32.Vec3
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(positions))
		center := mgl32.Vec3{f.normal.X() * h.X(), f.normal.Y() * h.Y(), f.normal.Z() * h.Z()}
		du := mgl32.Vec3{f.u.X() * h.X(), f.u.Y() * h.Y(), f.u.Z() * h.Z()}
		dv := mgl32.Vec3{f.v.X() * h.X(), f.v.Y() * h.Y(), f.v.Z() * h.Z()}
		positions = append(positions,
			center.Sub(du).Sub(dv),
			center.Add(du).Sub(dv),
			center.Add(du).Add(dv),
			center.Sub(du).Add(dv),
		)
		normals = append(normals, f.normal, f.normal, f.normal, f.normal)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(name, positions, normals, indices)
}

// NewSphereMesh builds a UV sphere with smooth normals.
func NewSphereMesh(name string, radius float32, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	rings := segments
	sectors := segments * 2

	var positions, normals []mgl32.Vec3
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		sp, cp := math.Sincos(phi)
		for s := 0; s <= sectors; s++ {
			theta := 2 * math.Pi * float64(s) / float64(sectors)
			st, ct := math.Sincos(theta)
			n := mgl32.Vec3{float32(sp * ct), float32(cp), float32(sp * st)}
			positions = append(positions, n.Mul(radius))
			normals = append(normals, n)
		}
	}

	var indices []uint32
	stride := uint32(sectors + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			i0 := uint32(r)*stride + uint32(s)
			i1 := i0 + stride
			if r != 0 {
				indices = append(indices, i0, i0+1, i1)
			}
			if r != rings-1 {
				indices = append(indices, i0+1, i1+1, i1)
			}
		}
	}
	return NewMesh(name, positions, normals, indices)
}
