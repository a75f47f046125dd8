package core

import (
	"math"

	"github.com/gekko3d/lasers/rt/bvh"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type MeshId string

func NewMeshId() MeshId {
	return MeshId(uuid.NewString())
}

// Mesh is an indexed triangle mesh placed in the world by its Transform and
// the transforms of its ancestors. Normals are optional per-vertex normals;
// meshes without them cannot report a surface normal when picked.
type Mesh struct {
	ID        MeshId
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
	Transform *Transform
	Pickable  bool
	Enabled   bool

	parent   *Mesh
	children []*Mesh
	tree     *bvh.Tree
}

func NewMesh(name string, positions, normals []mgl32.Vec3, indices []uint32) *Mesh {
	return &Mesh{
		ID:        NewMeshId(),
		Name:      name,
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
		Transform: NewTransform(),
		Pickable:  true,
		Enabled:   true,
	}
}

func (m *Mesh) Parent() *Mesh     { return m.parent }
func (m *Mesh) Children() []*Mesh { return m.children }

// AddChild reparents child under m.
func (m *Mesh) AddChild(child *Mesh) {
	if child == nil || child == m {
		return
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = m
	m.children = append(m.children, child)
}

func (m *Mesh) removeChild(child *Mesh) {
	for i, c := range m.children {
		if c == child {
			m.children = append(m.children[:i], m.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Descendants returns every mesh below m, depth first, excluding m itself.
func (m *Mesh) Descendants() []*Mesh {
	var out []*Mesh
	for _, c := range m.children {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}

// IsEnabled is false when the mesh or any ancestor is disabled.
func (m *Mesh) IsEnabled() bool {
	for cur := m; cur != nil; cur = cur.parent {
		if !cur.Enabled {
			return false
		}
	}
	return true
}

func (m *Mesh) WorldMatrix() mgl32.Mat4 {
	local := m.Transform.ObjectToWorld()
	if m.parent == nil {
		return local
	}
	return m.parent.WorldMatrix().Mul4(local)
}

func (m *Mesh) InverseWorldMatrix() mgl32.Mat4 {
	local := m.Transform.WorldToObject()
	if m.parent == nil {
		return local
	}
	return local.Mul4(m.parent.InverseWorldMatrix())
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	return m.Positions[m.Indices[i*3]], m.Positions[m.Indices[i*3+1]], m.Positions[m.Indices[i*3+2]]
}

// Invalidate drops cached acceleration data after geometry edits.
func (m *Mesh) Invalidate() {
	m.tree = nil
}

func (m *Mesh) accel() *bvh.Tree {
	if m.tree != nil {
		return m.tree
	}
	aabbs := make([][2]mgl32.Vec3, m.TriangleCount())
	for i := range aabbs {
		a, b, c := m.Triangle(i)
		aabbs[i] = [2]mgl32.Vec3{
			{min(a.X(), b.X(), c.X()), min(a.Y(), b.Y(), c.Y()), min(a.Z(), b.Z(), c.Z())},
			{max(a.X(), b.X(), c.X()), max(a.Y(), b.Y(), c.Y()), max(a.Z(), b.Z(), c.Z())},
		}
	}
	m.tree = (&bvh.Builder{MaxLeafSize: 4}).Build(aabbs)
	return m.tree
}

// WorldBounds returns the world-space AABB of this mesh alone. ok is false for empty meshes.
func (m *Mesh) WorldBounds() (minB, maxB mgl32.Vec3, ok bool) {
	if len(m.Positions) == 0 {
		return minB, maxB, false
	}
	inf := float32(math.Inf(1))
	minB = mgl32.Vec3{inf, inf, inf}
	maxB = mgl32.Vec3{-inf, -inf, -inf}
	o2w := m.WorldMatrix()
	for _, p := range m.Positions {
		wp := TransformCoordinates(p, o2w)
		minB = mgl32.Vec3{min(minB.X(), wp.X()), min(minB.Y(), wp.Y()), min(minB.Z(), wp.Z())}
		maxB = mgl32.Vec3{max(maxB.X(), wp.X()), max(maxB.Y(), wp.Y()), max(maxB.Z(), wp.Z())}
	}
	return minB, maxB, true
}

// HierarchyBounds returns the world-space AABB of m and all its descendants.
func (m *Mesh) HierarchyBounds() (minB, maxB mgl32.Vec3, ok bool) {
	inf := float32(math.Inf(1))
	minB = mgl32.Vec3{inf, inf, inf}
	maxB = mgl32.Vec3{-inf, -inf, -inf}
	for _, mesh := range append([]*Mesh{m}, m.Descendants()...) {
		lo, hi, has := mesh.WorldBounds()
		if !has {
			continue
		}
		ok = true
		minB = mgl32.Vec3{min(minB.X(), lo.X()), min(minB.Y(), lo.Y()), min(minB.Z(), lo.Z())}
		maxB = mgl32.Vec3{max(maxB.X(), hi.X()), max(maxB.Y(), hi.Y()), max(maxB.Z(), hi.Z())}
	}
	return minB, maxB, ok
}

// Intersect casts a world-space ray against the mesh triangles (both faces)
// and returns the nearest hit no further than tMax.
func (m *Mesh) Intersect(origin, dir mgl32.Vec3, tMax float32) PickInfo {
	if m.TriangleCount() == 0 {
		return PickInfo{}
	}

	w2o := m.InverseWorldMatrix()
	localOrigin := TransformCoordinates(origin, w2o)
	localDirUnnorm := TransformNormal(dir, w2o)
	scaleFactor := localDirUnnorm.Len()
	if scaleFactor < 1e-6 {
		return PickInfo{}
	}
	localDir := localDirUnnorm.Mul(1.0 / scaleFactor)
	localTMax := tMax * scaleFactor

	bestT := localTMax
	bestTri := -1
	var bestU, bestV float32

	m.accel().Traverse(localOrigin, localDir, localTMax, func(tri int, limit float32) float32 {
		a, b, c := m.Triangle(tri)
		t, u, v, ok := intersectTriangle(localOrigin, localDir, a, b, c)
		if ok && t <= limit && (bestTri < 0 || t < bestT) {
			bestT, bestTri, bestU, bestV = t, tri, u, v
			return t
		}
		return limit
	})

	if bestTri < 0 {
		return PickInfo{}
	}

	o2w := m.WorldMatrix()
	worldHit := TransformCoordinates(localOrigin.Add(localDir.Mul(bestT)), o2w)
	info := PickInfo{
		Hit:      true,
		Mesh:     m,
		Point:    worldHit,
		Distance: worldHit.Sub(origin).Len(),
	}

	if len(m.Normals) == len(m.Positions) {
		i0, i1, i2 := m.Indices[bestTri*3], m.Indices[bestTri*3+1], m.Indices[bestTri*3+2]
		w := 1 - bestU - bestV
		n := m.Normals[i0].Mul(w).Add(m.Normals[i1].Mul(bestU)).Add(m.Normals[i2].Mul(bestV))
		// Normals transform by the inverse transpose
		worldN := NormalizeOrZero(TransformNormal(n, w2o.Transpose()))
		if worldN.LenSqr() > 0 {
			info.Normal = worldN
			info.HasNormal = true
		}
	}
	return info
}

// intersectTriangle is Moller-Trumbore without back-face culling. Barycentric
// tests carry a small tolerance so rays through shared edges hit at least one triangle.
func intersectTriangle(origin, dir, a, b, c mgl32.Vec3) (t, u, v float32, ok bool) {
	const (
		eps     = 1e-7
		edgeEps = 1e-5
	)
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, 0, 0, false
	}
	inv := 1.0 / det
	s := origin.Sub(a)
	u = s.Dot(p) * inv
	if u < -edgeEps || u > 1+edgeEps {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v = dir.Dot(q) * inv
	if v < -edgeEps || u+v > 1+edgeEps {
		return 0, 0, 0, false
	}
	t = e2.Dot(q) * inv
	if t < eps {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
