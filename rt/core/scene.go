package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a finite ray; Length bounds the hit distance.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
	Length    float32
}

func NewRay(origin, direction mgl32.Vec3, length float32) Ray {
	return Ray{Origin: origin, Direction: NormalizeOrZero(direction), Length: length}
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

type PickInfo struct {
	Hit       bool
	Mesh      *Mesh
	Point     mgl32.Vec3
	Distance  float32
	Normal    mgl32.Vec3
	HasNormal bool
}

// Targets decides which meshes a pick may report.
type Targets interface {
	IsInteractive(m *Mesh) bool
}

// Picker answers nearest-hit ray queries restricted to a target set.
type Picker interface {
	Pick(ray Ray, targets Targets) PickInfo
}

type Scene struct {
	roots []*Mesh
}

func NewScene() *Scene {
	return &Scene{}
}

// AddMesh adds a root mesh; its descendants come along with it.
func (s *Scene) AddMesh(m *Mesh) {
	for _, r := range s.roots {
		if r == m {
			return
		}
	}
	s.roots = append(s.roots, m)
}

func (s *Scene) RemoveMesh(m *Mesh) {
	for i, r := range s.roots {
		if r == m {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}

func (s *Scene) Roots() []*Mesh {
	return s.roots
}

// Meshes returns every mesh in the scene, roots first then their descendants.
func (s *Scene) Meshes() []*Mesh {
	var out []*Mesh
	for _, r := range s.roots {
		out = append(out, r)
		out = append(out, r.Descendants()...)
	}
	return out
}

// Pick returns the closest hit along ray among meshes accepted by targets.
// A nil targets accepts nothing.
func (s *Scene) Pick(ray Ray, targets Targets) PickInfo {
	best := PickInfo{}
	if targets == nil || ray.Length <= 0 || ray.Direction.LenSqr() == 0 {
		return best
	}
	for _, m := range s.Meshes() {
		if !targets.IsInteractive(m) {
			continue
		}
		info := m.Intersect(ray.Origin, ray.Direction, ray.Length)
		if !info.Hit || info.Distance > ray.Length {
			continue
		}
		if !best.Hit || info.Distance < best.Distance {
			best = info
		}
	}
	return best
}
