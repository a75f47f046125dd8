// Package beam traces laser beams through reflective scene geometry.
package beam

import (
	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// SurfaceOffset moves each reflected ray off the surface it just left.
	SurfaceOffset = 0.001
	// FallbackLength is the segment drawn when tracing produced fewer than two points.
	FallbackLength = 0.1
)

// Beam is recomputed every frame; nothing about it persists.
type Beam struct {
	Origin     mgl32.Vec3
	Direction  mgl32.Vec3
	MaxBounces int
	MaxLength  float32
}

// Path is the polyline from the beam origin through every reflection.
// It always holds at least 2 and at most MaxBounces+2 points.
type Path []mgl32.Vec3

// Bounces is the number of surface impacts recorded in the path.
func (p Path) Bounces(maxBounces int) int {
	n := len(p) - 2
	if n < 0 {
		return 0
	}
	if n > maxBounces {
		return maxBounces
	}
	return n
}

// Trace follows b through up to b.MaxBounces reflections off meshes accepted
// by targets. It never fails: misses, missing normals and degenerate input all
// produce a straight or truncated segment.
func Trace(picker core.Picker, targets core.Targets, b Beam) Path {
	points := make(Path, 0, b.MaxBounces+2)

	currentOrigin := b.Origin
	currentDirection := core.NormalizeOrZero(b.Direction)

	points = append(points, currentOrigin)

	for bounce := 0; bounce < b.MaxBounces; bounce++ {
		ray := core.Ray{Origin: currentOrigin, Direction: currentDirection, Length: b.MaxLength}

		var info core.PickInfo
		if picker != nil {
			info = picker.Pick(ray, targets)
		}

		if !info.Hit {
			// Exits into space
			points = append(points, ray.At(b.MaxLength))
			break
		}

		points = append(points, info.Point)

		if !info.HasNormal {
			points = append(points, ray.At(b.MaxLength))
			break
		}

		currentDirection = Reflect(currentDirection, info.Normal)
		currentOrigin = info.Point.Add(currentDirection.Mul(SurfaceOffset))

		if bounce == b.MaxBounces-1 {
			points = append(points, currentOrigin.Add(currentDirection.Mul(b.MaxLength)))
		}
	}

	if len(points) < 2 {
		points = append(points, b.Origin.Add(b.Direction.Mul(FallbackLength)))
	}
	return points
}

// Reflect mirrors dir about normal. The normal is first flipped to face the
// incoming ray so back-face hits reflect the same way as front-face hits.
func Reflect(dir, normal mgl32.Vec3) mgl32.Vec3 {
	n := FacingNormal(dir, normal)
	d := dir.Dot(n)
	return core.NormalizeOrZero(dir.Sub(n.Mul(2 * d)))
}

// FacingNormal returns normal oriented against dir.
func FacingNormal(dir, normal mgl32.Vec3) mgl32.Vec3 {
	if dir.Dot(normal) > 0 {
		return normal.Mul(-1)
	}
	return normal
}
