package effects

import (
	"math"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxDeviationDegrees bounds the random rotation applied to a beam.
const MaxDeviationDegrees = 35.0

// Deviation holds a randomly rotated replacement for a laser's default
// direction. Once active it persists until the next trigger overwrites it.
type Deviation struct {
	BaseDirection   mgl32.Vec3
	CustomDirection mgl32.Vec3
	IsCustomActive  bool
}

// Trigger rotates base about a uniformly random axis by an angle in
// [-35, +35] degrees. The rotation is always applied to the supplied base,
// never to a previous custom direction, so repeated triggers do not drift.
// A zero base is rejected.
func (d *Deviation) Trigger(base mgl32.Vec3, r Rand) bool {
	base = core.NormalizeOrZero(base)
	if base.LenSqr() == 0 {
		return false
	}

	axis := RandomAxis(r)
	angle := float32((r.Float64()*2 - 1) * MaxDeviationDegrees * math.Pi / 180)
	rotated := core.NormalizeOrZero(mgl32.QuatRotate(angle, axis).Rotate(base))
	if rotated.LenSqr() == 0 {
		return false
	}

	d.BaseDirection = base
	d.CustomDirection = rotated
	d.IsCustomActive = true
	return true
}

// Effective returns the custom direction when active and usable, otherwise def.
func (d *Deviation) Effective(def mgl32.Vec3) mgl32.Vec3 {
	if d.IsCustomActive && d.CustomDirection.LenSqr() > minDirectionLenSq {
		return d.CustomDirection
	}
	return def
}

// RandomAxis samples a unit vector uniformly over the sphere.
func RandomAxis(r Rand) mgl32.Vec3 {
	z := r.Float64()*2 - 1
	phi := r.Float64() * 2 * math.Pi
	s := math.Sqrt(1 - z*z)
	sp, cp := math.Sincos(phi)
	return mgl32.Vec3{float32(s * cp), float32(s * sp), float32(z)}
}
