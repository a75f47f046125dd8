// Package effects drives the per-laser strobe and direction-deviation effects.
package effects

import (
	"math"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinIntervalSeconds = 1.0
	MaxIntervalSeconds = 5.0

	minDirectionLenSq = 1e-3
	// Origins closer than 1mm to the camera target give no usable direction.
	minBaseLenSq = 1e-6
)

// Rand is the randomness the effects need; *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// SampleInterval draws uniformly from [1, 5) seconds.
func SampleInterval(r Rand) float64 {
	v := MinIntervalSeconds + r.Float64()*(MaxIntervalSeconds-MinIntervalSeconds)
	if v >= MaxIntervalSeconds {
		v = math.Nextafter(MaxIntervalSeconds, MinIntervalSeconds)
	}
	return v
}

// Timer is a pair of retriggerable countdowns, re-armed with a fresh random
// interval every time they fire.
type Timer struct {
	StrobeElapsed  float64
	StrobeInterval float64
	AngleElapsed   float64
	AngleInterval  float64
	BaseColor      core.Color

	initialized bool
}

func NewTimer(base core.Color, r Rand) Timer {
	t := Timer{BaseColor: base, initialized: true}
	t.StrobeInterval = SampleInterval(r)
	t.StrobeElapsed = t.StrobeInterval
	t.AngleInterval = SampleInterval(r)
	t.AngleElapsed = t.AngleInterval
	return t
}

func (t *Timer) Initialized() bool {
	return t.initialized
}

// State is everything the effects keep for one laser.
type State struct {
	Pulse     Pulse
	Deviation Deviation
	Timer     Timer
}

// Events reports what fired during one Advance.
type Events struct {
	Strobed  bool
	Deviated bool
}

// Advance moves the laser's effects forward by dt seconds. The running strobe
// is stepped first so one started in this call begins at its first phase.
// When the angle timer fires, the base direction is recomputed from the
// current camera target and laser origin.
func (s *State) Advance(dt float64, cameraTarget, worldOrigin mgl32.Vec3, baseColor core.Color, r Rand) Events {
	var ev Events
	if dt < 0 || dt != dt {
		dt = 0
	}

	if !s.Timer.initialized {
		s.Timer = NewTimer(baseColor, r)
	}

	s.Pulse.Step(dt)

	s.Timer.StrobeElapsed -= dt
	s.Timer.AngleElapsed -= dt

	if s.Timer.StrobeElapsed <= 0 {
		ev.Strobed = s.Pulse.Trigger(s.Timer.BaseColor)
		s.Timer.StrobeInterval = SampleInterval(r)
		s.Timer.StrobeElapsed = s.Timer.StrobeInterval
	}

	if s.Timer.AngleElapsed <= 0 {
		base := cameraTarget.Sub(worldOrigin)
		if base.LenSqr() > minBaseLenSq {
			ev.Deviated = s.Deviation.Trigger(base, r)
		}
		s.Timer.AngleInterval = SampleInterval(r)
		s.Timer.AngleElapsed = s.Timer.AngleInterval
	}

	return ev
}
