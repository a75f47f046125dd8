package lasers

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/gekko3d/lasers/rt/effects"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

// quietRig returns a rig whose timers will not fire for a long time.
func quietRig(t *testing.T, settings LaserSettings) *LaserRig {
	t.Helper()
	rng := newTestRand()
	rig := NewLaserRig(settings, rng)
	for i := range rig.Lasers {
		rig.Lasers[i].Effects.Timer = effects.NewTimer(settings.Colors.Beam, rng)
		rig.Lasers[i].Effects.Timer.StrobeElapsed = 100
		rig.Lasers[i].Effects.Timer.AngleElapsed = 100
	}
	return rig
}

func direction(f BeamFrame) mgl32.Vec3 {
	return f.Points[1].Sub(f.Points[0]).Normalize()
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3, msgAndArgs ...any) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-4, msgAndArgs...)
	}
}

func planeScene(t *testing.T) (*core.Scene, *core.MeshSet) {
	t.Helper()
	plane := core.NewPlaneMesh("wall", 10, 10)
	scene := core.NewScene()
	scene.AddMesh(plane)
	return scene, core.NewMeshSet(plane)
}

func TestColorPolicy(t *testing.T) {
	policy := DefaultColorPolicy()
	blue := core.Color{0, 0, 1, 1}

	tests := []struct {
		name       string
		pulse      *effects.Pulse
		hasTargets bool
		want       core.Color
	}{
		{"idle with targets", &effects.Pulse{}, true, core.ColorRed},
		{"idle without targets", &effects.Pulse{}, false, core.ColorGreen},
		{"nil pulse", nil, true, core.ColorRed},
		{"strobe off phase", &effects.Pulse{IsPulsing: true, CurrentColor: core.ColorTransparent}, true, core.ColorTransparent},
		{"strobe on phase without targets", &effects.Pulse{IsPulsing: true, CurrentColor: blue}, false, blue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.ResolveColor(tt.pulse, tt.hasTargets))
		})
	}
}

func TestLaserRigInvalidInput(t *testing.T) {
	rig := quietRig(t, DefaultLaserSettings())

	for _, idx := range []int{-1, NumLasers, 99} {
		_, err := rig.TriggerStrobe(idx, core.ColorRed)
		assert.ErrorIs(t, err, ErrInvalidLaser)
		_, err = rig.TriggerAngleChange(idx, mgl32.Vec3{0, 0, 1})
		assert.ErrorIs(t, err, ErrInvalidLaser)
		_, err = rig.Advance(idx, 0.1, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
		assert.ErrorIs(t, err, ErrInvalidLaser)
	}

	before := rig.Lasers[0].Effects
	_, err := rig.TriggerAngleChange(0, mgl32.Vec3{})
	assert.ErrorIs(t, err, ErrZeroDirection)
	_, err = rig.TriggerStrobe(0, core.Color{})
	assert.ErrorIs(t, err, ErrMissingColor)
	assert.Equal(t, before, rig.Lasers[0].Effects, "rejected calls leave state untouched")
}

func TestLaserRigStrobeReentrancy(t *testing.T) {
	rig := quietRig(t, DefaultLaserSettings())

	started, err := rig.TriggerStrobe(2, core.ColorRed)
	require.NoError(t, err)
	assert.True(t, started)

	pulse := rig.Lasers[2].Effects.Pulse
	started, err = rig.TriggerStrobe(2, core.ColorGreen)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, pulse, rig.Lasers[2].Effects.Pulse)

	assert.False(t, rig.Lasers[1].Effects.Pulse.IsPulsing, "other lasers are independent")
}

func TestLaserRigTriggerAngleChangeStaysInCone(t *testing.T) {
	rig := quietRig(t, DefaultLaserSettings())
	base := mgl32.Vec3{0.3, -0.2, 1}.Normalize()

	for i := 0; i < 200; i++ {
		ok, err := rig.TriggerAngleChange(1, base)
		require.NoError(t, err)
		require.True(t, ok)
		custom := rig.Lasers[1].Effects.Deviation.CustomDirection
		angle := mgl32.RadToDeg(float32(acos(custom.Dot(base))))
		assert.LessOrEqual(t, angle, float32(effects.MaxDeviationDegrees+0.01))
	}
}

func TestLaserRigUpdateNoTargets(t *testing.T) {
	rig := quietRig(t, DefaultLaserSettings())
	cam := core.NewCamera()

	frames := rig.Update(0.016, cam, core.NewScene(), core.NewMeshSet())
	require.Len(t, frames, NumLasers)

	for i, f := range frames {
		require.Len(t, f.Points, 2)
		assert.Equal(t, []core.Color{core.ColorGreen, core.ColorGreen}, f.Colors)
		assert.InDelta(t, 20, f.Points[1].Sub(f.Points[0]).Len(), 1e-3)

		wantOrigin := core.TransformCoordinates(DefaultLaserOffsets[i], cam.WorldMatrix())
		assertVecNear(t, wantOrigin, f.Points[0])
		assertVecNear(t, cam.Target.Sub(wantOrigin).Normalize(), direction(f))
	}
}

func TestLaserRigUpdateBouncesOffPlane(t *testing.T) {
	rig := quietRig(t, DefaultLaserSettings())
	cam := core.NewCamera()
	scene, targets := planeScene(t)

	frames := rig.Update(0.016, cam, scene, targets)

	for _, f := range frames {
		require.Len(t, f.Points, 3, "origin, impact on the wall, exit")
		assert.InDelta(t, 0, f.Points[1].Z(), 1e-4)
		assert.Equal(t, 1, f.Bounces)
		for _, c := range f.Colors {
			assert.Equal(t, core.ColorRed, c)
		}
		// Reflected back towards the camera side
		assert.Less(t, f.Points[2].Z(), float32(0))
	}
}

func TestLaserRigUpdateDegenerateDirection(t *testing.T) {
	settings := DefaultLaserSettings()
	settings.Offsets[0] = mgl32.Vec3{0, 0, -1}
	rig := quietRig(t, settings)

	cam := core.NewCamera()
	cam.Target = mgl32.Vec3{0, 0, -4}
	scene, targets := planeScene(t)

	frames := rig.Update(0.016, cam, scene, targets)

	require.Len(t, frames[0].Points, 2)
	assertVecNear(t, mgl32.Vec3{0, 0, -4}, frames[0].Points[0])
	assert.Equal(t, frames[0].Points[0], frames[0].Points[1], "collapsed to a zero-length segment")
	require.Len(t, frames[1].Points, 2)
	assert.InDelta(t, 20, frames[1].Points[1].Sub(frames[1].Points[0]).Len(), 1e-3, "other lasers still trace")
}

func TestLaserRigDeviationAppliesNextFrame(t *testing.T) {
	rig := quietRig(t, DefaultLaserSettings())
	cam := core.NewCamera()
	rig.Lasers[0].Effects.Timer.AngleElapsed = 0.001

	frames := rig.Update(0.016, cam, core.NewScene(), core.NewMeshSet())
	require.True(t, frames[0].Events.Deviated)
	require.True(t, frames[0].Deviated)

	defaults := make([]mgl32.Vec3, NumLasers)
	for i := range defaults {
		o := core.TransformCoordinates(DefaultLaserOffsets[i], cam.WorldMatrix())
		defaults[i] = cam.Target.Sub(o).Normalize()
		assertVecNear(t, defaults[i], direction(frames[i]), "frame 1, laser %d", i)
	}

	custom := rig.Lasers[0].Effects.Deviation.CustomDirection
	assertVecNear(t, defaults[0], rig.Lasers[0].Effects.Deviation.BaseDirection)

	frames = rig.Update(0.016, cam, core.NewScene(), core.NewMeshSet())
	assertVecNear(t, custom, direction(frames[0]))
	for i := 1; i < NumLasers; i++ {
		assertVecNear(t, defaults[i], direction(frames[i]), "frame 2, laser %d", i)
	}
}

func TestLaserRigStrobeColorsBeam(t *testing.T) {
	rig := quietRig(t, DefaultLaserSettings())
	cam := core.NewCamera()
	scene, targets := planeScene(t)
	blue := core.Color{0, 0, 1, 1}

	_, err := rig.TriggerStrobe(3, blue)
	require.NoError(t, err)

	frames := rig.Update(0.01, cam, scene, targets)
	assert.True(t, frames[3].Pulsing)
	for _, c := range frames[3].Colors {
		assert.False(t, c.Visible(), "off phase")
	}
	assert.Equal(t, core.ColorRed, frames[2].Colors[0])

	frames = rig.Update(0.08, cam, scene, targets)
	assert.Equal(t, blue, frames[3].Colors[0], "on phase")

	frames = rig.Update(effects.StrobeDuration(), cam, scene, targets)
	assert.False(t, frames[3].Pulsing)
	assert.Equal(t, core.ColorRed, frames[3].Colors[0])
}

func TestLaserRigTimersFireOverTime(t *testing.T) {
	rig := NewLaserRig(DefaultLaserSettings(), newTestRand())
	cam := core.NewCamera()

	strobes, deviations := 0, 0
	for frame := 0; frame < 720; frame++ {
		for _, f := range rig.Update(1.0/60, cam, core.NewScene(), core.NewMeshSet()) {
			if f.Events.Strobed {
				strobes++
			}
			if f.Events.Deviated {
				deviations++
			}
		}
	}
	// 12 seconds with intervals in [1,5) is at least 2 firings per laser and timer
	assert.GreaterOrEqual(t, strobes, 2*NumLasers)
	assert.GreaterOrEqual(t, deviations, 2*NumLasers)
}

func acos(c float32) float64 {
	return math.Acos(math.Max(-1, math.Min(1, float64(c))))
}

func TestLaserModuleSpawnsOneLinePerLaser(t *testing.T) {
	var logs bytes.Buffer
	app := NewAppBuilder().UseModule(
		LoggingModule{Output: &logs},
		LaserModule{Settings: DefaultLaserSettings(), Rand: newTestRand()},
	).Build()

	seen := map[int]bool{}
	MakeQuery2[LineMeshComponent, LaserTag](app.Commands()).Map(func(eid EntityId, l *LineMeshComponent, tag *LaserTag) bool {
		seen[tag.Index] = true
		assert.Equal(t, []core.Color{core.ColorRed, core.ColorRed}, l.Colors)
		return true
	})
	assert.Len(t, seen, NumLasers)
	assert.NotContains(t, logs.String(), "ERROR")
}
