package lasers

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gekko3d/lasers/rt/beam"
	"github.com/gekko3d/lasers/rt/core"
	"github.com/gekko3d/lasers/rt/effects"
	"github.com/go-gl/mathgl/mgl32"
)

const NumLasers = 4

// Below this squared length a direction is treated as zero.
const degenerateLenSq = 1e-6

var (
	ErrInvalidLaser  = errors.New("invalid laser index")
	ErrZeroDirection = errors.New("zero-length direction")
	ErrMissingColor  = errors.New("missing color")
)

// DefaultLaserOffsets are camera-local emitter positions: the four corners
// of a square one unit in front of the lens.
var DefaultLaserOffsets = [NumLasers]mgl32.Vec3{
	{-0.8, 0.8, -1},
	{0.8, 0.8, -1},
	{-0.8, -0.8, -1},
	{0.8, -0.8, -1},
}

// ColorPolicy decides which colour a beam is drawn with:
//
//	strobe running            -> the strobe's live colour (transparent while off)
//	no interactive meshes     -> NoTarget
//	otherwise, hit or miss    -> Beam
type ColorPolicy struct {
	Beam     core.Color
	NoTarget core.Color
}

func DefaultColorPolicy() ColorPolicy {
	return ColorPolicy{Beam: core.ColorRed, NoTarget: core.ColorGreen}
}

func (p ColorPolicy) ResolveColor(pulse *effects.Pulse, hasTargets bool) core.Color {
	if pulse != nil && pulse.IsPulsing {
		return pulse.CurrentColor
	}
	if !hasTargets {
		return p.NoTarget
	}
	return p.Beam
}

type LaserSettings struct {
	Offsets    [NumLasers]mgl32.Vec3
	Colors     ColorPolicy
	MaxBounces int
	MaxLength  float32
}

func DefaultLaserSettings() LaserSettings {
	return LaserSettings{
		Offsets:    DefaultLaserOffsets,
		Colors:     DefaultColorPolicy(),
		MaxBounces: 3,
		MaxLength:  20,
	}
}

// Laser is the per-emitter record. Effects persist across frames; the
// remaining fields describe the most recent frame.
type Laser struct {
	Offset  mgl32.Vec3
	Effects effects.State

	Origin    mgl32.Vec3
	Direction mgl32.Vec3
	Path      beam.Path
	Color     core.Color
}

// BeamFrame is what one laser produced in one frame, ready for a line mesh.
type BeamFrame struct {
	Index    int
	Points   []mgl32.Vec3
	Colors   []core.Color
	Bounces  int
	Pulsing  bool
	Deviated bool
	Events   effects.Events
}

// LaserRig owns the state of all lasers. It is driven from a single thread.
// A nil rng is replaced by a time-seeded one.
type LaserRig struct {
	Settings LaserSettings
	Lasers   [NumLasers]Laser

	rng effects.Rand
}

func NewLaserRig(settings LaserSettings, rng effects.Rand) *LaserRig {
	if settings.MaxLength <= 0 {
		settings.MaxLength = DefaultLaserSettings().MaxLength
	}
	if settings.MaxBounces < 0 {
		settings.MaxBounces = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x1a5e))
	}
	rig := &LaserRig{Settings: settings, rng: rng}
	for i := range rig.Lasers {
		rig.Lasers[i].Offset = settings.Offsets[i]
		rig.Lasers[i].Color = settings.Colors.Beam
	}
	return rig
}

func (r *LaserRig) laser(index int) (*Laser, error) {
	if index < 0 || index >= NumLasers {
		return nil, fmt.Errorf("laser %d: %w", index, ErrInvalidLaser)
	}
	return &r.Lasers[index], nil
}

// TriggerStrobe starts a strobe on one laser. It reports false when a strobe
// is already running there.
func (r *LaserRig) TriggerStrobe(index int, base core.Color) (bool, error) {
	l, err := r.laser(index)
	if err != nil {
		return false, err
	}
	if base == (core.Color{}) {
		return false, fmt.Errorf("strobe laser %d: %w", index, ErrMissingColor)
	}
	return l.Effects.Pulse.Trigger(base), nil
}

// TriggerAngleChange deviates one laser away from dir by at most 35 degrees.
func (r *LaserRig) TriggerAngleChange(index int, dir mgl32.Vec3) (bool, error) {
	l, err := r.laser(index)
	if err != nil {
		return false, err
	}
	if dir.LenSqr() < degenerateLenSq {
		return false, fmt.Errorf("deviate laser %d: %w", index, ErrZeroDirection)
	}
	return l.Effects.Deviation.Trigger(dir, r.rng), nil
}

// Advance runs one laser's effect timers forward by dt seconds.
func (r *LaserRig) Advance(index int, dt float64, cameraTarget, worldOrigin mgl32.Vec3) (effects.Events, error) {
	l, err := r.laser(index)
	if err != nil {
		return effects.Events{}, err
	}
	return l.Effects.Advance(dt, cameraTarget, worldOrigin, r.Settings.Colors.Beam, r.rng), nil
}

// Update produces every laser's beam for one frame. Origins and directions of
// all lasers are fixed before any timer runs, so a deviation triggered on one
// laser this frame is only seen from the next frame on.
func (r *LaserRig) Update(dt float64, cam *core.Camera, picker core.Picker, targets *core.MeshSet) []BeamFrame {
	world := cam.WorldMatrix()
	hasTargets := targets.Len() > 0

	var origins, directions [NumLasers]mgl32.Vec3
	for i := range r.Lasers {
		l := &r.Lasers[i]
		origins[i] = core.TransformCoordinates(l.Offset, world)
		var def mgl32.Vec3
		if toTarget := cam.Target.Sub(origins[i]); toTarget.LenSqr() >= degenerateLenSq {
			def = toTarget.Normalize()
		}
		directions[i] = l.Effects.Deviation.Effective(def)
	}

	var events [NumLasers]effects.Events
	for i := range r.Lasers {
		events[i], _ = r.Advance(i, dt, cam.Target, origins[i])
	}

	frames := make([]BeamFrame, 0, NumLasers)
	for i := range r.Lasers {
		l := &r.Lasers[i]
		l.Origin = origins[i]
		l.Direction = directions[i]
		l.Color = r.Settings.Colors.ResolveColor(&l.Effects.Pulse, hasTargets)

		switch {
		case directions[i].LenSqr() < degenerateLenSq:
			l.Path = beam.Path{origins[i], origins[i]}
		case !hasTargets:
			l.Path = beam.Path{origins[i], origins[i].Add(directions[i].Mul(r.Settings.MaxLength))}
		default:
			l.Path = beam.Trace(picker, targets, beam.Beam{
				Origin:     origins[i],
				Direction:  directions[i],
				MaxBounces: r.Settings.MaxBounces,
				MaxLength:  r.Settings.MaxLength,
			})
		}

		colors := make([]core.Color, len(l.Path))
		for j := range colors {
			colors[j] = l.Color
		}
		frames = append(frames, BeamFrame{
			Index:    i,
			Points:   append([]mgl32.Vec3(nil), l.Path...),
			Colors:   colors,
			Bounces:  l.Path.Bounces(r.Settings.MaxBounces),
			Pulsing:  l.Effects.Pulse.IsPulsing,
			Deviated: l.Effects.Deviation.IsCustomActive,
			Events:   events[i],
		})
	}
	return frames
}

// LaserModule spawns one line entity per laser and drives them every frame.
type LaserModule struct {
	Settings LaserSettings
	Rand     effects.Rand
}

func (mod LaserModule) Install(app *App, cmd *Commands) {
	settings := mod.Settings
	if settings == (LaserSettings{}) {
		settings = DefaultLaserSettings()
	}
	cmd.AddResources(
		NewLaserRig(settings, mod.Rand),
		&laserWarnings{empty: LogLimiter{Max: 5}, invalid: LogLimiter{Max: 5}},
	)

	initial := []mgl32.Vec3{{0, 0, 0}, {0, 0, 0.01}}
	for i := 0; i < NumLasers; i++ {
		line, err := NewLineMesh(fmt.Sprintf("laser-%d", i), initial, []core.Color{settings.Colors.Beam, settings.Colors.Beam})
		if err != nil {
			cmd.Logger().Errorf("laser %d line: %v", i, err)
			continue
		}
		cmd.AddEntity(line, LaserTag{Index: i})
	}

	app.UseSystem(System(LaserUpdateSystem).InStage(PostUpdate))
}

type laserWarnings struct {
	empty   LogLimiter
	invalid LogLimiter
}

func LaserUpdateSystem(t *Time, rig *LaserRig, scene *SceneState, warn *laserWarnings, cmd *Commands) {
	_, cam := MakeQuery1[CameraComponent](cmd).First()
	if cam == nil {
		return
	}
	camera := cam.Core()

	if scene.Interactive.Len() == 0 && warn.empty.Allow() {
		cmd.Logger().Warnf("interactive mesh set is empty, drawing straight beams")
	}

	frames := rig.Update(t.Dt.Seconds(), &camera, scene.Scene, scene.Interactive)

	MakeQuery2[LineMeshComponent, LaserTag](cmd).Map(func(eid EntityId, line *LineMeshComponent, tag *LaserTag) bool {
		if tag.Index < 0 || tag.Index >= len(frames) {
			if warn.invalid.Allow() {
				cmd.Logger().Warnf("line %q: laser %d: %v", line.Name, tag.Index, ErrInvalidLaser)
			}
			return true
		}
		f := frames[tag.Index]
		if err := line.Update(f.Points, f.Colors); err != nil && warn.invalid.Allow() {
			cmd.Logger().Warnf("%v", err)
		}
		return true
	})
}
