package lasers

import (
	"math"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

type CameraComponent struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32 // vertical, radians
	Near     float32
	Far      float32
}

func (c *CameraComponent) Core() core.Camera {
	return core.Camera{
		Position: c.Position,
		Target:   c.Target,
		Up:       c.Up,
		Fov:      c.Fov,
		Near:     c.Near,
		Far:      c.Far,
	}
}

// OrbitCameraComponent places its CameraComponent on a sphere around Target.
// Alpha is the longitude and Beta the polar angle, both in radians.
type OrbitCameraComponent struct {
	Alpha       float32
	Beta        float32
	Radius      float32
	LowerRadius float32
	UpperRadius float32
	Target      mgl32.Vec3

	// Radians per second
	AutoRotateSpeed float32
	// Radians per second while an arrow key is held
	KeySpeed float32
	// Radius factor per second while a zoom key is held
	ZoomSpeed float32
}

func NewOrbitCamera() OrbitCameraComponent {
	return OrbitCameraComponent{
		Alpha:       -math.Pi / 2,
		Beta:        math.Pi / 2,
		Radius:      5,
		LowerRadius: 1,
		UpperRadius: 500,
		KeySpeed:    1.5,
		ZoomSpeed:   2,
	}
}

type CameraModule struct {
	Orbit OrbitCameraComponent
}

func (mod CameraModule) Install(app *App, cmd *Commands) {
	orbit := mod.Orbit
	if orbit == (OrbitCameraComponent{}) {
		orbit = NewOrbitCamera()
	}
	base := core.NewCamera()
	cam := CameraComponent{
		Target: orbit.Target,
		Up:     base.Up,
		Fov:    base.Fov,
		Near:   base.Near,
		Far:    base.Far,
	}
	orbit.clamp()
	cam.Position = core.OrbitPosition(orbit.Target, orbit.Alpha, orbit.Beta, orbit.Radius)
	cmd.AddEntity(cam, orbit)

	app.UseSystem(
		System(OrbitCameraSystem).
			InStage(Update).
			RunAlways(),
	)
}

// OrbitCameraSystem applies keyboard and auto-rotation to every orbit camera
// and writes the result into its CameraComponent.
func OrbitCameraSystem(t *Time, cmd *Commands) {
	dt := t.Seconds()
	input := Resource[Input](cmd.app)

	MakeQuery2[CameraComponent, OrbitCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, orbit *OrbitCameraComponent) bool {
		orbit.Alpha += orbit.AutoRotateSpeed * dt

		if input != nil {
			step := orbit.KeySpeed * dt
			if input.Pressed[KeyLeft] {
				orbit.Alpha -= step
			}
			if input.Pressed[KeyRight] {
				orbit.Alpha += step
			}
			if input.Pressed[KeyUp] {
				orbit.Beta -= step
			}
			if input.Pressed[KeyDown] {
				orbit.Beta += step
			}
			zoom := float32(math.Pow(float64(1+orbit.ZoomSpeed), float64(dt)))
			if input.Pressed[KeyZoomIn] {
				orbit.Radius /= zoom
			}
			if input.Pressed[KeyZoomOut] {
				orbit.Radius *= zoom
			}
		}

		orbit.clamp()
		cam.Target = orbit.Target
		cam.Position = core.OrbitPosition(orbit.Target, orbit.Alpha, orbit.Beta, orbit.Radius)
		return true
	})
}

// Beta stays strictly inside (0, pi) so the view never looks along Up.
func (o *OrbitCameraComponent) clamp() {
	const betaEps = 0.01
	o.Beta = mgl32.Clamp(o.Beta, betaEps, math.Pi-betaEps)
	if o.UpperRadius > 0 {
		o.Radius = mgl32.Clamp(o.Radius, o.LowerRadius, o.UpperRadius)
	}
}

// Frame points the orbit at the given bounds from the distance that fits them in view.
func (o *OrbitCameraComponent) Frame(minB, maxB mgl32.Vec3, fov float32) {
	o.Target = minB.Add(maxB).Mul(0.5)
	o.Radius = core.FrameDistance(minB, maxB, fov)
	if o.UpperRadius > 0 && o.Radius > o.UpperRadius {
		o.UpperRadius = o.Radius
	}
}
