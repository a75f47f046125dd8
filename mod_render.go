package lasers

import (
	"fmt"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Canvas is a 2D target for projected line work.
type Canvas interface {
	Viewport() core.Viewport
	Clear(bg core.Color)
	DrawLine(x0, y0, x1, y1 float32, c core.Color)
	DrawHUD(lines []string, c core.Color)
	Present(frame uint64) error
}

type RenderState struct {
	Canvas     Canvas
	Background core.Color
	Wireframe  core.Color
	ShowHUD    bool

	edges        map[core.MeshId][][2]uint32
	presentError LogLimiter
}

type RenderModule struct {
	Canvas  Canvas
	ShowHUD bool
}

func (mod RenderModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&RenderState{
		Canvas:       mod.Canvas,
		Background:   core.Color{0, 0, 0, 1},
		Wireframe:    core.ColorGray,
		ShowHUD:      mod.ShowHUD,
		edges:        make(map[core.MeshId][][2]uint32),
		presentError: LogLimiter{Max: 3},
	})
	app.UseSystem(
		System(RenderSystem).
			InStage(Render).
			RunAlways(),
	)
}

// RenderSystem draws the scene wireframe, then every line mesh, then the HUD.
func RenderSystem(t *Time, rs *RenderState, scene *SceneState, rig *LaserRig, cmd *Commands) {
	if rs.Canvas == nil {
		return
	}
	_, camComp := MakeQuery1[CameraComponent](cmd).First()
	if camComp == nil {
		return
	}
	cam := camComp.Core()
	vp := rs.Canvas.Viewport()

	rs.Canvas.Clear(rs.Background)

	for _, m := range scene.Scene.Meshes() {
		if !m.IsEnabled() {
			continue
		}
		world := m.WorldMatrix()
		for _, e := range rs.meshEdges(m) {
			a := core.TransformCoordinates(m.Positions[e[0]], world)
			b := core.TransformCoordinates(m.Positions[e[1]], world)
			drawSegment(rs.Canvas, &cam, vp, a, b, rs.Wireframe)
		}
	}

	MakeQuery1[LineMeshComponent](cmd).Map(func(eid EntityId, line *LineMeshComponent) bool {
		line.Segments(func(a, b mgl32.Vec3, ca, cb core.Color) {
			drawSegment(rs.Canvas, &cam, vp, a, b, ca)
		})
		return true
	})

	if rs.ShowHUD {
		rs.Canvas.DrawHUD(hudLines(t, rig), core.ColorWhite)
	}

	if err := rs.Canvas.Present(t.Frame); err != nil && rs.presentError.Allow() {
		cmd.Logger().Errorf("present frame %d: %v", t.Frame, err)
	}
}

func drawSegment(c Canvas, cam *core.Camera, vp core.Viewport, a, b mgl32.Vec3, col core.Color) {
	if !col.Visible() {
		return
	}
	x0, y0, x1, y1, ok := cam.ProjectSegment(a, b, vp)
	if !ok {
		return
	}
	c.DrawLine(x0, y0, x1, y1, col)
}

// meshEdges returns the unique triangle edges of m, computed once per mesh.
func (rs *RenderState) meshEdges(m *core.Mesh) [][2]uint32 {
	if edges, ok := rs.edges[m.ID]; ok {
		return edges
	}
	seen := make(map[[2]uint32]struct{})
	var edges [][2]uint32
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tri := [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}
		for k := 0; k < 3; k++ {
			e := [2]uint32{tri[k], tri[(k+1)%3]}
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	rs.edges[m.ID] = edges
	return edges
}

func hudLines(t *Time, rig *LaserRig) []string {
	lines := []string{fmt.Sprintf("frame %d  dt %.1fms", t.Frame, t.Dt.Seconds()*1000)}
	for i := range rig.Lasers {
		l := &rig.Lasers[i]
		state := "on"
		if l.Effects.Pulse.IsPulsing {
			state = "strobe"
		}
		deviated := ""
		if l.Effects.Deviation.IsCustomActive {
			deviated = " deviated"
		}
		lines = append(lines, fmt.Sprintf("laser %d: %d bounces, %s%s", i, l.Path.Bounces(rig.Settings.MaxBounces), state, deviated))
	}
	return lines
}
