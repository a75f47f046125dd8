package lasers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeQuadModel saves a 2x2 quad facing -z, nested below a group node.
func writeQuadModel(t *testing.T) string {
	t.Helper()
	group := core.NewMesh("figure", nil, nil, nil)
	group.AddChild(core.NewPlaneMesh("quad", 2, 2))
	path := filepath.Join(t.TempDir(), "quad.glb")
	require.NoError(t, core.SaveGLB(path, group))
	return path
}

func TestBuildSceneDefault(t *testing.T) {
	state, err := BuildScene(DefaultSceneDef())
	require.NoError(t, err)

	assert.Len(t, state.Scene.Meshes(), 3)
	assert.Equal(t, 3, state.Interactive.Len())
	assert.Nil(t, state.Model)

	// A ray from the default camera position hits the figure
	hit := state.Scene.Pick(core.NewRay(mgl32.Vec3{0, -0.5, -5}, mgl32.Vec3{0, 0, 1}, 20), state.Interactive)
	require.True(t, hit.Hit)
	assert.Equal(t, "body", hit.Mesh.Name)
}

func TestBuildMeshDefaults(t *testing.T) {
	m, interactive, err := BuildMesh(MeshDef{Name: "box", Shape: ShapeBox})
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.Transform.Scale)
	assert.Equal(t, mgl32.QuatIdent(), m.Transform.Rotation)
	assert.False(t, m.Pickable)
	assert.Empty(t, interactive)

	_, _, err = BuildMesh(MeshDef{Name: "blob", Shape: "blob"})
	assert.ErrorContains(t, err, "unknown shape")
}

func TestBuildMeshChildrenAndFlags(t *testing.T) {
	def := MeshDef{
		Name:        "root",
		Shape:       ShapePlane,
		Interactive: true,
		Children: []MeshDef{
			{Name: "plain", Shape: ShapeBox, NoNormals: true, Interactive: true},
			{Name: "hidden", Shape: ShapeSphere, Disabled: true, Interactive: true},
			{Name: "decor", Shape: ShapeBox},
		},
	}
	root, interactive, err := BuildMesh(def)
	require.NoError(t, err)

	require.Len(t, root.Children(), 3)
	assert.Len(t, interactive, 3)
	assert.Nil(t, root.Children()[0].Normals)
	assert.False(t, root.Children()[1].IsEnabled())

	set := core.NewMeshSet(interactive...)
	assert.False(t, set.IsInteractive(root.Children()[1]), "disabled meshes are not targets")
	assert.False(t, set.IsInteractive(root.Children()[2]))
}

func TestBuildSceneWithModel(t *testing.T) {
	state, err := BuildScene(SceneDef{ModelPath: writeQuadModel(t)})
	require.NoError(t, err)
	require.NotNil(t, state.Model)

	assert.Equal(t, mgl32.Vec3{2, 2, 2}, state.Model.Transform.Scale)
	assert.True(t, state.framePending)

	// Root, group node and quad are all registered
	require.Len(t, state.Model.Descendants(), 2)
	assert.Equal(t, 3, state.Interactive.Len())
	assert.True(t, state.Interactive.IsInteractive(state.Model))
	for _, m := range state.Model.Descendants() {
		assert.True(t, state.Interactive.IsInteractive(m), m.Name)
	}

	minB, maxB, ok := state.Model.HierarchyBounds()
	require.True(t, ok)
	assert.InDelta(t, -2, minB.X(), 1e-5)
	assert.InDelta(t, 2, maxB.Y(), 1e-5)

	hit := state.Scene.Pick(core.NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}, 20), state.Interactive)
	require.True(t, hit.Hit)
	assert.Equal(t, "quad", hit.Mesh.Name)
}

func TestBuildSceneModelReplacesProceduralTargets(t *testing.T) {
	def := DefaultSceneDef()
	def.ModelPath = writeQuadModel(t)

	state, err := BuildScene(def)
	require.NoError(t, err)

	// The procedural meshes are still drawn but no longer reflect beams
	assert.Len(t, state.Scene.Meshes(), 6)
	assert.Equal(t, 3, state.Interactive.Len())
	for _, m := range state.Scene.Roots()[:2] {
		assert.False(t, state.Interactive.Contains(m), m.Name)
	}
}

func TestBuildSceneModelFailureLeavesNoTargets(t *testing.T) {
	def := DefaultSceneDef()
	def.ModelPath = filepath.Join(t.TempDir(), "missing.glb")

	state, err := BuildScene(def)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NotNil(t, state)
	assert.Nil(t, state.Model)
	assert.Equal(t, 0, state.Interactive.Len())

	rig := quietRig(t, DefaultLaserSettings())
	frames := rig.Update(0.016, core.NewCamera(), state.Scene, state.Interactive)
	require.Len(t, frames, NumLasers)
	for _, f := range frames {
		require.Len(t, f.Points, 2)
		assert.Equal(t, []core.Color{core.ColorGreen, core.ColorGreen}, f.Colors)
	}
}

func TestExportSceneRoundTrip(t *testing.T) {
	state, err := BuildScene(DefaultSceneDef())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scene.glb")
	require.NoError(t, ExportScene(state, path))

	model, meshes, err := LoadModel(path, 1)
	require.NoError(t, err)
	assert.Len(t, meshes, 4)

	names := make([]string, 0, len(meshes))
	for _, m := range model.Descendants() {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"body", "head", "backdrop"}, names)

	want, _, _ := state.Scene.Roots()[0].HierarchyBounds()
	got, _, _ := model.Children()[0].HierarchyBounds()
	assertVecNear(t, want, got)
}

func TestBuildSceneEmpty(t *testing.T) {
	state, err := BuildScene(SceneDef{})
	assert.ErrorIs(t, err, ErrNoMeshes)
	assert.Equal(t, 0, state.Interactive.Len())
}

func TestSceneFramingSystem(t *testing.T) {
	path := writeQuadModel(t)

	app := NewAppBuilder().UseModule(
		LoggingModule{Output: &discard{}},
		TimeModule{},
		CameraModule{},
		SceneModule{Def: SceneDef{ModelPath: path}},
	).Build()
	app.Step()

	_, orbit := MakeQuery1[OrbitCameraComponent](app.Commands()).First()
	require.NotNil(t, orbit)
	_, cam := MakeQuery1[CameraComponent](app.Commands()).First()
	require.NotNil(t, cam)

	want := core.FrameDistance(mgl32.Vec3{-2, -2, 0}, mgl32.Vec3{2, 2, 0}, cam.Fov)
	assert.InDelta(t, want, orbit.Radius, 1e-3)
	assert.InDelta(t, want, cam.Position.Sub(cam.Target).Len(), 1e-3)
	assert.False(t, Resource[SceneState](app).framePending)
}
