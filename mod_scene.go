package lasers

import (
	"fmt"

	"github.com/gekko3d/lasers/rt/core"
)

// SceneState is the pickable world the lasers bounce in. Interactive is
// filled once at load and only read afterwards.
type SceneState struct {
	Scene       *core.Scene
	Interactive *core.MeshSet
	Model       *core.Mesh

	framePending bool
}

// BuildScene turns a SceneDef into a SceneState. With a ModelPath only the
// model's meshes are registered as interactive. A model that fails to load is
// reported in the error; the returned state then has no interactive meshes.
func BuildScene(def SceneDef) (*SceneState, error) {
	state := &SceneState{
		Scene:       core.NewScene(),
		Interactive: core.NewMeshSet(),
	}

	var procedural []*core.Mesh
	for _, md := range def.Meshes {
		m, interactive, err := BuildMesh(md)
		if err != nil {
			return state, err
		}
		state.Scene.AddMesh(m)
		procedural = append(procedural, interactive...)
	}
	if def.ModelPath == "" {
		state.Interactive.Add(procedural...)
	} else {
		model, meshes, err := LoadModel(def.ModelPath, def.ModelScale)
		if err != nil {
			return state, err
		}
		state.Scene.AddMesh(model)
		state.Interactive.Add(meshes...)
		state.Model = model
		state.framePending = true
	}

	if len(state.Scene.Meshes()) == 0 {
		return state, fmt.Errorf("build scene: %w", ErrNoMeshes)
	}
	return state, nil
}

// ExportScene writes every mesh of the scene to a GLB file that LoadModel
// can read back.
func ExportScene(state *SceneState, path string) error {
	return core.SaveGLB(path, state.Scene.Roots()...)
}

type SceneModule struct {
	Def SceneDef
}

func (mod SceneModule) Install(app *App, cmd *Commands) {
	state, err := BuildScene(mod.Def)
	if err != nil {
		cmd.Logger().Errorf("scene: %v", err)
	}
	cmd.Logger().Infof("scene ready: %d meshes, %d interactive", len(state.Scene.Meshes()), state.Interactive.Len())
	cmd.AddResources(state)

	app.UseSystem(
		System(SceneFramingSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// SceneFramingSystem points orbit cameras at a freshly loaded model.
func SceneFramingSystem(scene *SceneState, cmd *Commands) {
	if !scene.framePending || scene.Model == nil {
		return
	}
	minB, maxB, ok := scene.Model.HierarchyBounds()
	if !ok {
		scene.framePending = false
		return
	}

	framed := false
	MakeQuery2[CameraComponent, OrbitCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, orbit *OrbitCameraComponent) bool {
		orbit.Frame(minB, maxB, cam.Fov)
		cmd.Logger().Debugf("framing model %q: target %v radius %.2f", scene.Model.Name, orbit.Target, orbit.Radius)
		framed = true
		return true
	})
	if framed {
		scene.framePending = false
	}
}
