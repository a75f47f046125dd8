package lasers

import (
	"errors"
	"fmt"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoMeshes = errors.New("scene has no meshes")

const DefaultModelScale = 2

type Shape string

const (
	ShapePlane  Shape = "plane"
	ShapeBox    Shape = "box"
	ShapeSphere Shape = "sphere"
	ShapeModel  Shape = "model"
)

// MeshDef describes one mesh of a scene and its children.
type MeshDef struct {
	Name  string `json:"name"`
	Shape Shape  `json:"shape"`
	// plane: [width, height]; box: [x, y, z]; sphere: [radius, segments]
	Params []float32 `json:"params,omitempty"`
	// model only: a .gltf or .glb file
	Path string `json:"path,omitempty"`

	Position mgl32.Vec3 `json:"position"`
	Rotation mgl32.Quat `json:"rotation"`
	Scale    mgl32.Vec3 `json:"scale"`

	Interactive bool `json:"interactive"`
	// NoNormals drops vertex normals, so hits on this mesh end the beam.
	NoNormals bool      `json:"no_normals,omitempty"`
	Disabled  bool      `json:"disabled,omitempty"`
	Children  []MeshDef `json:"children,omitempty"`
}

// SceneDef defines the initial state of a scene. When ModelPath is set the
// model is loaded next to Meshes and becomes the only interactive target.
type SceneDef struct {
	Meshes     []MeshDef `json:"meshes"`
	ModelPath  string    `json:"model_path,omitempty"`
	ModelScale float32   `json:"model_scale,omitempty"`
}

// DefaultSceneDef is a rough hooded figure in front of a backdrop.
func DefaultSceneDef() SceneDef {
	return SceneDef{
		Meshes: []MeshDef{
			{
				Name:        "body",
				Shape:       ShapeBox,
				Params:      []float32{1.2, 1.6, 0.6},
				Position:    mgl32.Vec3{0, -0.6, 0},
				Interactive: true,
				Children: []MeshDef{
					{
						Name:        "head",
						Shape:       ShapeSphere,
						Params:      []float32{0.45, 16},
						Position:    mgl32.Vec3{0, 1.25, 0},
						Interactive: true,
					},
				},
			},
			{
				Name:        "backdrop",
				Shape:       ShapePlane,
				Params:      []float32{12, 8},
				Position:    mgl32.Vec3{0, 0, 3},
				Interactive: true,
			},
		},
	}
}

// BuildMesh creates the mesh for def and its children. Interactive meshes are
// collected in the order they were built.
func BuildMesh(def MeshDef) (*core.Mesh, []*core.Mesh, error) {
	m, err := buildShape(def)
	if err != nil {
		return nil, nil, fmt.Errorf("mesh %q: %w", def.Name, err)
	}

	m.Transform.Position = def.Position
	if def.Rotation != (mgl32.Quat{}) {
		m.Transform.Rotation = def.Rotation.Normalize()
	}
	if def.Scale != (mgl32.Vec3{}) {
		m.Transform.Scale = def.Scale
	}
	if def.NoNormals {
		m.Normals = nil
	}
	m.Enabled = !def.Disabled
	m.Pickable = def.Interactive

	var interactive []*core.Mesh
	if def.Interactive {
		interactive = append(interactive, m)
	}
	for _, childDef := range def.Children {
		child, childInteractive, err := BuildMesh(childDef)
		if err != nil {
			return nil, nil, err
		}
		m.AddChild(child)
		interactive = append(interactive, childInteractive...)
	}
	return m, interactive, nil
}

func buildShape(def MeshDef) (*core.Mesh, error) {
	param := func(i int, fallback float32) float32 {
		if i < len(def.Params) && def.Params[i] > 0 {
			return def.Params[i]
		}
		return fallback
	}

	switch def.Shape {
	case ShapePlane:
		return core.NewPlaneMesh(def.Name, param(0, 1), param(1, 1)), nil
	case ShapeBox:
		return core.NewBoxMesh(def.Name, mgl32.Vec3{param(0, 1), param(1, 1), param(2, 1)}), nil
	case ShapeSphere:
		return core.NewSphereMesh(def.Name, param(0, 0.5), int(param(1, 16))), nil
	case ShapeModel:
		m, err := core.LoadGLTFFile(def.Path)
		if err != nil {
			return nil, err
		}
		if def.Name != "" {
			m.Name = def.Name
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown shape %q", def.Shape)
	}
}

// LoadModel imports a glTF model, scales its root and marks the root and all
// descendants pickable.
func LoadModel(path string, scale float32) (*core.Mesh, []*core.Mesh, error) {
	m, err := core.LoadGLTFFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if scale <= 0 {
		scale = DefaultModelScale
	}
	m.Transform.Scale = mgl32.Vec3{scale, scale, scale}

	meshes := append([]*core.Mesh{m}, m.Descendants()...)
	for _, sub := range meshes {
		sub.Pickable = true
	}
	return m, meshes, nil
}
