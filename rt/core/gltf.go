package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var ErrEmptyModel = errors.New("model has no triangles")

// LoadGLTFFile imports a .gltf or .glb file. The returned root carries no
// geometry; every node of the default scene hangs below it with its local
// transform, so the model keeps its glTF hierarchy.
func LoadGLTFFile(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadGLTF(doc, name)
}

// LoadGLTF converts a decoded document into a mesh tree. Only triangle
// primitives are kept; primitives without normals get face normals.
func LoadGLTF(doc *gltf.Document, name string) (*Mesh, error) {
	root := NewMesh(name, nil, nil, nil)

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		// No scene: every node that is nobody's child is a root
		isChild := make([]bool, len(doc.Nodes))
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				if c < len(isChild) {
					isChild[c] = true
				}
			}
		}
		for i := range doc.Nodes {
			if !isChild[i] {
				roots = append(roots, i)
			}
		}
	}

	l := gltfLoader{doc: doc, visiting: make(map[int]bool)}
	for _, idx := range roots {
		child, err := l.node(idx)
		if err != nil {
			return nil, err
		}
		root.AddChild(child)
	}

	triangles := 0
	for _, m := range root.Descendants() {
		triangles += m.TriangleCount()
	}
	if triangles == 0 {
		return nil, fmt.Errorf("model %q: %w", name, ErrEmptyModel)
	}
	return root, nil
}

type gltfLoader struct {
	doc      *gltf.Document
	visiting map[int]bool
}

func (l *gltfLoader) node(idx int) (*Mesh, error) {
	if idx < 0 || idx >= len(l.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", idx)
	}
	if l.visiting[idx] {
		return nil, fmt.Errorf("node %d: cyclic hierarchy", idx)
	}
	l.visiting[idx] = true
	defer delete(l.visiting, idx)

	n := l.doc.Nodes[idx]
	m := NewMesh(n.Name, nil, nil, nil)
	if m.Name == "" {
		m.Name = fmt.Sprintf("node-%d", idx)
	}
	if n.Mesh != nil {
		if err := l.geometry(m, *n.Mesh); err != nil {
			return nil, fmt.Errorf("node %q: %w", m.Name, err)
		}
	}
	m.Transform = nodeTransform(n)

	for _, c := range n.Children {
		child, err := l.node(c)
		if err != nil {
			return nil, err
		}
		m.AddChild(child)
	}
	return m, nil
}

// geometry merges all triangle primitives of a glTF mesh into m.
func (l *gltfLoader) geometry(m *Mesh, meshIdx int) error {
	if meshIdx < 0 || meshIdx >= len(l.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", meshIdx)
	}
	var (
		pos     []mgl32.Vec3
		norm    []mgl32.Vec3
		hasNorm []bool
		indices []uint32
	)
	for pi, prim := range l.doc.Meshes[meshIdx].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acr, err := l.accessor(posIdx)
		if err != nil {
			return fmt.Errorf("primitive %d positions: %w", pi, err)
		}
		p, err := modeler.ReadPosition(l.doc, acr, nil)
		if err != nil {
			return fmt.Errorf("primitive %d positions: %w", pi, err)
		}
		var n [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if acr, err = l.accessor(normIdx); err == nil {
				n, err = modeler.ReadNormal(l.doc, acr, nil)
			}
			if err != nil {
				return fmt.Errorf("primitive %d normals: %w", pi, err)
			}
		}
		var idx []uint32
		if prim.Indices != nil {
			if acr, err = l.accessor(*prim.Indices); err == nil {
				idx, err = modeler.ReadIndices(l.doc, acr, nil)
			}
			if err != nil {
				return fmt.Errorf("primitive %d indices: %w", pi, err)
			}
		} else {
			idx = make([]uint32, len(p))
			for i := range idx {
				idx[i] = uint32(i)
			}
		}

		base := uint32(len(pos))
		for i, v := range p {
			pos = append(pos, mgl32.Vec3(v))
			if len(n) == len(p) {
				norm = append(norm, mgl32.Vec3(n[i]))
				hasNorm = append(hasNorm, true)
			} else {
				norm = append(norm, mgl32.Vec3{})
				hasNorm = append(hasNorm, false)
			}
		}
		for i := 0; i+2 < len(idx); i += 3 {
			a, b, c := idx[i], idx[i+1], idx[i+2]
			if int(a) >= len(p) || int(b) >= len(p) || int(c) >= len(p) {
				return fmt.Errorf("primitive %d: index out of range", pi)
			}
			indices = append(indices, base+a, base+b, base+c)
		}
	}
	fillFaceNormals(pos, norm, hasNorm, indices)

	m.Positions = pos
	m.Normals = norm
	m.Indices = indices
	m.Invalidate()
	return nil
}

func (l *gltfLoader) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(l.doc.Accessors) || l.doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return l.doc.Accessors[idx], nil
}

// fillFaceNormals accumulates face normals into vertices that came without one.
func fillFaceNormals(pos, norm []mgl32.Vec3, hasNorm []bool, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		fn := pos[b].Sub(pos[a]).Cross(pos[c].Sub(pos[a]))
		for _, idx := range []uint32{a, b, c} {
			if !hasNorm[idx] {
				norm[idx] = norm[idx].Add(fn)
			}
		}
	}
	for i := range norm {
		norm[i] = NormalizeOrZero(norm[i])
	}
}

func nodeTransform(n *gltf.Node) *Transform {
	t := NewTransform()

	var mat mgl32.Mat4
	for i, v := range n.Matrix {
		mat[i] = float32(v)
	}
	if mat != (mgl32.Mat4{}) && mat != mgl32.Ident4() {
		// glTF matrices are column major like mgl32
		t.Position = mat.Col(3).Vec3()
		sx, sy, sz := mat.Col(0).Vec3().Len(), mat.Col(1).Vec3().Len(), mat.Col(2).Vec3().Len()
		t.Scale = mgl32.Vec3{sx, sy, sz}
		rot := mgl32.Ident4()
		rot.SetCol(0, mat.Col(0).Vec3().Mul(safeRecip(sx)).Vec4(0))
		rot.SetCol(1, mat.Col(1).Vec3().Mul(safeRecip(sy)).Vec4(0))
		rot.SetCol(2, mat.Col(2).Vec3().Mul(safeRecip(sz)).Vec4(0))
		t.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
		return t
	}

	tr, r, s := n.TranslationOrDefault(), n.RotationOrDefault(), n.ScaleOrDefault()
	t.Position = mgl32.Vec3{float32(tr[0]), float32(tr[1]), float32(tr[2])}
	t.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	t.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
	return t
}

// SaveGLB writes the given meshes and their descendants as a binary glTF
// file. Each root becomes a scene node; every mesh keeps its local transform.
func SaveGLB(path string, roots ...*Mesh) error {
	doc := gltf.NewDocument()
	if len(doc.Scenes) == 0 {
		doc.Scenes = []*gltf.Scene{{}}
		doc.Scene = gltf.Index(0)
	}
	for _, root := range roots {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, addGLTFNode(doc, root))
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

func addGLTFNode(doc *gltf.Document, m *Mesh) int {
	t := m.Transform
	q := t.Rotation.Normalize()
	node := &gltf.Node{
		Name:        m.Name,
		Translation: [3]float64{float64(t.Position.X()), float64(t.Position.Y()), float64(t.Position.Z())},
		Rotation:    [4]float64{float64(q.V.X()), float64(q.V.Y()), float64(q.V.Z()), float64(q.W)},
		Scale:       [3]float64{float64(t.Scale.X()), float64(t.Scale.Y()), float64(t.Scale.Z())},
	}

	if m.TriangleCount() > 0 {
		pos := make([][3]float32, len(m.Positions))
		for i, p := range m.Positions {
			pos[i] = p
		}
		attrs := map[string]int{gltf.POSITION: modeler.WritePosition(doc, pos)}
		if len(m.Normals) == len(m.Positions) {
			norm := make([][3]float32, len(m.Normals))
			for i, n := range m.Normals {
				norm[i] = n
			}
			attrs[gltf.NORMAL] = modeler.WriteNormal(doc, norm)
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: m.Name,
			Primitives: []*gltf.Primitive{{
				Indices:    gltf.Index(modeler.WriteIndices(doc, m.Indices)),
				Attributes: attrs,
			}},
		})
		node.Mesh = gltf.Index(len(doc.Meshes) - 1)
	}

	idx := len(doc.Nodes)
	doc.Nodes = append(doc.Nodes, node)
	for _, c := range m.children {
		node.Children = append(node.Children, addGLTFNode(doc, c))
	}
	return idx
}
