package core

// MeshSet is the registry of meshes eligible as beam targets.
type MeshSet struct {
	ids   map[MeshId]struct{}
	order []*Mesh
}

func NewMeshSet(meshes ...*Mesh) *MeshSet {
	s := &MeshSet{ids: make(map[MeshId]struct{})}
	s.Add(meshes...)
	return s
}

func (s *MeshSet) Add(meshes ...*Mesh) {
	for _, m := range meshes {
		if m == nil {
			continue
		}
		if _, ok := s.ids[m.ID]; ok {
			continue
		}
		s.ids[m.ID] = struct{}{}
		s.order = append(s.order, m)
	}
}

func (s *MeshSet) Contains(m *Mesh) bool {
	if s == nil || m == nil {
		return false
	}
	_, ok := s.ids[m.ID]
	return ok
}

func (s *MeshSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

func (s *MeshSet) Meshes() []*Mesh {
	if s == nil {
		return nil
	}
	return s.order
}

// IsInteractive = pickable && enabled && member of the set.
func (s *MeshSet) IsInteractive(m *Mesh) bool {
	return m != nil && m.Pickable && m.IsEnabled() && s.Contains(m)
}
