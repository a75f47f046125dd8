package lasers

import (
	"errors"
	"fmt"

	"github.com/gekko3d/lasers/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrColorCount   = errors.New("point and color counts differ")
	ErrTooFewPoints = errors.New("line needs at least two points")
)

// LineMeshComponent is a renderable polyline with one colour per point.
// Line meshes are decoration only and are never picked.
type LineMeshComponent struct {
	Name    string
	Points  []mgl32.Vec3
	Colors  []core.Color
	Version uint64
}

// LaserTag binds a line entity to a slot of the LaserRig.
type LaserTag struct {
	Index int
}

func NewLineMesh(name string, points []mgl32.Vec3, colors []core.Color) (LineMeshComponent, error) {
	l := LineMeshComponent{Name: name}
	if err := l.Update(points, colors); err != nil {
		return LineMeshComponent{}, err
	}
	return l, nil
}

// Update replaces the whole polyline in place. The previous geometry is kept
// when the input is rejected.
func (l *LineMeshComponent) Update(points []mgl32.Vec3, colors []core.Color) error {
	if len(points) < 2 {
		return fmt.Errorf("update %q: %w (got %d)", l.Name, ErrTooFewPoints, len(points))
	}
	if len(points) != len(colors) {
		return fmt.Errorf("update %q: %w (%d points, %d colors)", l.Name, ErrColorCount, len(points), len(colors))
	}

	l.Points = append(l.Points[:0], points...)
	l.Colors = append(l.Colors[:0], colors...)
	l.Version++
	return nil
}

// Segments calls fn for every consecutive pair of points.
func (l *LineMeshComponent) Segments(fn func(a, b mgl32.Vec3, ca, cb core.Color)) {
	for i := 0; i+1 < len(l.Points); i++ {
		fn(l.Points[i], l.Points[i+1], l.Colors[i], l.Colors[i+1])
	}
}
