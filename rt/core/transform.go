package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Normalize().Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t *Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(safeRecip(t.Scale.X()), safeRecip(t.Scale.Y()), safeRecip(t.Scale.Z()))
	invRotate := t.Rotation.Normalize().Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// TransformCoordinates applies m to p as a point, including the perspective divide.
func TransformCoordinates(p mgl32.Vec3, m mgl32.Mat4) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1.0))
	w := v.W()
	if w == 0 || w == 1 {
		return v.Vec3()
	}
	return v.Vec3().Mul(1.0 / w)
}

// TransformNormal applies m to n as a direction (no translation).
func TransformNormal(n mgl32.Vec3, m mgl32.Mat4) mgl32.Vec3 {
	return m.Mul4x1(n.Vec4(0.0)).Vec3()
}

// NormalizeOrZero returns v scaled to unit length, or the zero vector when v has
// no usable length. mgl32's Normalize yields NaNs for zero vectors.
func NormalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 || l != l {
		return mgl32.Vec3{}
	}
	return v.Mul(1.0 / l)
}

func safeRecip(v float32) float32 {
	if v == 0 {
		return 0
	}
	return 1.0 / v
}
