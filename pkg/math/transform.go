package math

import "github.com/go-gl/mathgl/mgl64"

// Transform is a translation, rotation and uniform scale, applied as
// scale, then rotate, then translate.
type Transform struct {
	Pos   mgl64.Vec3
	Rot   mgl64.Quat
	Scale float64
}

// IdentityTransform returns a transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Rot: mgl64.QuatIdent(), Scale: 1}
}

// NewTransform creates a transform from a position and Euler orientation
// (radians, applied X then Y then Z).
func NewTransform(pos, orient mgl64.Vec3, scale float64) Transform {
	return Transform{Pos: pos, Rot: EulerQuat(orient), Scale: scale}
}

// EulerQuat converts XYZ Euler angles into a rotation applied X first, Z last.
func EulerQuat(orient mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(orient.X(), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(orient.Y(), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(orient.Z(), mgl64.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx)
}

// Mat4 returns the transform as a matrix.
func (t Transform) Mat4() mgl64.Mat4 {
	return mgl64.Translate3D(t.Pos.X(), t.Pos.Y(), t.Pos.Z()).
		Mul4(t.Rot.Mat4()).
		Mul4(mgl64.Scale3D(t.Scale, t.Scale, t.Scale))
}

// Apply transforms a point.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rot.Rotate(p.Mul(t.Scale)).Add(t.Pos)
}

// Inverse returns the transform that undoes t. A zero scale yields the
// identity scale so the result stays finite.
func (t Transform) Inverse() Transform {
	s := 1.0
	if t.Scale != 0 {
		s = 1 / t.Scale
	}
	inv := t.Rot.Inverse()
	return Transform{
		Pos:   inv.Rotate(t.Pos.Mul(-s)),
		Rot:   inv,
		Scale: s,
	}
}

// Mul returns the transform equivalent to applying o, then t.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		Pos:   t.Apply(o.Pos),
		Rot:   t.Rot.Mul(o.Rot),
		Scale: t.Scale * o.Scale,
	}
}

// MulComponents multiplies two vectors component-wise.
func MulComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
