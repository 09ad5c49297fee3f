package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane is the set of points p where Normal·p == Dist. Normal is unit length.
type Plane struct {
	Normal mgl64.Vec3
	Dist   float64
}

// XYPlane is the z == 0 plane.
var XYPlane = Plane{Normal: mgl64.Vec3{0, 0, 1}}

// NewPlane builds a plane from a normal and signed distance from the origin.
func NewPlane(normal mgl64.Vec3, dist float64) Plane {
	return Plane{Normal: normal.Normalize(), Dist: dist}
}

// PlaneThrough builds a plane with the given normal passing through p.
func PlaneThrough(normal, p mgl64.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Dist: n.Dot(p)}
}

// Transform returns the plane moved into the space described by m.
func (pl Plane) Transform(m mgl64.Mat4) Plane {
	point := mgl64.TransformCoordinate(pl.Normal.Mul(pl.Dist), m)
	// Normals transform by the inverse transpose.
	nm := m.Inv().Transpose()
	n := nm.Mul4x1(pl.Normal.Vec4(0)).Vec3().Normalize()
	return Plane{Normal: n, Dist: n.Dot(point)}
}

// CollisionDist returns the distance along r at which it meets the plane.
// It returns +Inf if the ray is parallel to the plane and a negative value if
// the plane is behind the ray start.
func (pl Plane) CollisionDist(r Ray) float64 {
	den := pl.Normal.Dot(r.Dir)
	if den == 0 {
		return gomath.Inf(1)
	}
	return (pl.Dist - pl.Normal.Dot(r.Start)) / den
}

// usableDist reports whether a collision distance names a point in front of
// the ray start.
func usableDist(d float64) bool {
	return d >= 0 && !gomath.IsInf(d, 0) && !gomath.IsNaN(d)
}

// Intersect returns the point where r meets the plane, and false if there is
// no usable intersection (parallel, or behind the ray start).
func (pl Plane) Intersect(r Ray) (mgl64.Vec3, bool) {
	d := pl.CollisionDist(r)
	if !usableDist(d) {
		return mgl64.Vec3{}, false
	}
	return r.PointAtDist(d), true
}

// PlaneCollisionDiff returns the difference between where current and last
// meet the plane. ok is false when either intersection is unusable.
func PlaneCollisionDiff(pl Plane, current, last Ray) (diff mgl64.Vec3, ok bool) {
	cp, ok1 := pl.Intersect(current)
	lp, ok2 := pl.Intersect(last)
	if !ok1 || !ok2 {
		return mgl64.Vec3{}, false
	}
	return cp.Sub(lp), true
}
