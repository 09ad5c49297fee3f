// Package math provides the geometry used by the scene, picking and
// interaction code: rays, planes, bounding boxes and convex hulls.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half-line in 3D space. Dir is normalized.
type Ray struct {
	Start mgl64.Vec3
	Dir   mgl64.Vec3
}

// NewRay builds a ray from a start point and a (not necessarily unit) direction.
func NewRay(start, dir mgl64.Vec3) Ray {
	return Ray{Start: start, Dir: dir.Normalize()}
}

// PointAtDist returns Start + Dir*dist.
func (r Ray) PointAtDist(dist float64) mgl64.Vec3 {
	return r.Start.Add(r.Dir.Mul(dist))
}

// Valid reports whether the ray has a usable direction.
func (r Ray) Valid() bool {
	return r.Dir.LenSqr() > 0
}

// RaySpace returns a matrix that maps world space into a space where the ray
// starts at the origin and points down -Z.
func RaySpace(r Ray) mgl64.Mat4 {
	up := mgl64.Vec3{0, 0, 1}
	if gomath.Abs(r.Dir.Dot(up)) > 0.999 {
		up = mgl64.Vec3{0, 1, 0}
	}
	return mgl64.LookAtV(r.Start, r.Start.Add(r.Dir), up)
}

// AngleToRay returns the angle (radians) between the ray direction and the
// direction from the ray start to p, given a RaySpace matrix. Points behind
// the ray start return a negative value.
func AngleToRay(raySpace mgl64.Mat4, p mgl64.Vec3) float64 {
	rs := mgl64.TransformCoordinate(p, raySpace)
	if rs.Z() >= 0 {
		return -1
	}
	xy := gomath.Hypot(rs.X(), rs.Y())
	return gomath.Atan2(xy, -rs.Z())
}

// RayClosePoint returns the point on segment ab closest to the ray, given a
// RaySpace matrix. The closeness metric is the perpendicular distance to the
// ray axis, measured in ray space.
func RayClosePoint(raySpace mgl64.Mat4, a, b mgl64.Vec3) mgl64.Vec3 {
	ra := mgl64.TransformCoordinate(a, raySpace)
	rb := mgl64.TransformCoordinate(b, raySpace)

	// Project onto the XY plane of ray space, where the ray is the origin.
	ax, ay := ra.X(), ra.Y()
	dx, dy := rb.X()-ax, rb.Y()-ay
	den := dx*dx + dy*dy
	t := 0.0
	if den > 0 {
		t = -(ax*dx + ay*dy) / den
	}
	t = mgl64.Clamp(t, 0, 1)
	return a.Add(b.Sub(a).Mul(t))
}

// GeometricMedian returns the point minimising the summed distance to all
// points (Weiszfeld iteration, seeded with the centroid).
func GeometricMedian(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}
	var guess mgl64.Vec3
	for _, p := range points {
		guess = guess.Add(p)
	}
	guess = guess.Mul(1.0 / float64(len(points)))
	if len(points) < 3 {
		return guess
	}

	for iter := 0; iter < 64; iter++ {
		var num mgl64.Vec3
		den := 0.0
		for _, p := range points {
			d := p.Sub(guess).Len()
			if d < 1e-12 {
				continue
			}
			num = num.Add(p.Mul(1 / d))
			den += 1 / d
		}
		if den == 0 {
			break
		}
		next := num.Mul(1 / den)
		if next.Sub(guess).Len() < 1e-9 {
			return next
		}
		guess = next
	}
	return guess
}
