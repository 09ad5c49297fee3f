package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box. The zero value is empty.
type AABB struct {
	Min, Max mgl64.Vec3
	// NotEmpty is set once the box contains at least one point.
	NotEmpty bool
}

// NewAABB returns the smallest box containing all points.
func NewAABB(points []mgl64.Vec3) AABB {
	var box AABB
	for _, p := range points {
		box = box.Expand(p)
	}
	return box
}

// NewAABBMinMax creates a box from two corners, swapping components as needed.
func NewAABBMinMax(a, b mgl64.Vec3) AABB {
	box := AABB{NotEmpty: true}
	for i := 0; i < 3; i++ {
		box.Min[i] = gomath.Min(a[i], b[i])
		box.Max[i] = gomath.Max(a[i], b[i])
	}
	return box
}

// IsEmpty reports whether the box holds no points.
func (b AABB) IsEmpty() bool {
	return !b.NotEmpty
}

// Expand returns the box grown to contain p.
func (b AABB) Expand(p mgl64.Vec3) AABB {
	if !b.NotEmpty {
		return AABB{Min: p, Max: p, NotEmpty: true}
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = gomath.Min(b.Min[i], p[i])
		b.Max[i] = gomath.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	if !o.NotEmpty {
		return b
	}
	if !b.NotEmpty {
		return o
	}
	return b.Expand(o.Min).Expand(o.Max)
}

// Pad grows the box by d on every side.
func (b AABB) Pad(d float64) AABB {
	if !b.NotEmpty {
		return b
	}
	pad := mgl64.Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(pad), Max: b.Max.Add(pad), NotEmpty: true}
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the half extents of the box.
func (b AABB) Radius() mgl64.Vec3 {
	if !b.NotEmpty {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Contains reports whether p lies inside the box, with a small tolerance.
func (b AABB) Contains(p mgl64.Vec3) bool {
	if !b.NotEmpty {
		return false
	}
	const eps = 1e-9
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i]-eps || p[i] > b.Max[i]+eps {
			return false
		}
	}
	return true
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transform returns the box containing all eight corners moved by m.
func (b AABB) Transform(m mgl64.Mat4) AABB {
	if !b.NotEmpty {
		return b
	}
	var out AABB
	for _, c := range b.Corners() {
		out = out.Expand(mgl64.TransformCoordinate(c, m))
	}
	return out
}

// CollisionDist returns the distance along r to the box, or a negative value
// if the ray misses. A ray starting inside the box returns the exit distance.
func (b AABB) CollisionDist(r Ray) float64 {
	if !b.NotEmpty {
		return -1
	}
	tmin := -gomath.MaxFloat64
	tmax := gomath.MaxFloat64

	for i := 0; i < 3; i++ {
		if r.Dir[i] != 0 {
			t1 := (b.Min[i] - r.Start[i]) / r.Dir[i]
			t2 := (b.Max[i] - r.Start[i]) / r.Dir[i]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			tmin = gomath.Max(tmin, t1)
			tmax = gomath.Min(tmax, t2)
		} else if r.Start[i] < b.Min[i] || r.Start[i] > b.Max[i] {
			return -1
		}
	}

	if tmax < tmin || tmax < 0 {
		return -1
	}
	if tmin < 0 {
		return tmax
	}
	return tmin
}
