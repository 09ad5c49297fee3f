package math

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPlaneCollisionDist(t *testing.T) {
	tests := []struct {
		name string
		ray  Ray
		want float64
	}{
		{"straight down", NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1}), 10},
		{"behind", NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 1}), -10},
		{"parallel", NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{1, 0, 0}), gomath.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := XYPlane.CollisionDist(tt.ray)
			if got != tt.want {
				t.Errorf("CollisionDist() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlaneTransform(t *testing.T) {
	m := mgl64.Translate3D(0, 0, 5)
	pl := XYPlane.Transform(m)
	r := NewRay(mgl64.Vec3{1, 1, 10}, mgl64.Vec3{0, 0, -1})
	p, ok := pl.Intersect(r)
	if !ok {
		t.Fatal("Intersect() ok = false, want true")
	}
	if !p.ApproxEqual(mgl64.Vec3{1, 1, 5}) {
		t.Errorf("Intersect() = %v, want (1,1,5)", p)
	}
}

func TestPlaneCollisionDiff(t *testing.T) {
	cur := NewRay(mgl64.Vec3{2, 0, 10}, mgl64.Vec3{0, 0, -1})
	last := NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1})
	diff, ok := PlaneCollisionDiff(XYPlane, cur, last)
	if !ok || !diff.ApproxEqual(mgl64.Vec3{2, 0, 0}) {
		t.Errorf("PlaneCollisionDiff() = %v, %v, want (2,0,0), true", diff, ok)
	}

	away := NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 1})
	if _, ok := PlaneCollisionDiff(XYPlane, cur, away); ok {
		t.Error("PlaneCollisionDiff() ok = true for a ray pointing away")
	}
}

func TestAABBCollisionDist(t *testing.T) {
	box := NewAABBMinMax(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})
	tests := []struct {
		name string
		ray  Ray
		want float64
	}{
		{"hit", NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1}), 9},
		{"inside", NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1}), 1},
		{"miss", NewRay(mgl64.Vec3{5, 0, 10}, mgl64.Vec3{0, 0, -1}), -1},
		{"behind", NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 1}), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.CollisionDist(tt.ray); got != tt.want {
				t.Errorf("CollisionDist() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformInverse(t *testing.T) {
	tr := NewTransform(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0.1, 0.2, 0.3}, 2)
	p := mgl64.Vec3{4, -5, 6}
	back := tr.Inverse().Apply(tr.Apply(p))
	if !back.ApproxEqualThreshold(p, 1e-9) {
		t.Errorf("Inverse().Apply(Apply(p)) = %v, want %v", back, p)
	}

	viaMat := mgl64.TransformCoordinate(p, tr.Mat4())
	if !viaMat.ApproxEqualThreshold(tr.Apply(p), 1e-9) {
		t.Errorf("Mat4() result %v differs from Apply() %v", viaMat, tr.Apply(p))
	}
}

func TestGeometricMedian(t *testing.T) {
	pts := []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0}}
	got := GeometricMedian(pts)
	if !got.ApproxEqualThreshold(mgl64.Vec3{1, 1, 0}, 1e-6) {
		t.Errorf("GeometricMedian() = %v, want (1,1,0)", got)
	}
}

func TestAngleToRay(t *testing.T) {
	r := NewRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1})
	rs := RaySpace(r)
	if a := AngleToRay(rs, mgl64.Vec3{0, 0, 0}); gomath.Abs(a) > 1e-9 {
		t.Errorf("AngleToRay(on axis) = %v, want 0", a)
	}
	if a := AngleToRay(rs, mgl64.Vec3{0, 0, 20}); a >= 0 {
		t.Errorf("AngleToRay(behind) = %v, want negative", a)
	}
	want := gomath.Atan2(1, 10)
	if a := AngleToRay(rs, mgl64.Vec3{1, 0, 0}); gomath.Abs(a-want) > 1e-9 {
		t.Errorf("AngleToRay(off axis) = %v, want %v", a, want)
	}
}
