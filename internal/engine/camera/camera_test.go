package camera

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/pkg/math"
)

func box(center mgl64.Vec3, half float64) math.AABB {
	h := mgl64.Vec3{half, half, half}
	return math.NewAABBMinMax(center.Sub(h), center.Add(h))
}

func TestCollides(t *testing.T) {
	cam := New(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{}, 60, 1)

	tests := []struct {
		name string
		box  math.AABB
		want bool
	}{
		{"at target", box(mgl64.Vec3{}, 1), true},
		{"behind camera", box(mgl64.Vec3{20, 0, 0}, 1), false},
		{"far to the side", box(mgl64.Vec3{0, 500, 0}, 1), false},
		{"beyond far plane", box(mgl64.Vec3{-20000, 0, 0}, 1), false},
		{"straddling near plane", box(mgl64.Vec3{10, 0, 0}, 1), true},
		{"empty", math.AABB{}, false},
	}
	for _, tt := range tests {
		if got := cam.Collides(tt.box); got != tt.want {
			t.Errorf("Collides(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTopDownUp(t *testing.T) {
	// Looking straight down must not produce a degenerate view matrix.
	cam := New(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, 60, 1)
	v := cam.ViewMat()
	p := mgl64.TransformCoordinate(mgl64.Vec3{}, v)
	if gomath.IsNaN(p.Z()) || gomath.Abs(p.Z()+10) > 1e-9 {
		t.Errorf("origin in eye space = %v, want z=-10", p)
	}
}

func TestOrbitController(t *testing.T) {
	cam := New(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}, 60, 1)
	oc := NewOrbitController(cam)

	if !oc.CheckForUpdate() {
		t.Fatal("CheckForUpdate() = false after construction, want true")
	}
	if oc.CheckForUpdate() {
		t.Error("CheckForUpdate() = true without changes, want false")
	}
	if d := cam.Position().Sub(oc.Center).Len(); gomath.Abs(d-oc.Distance) > 1e-9 {
		t.Errorf("eye distance = %v, want %v", d, oc.Distance)
	}

	oc.HandleZoom(1)
	if !oc.CheckForUpdate() {
		t.Error("CheckForUpdate() = false after zoom, want true")
	}
	if oc.Distance >= 20 {
		t.Errorf("Distance after zoom in = %v, want < 20", oc.Distance)
	}

	oc.SetXYPlane()
	oc.CheckForUpdate()
	eye := cam.Position()
	if eye.Z() <= 0 || gomath.Hypot(eye.X(), eye.Y()) > 0.1 {
		t.Errorf("XY plane view eye = %v, want above the center", eye)
	}

	oc.FitToBounds(box(mgl64.Vec3{5, 5, 0}, 2))
	oc.CheckForUpdate()
	if got := cam.Snapshot().Target; got != (mgl64.Vec3{5, 5, 0}) {
		t.Errorf("target after FitToBounds = %v, want (5,5,0)", got)
	}
}

func TestHandleMovementPansInView(t *testing.T) {
	oc := NewOrbitController(New(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}, 60, 1))
	oc.Yaw = 0 // eye on +X, looking toward -X
	oc.HandleMovement(1, 0, 0)
	if oc.Center.X() >= 0 {
		t.Errorf("Center after forward = %v, want negative X", oc.Center)
	}
	oc.Center = mgl64.Vec3{}
	oc.HandleMovement(0, 1, 0)
	// Looking down -X with Z up, right is +Y.
	if oc.Center.Y() <= 0 {
		t.Errorf("Center after right = %v, want positive Y", oc.Center)
	}
}
