// Package camera provides the perspective camera used for drawing and
// picking, plus controllers that move it.
package camera

import (
	gomath "math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/pkg/math"
)

// Up is the world up axis. The simulation ground is the XY plane.
var Up = mgl64.Vec3{0, 0, 1}

// Snapshot is an immutable copy of a camera's state. It implements
// gpu.View and is safe to share between threads.
type Snapshot struct {
	Eye, Target, UpDir mgl64.Vec3
	FOV                float64 // vertical, radians
	Aspect             float64
	Near, Far          float64

	view, proj mgl64.Mat4
	planes     [6]mgl64.Vec4
}

func newSnapshot(eye, target, up mgl64.Vec3, fov, aspect, near, far float64) Snapshot {
	s := Snapshot{
		Eye: eye, Target: target, UpDir: up,
		FOV: fov, Aspect: aspect, Near: near, Far: far,
	}
	s.view = mgl64.LookAtV(eye, target, up)
	s.proj = mgl64.Perspective(fov, aspect, near, far)

	vp := s.proj.Mul4(s.view)
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	s.planes = [6]mgl64.Vec4{
		r3.Add(r0), r3.Sub(r0),
		r3.Add(r1), r3.Sub(r1),
		r3.Add(r2), r3.Sub(r2),
	}
	return s
}

// ViewMat returns the world to eye transform.
func (s Snapshot) ViewMat() mgl64.Mat4 { return s.view }

// ProjMat returns the projection matrix.
func (s Snapshot) ProjMat() mgl64.Mat4 { return s.proj }

// Position returns the eye position.
func (s Snapshot) Position() mgl64.Vec3 { return s.Eye }

// Direction returns the unit view direction.
func (s Snapshot) Direction() mgl64.Vec3 { return s.Target.Sub(s.Eye).Normalize() }

// Collides reports whether box is at least partly inside the frustum.
func (s Snapshot) Collides(box math.AABB) bool {
	if box.IsEmpty() {
		return false
	}
	for _, pl := range s.planes {
		// Corner farthest along the plane normal.
		var p mgl64.Vec3
		for i := 0; i < 3; i++ {
			if pl[i] >= 0 {
				p[i] = box.Max[i]
			} else {
				p[i] = box.Min[i]
			}
		}
		if pl[0]*p[0]+pl[1]*p[1]+pl[2]*p[2]+pl[3] < 0 {
			return false
		}
	}
	return true
}

// Camera is a perspective camera shared between the input thread, which
// moves it, and the render thread, which reads it once per frame.
type Camera struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New creates a camera looking from eye at target.
func New(eye, target mgl64.Vec3, fovDegrees, aspect float64) *Camera {
	c := &Camera{}
	c.snap = newSnapshot(eye, target, upFor(eye, target), mgl64.DegToRad(fovDegrees), aspect, 0.1, 10000)
	return c
}

// upFor returns Up unless the view direction is parallel to it.
func upFor(eye, target mgl64.Vec3) mgl64.Vec3 {
	dir := target.Sub(eye)
	if dir.Len() == 0 || gomath.Abs(dir.Normalize().Dot(Up)) > 0.9999 {
		return mgl64.Vec3{0, 1, 0}
	}
	return Up
}

// Snapshot returns the current state.
func (c *Camera) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// LookAt moves the camera.
func (c *Camera) LookAt(eye, target mgl64.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	c.snap = newSnapshot(eye, target, upFor(eye, target), s.FOV, s.Aspect, s.Near, s.Far)
}

// SetAspect updates the aspect ratio after a window resize.
func (c *Camera) SetAspect(aspect float64) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	c.snap = newSnapshot(s.Eye, s.Target, s.UpDir, s.FOV, aspect, s.Near, s.Far)
}

// SetClip updates the near and far planes.
func (c *Camera) SetClip(near, far float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	c.snap = newSnapshot(s.Eye, s.Target, s.UpDir, s.FOV, s.Aspect, near, far)
}

// ViewMat implements gpu.View.
func (c *Camera) ViewMat() mgl64.Mat4 { return c.Snapshot().view }

// ProjMat implements gpu.View.
func (c *Camera) ProjMat() mgl64.Mat4 { return c.Snapshot().proj }

// Position implements gpu.View.
func (c *Camera) Position() mgl64.Vec3 { return c.Snapshot().Eye }

// Collides implements gpu.View.
func (c *Camera) Collides(box math.AABB) bool { return c.Snapshot().Collides(box) }
