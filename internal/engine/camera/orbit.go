package camera

import (
	gomath "math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/pkg/math"
)

// Controller moves a camera in response to input. CheckForUpdate is
// called by the render loop at the start of every frame and reports
// whether the camera moved.
type Controller interface {
	CheckForUpdate() bool
}

// OrbitController orbits a camera around a center point.
type OrbitController struct {
	mu  sync.Mutex
	cam *Camera

	Center   mgl64.Vec3
	Distance float64
	Pitch    float64 // elevation above the XY plane, radians
	Yaw      float64 // rotation around Z, radians

	MinDistance float64
	MaxDistance float64
	MinPitch    float64
	MaxPitch    float64

	DragSensitivity float64
	ZoomSensitivity float64

	dirty bool
}

// NewOrbitController creates a controller driving cam with default limits.
func NewOrbitController(cam *Camera) *OrbitController {
	c := &OrbitController{
		cam:             cam,
		Distance:        20,
		Pitch:           0.6,
		MinDistance:     0.5,
		MaxDistance:     5000,
		MinPitch:        -1.55,
		MaxPitch:        1.57,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
	c.SetIsometric()
	return c
}

// Eye returns the camera position implied by the orbit parameters.
func (c *OrbitController) Eye() mgl64.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eyeLocked()
}

func (c *OrbitController) eyeLocked() mgl64.Vec3 {
	cp := gomath.Cos(c.Pitch)
	off := mgl64.Vec3{
		cp * gomath.Cos(c.Yaw),
		cp * gomath.Sin(c.Yaw),
		gomath.Sin(c.Pitch),
	}
	return c.Center.Add(off.Mul(c.Distance))
}

// HandleDrag rotates the orbit by a mouse delta in pixels.
func (c *OrbitController) HandleDrag(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Yaw -= dx * c.DragSensitivity
	c.Pitch = mgl64.Clamp(c.Pitch+dy*c.DragSensitivity, c.MinPitch, c.MaxPitch)
	c.dirty = true
}

// HandleZoom scales the orbit distance by a wheel delta.
func (c *OrbitController) HandleZoom(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Distance = mgl64.Clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
	c.dirty = true
}

// HandleMovement pans the center in the XY plane relative to the view.
func (c *OrbitController) HandleMovement(forward, right, up float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	speed := c.Distance * 0.01
	fwd := mgl64.Vec3{-gomath.Cos(c.Yaw), -gomath.Sin(c.Yaw), 0}
	side := mgl64.Vec3{-gomath.Sin(c.Yaw), gomath.Cos(c.Yaw), 0}
	move := fwd.Mul(forward).Add(side.Mul(right)).Add(Up.Mul(up))
	c.Center = c.Center.Add(move.Mul(speed))
	c.dirty = true
}

// SetIsometric looks down on the center from the standard isometric angle.
func (c *OrbitController) SetIsometric() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Yaw = -gomath.Pi / 4
	c.Pitch = gomath.Atan(1 / gomath.Sqrt2)
	c.dirty = true
}

// SetXYPlane looks straight down the Z axis.
func (c *OrbitController) SetXYPlane() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Yaw = -gomath.Pi / 2
	c.Pitch = c.MaxPitch
	c.dirty = true
}

// FitToBounds centers the orbit on box and backs off far enough to see it.
func (c *OrbitController) FitToBounds(box math.AABB) {
	if box.IsEmpty() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Center = box.Center()
	c.Distance = mgl64.Clamp(box.Radius().Len()*3, c.MinDistance, c.MaxDistance)
	c.dirty = true
}

// CheckForUpdate implements Controller.
func (c *OrbitController) CheckForUpdate() bool {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return false
	}
	c.dirty = false
	eye, center := c.eyeLocked(), c.Center
	c.mu.Unlock()

	c.cam.LookAt(eye, center)
	return true
}
