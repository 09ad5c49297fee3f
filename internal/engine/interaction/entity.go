// Package interaction implements selection dragging: moving, resizing and
// rotating the selected entity through its handles, and editing polylines.
package interaction

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/pkg/math"
)

// Entity is a selectable object the controller can manipulate. Setters
// are called from the input goroutine; implementations guard their own
// state.
type Entity interface {
	PickingID() int64
	Movable() bool

	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	Size() mgl64.Vec3
	SetSize(s mgl64.Vec3)
	Orientation() mgl64.Vec3
	SetOrientation(o mgl64.Vec3)
	// Alignment is the point of the unit box, in [-0.5, 0.5]^3, that sits
	// at Position.
	Alignment() mgl64.Vec3

	// Dragged moves the entity by a delta in its region's space.
	Dragged(delta mgl64.Vec3)
}

// HasScreenPoints is implemented by entities drawn as a polyline.
type HasScreenPoints interface {
	// ScreenPoints returns a copy of the polyline in world space.
	ScreenPoints() []mgl64.Vec3
	// SetScreenPoints replaces the polyline.
	SetScreenPoints(points []mgl64.Vec3)
}

// Regional is implemented by entities positioned inside a region with its
// own transform.
type Regional interface {
	RegionTransform() math.Transform
}

// GlobalTransform returns the entity's position and rotation, without its
// size.
func GlobalTransform(e Entity) math.Transform {
	return math.NewTransform(e.Position(), e.Orientation(), 1)
}

// TransMatrix maps the entity's unit box into world space.
func TransMatrix(e Entity) mgl64.Mat4 {
	size := e.Size()
	align := e.Alignment()
	return GlobalTransform(e).Mat4().
		Mul4(mgl64.Scale3D(size.X(), size.Y(), size.Z())).
		Mul4(mgl64.Translate3D(-align.X(), -align.Y(), -align.Z()))
}
