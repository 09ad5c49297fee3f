package interaction

import (
	gomath "math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/pkg/math"
)

const (
	// minResize is the size below which a resized axis flips its handle.
	minResize = 0.00005
	// flippedSize replaces a size that fell below minResize.
	flippedSize = 0.0001
)

// drag holds one mouse move resolved against the selected entity's XY
// plane, in world and entity space.
type drag struct {
	ent      Entity
	ev       DragEvent
	transMat mgl64.Mat4

	current, last mgl64.Vec3 // world space plane hits
	delta         mgl64.Vec3
	entDelta      mgl64.Vec3
}

// newDrag intersects both rays with the entity plane. It returns nil when
// either hit is unusable.
func newDrag(e Entity, ev DragEvent) *drag {
	plane := math.XYPlane.Transform(GlobalTransform(e).Mat4())
	cur, ok1 := plane.Intersect(ev.Current)
	last, ok2 := plane.Intersect(ev.Last)
	if !ok1 || !ok2 {
		return nil
	}

	transMat := TransMatrix(e)
	inv := transMat.Inv()
	entCur := mgl64.TransformCoordinate(cur, inv)
	entLast := mgl64.TransformCoordinate(last, inv)

	return &drag{
		ent:      e,
		ev:       ev,
		transMat: transMat,
		current:  cur,
		last:     last,
		delta:    cur.Sub(last),
		entDelta: entCur.Sub(entLast),
	}
}

// zDiff returns the height change of the two rays through a camera facing
// plane at center, or 0 when either ray misses it.
func (d *drag) zDiff(center mgl64.Vec3) float64 {
	plane := math.PlaneThrough(d.ev.Current.Dir, center)
	cur, ok1 := plane.Intersect(d.ev.Current)
	last, ok2 := plane.Intersect(d.ev.Last)
	if !ok1 || !ok2 {
		return 0
	}
	return cur.Z() - last.Z()
}

func (d *drag) move() {
	pos := d.ent.Position()
	if d.ev.Mods.Shift() {
		pos[2] += d.zDiff(pos)
	} else {
		pos = pos.Add(d.delta)
	}
	d.ent.SetPosition(pos)
}

// resizeSign gives the direction each resize handle grows the X and Y
// axes. The fixed point is the opposite side of the unit box.
var resizeSign = map[picking.HandleID][2]float64{
	picking.ResizePosX: {1, 0},
	picking.ResizeNegX: {-1, 0},
	picking.ResizePosY: {0, 1},
	picking.ResizeNegY: {0, -1},
	picking.ResizePXPY: {1, 1},
	picking.ResizePXNY: {1, -1},
	picking.ResizeNXPY: {-1, 1},
	picking.ResizeNXNY: {-1, -1},
}

// resize applies h and returns the handle to keep dragging with, which is
// the mirror handle if an axis collapsed.
func (d *drag) resize(h picking.HandleID) picking.HandleID {
	sign := resizeSign[h]
	size := d.ent.Size()
	scale := size
	scale[0] += sign[0] * d.entDelta.X() * size.X()
	scale[1] += sign[1] * d.entDelta.Y() * size.Y()
	fixed := mgl64.Vec3{-0.5 * sign[0], -0.5 * sign[1], 0}

	if scale.X() <= minResize {
		scale[0] = flippedSize
		h = h.MirrorX()
	}
	if scale.Y() <= minResize {
		scale[1] = flippedSize
		h = h.MirrorY()
	}

	oldFixed := mgl64.TransformCoordinate(fixed, d.transMat)
	d.ent.SetSize(scale)
	newFixed := mgl64.TransformCoordinate(fixed, TransMatrix(d.ent))

	d.ent.SetPosition(d.ent.Position().Add(oldFixed.Sub(newFixed)))
	return h
}

func (d *drag) rotate() {
	center := mgl64.TransformCoordinate(d.ent.Alignment(), d.transMat)
	a := d.last.Sub(center)
	b := d.current.Sub(center)
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return
	}
	sin := mgl64.Clamp(a.Cross(b).Z()/la/lb, -1, 1)

	orient := d.ent.Orientation()
	orient[2] += gomath.Asin(sin)
	d.ent.SetOrientation(orient)
}

func (d *drag) dragLine() {
	if d.ev.Mods.Shift() {
		hsp, ok := d.ent.(HasScreenPoints)
		if !ok {
			return
		}
		points := hsp.ScreenPoints()
		if len(points) == 0 {
			return
		}
		z := d.zDiff(math.GeometricMedian(points))
		d.ent.Dragged(mgl64.Vec3{0, 0, z})
		return
	}

	delta := d.delta
	if r, ok := d.ent.(Regional); ok {
		inv := r.RegionTransform().Inverse()
		delta = inv.Rot.Rotate(delta.Mul(inv.Scale))
	}
	d.ent.Dragged(delta)
}

// dragNode moves polyline node i. It returns false when the entity has no
// such node.
func (d *drag) dragNode(i int) bool {
	hsp, ok := d.ent.(HasScreenPoints)
	if !ok {
		return false
	}
	points := slices.Clone(hsp.ScreenPoints())
	if i < 0 || i >= len(points) {
		return false
	}

	p := points[i]
	if d.ev.Mods.Shift() {
		p[2] += d.zDiff(p)
	} else {
		diff, ok := math.PlaneCollisionDiff(math.NewPlane(mgl64.Vec3{0, 0, 1}, p.Z()), d.ev.Current, d.ev.Last)
		if !ok {
			return true
		}
		p[0] += diff.X()
		p[1] += diff.Y()
	}
	points[i] = p
	hsp.SetScreenPoints(points)
	return true
}
