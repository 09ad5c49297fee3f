package interaction

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/pkg/math"
)

type fakeEntity struct {
	pos, size, orient, align mgl64.Vec3
	pinned                   bool
	dragged                  []mgl64.Vec3
}

func newFakeEntity() *fakeEntity {
	return &fakeEntity{size: mgl64.Vec3{1, 1, 1}}
}

func (e *fakeEntity) PickingID() int64            { return 42 }
func (e *fakeEntity) Movable() bool               { return !e.pinned }
func (e *fakeEntity) Position() mgl64.Vec3        { return e.pos }
func (e *fakeEntity) SetPosition(p mgl64.Vec3)    { e.pos = p }
func (e *fakeEntity) Size() mgl64.Vec3            { return e.size }
func (e *fakeEntity) SetSize(s mgl64.Vec3)        { e.size = s }
func (e *fakeEntity) Orientation() mgl64.Vec3     { return e.orient }
func (e *fakeEntity) SetOrientation(o mgl64.Vec3) { e.orient = o }
func (e *fakeEntity) Alignment() mgl64.Vec3       { return e.align }
func (e *fakeEntity) Dragged(delta mgl64.Vec3)    { e.dragged = append(e.dragged, delta) }

type fakeLine struct {
	fakeEntity
	points []mgl64.Vec3
	region *math.Transform
}

func newFakeLine(points ...mgl64.Vec3) *fakeLine {
	return &fakeLine{fakeEntity: *newFakeEntity(), points: points}
}

func (l *fakeLine) ScreenPoints() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(l.points))
	copy(out, l.points)
	return out
}

func (l *fakeLine) SetScreenPoints(points []mgl64.Vec3) { l.points = points }

func (l *fakeLine) Dragged(delta mgl64.Vec3) {
	l.fakeEntity.Dragged(delta)
	for i := range l.points {
		l.points[i] = l.points[i].Add(delta)
	}
}

type regionLine struct {
	*fakeLine
	trans math.Transform
}

func (r regionLine) RegionTransform() math.Transform { return r.trans }

func down(x, y float64) math.Ray {
	return math.NewRay(mgl64.Vec3{x, y, 10}, mgl64.Vec3{0, 0, -1})
}

func dragDown(fromX, fromY, toX, toY float64, mods Modifiers) DragEvent {
	return DragEvent{Current: down(toX, toY), Last: down(fromX, fromY), Mods: mods}
}

// grab selects e and starts dragging handle h.
func grab(t *testing.T, e Entity, h picking.HandleID) *Controller {
	t.Helper()
	c := NewController()
	c.SetSelection(e)
	pick := func() []picking.Result {
		return []picking.Result{{ID: e.PickingID(), Size: 1, IsEntity: true}, {ID: int64(h)}}
	}
	if !c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true}, pick) {
		t.Fatalf("HandleMouseButton(press on %v) = false, want true", h)
	}
	return c
}

func vecNear(a, b mgl64.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-9)
}

func TestTransMatrix(t *testing.T) {
	e := newFakeEntity()
	e.pos = mgl64.Vec3{10, 0, 0}
	e.size = mgl64.Vec3{2, 4, 1}
	e.align = mgl64.Vec3{-0.5, 0, 0}
	e.orient = mgl64.Vec3{0, 0, gomath.Pi / 2}

	m := TransMatrix(e)
	tests := []struct {
		local, want mgl64.Vec3
	}{
		{mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{10, 0, 0}},
		{mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{10, 2, 0}},
		{mgl64.Vec3{-0.5, 0.5, 0}, mgl64.Vec3{8, 0, 0}},
	}
	for _, tt := range tests {
		if got := mgl64.TransformCoordinate(tt.local, m); !vecNear(got, tt.want) {
			t.Errorf("TransMatrix * %v = %v, want %v", tt.local, got, tt.want)
		}
	}
}

func TestHandleMouseButton(t *testing.T) {
	handles := func() []picking.Result {
		return []picking.Result{
			{ID: 5, Size: 2, IsEntity: true},
			{ID: int64(picking.MoveHandle)},
			{ID: int64(picking.ResizePXPY)},
			{ID: int64(picking.RotateHandle)},
		}
	}
	entitiesOnly := func() []picking.Result {
		return []picking.Result{{ID: 5, Size: 2, IsEntity: true}}
	}

	c := NewController()
	c.SetSelection(newFakeEntity())

	if c.HandleMouseButton(ButtonEvent{Button: 3, Down: true}, handles) {
		t.Error("HandleMouseButton(right button) = true, want false")
	}
	if c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true}, entitiesOnly) {
		t.Error("HandleMouseButton(no handles) = true, want false")
	}
	if c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true}, func() []picking.Result { return nil }) {
		t.Error("HandleMouseButton(no picks) = true, want false")
	}
	if c.IsDragging() {
		t.Fatal("IsDragging() = true before any handle press")
	}

	if !c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true}, handles) {
		t.Fatal("HandleMouseButton(handles) = false, want true")
	}
	if got := c.ActiveHandle(); got != picking.MoveHandle {
		t.Errorf("ActiveHandle() = %v, want %v", got, picking.MoveHandle)
	}

	if !c.HandleMouseButton(ButtonEvent{Button: PrimaryButton}, nil) {
		t.Error("HandleMouseButton(release) = false, want true")
	}
	if c.IsDragging() || c.ActiveHandle() != picking.NoHandle {
		t.Errorf("after release IsDragging() = %v ActiveHandle() = %v", c.IsDragging(), c.ActiveHandle())
	}

	if c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true, Mods: ModCtrl}, handles) {
		t.Error("HandleMouseButton(ctrl, plain entity) = true, want false")
	}

	c.SetSelection(newFakeLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}))
	if !c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true, Mods: ModCtrl, Ray: down(5, 5)}, handles) {
		t.Error("HandleMouseButton(ctrl, polyline) = false, want true")
	}
	if c.IsDragging() {
		t.Error("ctrl click started a drag")
	}
}

func TestHandleDragRejects(t *testing.T) {
	ev := dragDown(0, 0, 1, 0, 0)

	if NewController().HandleDrag(ev) {
		t.Error("HandleDrag() without drag = true, want false")
	}

	pinned := newFakeEntity()
	pinned.pinned = true
	if grab(t, pinned, picking.MoveHandle).HandleDrag(ev) {
		t.Error("HandleDrag(pinned) = true, want false")
	}

	e := newFakeEntity()
	c := grab(t, e, picking.MoveHandle)
	if c.HandleDrag(dragDown(0, 0, 1, 0, ModCtrl)) {
		t.Error("HandleDrag(ctrl) = true, want false")
	}

	side := math.NewRay(mgl64.Vec3{-10, 0, 1}, mgl64.Vec3{1, 0, 0})
	if !c.HandleDrag(DragEvent{Current: side, Last: side}) {
		t.Error("HandleDrag(parallel rays) = false, want true")
	}
	if e.pos != (mgl64.Vec3{}) {
		t.Errorf("parallel drag moved entity to %v", e.pos)
	}
}

func TestMove(t *testing.T) {
	e := newFakeEntity()
	c := grab(t, e, picking.MoveHandle)
	if !c.HandleDrag(dragDown(0, 0, 1, 2, 0)) {
		t.Fatal("HandleDrag() = false, want true")
	}
	if want := (mgl64.Vec3{1, 2, 0}); !vecNear(e.pos, want) {
		t.Errorf("Position() = %v, want %v", e.pos, want)
	}
}

func TestMoveDepth(t *testing.T) {
	e := newFakeEntity()
	c := grab(t, e, picking.MoveHandle)

	eye := mgl64.Vec3{-10, 0, 10}
	ev := DragEvent{
		Current: math.NewRay(eye, mgl64.Vec3{10, 0, -9}),
		Last:    math.NewRay(eye, mgl64.Vec3{10, 0, -10}),
		Mods:    ModShift,
	}
	if !c.HandleDrag(ev) {
		t.Fatal("HandleDrag() = false, want true")
	}
	if want := (mgl64.Vec3{0, 0, 100.0 / 181}); !vecNear(e.pos, want) {
		t.Errorf("Position() = %v, want %v", e.pos, want)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name       string
		handle     picking.HandleID
		from, to   mgl64.Vec2
		wantSize   mgl64.Vec3
		wantPos    mgl64.Vec3
		wantHandle picking.HandleID
	}{
		{"grow +x", picking.ResizePosX, mgl64.Vec2{0.5, 0}, mgl64.Vec2{1, 0}, mgl64.Vec3{1.5, 1, 1}, mgl64.Vec3{0.25, 0, 0}, picking.ResizePosX},
		{"shrink -x", picking.ResizeNegX, mgl64.Vec2{-0.5, 0}, mgl64.Vec2{0, 0}, mgl64.Vec3{0.5, 1, 1}, mgl64.Vec3{0.25, 0, 0}, picking.ResizeNegX},
		{"grow +x+y", picking.ResizePXPY, mgl64.Vec2{0.5, 0.5}, mgl64.Vec2{1, 1}, mgl64.Vec3{1.5, 1.5, 1}, mgl64.Vec3{0.25, 0.25, 0}, picking.ResizePXPY},
		{"grow -x-y", picking.ResizeNXNY, mgl64.Vec2{-0.5, -0.5}, mgl64.Vec2{-1, -1}, mgl64.Vec3{1.5, 1.5, 1}, mgl64.Vec3{-0.25, -0.25, 0}, picking.ResizeNXNY},
		{"-y through itself", picking.ResizeNegY, mgl64.Vec2{0, -0.5}, mgl64.Vec2{0, 0.6}, mgl64.Vec3{1, flippedSize, 1}, mgl64.Vec3{0, 0.49995, 0}, picking.ResizePosY},
		{"+x+y through x", picking.ResizePXPY, mgl64.Vec2{0.5, 0.5}, mgl64.Vec2{-0.6, 0.5}, mgl64.Vec3{flippedSize, 1, 1}, mgl64.Vec3{-0.49995, 0, 0}, picking.ResizeNXPY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEntity()
			c := grab(t, e, tt.handle)
			if !c.HandleDrag(dragDown(tt.from.X(), tt.from.Y(), tt.to.X(), tt.to.Y(), 0)) {
				t.Fatal("HandleDrag() = false, want true")
			}
			if !vecNear(e.size, tt.wantSize) {
				t.Errorf("Size() = %v, want %v", e.size, tt.wantSize)
			}
			if !vecNear(e.pos, tt.wantPos) {
				t.Errorf("Position() = %v, want %v", e.pos, tt.wantPos)
			}
			if got := c.ActiveHandle(); got != tt.wantHandle {
				t.Errorf("ActiveHandle() = %v, want %v", got, tt.wantHandle)
			}
		})
	}
}

func TestResizeFlipKeepsGrowing(t *testing.T) {
	e := newFakeEntity()
	c := grab(t, e, picking.ResizePosX)

	c.HandleDrag(dragDown(0.5, 0, -0.6, 0, 0))
	if got := c.ActiveHandle(); got != picking.ResizeNegX {
		t.Fatalf("ActiveHandle() = %v, want %v", got, picking.ResizeNegX)
	}
	if e.size.X() != flippedSize {
		t.Fatalf("Size().X() = %v, want %v", e.size.X(), flippedSize)
	}

	c.HandleDrag(dragDown(-0.6, 0, -1.0, 0, 0))
	if gomath.Abs(e.size.X()-0.4001) > 1e-9 {
		t.Errorf("Size().X() after continued drag = %v, want 0.4001", e.size.X())
	}
	// The right edge stays where the flip left it.
	right := e.pos.X() + 0.5*e.size.X()
	if gomath.Abs(right-(-0.4999)) > 1e-9 {
		t.Errorf("right edge = %v, want -0.4999", right)
	}
}

func TestRotate(t *testing.T) {
	e := newFakeEntity()
	c := grab(t, e, picking.RotateHandle)
	if !c.HandleDrag(dragDown(1, 0, 0, 1, 0)) {
		t.Fatal("HandleDrag() = false, want true")
	}
	if got := e.orient.Z(); gomath.Abs(got-gomath.Pi/2) > 1e-9 {
		t.Errorf("Orientation().Z() = %v, want pi/2", got)
	}

	// Dragging through the center is a no-op.
	c.HandleDrag(dragDown(0, 0, 1, 0, 0))
	if got := e.orient.Z(); gomath.Abs(got-gomath.Pi/2) > 1e-9 {
		t.Errorf("Orientation().Z() after degenerate drag = %v, want pi/2", got)
	}
}

func TestLineDrag(t *testing.T) {
	l := newFakeLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0})
	c := grab(t, l, picking.LineDragHandle)
	if !c.HandleDrag(dragDown(0, 0, 2, 0, 0)) {
		t.Fatal("HandleDrag() = false, want true")
	}
	want := []mgl64.Vec3{{2, 0, 0}, {3, 0, 0}}
	for i := range want {
		if !vecNear(l.points[i], want[i]) {
			t.Errorf("points[%d] = %v, want %v", i, l.points[i], want[i])
		}
	}
}

func TestLineDragInRegion(t *testing.T) {
	l := newFakeLine(mgl64.Vec3{0, 0, 0})
	r := regionLine{fakeLine: l, trans: math.NewTransform(mgl64.Vec3{5, 5, 0}, mgl64.Vec3{0, 0, gomath.Pi / 2}, 2)}
	c := grab(t, r, picking.LineDragHandle)
	c.HandleDrag(dragDown(0, 0, 2, 0, 0))

	if len(l.dragged) != 1 {
		t.Fatalf("Dragged() calls = %d, want 1", len(l.dragged))
	}
	if want := (mgl64.Vec3{0, -1, 0}); !vecNear(l.dragged[0], want) {
		t.Errorf("Dragged(%v), want %v", l.dragged[0], want)
	}
}

func TestLineDragDepthWithoutPoints(t *testing.T) {
	l := newFakeLine()
	c := grab(t, l, picking.LineDragHandle)
	if !c.HandleDrag(dragDown(0, 0, 1, 0, ModShift)) {
		t.Error("HandleDrag(shift, no points) = false, want true")
	}
	if len(l.dragged) != 0 {
		t.Errorf("Dragged() called %d times, want 0", len(l.dragged))
	}
}

func TestLineNodeDrag(t *testing.T) {
	l := newFakeLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0.5})
	orig := l.points

	c := grab(t, l, picking.LineNodeHandle(1))
	if !c.HandleDrag(dragDown(1, 0, 1, 1, 0)) {
		t.Fatal("HandleDrag() = false, want true")
	}
	if want := (mgl64.Vec3{1, 1, 0.5}); !vecNear(l.points[1], want) {
		t.Errorf("points[1] = %v, want %v", l.points[1], want)
	}
	if orig[1] != (mgl64.Vec3{1, 0, 0.5}) {
		t.Errorf("drag mutated the old point slice: %v", orig[1])
	}

	c = grab(t, l, picking.LineNodeHandle(2))
	if c.HandleDrag(dragDown(1, 0, 1, 1, 0)) {
		t.Error("HandleDrag(missing node) = true, want false")
	}

	c = grab(t, newFakeEntity(), picking.LineNodeHandle(0))
	if c.HandleDrag(dragDown(1, 0, 1, 1, 0)) {
		t.Error("HandleDrag(node of plain entity) = true, want false")
	}
}

func TestSplitLine(t *testing.T) {
	l := newFakeLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{2, 2, 0})
	c := NewController()
	c.SetSelection(l)

	c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true, Mods: ModCtrl, Ray: down(2, 1)}, nil)
	want := []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 1, 0}, {2, 2, 0}}
	if len(l.points) != len(want) {
		t.Fatalf("len(points) = %d, want %d", len(l.points), len(want))
	}
	for i := range want {
		if !vecNear(l.points[i], want[i]) {
			t.Errorf("points[%d] = %v, want %v", i, l.points[i], want[i])
		}
	}

	c.HandleMouseButton(ButtonEvent{Button: PrimaryButton, Down: true, Mods: ModCtrl, Ray: down(7, 7)}, nil)
	if len(l.points) != 4 {
		t.Errorf("split far from the line changed it to %v", l.points)
	}
}

func TestRemoveLineNode(t *testing.T) {
	remove := ButtonEvent{Button: PrimaryButton, Down: true, Mods: ModCtrl | ModShift}

	l := newFakeLine(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 0, 0})
	c := NewController()
	c.SetSelection(l)

	remove.Ray = down(7, 7)
	c.HandleMouseButton(remove, nil)
	if len(l.points) != 3 {
		t.Errorf("remove far from any node changed line to %v", l.points)
	}

	remove.Ray = down(1, 0)
	c.HandleMouseButton(remove, nil)
	want := []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}}
	if len(l.points) != 2 || l.points[0] != want[0] || l.points[1] != want[1] {
		t.Errorf("points = %v, want %v", l.points, want)
	}

	remove.Ray = down(2, 0)
	c.HandleMouseButton(remove, nil)
	if len(l.points) != 2 {
		t.Errorf("removed a node from a two node line: %v", l.points)
	}
}
