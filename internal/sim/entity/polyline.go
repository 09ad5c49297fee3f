package entity

import (
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/internal/engine/scene"
	"github.com/Faultbox/simview/pkg/math"
)

const (
	nodeFraction = 0.03
	minNodeSize  = 0.05
)

// Polyline is an editable chain of world space points. Its position is
// the center of its bounds; moving it shifts every node.
type Polyline struct {
	id int64

	mu      sync.RWMutex
	points  []mgl64.Vec3
	version uint64
	color   gpu.Color
	movable bool
	views   []int

	binding *lineBinding
}

// NewPolyline creates a movable polyline through points.
func NewPolyline(id int64, points []mgl64.Vec3, color gpu.Color, views ...int) *Polyline {
	l := &Polyline{
		id:      id,
		points:  slices.Clone(points),
		color:   color,
		movable: true,
		views:   views,
	}
	l.binding = &lineBinding{line: l}
	return l
}

// PickingID implements scene.Drawable.
func (l *Polyline) PickingID() int64 { return l.id }

// SetMovable enables or disables interaction.
func (l *Polyline) SetMovable(movable bool) {
	l.mu.Lock()
	l.movable = movable
	l.mu.Unlock()
}

// Movable implements interaction.Entity.
func (l *Polyline) Movable() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.movable
}

// ScreenPoints implements interaction.HasScreenPoints.
func (l *Polyline) ScreenPoints() []mgl64.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.points)
}

// SetScreenPoints implements interaction.HasScreenPoints.
func (l *Polyline) SetScreenPoints(points []mgl64.Vec3) {
	l.mu.Lock()
	l.points = slices.Clone(points)
	l.version++
	l.mu.Unlock()
}

func (l *Polyline) boundsLocked() math.AABB {
	return math.NewAABB(l.points)
}

// Position implements interaction.Entity.
func (l *Polyline) Position() mgl64.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	box := l.boundsLocked()
	if !box.NotEmpty {
		return mgl64.Vec3{}
	}
	return box.Center()
}

// SetPosition implements interaction.Entity by shifting every node.
func (l *Polyline) SetPosition(p mgl64.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	box := l.boundsLocked()
	if !box.NotEmpty {
		return
	}
	l.shiftLocked(p.Sub(box.Center()))
}

// Size implements interaction.Entity.
func (l *Polyline) Size() mgl64.Vec3 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	box := l.boundsLocked()
	if !box.NotEmpty {
		return mgl64.Vec3{}
	}
	return box.Max.Sub(box.Min)
}

// SetSize is a no-op. Polylines are reshaped by editing nodes.
func (l *Polyline) SetSize(mgl64.Vec3) {}

// Orientation implements interaction.Entity.
func (l *Polyline) Orientation() mgl64.Vec3 { return mgl64.Vec3{} }

// SetOrientation is a no-op.
func (l *Polyline) SetOrientation(mgl64.Vec3) {}

// Alignment implements interaction.Entity.
func (l *Polyline) Alignment() mgl64.Vec3 { return mgl64.Vec3{} }

// Dragged implements interaction.Entity.
func (l *Polyline) Dragged(delta mgl64.Vec3) {
	l.mu.Lock()
	l.shiftLocked(delta)
	l.mu.Unlock()
}

func (l *Polyline) shiftLocked(delta mgl64.Vec3) {
	for i := range l.points {
		l.points[i] = l.points[i].Add(delta)
	}
	l.version++
}

// UpdateGraphics implements scene.Drawable.
func (l *Polyline) UpdateGraphics(float64) error { return nil }

// Bindings implements scene.Drawable.
func (l *Polyline) Bindings() []scene.Binding {
	return []scene.Binding{l.binding}
}

type lineKey struct {
	version uint64
	color   gpu.Color
}

// lineBinding draws a polyline, and while selected its drag line and
// node handles.
type lineBinding struct {
	line      *Polyline
	proxies   scene.ProxyCache[lineKey]
	selection scene.ProxyCache[lineKey]
}

func (b *lineBinding) IsBoundTo(d scene.Drawable) bool {
	l, ok := d.(*Polyline)
	return ok && l == b.line
}

func (b *lineBinding) snapshot() (lineKey, []mgl64.Vec3) {
	l := b.line
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lineKey{version: l.version, color: l.color}, slices.Clone(l.points)
}

func (b *lineBinding) CollectProxies(fc *scene.FrameContext) ([]scene.Proxy, error) {
	key, points := b.snapshot()
	return b.proxies.Get(key, fc.Stats, func() ([]scene.Proxy, error) {
		return []scene.Proxy{scene.NewLineProxy(b.line.id, segments(points), key.color, b.line.views)}, nil
	})
}

func (b *lineBinding) CollectSelectionProxies(fc *scene.FrameContext) ([]scene.Proxy, error) {
	key, points := b.snapshot()
	return b.selection.Get(key, fc.Stats, func() ([]scene.Proxy, error) {
		out := []scene.Proxy{
			scene.NewLineProxy(int64(picking.LineDragHandle), segments(points), OutlineColor, b.line.views),
		}
		box := math.NewAABB(points)
		size := minNodeSize
		if box.NotEmpty {
			size = max(nodeFraction*box.Max.Sub(box.Min).Len(), minNodeSize)
		}
		for i, p := range points {
			out = append(out, scene.NewHandleProxy(picking.LineNodeHandle(i), p, size, HandleColor))
		}
		return out, nil
	})
}

// segments expands a chain into the point pairs LineProxy draws.
func segments(points []mgl64.Vec3) []mgl64.Vec3 {
	if len(points) < 2 {
		return nil
	}
	out := make([]mgl64.Vec3, 0, 2*(len(points)-1))
	for i := 1; i < len(points); i++ {
		out = append(out, points[i-1], points[i])
	}
	return out
}
