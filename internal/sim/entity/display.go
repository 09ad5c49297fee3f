// Package entity provides the sample population shown by the simview
// command: boxes and meshes placed in the world, and editable polylines.
package entity

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/interaction"
	"github.com/Faultbox/simview/internal/engine/mesh"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/internal/engine/scene"
)

// Selection colors.
var (
	OutlineColor = gpu.Color{1, 0.85, 0.1, 1}
	HandleColor  = gpu.Color{0.2, 0.8, 1, 1}
	RotateColor  = gpu.Color{1, 0.4, 0.9, 1}
)

const (
	handleFraction = 0.08
	minHandleSize  = 0.02
	rotateOffset   = 0.25
)

// DisplayEntity is a box shaped object with a position, size, orientation
// and alignment. It is drawn with a registered mesh when one is set, and
// as a wireframe box otherwise.
type DisplayEntity struct {
	id int64

	mu      sync.RWMutex
	name    string
	pos     mgl64.Vec3
	size    mgl64.Vec3
	orient  mgl64.Vec3
	align   mgl64.Vec3
	movable bool
	spin    float64
	color   gpu.Color

	reg   *mesh.Registry
	key   mesh.Key
	views []int

	binding *boxBinding
}

// Option configures a DisplayEntity.
type Option func(*DisplayEntity)

// WithName sets the display name.
func WithName(name string) Option {
	return func(e *DisplayEntity) { e.name = name }
}

// WithPosition places the entity.
func WithPosition(p mgl64.Vec3) Option {
	return func(e *DisplayEntity) { e.pos = p }
}

// WithSize sets the box size.
func WithSize(s mgl64.Vec3) Option {
	return func(e *DisplayEntity) { e.size = s }
}

// WithOrientation sets the Euler angles in radians.
func WithOrientation(o mgl64.Vec3) Option {
	return func(e *DisplayEntity) { e.orient = o }
}

// WithAlignment sets which point of the unit box sits at the position.
func WithAlignment(a mgl64.Vec3) Option {
	return func(e *DisplayEntity) { e.align = a }
}

// WithColor sets the wireframe color.
func WithColor(c gpu.Color) Option {
	return func(e *DisplayEntity) { e.color = c }
}

// WithMesh draws the entity with a mesh from reg.
func WithMesh(reg *mesh.Registry, key mesh.Key) Option {
	return func(e *DisplayEntity) {
		e.reg = reg
		e.key = key
	}
}

// WithViews restricts the entity to the listed views.
func WithViews(views ...int) Option {
	return func(e *DisplayEntity) { e.views = views }
}

// Fixed makes the entity immovable.
func Fixed() Option {
	return func(e *DisplayEntity) { e.movable = false }
}

// WithSpin rotates the entity about Z at rate radians per unit of sim time.
func WithSpin(rate float64) Option {
	return func(e *DisplayEntity) { e.spin = rate }
}

// NewDisplayEntity creates a movable unit box at the origin.
func NewDisplayEntity(id int64, opts ...Option) *DisplayEntity {
	e := &DisplayEntity{
		id:      id,
		size:    mgl64.Vec3{1, 1, 1},
		movable: true,
		color:   gpu.White,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.binding = &boxBinding{ent: e}
	return e
}

// PickingID implements scene.Drawable.
func (e *DisplayEntity) PickingID() int64 { return e.id }

// Name returns the display name.
func (e *DisplayEntity) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

// Movable implements interaction.Entity.
func (e *DisplayEntity) Movable() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.movable
}

// Position implements interaction.Entity.
func (e *DisplayEntity) Position() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

// SetPosition implements interaction.Entity.
func (e *DisplayEntity) SetPosition(p mgl64.Vec3) {
	e.mu.Lock()
	e.pos = p
	e.mu.Unlock()
}

// Size implements interaction.Entity.
func (e *DisplayEntity) Size() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.size
}

// SetSize implements interaction.Entity.
func (e *DisplayEntity) SetSize(s mgl64.Vec3) {
	e.mu.Lock()
	e.size = s
	e.mu.Unlock()
}

// Orientation implements interaction.Entity.
func (e *DisplayEntity) Orientation() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orient
}

// SetOrientation implements interaction.Entity.
func (e *DisplayEntity) SetOrientation(o mgl64.Vec3) {
	e.mu.Lock()
	e.orient = o
	e.mu.Unlock()
}

// Alignment implements interaction.Entity.
func (e *DisplayEntity) Alignment() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.align
}

// Dragged implements interaction.Entity. Display entities live in world
// space, so the delta moves the position directly.
func (e *DisplayEntity) Dragged(delta mgl64.Vec3) {
	e.mu.Lock()
	e.pos = e.pos.Add(delta)
	e.mu.Unlock()
}

// UpdateGraphics implements scene.Drawable.
func (e *DisplayEntity) UpdateGraphics(simTime float64) error {
	e.mu.Lock()
	if e.spin != 0 {
		e.orient[2] = e.spin * simTime
	}
	e.mu.Unlock()
	return nil
}

// Bindings implements scene.Drawable.
func (e *DisplayEntity) Bindings() []scene.Binding {
	return []scene.Binding{e.binding}
}

type boxKey struct {
	model mgl64.Mat4
	color gpu.Color
}

type selectionKey struct {
	model   mgl64.Mat4
	movable bool
}

// boxBinding draws a DisplayEntity and its selection handles.
type boxBinding struct {
	ent       *DisplayEntity
	proxies   scene.ProxyCache[boxKey]
	selection scene.ProxyCache[selectionKey]
}

func (b *boxBinding) IsBoundTo(d scene.Drawable) bool {
	e, ok := d.(*DisplayEntity)
	return ok && e == b.ent
}

func (b *boxBinding) CollectProxies(fc *scene.FrameContext) ([]scene.Proxy, error) {
	e := b.ent
	e.mu.RLock()
	color := e.color
	e.mu.RUnlock()
	key := boxKey{model: interaction.TransMatrix(e), color: color}

	return b.proxies.Get(key, fc.Stats, func() ([]scene.Proxy, error) {
		if e.reg != nil && e.key != "" {
			e.reg.Load(e.key)
			return []scene.Proxy{scene.NewMeshProxy(e.id, e.reg, e.key, key.model, e.views)}, nil
		}
		return []scene.Proxy{scene.NewBoxProxy(e.id, key.model, key.color, e.views)}, nil
	})
}

func (b *boxBinding) CollectSelectionProxies(fc *scene.FrameContext) ([]scene.Proxy, error) {
	e := b.ent
	key := selectionKey{model: interaction.TransMatrix(e), movable: e.Movable()}

	return b.selection.Get(key, fc.Stats, func() ([]scene.Proxy, error) {
		out := []scene.Proxy{scene.NewBoxProxy(e.id, key.model, OutlineColor, e.views)}
		if !key.movable {
			return out, nil
		}
		size := e.Size()
		hs := max(handleFraction*max(size.X(), size.Y()), minHandleSize)
		at := func(x, y, z float64) mgl64.Vec3 {
			return mgl64.TransformCoordinate(mgl64.Vec3{x, y, z}, key.model)
		}

		out = append(out, scene.NewHandleProxy(picking.MoveHandle, at(0, 0, 0.5), hs, HandleColor))
		for _, h := range resizeHandles {
			out = append(out, scene.NewHandleProxy(h.id, at(h.x, h.y, 0.5), hs, HandleColor))
		}
		out = append(out, scene.NewHandleProxy(picking.RotateHandle, at(0, 0.5+rotateOffset, 0.5), hs, RotateColor))
		return out, nil
	})
}

// resizeHandles places each resize handle on the top face of the unit box.
var resizeHandles = []struct {
	id   picking.HandleID
	x, y float64
}{
	{picking.ResizePosX, 0.5, 0},
	{picking.ResizeNegX, -0.5, 0},
	{picking.ResizePosY, 0, 0.5},
	{picking.ResizeNegY, 0, -0.5},
	{picking.ResizePXPY, 0.5, 0.5},
	{picking.ResizePXNY, 0.5, -0.5},
	{picking.ResizeNXPY, -0.5, 0.5},
	{picking.ResizeNXNY, -0.5, -0.5},
}
