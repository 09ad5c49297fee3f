package scene

import (
	gomath "math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/debug"
	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/mesh"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/pkg/math"
)

// MeshProxy draws one instance of a registered mesh.
type MeshProxy struct {
	id     int64
	reg    *mesh.Registry
	key    mesh.Key
	model  mgl64.Mat4
	normal mgl64.Mat4
	views  []int

	mu        sync.Mutex
	proto     *mesh.Proto
	subBounds []math.AABB
}

// NewMeshProxy creates a proxy drawing key with the model transform. An
// empty views list means every view.
func NewMeshProxy(id int64, reg *mesh.Registry, key mesh.Key, model mgl64.Mat4, views []int) *MeshProxy {
	return &MeshProxy{
		id:     id,
		reg:    reg,
		key:    key,
		model:  model,
		normal: model.Inv().Transpose(),
		views:  views,
	}
}

// resolve looks the prototype up once it has reached the device. Picking
// may call it from the input goroutine.
func (p *MeshProxy) resolve() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.proto != nil {
		return true
	}
	proto, ok := p.reg.Proto(p.key)
	if !ok {
		return false
	}
	p.proto = proto
	p.subBounds = proto.SubBounds(p.model)
	return true
}

// PickingID implements picking.Target.
func (p *MeshProxy) PickingID() int64 { return p.id }

// VisibleIn implements Proxy.
func (p *MeshProxy) VisibleIn(viewID int) bool { return visibleIn(p.views, viewID) }

// HasTransparent implements Proxy.
func (p *MeshProxy) HasTransparent() bool {
	return p.resolve() && p.proto.HasTransparent()
}

// Bounds returns the world bounds, or an empty box while loading.
func (p *MeshProxy) Bounds() math.AABB {
	if !p.resolve() {
		return math.AABB{}
	}
	return p.proto.Hull().AABB(p.model)
}

// CollisionDist implements picking.Target.
func (p *MeshProxy) CollisionDist(ray math.Ray, viewID int) float64 {
	if !p.VisibleIn(viewID) {
		return -1
	}
	return p.Bounds().CollisionDist(ray)
}

// Render implements Proxy.
func (p *MeshProxy) Render(ctx *gpu.Context) error {
	if !p.VisibleIn(ctx.ViewID) || !p.resolve() {
		return nil
	}
	return p.proto.Render(ctx, p.model, p.normal, p.subBounds)
}

// RenderTransparent implements Proxy.
func (p *MeshProxy) RenderTransparent(ctx *gpu.Context) error {
	if !p.VisibleIn(ctx.ViewID) || !p.resolve() {
		return nil
	}
	return p.proto.RenderTransparent(ctx, p.model, p.normal, p.subBounds)
}

// LineProxy draws world space line segments, two points per segment.
type LineProxy struct {
	id     int64
	points []mgl64.Vec3
	color  gpu.Color
	views  []int
}

// NewLineProxy creates a line proxy. points holds segment endpoint pairs.
func NewLineProxy(id int64, points []mgl64.Vec3, color gpu.Color, views []int) *LineProxy {
	return &LineProxy{id: id, points: points, color: color, views: views}
}

// PickingID implements picking.Target.
func (p *LineProxy) PickingID() int64 { return p.id }

// VisibleIn implements Proxy.
func (p *LineProxy) VisibleIn(viewID int) bool { return visibleIn(p.views, viewID) }

// HasTransparent implements Proxy.
func (p *LineProxy) HasTransparent() bool { return false }

// CollisionDist implements picking.Target. A segment is hit when the ray
// passes within picking.LinePickAngle of it.
func (p *LineProxy) CollisionDist(ray math.Ray, viewID int) float64 {
	if !p.VisibleIn(viewID) {
		return -1
	}
	return segmentsCollisionDist(p.points, ray)
}

func segmentsCollisionDist(points []mgl64.Vec3, ray math.Ray) float64 {
	rs := math.RaySpace(ray)
	best := gomath.Inf(1)
	for i := 0; i+1 < len(points); i += 2 {
		near := math.RayClosePoint(rs, points[i], points[i+1])
		angle := math.AngleToRay(rs, near)
		if angle < 0 || angle > picking.LinePickAngle {
			continue
		}
		best = gomath.Min(best, near.Sub(ray.Start).Len())
	}
	if gomath.IsInf(best, 1) {
		return -1
	}
	return best
}

// Render implements Proxy.
func (p *LineProxy) Render(ctx *gpu.Context) error {
	if !p.VisibleIn(ctx.ViewID) {
		return nil
	}
	return drawLines(ctx, p.points, p.color)
}

// RenderTransparent implements Proxy.
func (p *LineProxy) RenderTransparent(*gpu.Context) error { return nil }

func drawLines(ctx *gpu.Context, points []mgl64.Vec3, color gpu.Color) error {
	if len(points) < 2 {
		return nil
	}
	buf, err := ctx.Device.NewBuffer(gpu.FlattenXYZ(points))
	if err != nil {
		return err
	}
	ctx.Device.Draw(gpu.DrawCall{
		Program:    gpu.LineProgram,
		Primitive:  gpu.Lines,
		Vertices:   buf,
		NumVerts:   len(points) - len(points)%2,
		Color:      color,
		ModelView:  ctx.View.ViewMat(),
		Projection: ctx.View.ProjMat(),
	})
	ctx.Device.DeleteBuffers(buf)
	return nil
}

// BoxProxy draws the outline of a transformed unit cube. It is used for
// selection outlines and interaction handles.
type BoxProxy struct {
	id    int64
	model mgl64.Mat4
	inv   mgl64.Mat4
	color gpu.Color
	views []int
}

// NewBoxProxy creates a box proxy for the unit cube under model.
func NewBoxProxy(id int64, model mgl64.Mat4, color gpu.Color, views []int) *BoxProxy {
	return &BoxProxy{id: id, model: model, inv: model.Inv(), color: color, views: views}
}

// NewHandleProxy creates a cube of edge size centered on center that picks
// as handle h.
func NewHandleProxy(h picking.HandleID, center mgl64.Vec3, size float64, color gpu.Color) *BoxProxy {
	m := mgl64.Translate3D(center[0], center[1], center[2]).Mul4(mgl64.Scale3D(size, size, size))
	return NewBoxProxy(int64(h), m, color, nil)
}

// PickingID implements picking.Target.
func (p *BoxProxy) PickingID() int64 { return p.id }

// VisibleIn implements Proxy.
func (p *BoxProxy) VisibleIn(viewID int) bool { return visibleIn(p.views, viewID) }

// HasTransparent implements Proxy.
func (p *BoxProxy) HasTransparent() bool { return false }

var unitCube = math.NewAABBMinMax(mgl64.Vec3{-0.5, -0.5, -0.5}, mgl64.Vec3{0.5, 0.5, 0.5})

// CollisionDist implements picking.Target. The ray is moved into the box's
// local space so rotated boxes pick exactly.
func (p *BoxProxy) CollisionDist(ray math.Ray, viewID int) float64 {
	if !p.VisibleIn(viewID) {
		return -1
	}
	start := mgl64.TransformCoordinate(ray.Start, p.inv)
	dir := mgl64.TransformNormal(ray.Dir, p.inv)
	if dir.Len() == 0 {
		return -1
	}
	local := math.NewRay(start, dir)
	d := unitCube.CollisionDist(local)
	if d < 0 {
		return -1
	}
	hit := mgl64.TransformCoordinate(local.PointAtDist(d), p.model)
	return hit.Sub(ray.Start).Len()
}

// Render implements Proxy.
func (p *BoxProxy) Render(ctx *gpu.Context) error {
	if !p.VisibleIn(ctx.ViewID) {
		return nil
	}
	return drawLines(ctx, debug.UnitCubeWireframe(p.model), p.color)
}

// RenderTransparent implements Proxy.
func (p *BoxProxy) RenderTransparent(*gpu.Context) error { return nil }
