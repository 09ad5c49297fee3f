// Package mesh holds mesh prototypes: CPU side geometry that is uploaded to
// the device once and then drawn per instance with frustum and apparent
// size culling.
package mesh

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/pkg/math"
)

var (
	// ErrAlreadyLoaded is returned when a prototype is modified or uploaded
	// after its geometry moved to the device.
	ErrAlreadyLoaded = errors.New("mesh: already loaded to device")
	// ErrNotLoaded is returned when drawing a prototype that was never uploaded.
	ErrNotLoaded = errors.New("mesh: not loaded to device")
)

var nextSubID atomic.Int64

// SubMesh is one material group of triangle geometry.
type SubMesh struct {
	Vertices  []mgl64.Vec3
	Normals   []mgl64.Vec3
	TexCoords []mgl64.Vec2

	// Texture is a texture URL. When empty the sub mesh uses Diffuse.
	Texture string
	Diffuse gpu.Color

	Transparency gpu.Transparency
	TransColor   gpu.Color
}

// SubLine is a set of line segments, two vertices per segment.
type SubLine struct {
	Vertices []mgl64.Vec3
	Color    gpu.Color
}

type subMeshData struct {
	SubMesh
	hull *math.ConvexHull
}

type subLineData struct {
	SubLine
	hull *math.ConvexHull
}

// subMesh is the device side of a SubMesh.
type subMesh struct {
	id        int
	vertices  gpu.Buffer
	normals   gpu.Buffer
	texCoords gpu.Buffer
	numVerts  int

	texture      string
	diffuse      gpu.Color
	transparency gpu.Transparency
	transColor   gpu.Color

	hull   *math.ConvexHull
	center mgl64.Vec3
}

type subLine struct {
	id       int
	vertices gpu.Buffer
	numVerts int
	color    gpu.Color
	hull     *math.ConvexHull
}

type instance struct {
	index     int
	transform mgl64.Mat4
	normalMat mgl64.Mat4
}

// Proto is a mesh prototype. Geometry is appended with the Add methods and
// moved to the device exactly once with LoadGPU, after which the CPU copy
// is released and further additions fail.
//
// A Proto is not safe for concurrent use. After LoadGPU it is only touched
// by the render thread.
type Proto struct {
	meshData []*subMeshData
	lineData []*subLineData

	meshes []*subMesh
	lines  []*subLine

	meshInstances []instance
	lineInstances []instance

	anyTransparent bool
	numVerts       int

	hull      *math.ConvexHull
	radius    float64
	loadedGPU bool
}

// NewProto returns an empty prototype.
func NewProto() *Proto {
	return &Proto{hull: math.BuildHull(nil)}
}

// AddSubMesh appends a sub mesh and returns its index.
func (p *Proto) AddSubMesh(sm SubMesh) (int, error) {
	if p.loadedGPU {
		return 0, ErrAlreadyLoaded
	}
	if len(sm.Vertices)%3 != 0 {
		return 0, fmt.Errorf("sub mesh vertex count %d is not a multiple of 3", len(sm.Vertices))
	}
	if len(sm.Normals) != len(sm.Vertices) {
		return 0, fmt.Errorf("sub mesh has %d normals for %d vertices", len(sm.Normals), len(sm.Vertices))
	}
	if sm.Texture != "" && len(sm.TexCoords) != len(sm.Vertices) {
		return 0, fmt.Errorf("textured sub mesh has %d tex coords for %d vertices", len(sm.TexCoords), len(sm.Vertices))
	}

	if sm.Transparency != gpu.Opaque {
		p.anyTransparent = true
	}
	p.meshData = append(p.meshData, &subMeshData{
		SubMesh: sm,
		hull:    math.BuildHull(sm.Vertices),
	})
	return len(p.meshData) - 1, nil
}

// AddSubLine appends a sub line and returns its index. A zero color is
// drawn black.
func (p *Proto) AddSubLine(sl SubLine) (int, error) {
	if p.loadedGPU {
		return 0, ErrAlreadyLoaded
	}
	if len(sl.Vertices)%2 != 0 {
		return 0, fmt.Errorf("sub line vertex count %d is not even", len(sl.Vertices))
	}
	if sl.Color == (gpu.Color{}) {
		sl.Color = gpu.Black
	}
	p.lineData = append(p.lineData, &subLineData{
		SubLine: sl,
		hull:    math.BuildHull(sl.Vertices),
	})
	return len(p.lineData) - 1, nil
}

// AddSubMeshInstance places sub mesh index with the given transform.
func (p *Proto) AddSubMeshInstance(index int, m mgl64.Mat4) error {
	if p.loadedGPU {
		return ErrAlreadyLoaded
	}
	if index < 0 || index >= len(p.meshData) {
		return fmt.Errorf("sub mesh index %d out of range [0,%d)", index, len(p.meshData))
	}
	p.meshInstances = append(p.meshInstances, instance{
		index:     index,
		transform: m,
		normalMat: m.Inv().Transpose(),
	})
	p.numVerts += len(p.meshData[index].Vertices)
	return nil
}

// AddSubLineInstance places sub line index with the given transform.
func (p *Proto) AddSubLineInstance(index int, m mgl64.Mat4) error {
	if p.loadedGPU {
		return ErrAlreadyLoaded
	}
	if index < 0 || index >= len(p.lineData) {
		return fmt.Errorf("sub line index %d out of range [0,%d)", index, len(p.lineData))
	}
	p.lineInstances = append(p.lineInstances, instance{index: index, transform: m})
	return nil
}

// GenerateHull builds the prototype's hull from every placed instance.
// It needs the CPU geometry, so it must run before LoadGPU.
func (p *Proto) GenerateHull() error {
	if p.loadedGPU {
		return ErrAlreadyLoaded
	}
	var pts []mgl64.Vec3
	for _, inst := range p.meshInstances {
		for _, v := range p.meshData[inst.index].hull.Vertices() {
			pts = append(pts, mgl64.TransformCoordinate(v, inst.transform))
		}
	}
	for _, inst := range p.lineInstances {
		for _, v := range p.lineData[inst.index].hull.Vertices() {
			pts = append(pts, mgl64.TransformCoordinate(v, inst.transform))
		}
	}
	p.hull = math.BuildHull(pts)
	p.radius = p.hull.Radius()
	return nil
}

// Hull returns the hull built by GenerateHull.
func (p *Proto) Hull() *math.ConvexHull { return p.hull }

// Radius returns the largest distance from the origin to the hull.
func (p *Proto) Radius() float64 { return p.radius }

// HasTransparent reports whether any sub mesh blends.
func (p *Proto) HasTransparent() bool { return p.anyTransparent }

// IsLoadedGPU reports whether LoadGPU succeeded.
func (p *Proto) IsLoadedGPU() bool { return p.loadedGPU }

// NumVertices returns the number of vertices drawn for all instances.
func (p *Proto) NumVertices() int { return p.numVerts }

// CPUVertexCount returns the number of vertices still held in memory.
func (p *Proto) CPUVertexCount() int {
	n := 0
	for _, d := range p.meshData {
		n += len(d.Vertices)
	}
	for _, d := range p.lineData {
		n += len(d.Vertices)
	}
	return n
}

// LoadGPU uploads every sub mesh and sub line, starts loading textures and
// releases the CPU geometry. It fails with ErrAlreadyLoaded on a second call.
func (p *Proto) LoadGPU(dev gpu.Device, textures gpu.TextureSource) error {
	if p.loadedGPU {
		return ErrAlreadyLoaded
	}

	meshes := make([]*subMesh, 0, len(p.meshData))
	lines := make([]*subLine, 0, len(p.lineData))
	fail := func(err error) error {
		freeMeshes(dev, meshes)
		freeLines(dev, lines)
		return err
	}

	for i, d := range p.meshData {
		sm, err := uploadSubMesh(dev, d)
		if err != nil {
			return fail(fmt.Errorf("uploading sub mesh %d: %w", i, err))
		}
		if sm.texture != "" && textures != nil {
			textures.Handle(sm.texture)
		}
		meshes = append(meshes, sm)
	}
	for i, d := range p.lineData {
		buf, err := dev.NewBuffer(gpu.FlattenXYZ(d.Vertices))
		if err != nil {
			return fail(fmt.Errorf("uploading sub line %d: %w", i, err))
		}
		lines = append(lines, &subLine{
			id:       int(nextSubID.Add(1)),
			vertices: buf,
			numVerts: len(d.Vertices),
			color:    d.Color,
			hull:     d.hull,
		})
	}

	p.meshes = meshes
	p.lines = lines
	p.meshData = nil
	p.lineData = nil
	p.loadedGPU = true
	return nil
}

func uploadSubMesh(dev gpu.Device, d *subMeshData) (*subMesh, error) {
	sm := &subMesh{
		id:           int(nextSubID.Add(1)),
		numVerts:     len(d.Vertices),
		texture:      d.Texture,
		diffuse:      d.Diffuse,
		transparency: d.Transparency,
		transColor:   d.TransColor,
		hull:         d.hull,
		center:       d.hull.AABB(mgl64.Ident4()).Center(),
	}

	var err error
	if sm.vertices, err = dev.NewBuffer(gpu.FlattenXYZ(d.Vertices)); err != nil {
		return nil, err
	}
	if sm.normals, err = dev.NewBuffer(gpu.FlattenXYZ(d.Normals)); err != nil {
		dev.DeleteBuffers(sm.vertices)
		return nil, err
	}
	if d.Texture != "" {
		if sm.texCoords, err = dev.NewBuffer(gpu.FlattenXY(d.TexCoords)); err != nil {
			dev.DeleteBuffers(sm.vertices, sm.normals)
			return nil, err
		}
	}
	return sm, nil
}

// SubBounds returns the world bounds of each sub mesh instance under modelMat.
func (p *Proto) SubBounds(modelMat mgl64.Mat4) []math.AABB {
	out := make([]math.AABB, len(p.meshInstances))
	for i, inst := range p.meshInstances {
		out[i] = p.meshHull(inst.index).AABB(modelMat.Mul4(inst.transform))
	}
	return out
}

func (p *Proto) meshHull(index int) *math.ConvexHull {
	if p.loadedGPU {
		return p.meshes[index].hull
	}
	return p.meshData[index].hull
}

// Render draws opaque sub mesh instances and all sub lines. subBounds must
// come from SubBounds with the same modelMat.
func (p *Proto) Render(ctx *gpu.Context, modelMat, normalMat mgl64.Mat4, subBounds []math.AABB) error {
	if !p.loadedGPU {
		return ErrNotLoaded
	}
	view := ctx.View
	modelView := view.ViewMat().Mul4(modelMat)
	proj := view.ProjMat()
	camPos := view.Position()
	minSize := ctx.ApparentSizeLimit()

	for i, inst := range p.meshInstances {
		sm := p.meshes[inst.index]
		if sm.transparency != gpu.Opaque {
			continue
		}
		bounds := subBounds[i]
		if !view.Collides(bounds) {
			continue
		}
		dist := bounds.Center().Sub(camPos).Len()
		if 2*bounds.Radius().Len()/dist < minSize {
			continue
		}
		p.drawSubMesh(ctx, sm, modelView.Mul4(inst.transform), proj, normalMat.Mul4(inst.normalMat))
	}

	for _, inst := range p.lineInstances {
		sl := p.lines[inst.index]
		if !view.Collides(sl.hull.AABB(modelMat.Mul4(inst.transform))) {
			continue
		}
		ctx.Device.Draw(gpu.DrawCall{
			Program:    gpu.LineProgram,
			Primitive:  gpu.Lines,
			Vertices:   sl.vertices,
			NumVerts:   sl.numVerts,
			Color:      sl.color,
			ModelView:  modelView.Mul4(inst.transform),
			Projection: proj,
			Tag:        sl.id,
		})
	}
	return nil
}

type transparentDraw struct {
	sm        *subMesh
	modelView mgl64.Mat4
	normalMat mgl64.Mat4
	eyeZ      float64
}

// RenderTransparent draws blended sub mesh instances, farthest first.
func (p *Proto) RenderTransparent(ctx *gpu.Context, modelMat, normalMat mgl64.Mat4, subBounds []math.AABB) error {
	if !p.loadedGPU {
		return ErrNotLoaded
	}
	view := ctx.View
	modelView := view.ViewMat().Mul4(modelMat)

	var draws []transparentDraw
	for i, inst := range p.meshInstances {
		sm := p.meshes[inst.index]
		if sm.transparency == gpu.Opaque {
			continue
		}
		if !view.Collides(subBounds[i]) {
			continue
		}
		mv := modelView.Mul4(inst.transform)
		eye := mgl64.TransformCoordinate(sm.center, mv)
		draws = append(draws, transparentDraw{
			sm:        sm,
			modelView: mv,
			normalMat: normalMat.Mul4(inst.normalMat),
			eyeZ:      eye.Z(),
		})
	}

	// The camera looks down -Z in eye space, so the most negative Z is
	// the farthest away.
	slices.SortStableFunc(draws, func(a, b transparentDraw) int {
		return cmp.Compare(a.eyeZ, b.eyeZ)
	})

	proj := view.ProjMat()
	for _, d := range draws {
		p.drawSubMesh(ctx, d.sm, d.modelView, proj, d.normalMat)
	}
	return nil
}

func (p *Proto) drawSubMesh(ctx *gpu.Context, sm *subMesh, modelView, proj, normalMat mgl64.Mat4) {
	dev := ctx.Device
	call := gpu.DrawCall{
		Program:    gpu.MeshProgram,
		Primitive:  gpu.Triangles,
		Vertices:   sm.vertices,
		Normals:    sm.normals,
		NumVerts:   sm.numVerts,
		Color:      sm.diffuse,
		ModelView:  modelView,
		Projection: proj,
		NormalMat:  normalMat,
		Tag:        sm.id,
	}
	if sm.texture != "" {
		call.TexCoords = sm.texCoords
		call.Texture = ctx.Texture(sm.texture)
	}

	if sm.transparency == gpu.Opaque {
		dev.Draw(call)
		return
	}

	dev.SetBlend(gpu.BlendState{Enabled: true, Mode: sm.transparency, Color: sm.transColor})
	dev.SetDepthWrite(false)
	dev.Draw(call)
	dev.SetBlend(gpu.BlendState{})
	dev.SetDepthWrite(true)
}

// Free releases the device buffers. The prototype cannot be drawn again.
func (p *Proto) Free(dev gpu.Device) {
	freeMeshes(dev, p.meshes)
	freeLines(dev, p.lines)
	p.meshes = nil
	p.lines = nil
	p.meshInstances = nil
	p.lineInstances = nil
}

func freeMeshes(dev gpu.Device, meshes []*subMesh) {
	for _, sm := range meshes {
		dev.DeleteBuffers(sm.vertices, sm.normals, sm.texCoords)
	}
}

func freeLines(dev gpu.Device, lines []*subLine) {
	for _, sl := range lines {
		dev.DeleteBuffers(sl.vertices)
	}
}
