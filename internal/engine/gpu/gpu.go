// Package gpu defines the narrow device interface the scene code draws
// through. The OpenGL implementation lives in the renderer package.
package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Buffer is an opaque handle to a vertex buffer on the device.
type Buffer uint32

// TextureHandle is an opaque handle to a texture on the device.
type TextureHandle uint32

// Reserved texture handles.
const (
	// NoTexture means the material uses its flat color.
	NoTexture TextureHandle = 0
	// LoadingTexture is returned while a texture is still being decoded.
	LoadingTexture TextureHandle = ^TextureHandle(0)
	// BadTexture stands in for a texture that failed to load.
	BadTexture TextureHandle = ^TextureHandle(0) - 1
)

// Color is an RGBA color with components in [0, 1].
type Color [4]float32

// Common colors.
var (
	Black = Color{0, 0, 0, 1}
	White = Color{1, 1, 1, 1}
)

// Transparency classifies how a sub mesh blends with what is behind it.
type Transparency int

const (
	// Opaque sub meshes are drawn with depth writes and no blending.
	Opaque Transparency = iota
	// AlphaConstant blends using the alpha of the transparency color.
	AlphaConstant
	// AdditiveTinted blends per color channel using the transparency color.
	AdditiveTinted
)

// String implements fmt.Stringer.
func (t Transparency) String() string {
	switch t {
	case Opaque:
		return "opaque"
	case AlphaConstant:
		return "alpha-constant"
	case AdditiveTinted:
		return "additive-tinted"
	default:
		return fmt.Sprintf("Transparency(%d)", int(t))
	}
}

// Primitive is the topology of a draw call.
type Primitive int

const (
	Triangles Primitive = iota
	Lines
)

// Program selects the shader a draw call uses.
type Program int

const (
	MeshProgram Program = iota
	LineProgram
)

// BlendState describes the blending for subsequent draws.
type BlendState struct {
	Enabled bool
	Mode    Transparency
	Color   Color
}

// DrawCall is one non-indexed draw.
type DrawCall struct {
	Program   Program
	Primitive Primitive

	Vertices  Buffer
	Normals   Buffer
	TexCoords Buffer
	NumVerts  int

	Texture TextureHandle
	Color   Color

	ModelView  mgl64.Mat4
	Projection mgl64.Mat4
	NormalMat  mgl64.Mat4

	// Tag identifies the sub mesh or line being drawn. Used for VAO caching
	// and diagnostics.
	Tag int
}

// Device is the set of GPU operations the scene code needs. Implementations
// are only called from the render thread.
type Device interface {
	// NewBuffer uploads vertex data and returns its handle.
	NewBuffer(data []float32) (Buffer, error)
	// DeleteBuffers frees buffers created by NewBuffer.
	DeleteBuffers(bufs ...Buffer)
	// SetBlend changes the blend state for subsequent draws.
	SetBlend(state BlendState)
	// SetDepthWrite enables or disables depth buffer writes.
	SetDepthWrite(enabled bool)
	// Draw issues a draw call.
	Draw(call DrawCall)
}

// Mat32 converts a double precision matrix into the float32 layout GL uses.
func Mat32(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// FlattenXYZ packs points into a tightly packed float32 slice.
func FlattenXYZ(points []mgl64.Vec3) []float32 {
	out := make([]float32, 0, len(points)*3)
	for _, p := range points {
		out = append(out, float32(p[0]), float32(p[1]), float32(p[2]))
	}
	return out
}

// FlattenXY packs the first two components of each point.
func FlattenXY(points []mgl64.Vec2) []float32 {
	out := make([]float32, 0, len(points)*2)
	for _, p := range points {
		out = append(out, float32(p[0]), float32(p[1]))
	}
	return out
}
