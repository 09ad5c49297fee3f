package gpu

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/pkg/math"
)

// DefaultMinApparentSize is the bounding diameter / distance ratio below
// which an instance is too small to draw.
const DefaultMinApparentSize = 0.001

// View is the camera state needed to draw and cull.
type View interface {
	ViewMat() mgl64.Mat4
	ProjMat() mgl64.Mat4
	Position() mgl64.Vec3
	// Collides reports whether the box intersects the view frustum.
	Collides(box math.AABB) bool
}

// TextureSource resolves texture URLs to device handles. It may return
// LoadingTexture or BadTexture.
type TextureSource interface {
	Handle(url string) TextureHandle
}

// Context carries everything a draw pass needs for one view.
type Context struct {
	Device   Device
	Textures TextureSource
	View     View
	ViewID   int

	// MinApparentSize overrides DefaultMinApparentSize when positive.
	MinApparentSize float64
}

// ApparentSizeLimit returns the culling threshold in effect.
func (c *Context) ApparentSizeLimit() float64 {
	if c.MinApparentSize > 0 {
		return c.MinApparentSize
	}
	return DefaultMinApparentSize
}

// Texture resolves url through the context's texture source.
func (c *Context) Texture(url string) TextureHandle {
	if url == "" || c.Textures == nil {
		return NoTexture
	}
	return c.Textures.Handle(url)
}
