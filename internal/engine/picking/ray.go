// Package picking resolves window positions to the scene objects and
// interaction handles under them.
package picking

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/pkg/math"
)

// ScreenToRay converts pixel coordinates to a world space ray.
// x, y are measured from the top left corner of a w by h viewport.
func ScreenToRay(view gpu.View, x, y, w, h float64) math.Ray {
	invViewProj := view.ProjMat().Mul4(view.ViewMat()).Inv()

	// Normalized device coordinates, Y flipped.
	ndcX := 2*x/w - 1
	ndcY := 1 - 2*y/h

	near := unproject(invViewProj, mgl64.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, mgl64.Vec4{ndcX, ndcY, 1, 1})

	return math.NewRay(near, far.Sub(near))
}

func unproject(inv mgl64.Mat4, ndc mgl64.Vec4) mgl64.Vec3 {
	p := inv.Mul4x1(ndc)
	if p[3] != 0 {
		return p.Vec3().Mul(1 / p[3])
	}
	return p.Vec3()
}
