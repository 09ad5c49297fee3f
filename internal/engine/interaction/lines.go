package interaction

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/pkg/math"
)

func nearRay(angle float64) bool {
	return angle >= 0 && angle < picking.LinePickAngle
}

// splitLine inserts a node on the first segment the ray passes close to.
func splitLine(hsp HasScreenPoints, ray math.Ray) bool {
	rs := math.RaySpace(ray)
	points := hsp.ScreenPoints()
	for i := 0; i+1 < len(points); i++ {
		near := math.RayClosePoint(rs, points[i], points[i+1])
		if nearRay(math.AngleToRay(rs, near)) {
			hsp.SetScreenPoints(slices.Insert(slices.Clone(points), i+1, near))
			return true
		}
	}
	return false
}

// removeLineNode deletes the first node the ray passes close to. A line
// keeps at least two nodes.
func removeLineNode(hsp HasScreenPoints, ray math.Ray) bool {
	points := hsp.ScreenPoints()
	if len(points) <= 2 {
		return false
	}
	rs := math.RaySpace(ray)
	i := slices.IndexFunc(points, func(p mgl64.Vec3) bool {
		return nearRay(math.AngleToRay(rs, p))
	})
	if i < 0 {
		return false
	}
	hsp.SetScreenPoints(slices.Delete(slices.Clone(points), i, i+1))
	return true
}
