// Package debug provides selection outlines and screenshot output.
package debug

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/pkg/math"
)

// BBoxWireframeVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// DefaultBBoxPadding is the default padding for selection boxes.
const DefaultBBoxPadding = 0.05

// boxEdges indexes Corners() pairwise. Corner bit 0 is X, bit 1 Y, bit 2 Z.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0}, // bottom
	{4, 5}, {5, 7}, {7, 6}, {6, 4}, // top
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // vertical
}

// BBoxWireframe returns line segment endpoints outlining box grown by pad.
// An empty box yields no vertices.
func BBoxWireframe(box math.AABB, pad float64) []mgl64.Vec3 {
	if box.IsEmpty() {
		return nil
	}
	return wireframe(box.Pad(pad).Corners())
}

// UnitCubeWireframe returns the outline of the cube from -0.5 to 0.5
// after transforming it by m.
func UnitCubeWireframe(m mgl64.Mat4) []mgl64.Vec3 {
	corners := math.NewAABBMinMax(mgl64.Vec3{-0.5, -0.5, -0.5}, mgl64.Vec3{0.5, 0.5, 0.5}).Corners()
	for i, c := range corners {
		corners[i] = mgl64.TransformCoordinate(c, m)
	}
	return wireframe(corners)
}

func wireframe(c [8]mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, BBoxWireframeVertexCount)
	for _, e := range boxEdges {
		out = append(out, c[e[0]], c[e[1]])
	}
	return out
}
