package math

import (
	gomath "math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ConvexHull is the convex hull of a point set. Degenerate inputs collapse
// to a point, segment or planar polygon hull; Faces is only populated for a
// full 3D hull. Input points that the tolerance folded into the hull but
// that lie outside it by a rounding distance are kept as extra vertices,
// so AABB always covers every input point.
type ConvexHull struct {
	verts  []mgl64.Vec3
	faces  [][3]int
	radius float64
}

// BuildHull computes the convex hull of points. The same input always
// produces the same hull.
func BuildHull(points []mgl64.Vec3) *ConvexHull {
	pts := uniquePoints(points)
	h := &ConvexHull{}

	switch {
	case len(pts) == 0:
		return h
	case len(pts) == 1:
		h.verts = pts
		h.computeRadius()
		return h
	}

	eps := hullEpsilon(pts)

	i0 := lowestPoint(pts)
	i1 := farthestFromPoint(pts, pts[i0])
	if pts[i1].Sub(pts[i0]).Len() <= eps {
		h.verts = withOutliers([]mgl64.Vec3{pts[i0]}, pts, func(mgl64.Vec3) bool { return true })
		h.computeRadius()
		return h
	}

	i2, lineDist := farthestFromLine(pts, pts[i0], pts[i1])
	if lineDist <= eps {
		a, dir := pts[i0], pts[i1].Sub(pts[i0]).Normalize()
		h.verts = withOutliers([]mgl64.Vec3{pts[i0], pts[i1]}, pts, func(p mgl64.Vec3) bool {
			return p.Sub(a).Cross(dir).Len() > 0
		})
		h.computeRadius()
		return h
	}

	normal := pts[i1].Sub(pts[i0]).Cross(pts[i2].Sub(pts[i0])).Normalize()
	i3, planeDist := farthestFromPlane(pts, pts[i0], normal)
	if planeDist <= eps {
		origin := pts[i0]
		h.verts = withOutliers(planarHull(pts, pts[i0], pts[i1], normal), pts, func(p mgl64.Vec3) bool {
			return p.Sub(origin).Dot(normal) != 0
		})
		h.computeRadius()
		return h
	}

	h.build3D(pts, [4]int{i0, i1, i2, i3}, eps)
	h.computeRadius()
	return h
}

// Vertices returns the hull's vertices.
func (h *ConvexHull) Vertices() []mgl64.Vec3 {
	return h.verts
}

// Faces returns the triangle faces of a full 3D hull, as indices into the
// vertex list passed to BuildHull after de-duplication.
func (h *ConvexHull) Faces() [][3]int {
	return h.faces
}

// IsEmpty reports whether the hull was built from no points.
func (h *ConvexHull) IsEmpty() bool {
	return len(h.verts) == 0
}

// Radius returns the largest distance from the origin to a hull vertex.
func (h *ConvexHull) Radius() float64 {
	return h.radius
}

// AABB returns the bounding box of the hull after transforming it by m.
func (h *ConvexHull) AABB(m mgl64.Mat4) AABB {
	var box AABB
	for _, v := range h.verts {
		box = box.Expand(mgl64.TransformCoordinate(v, m))
	}
	return box
}

func (h *ConvexHull) computeRadius() {
	h.radius = 0
	for _, v := range h.verts {
		h.radius = gomath.Max(h.radius, v.Len())
	}
}

type hullFace struct {
	a, b, c int
	normal  mgl64.Vec3
	dist    float64
}

func (f hullFace) distance(p mgl64.Vec3) float64 {
	return f.normal.Dot(p) - f.dist
}

func (h *ConvexHull) build3D(pts []mgl64.Vec3, seed [4]int, eps float64) {
	interior := pts[seed[0]].Add(pts[seed[1]]).Add(pts[seed[2]]).Add(pts[seed[3]]).Mul(0.25)

	makeFace := func(a, b, c int) hullFace {
		n := pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a]))
		if n.Dot(interior.Sub(pts[a])) > 0 {
			b, c = c, b
			n = n.Mul(-1)
		}
		n = n.Normalize()
		return hullFace{a: a, b: b, c: c, normal: n, dist: n.Dot(pts[a])}
	}

	faces := []hullFace{
		makeFace(seed[0], seed[1], seed[2]),
		makeFace(seed[0], seed[1], seed[3]),
		makeFace(seed[0], seed[2], seed[3]),
		makeFace(seed[1], seed[2], seed[3]),
	}

	used := map[int]bool{seed[0]: true, seed[1]: true, seed[2]: true, seed[3]: true}

	for pi, p := range pts {
		if used[pi] {
			continue
		}

		var visible []int
		for fi, f := range faces {
			if f.distance(p) > eps {
				visible = append(visible, fi)
			}
		}
		if len(visible) == 0 {
			continue // inside the current hull
		}

		type edge struct{ a, b int }
		edges := make(map[edge]bool)
		isVisible := make(map[int]bool, len(visible))
		for _, fi := range visible {
			isVisible[fi] = true
			f := faces[fi]
			edges[edge{f.a, f.b}] = true
			edges[edge{f.b, f.c}] = true
			edges[edge{f.c, f.a}] = true
		}

		var horizon []edge
		for _, fi := range visible {
			f := faces[fi]
			for _, e := range []edge{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
				if !edges[edge{e.b, e.a}] {
					horizon = append(horizon, e)
				}
			}
		}

		kept := faces[:0:0]
		for fi, f := range faces {
			if !isVisible[fi] {
				kept = append(kept, f)
			}
		}
		for _, e := range horizon {
			kept = append(kept, makeFace(e.a, e.b, pi))
		}
		faces = kept
		used[pi] = true
	}

	// Collect the referenced vertices in input order, plus skipped points
	// that sit outside a final face by less than eps.
	ref := make(map[int]bool)
	for _, f := range faces {
		ref[f.a], ref[f.b], ref[f.c] = true, true, true
	}
	for pi, p := range pts {
		if ref[pi] {
			continue
		}
		for _, f := range faces {
			if f.distance(p) > 0 {
				ref[pi] = true
				break
			}
		}
	}
	remap := make(map[int]int, len(ref))
	for i := range pts {
		if ref[i] {
			remap[i] = len(h.verts)
			h.verts = append(h.verts, pts[i])
		}
	}
	h.faces = make([][3]int, len(faces))
	for i, f := range faces {
		h.faces[i] = [3]int{remap[f.a], remap[f.b], remap[f.c]}
	}
}

// withOutliers appends the points of pts that are not in verts and for which
// off reports true.
func withOutliers(verts, pts []mgl64.Vec3, off func(mgl64.Vec3) bool) []mgl64.Vec3 {
	have := make(map[mgl64.Vec3]bool, len(verts))
	for _, v := range verts {
		have[v] = true
	}
	for _, p := range pts {
		if !have[p] && off(p) {
			have[p] = true
			verts = append(verts, p)
		}
	}
	return verts
}

func uniquePoints(points []mgl64.Vec3) []mgl64.Vec3 {
	seen := make(map[mgl64.Vec3]bool, len(points))
	out := make([]mgl64.Vec3, 0, len(points))
	for _, p := range points {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func hullEpsilon(pts []mgl64.Vec3) float64 {
	extent := 1.0
	for _, p := range pts {
		for i := 0; i < 3; i++ {
			extent = gomath.Max(extent, gomath.Abs(p[i]))
		}
	}
	return extent * 1e-10
}

// lowestPoint returns the lexicographically smallest point, which is always
// an extreme point of the set.
func lowestPoint(pts []mgl64.Vec3) int {
	best := 0
	for i := 1; i < len(pts); i++ {
		p, b := pts[i], pts[best]
		if p[0] < b[0] || (p[0] == b[0] && (p[1] < b[1] || (p[1] == b[1] && p[2] < b[2]))) {
			best = i
		}
	}
	return best
}

func farthestFromPoint(pts []mgl64.Vec3, from mgl64.Vec3) int {
	best, bestDist := 0, -1.0
	for i, p := range pts {
		if d := p.Sub(from).LenSqr(); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func farthestFromLine(pts []mgl64.Vec3, a, b mgl64.Vec3) (int, float64) {
	dir := b.Sub(a).Normalize()
	best, bestDist := 0, -1.0
	for i, p := range pts {
		d := p.Sub(a).Cross(dir).Len()
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func farthestFromPlane(pts []mgl64.Vec3, origin, normal mgl64.Vec3) (int, float64) {
	best, bestDist := 0, -1.0
	for i, p := range pts {
		d := gomath.Abs(p.Sub(origin).Dot(normal))
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// planarHull runs a monotone chain hull in the plane spanned by the points.
func planarHull(pts []mgl64.Vec3, origin, axisPoint, normal mgl64.Vec3) []mgl64.Vec3 {
	u := axisPoint.Sub(origin).Normalize()
	v := normal.Cross(u).Normalize()

	type p2 struct {
		x, y float64
		idx  int
	}
	proj := make([]p2, len(pts))
	for i, p := range pts {
		d := p.Sub(origin)
		proj[i] = p2{x: d.Dot(u), y: d.Dot(v), idx: i}
	}
	sort.SliceStable(proj, func(i, j int) bool {
		if proj[i].x != proj[j].x {
			return proj[i].x < proj[j].x
		}
		return proj[i].y < proj[j].y
	})

	cross := func(o, a, b p2) float64 {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}

	hull := make([]p2, 0, 2*len(proj))
	for _, p := range proj {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(proj) - 2; i >= 0; i-- {
		p := proj[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	out := make([]mgl64.Vec3, len(hull))
	for i, p := range hull {
		out[i] = pts[p.idx]
	}
	return out
}
