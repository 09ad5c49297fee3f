package mesh

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/gpu"
)

var identity = mgl64.Ident4()

// Built in mesh keys understood by BuiltinLoader.
const (
	KeyBox  Key = "builtin:box"
	KeyQuad Key = "builtin:quad"
	KeyAxis Key = "builtin:axis"
)

// BuiltinLoader builds the primitive meshes used for entities without an
// asset. Unknown keys fall through to next, which may be nil.
func BuiltinLoader(next Loader) Loader {
	return func(key Key) (*Proto, error) {
		switch key {
		case KeyBox:
			return Box(gpu.Color{0.6, 0.6, 0.65, 1})
		case KeyQuad:
			return Quad(gpu.Color{0.8, 0.8, 0.8, 1})
		case KeyAxis:
			return Axis()
		}
		if next == nil || strings.HasPrefix(string(key), "builtin:") {
			return nil, fmt.Errorf("unknown mesh %q", key)
		}
		return next(key)
	}
}

// Box returns a unit cube centered on the origin.
func Box(c gpu.Color) (*Proto, error) {
	faces := []struct{ n, u, v mgl64.Vec3 }{
		{mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}},
		{mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 1, 0}},
		{mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}},
		{mgl64.Vec3{0, -1, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}},
		{mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}},
		{mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0}},
	}
	var verts, norms []mgl64.Vec3
	for _, f := range faces {
		c0 := f.n.Mul(0.5)
		u, v := f.u.Mul(0.5), f.v.Mul(0.5)
		quad := [4]mgl64.Vec3{
			c0.Sub(u).Sub(v), c0.Add(u).Sub(v), c0.Add(u).Add(v), c0.Sub(u).Add(v),
		}
		for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
			verts = append(verts, quad[i])
			norms = append(norms, f.n)
		}
	}
	return single(SubMesh{Vertices: verts, Normals: norms, Diffuse: c})
}

// Quad returns a unit square in the XY plane facing +Z.
func Quad(c gpu.Color) (*Proto, error) {
	n := mgl64.Vec3{0, 0, 1}
	verts := []mgl64.Vec3{
		{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0.5, 0.5, 0},
		{-0.5, -0.5, 0}, {0.5, 0.5, 0}, {-0.5, 0.5, 0},
	}
	return single(SubMesh{Vertices: verts, Normals: []mgl64.Vec3{n, n, n, n, n, n}, Diffuse: c})
}

// Axis returns three unit lines along X, Y and Z.
func Axis() (*Proto, error) {
	p := NewProto()
	axes := []struct {
		dir mgl64.Vec3
		c   gpu.Color
	}{
		{mgl64.Vec3{1, 0, 0}, gpu.Color{1, 0, 0, 1}},
		{mgl64.Vec3{0, 1, 0}, gpu.Color{0, 1, 0, 1}},
		{mgl64.Vec3{0, 0, 1}, gpu.Color{0, 0, 1, 1}},
	}
	for _, a := range axes {
		i, err := p.AddSubLine(SubLine{Vertices: []mgl64.Vec3{{}, a.dir}, Color: a.c})
		if err != nil {
			return nil, err
		}
		if err := p.AddSubLineInstance(i, identity); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func single(sm SubMesh) (*Proto, error) {
	p := NewProto()
	i, err := p.AddSubMesh(sm)
	if err != nil {
		return nil, err
	}
	if err := p.AddSubMeshInstance(i, identity); err != nil {
		return nil, err
	}
	return p, nil
}
