package main

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/mesh"
	"github.com/Faultbox/simview/internal/engine/scene"
	"github.com/Faultbox/simview/internal/sim/entity"
)

// populate fills pop with the sample scene.
func populate(pop *entity.Population, reg *mesh.Registry) error {
	drawables := []scene.Drawable{
		entity.NewDisplayEntity(1,
			entity.WithName("floor"),
			entity.WithMesh(reg, mesh.KeyQuad),
			entity.WithSize(mgl64.Vec3{20, 20, 1}),
			entity.Fixed(),
		),
		entity.NewDisplayEntity(2,
			entity.WithName("axis"),
			entity.WithMesh(reg, mesh.KeyAxis),
			entity.WithPosition(mgl64.Vec3{0, 0, 0.01}),
			entity.Fixed(),
		),
		entity.NewDisplayEntity(3,
			entity.WithName("crate"),
			entity.WithMesh(reg, mesh.KeyBox),
			entity.WithPosition(mgl64.Vec3{-3, 2, 0}),
			entity.WithSize(mgl64.Vec3{2, 2, 1}),
			entity.WithAlignment(mgl64.Vec3{0, 0, -0.5}),
		),
		entity.NewDisplayEntity(4,
			entity.WithName("spinner"),
			entity.WithMesh(reg, mesh.KeyBox),
			entity.WithPosition(mgl64.Vec3{3, 2, 0}),
			entity.WithAlignment(mgl64.Vec3{0, 0, -0.5}),
			entity.WithSpin(0.8),
		),
		entity.NewDisplayEntity(5,
			entity.WithName("zone"),
			entity.WithPosition(mgl64.Vec3{0, -4, 0}),
			entity.WithSize(mgl64.Vec3{4, 2, 2}),
			entity.WithAlignment(mgl64.Vec3{0, 0, -0.5}),
			entity.WithColor(gpu.Color{0.3, 1, 0.4, 1}),
		),
		entity.NewPolyline(6, []mgl64.Vec3{
			{-6, -6, 0}, {-2, -6, 0}, {-2, -2, 0}, {4, -2, 0},
		}, gpu.Color{1, 0.6, 0.2, 1}),
	}

	for _, d := range drawables {
		if err := pop.Add(d); err != nil {
			return err
		}
	}
	return nil
}
