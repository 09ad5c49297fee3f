// Package lighting describes the directional light meshes are shaded with.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/engine/gpu"
)

// Sun is a directional light with an ambient floor.
type Sun struct {
	// Direction points from the scene toward the light, normalized.
	Direction mgl64.Vec3
	Color     gpu.Color
	Ambient   float32
}

// DefaultSun lights the scene from the south west, high in the sky.
func DefaultSun() Sun {
	return Sun{
		Direction: SunDirection(225, 50),
		Color:     gpu.White,
		Ambient:   0.35,
	}
}

// SunDirection converts an azimuth, measured counterclockwise from +X,
// and an elevation above the XY plane, both in degrees, to a unit vector
// toward the sun. Z is up.
func SunDirection(azimuth, elevation float64) mgl64.Vec3 {
	az := mgl64.DegToRad(azimuth)
	el := mgl64.DegToRad(elevation)
	return mgl64.Vec3{
		math.Cos(el) * math.Cos(az),
		math.Cos(el) * math.Sin(az),
		math.Sin(el),
	}
}

// Intensity is the brightness of a surface with the given world normal,
// matching the mesh shader.
func (s Sun) Intensity(normal mgl64.Vec3) float64 {
	if normal.Len() == 0 {
		return float64(s.Ambient)
	}
	diffuse := math.Max(normal.Normalize().Dot(s.Direction), 0)
	a := float64(s.Ambient)
	return a + (1-a)*diffuse
}

// Uniforms returns the values the mesh shader expects.
func (s Sun) Uniforms() (dir [3]float32, color [3]float32, ambient float32) {
	d := s.Direction.Normalize()
	return [3]float32{float32(d[0]), float32(d[1]), float32(d[2])},
		[3]float32{s.Color[0], s.Color[1], s.Color[2]},
		s.Ambient
}
