package lighting

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		az, el float64
		want   mgl64.Vec3
	}{
		{0, 0, mgl64.Vec3{1, 0, 0}},
		{90, 0, mgl64.Vec3{0, 1, 0}},
		{0, 90, mgl64.Vec3{0, 0, 1}},
		{180, 45, mgl64.Vec3{-math.Sqrt2 / 2, 0, math.Sqrt2 / 2}},
	}
	for _, tt := range tests {
		got := SunDirection(tt.az, tt.el)
		if !got.ApproxEqualThreshold(tt.want, 1e-9) {
			t.Errorf("SunDirection(%v, %v) = %v, want %v", tt.az, tt.el, got, tt.want)
		}
		if l := got.Len(); math.Abs(l-1) > 1e-9 {
			t.Errorf("SunDirection(%v, %v) length = %v, want 1", tt.az, tt.el, l)
		}
	}
}

func TestIntensity(t *testing.T) {
	sun := Sun{Direction: mgl64.Vec3{0, 0, 1}, Ambient: 0.25}
	tests := []struct {
		name   string
		normal mgl64.Vec3
		want   float64
	}{
		{"facing", mgl64.Vec3{0, 0, 2}, 1},
		{"away", mgl64.Vec3{0, 0, -1}, 0.25},
		{"grazing", mgl64.Vec3{1, 0, 0}, 0.25},
		{"zero", mgl64.Vec3{}, 0.25},
		{"half", mgl64.Vec3{math.Sqrt(3) / 2, 0, 0.5}, 0.625},
	}
	for _, tt := range tests {
		if got := sun.Intensity(tt.normal); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Intensity(%v) = %v, want %v", tt.name, tt.normal, got, tt.want)
		}
	}
}
