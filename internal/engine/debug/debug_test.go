package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/pkg/math"
)

func TestBBoxWireframe(t *testing.T) {
	box := math.NewAABBMinMax(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 2, 3})
	verts := BBoxWireframe(box, 0)
	if len(verts) != BBoxWireframeVertexCount {
		t.Fatalf("len = %d, want %d", len(verts), BBoxWireframeVertexCount)
	}
	for i := 0; i < len(verts); i += 2 {
		d := verts[i+1].Sub(verts[i])
		// Every edge runs along exactly one axis.
		nonZero := 0
		for _, c := range d {
			if c != 0 {
				nonZero++
			}
		}
		if nonZero != 1 {
			t.Errorf("edge %d = %v -> %v, not axis aligned", i/2, verts[i], verts[i+1])
		}
	}

	padded := math.NewAABB(BBoxWireframe(box, 0.5))
	if padded.Min != (mgl64.Vec3{-0.5, -0.5, -0.5}) || padded.Max != (mgl64.Vec3{1.5, 2.5, 3.5}) {
		t.Errorf("padded bounds = %v..%v", padded.Min, padded.Max)
	}

	if got := BBoxWireframe(math.AABB{}, 1); got != nil {
		t.Errorf("BBoxWireframe(empty) = %v, want nil", got)
	}
}

func TestUnitCubeWireframe(t *testing.T) {
	verts := UnitCubeWireframe(mgl64.Translate3D(10, 0, 0).Mul4(mgl64.Scale3D(2, 2, 2)))
	box := math.NewAABB(verts)
	if box.Min != (mgl64.Vec3{9, -1, -1}) || box.Max != (mgl64.Vec3{11, 1, 1}) {
		t.Errorf("bounds = %v..%v, want (9,-1,-1)..(11,1,1)", box.Min, box.Max)
	}
}

func TestCaptureFromPixels(t *testing.T) {
	dir := t.TempDir()
	sc := NewScreenshotCapture(filepath.Join(dir, "shots"), "test")

	// 1x2 image: bottom row red, top row blue (GL order is bottom-up).
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	name, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels() error = %v", err)
	}
	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if _, _, b, _ := img.At(0, 0).RGBA(); b == 0 {
		t.Error("top pixel is not blue")
	}

	second, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("second CaptureFromPixels() error = %v", err)
	}
	if second == name {
		t.Errorf("two captures share the file name %s", name)
	}

	if _, err := sc.CaptureFromPixels(pixels, 2, 2); err == nil {
		t.Error("CaptureFromPixels(size mismatch) error = nil, want error")
	}
}
