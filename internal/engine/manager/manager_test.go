package manager

import (
	"context"
	"errors"
	"image"
	gomath "math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/simview/internal/config"
	"github.com/Faultbox/simview/internal/engine/camera"
	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/gpu/gputest"
	"github.com/Faultbox/simview/internal/engine/interaction"
	"github.com/Faultbox/simview/internal/engine/mesh"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/internal/engine/scene"
)

type fakeBackend struct {
	*gputest.Recorder

	mu       sync.Mutex
	err      error
	frames   int
	captures int
	closed   bool

	// When set, Capture signals captureStarted and waits for release.
	captureStarted chan struct{}
	release        chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{Recorder: gputest.New()}
}

func (b *fakeBackend) UploadTexture(*image.RGBA) (gpu.TextureHandle, error) { return 1, nil }
func (b *fakeBackend) DeleteTexture(gpu.TextureHandle)                      {}
func (b *fakeBackend) Ready() bool                                          { return true }
func (b *fakeBackend) EndFrame(int) error                                   { return nil }
func (b *fakeBackend) SetDebugInfo(int, string, []int64)                    {}

func (b *fakeBackend) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *fakeBackend) setErr(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *fakeBackend) BeginFrame(int) error {
	b.mu.Lock()
	b.frames++
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) frameCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *fakeBackend) Capture(int) (*image.RGBA, error) {
	if b.captureStarted != nil {
		b.captureStarted <- struct{}{}
		<-b.release
	}
	b.mu.Lock()
	b.captures++
	b.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (b *fakeBackend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

type fakePop struct {
	mu        sync.Mutex
	drawables []scene.Drawable
}

func (p *fakePop) add(d scene.Drawable) {
	p.mu.Lock()
	p.drawables = append(p.drawables, d)
	p.mu.Unlock()
}

func (p *fakePop) Drawables() []scene.Drawable {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]scene.Drawable(nil), p.drawables...)
}

func (p *fakePop) Entity(id int64) (interaction.Entity, bool) {
	for _, d := range p.Drawables() {
		if e, ok := d.(interaction.Entity); ok && d.PickingID() == id {
			return e, true
		}
	}
	return nil, false
}

type countingDrawable struct {
	id      int64
	panics  bool
	updates atomic.Int32
}

func (d *countingDrawable) PickingID() int64 { return d.id }

func (d *countingDrawable) UpdateGraphics(float64) error {
	if d.panics {
		panic("broken drawable")
	}
	d.updates.Add(1)
	return nil
}

func (d *countingDrawable) Bindings() []scene.Binding { return nil }

type boxEntity struct {
	mu   sync.Mutex
	id   int64
	pos  mgl64.Vec3
	size mgl64.Vec3
}

func (e *boxEntity) PickingID() int64             { return e.id }
func (e *boxEntity) Movable() bool                { return true }
func (e *boxEntity) Orientation() mgl64.Vec3      { return mgl64.Vec3{} }
func (e *boxEntity) SetOrientation(mgl64.Vec3)    {}
func (e *boxEntity) Alignment() mgl64.Vec3        { return mgl64.Vec3{} }
func (e *boxEntity) UpdateGraphics(float64) error { return nil }
func (e *boxEntity) Bindings() []scene.Binding    { return []scene.Binding{boxBinding{e}} }
func (e *boxEntity) Dragged(d mgl64.Vec3)         { e.SetPosition(e.Position().Add(d)) }

func (e *boxEntity) Position() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

func (e *boxEntity) SetPosition(p mgl64.Vec3) {
	e.mu.Lock()
	e.pos = p
	e.mu.Unlock()
}

func (e *boxEntity) Size() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

func (e *boxEntity) SetSize(s mgl64.Vec3) {
	e.mu.Lock()
	e.size = s
	e.mu.Unlock()
}

type boxBinding struct{ e *boxEntity }

func (b boxBinding) CollectProxies(*scene.FrameContext) ([]scene.Proxy, error) {
	return []scene.Proxy{scene.NewBoxProxy(b.e.id, interaction.TransMatrix(b.e), gpu.White, nil)}, nil
}

func (b boxBinding) CollectSelectionProxies(*scene.FrameContext) ([]scene.Proxy, error) {
	return []scene.Proxy{scene.NewHandleProxy(picking.MoveHandle, b.e.Position(), 1.5, gpu.White)}, nil
}

func (b boxBinding) IsBoundTo(d scene.Drawable) bool { return d == scene.Drawable(b.e) }

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Assets.TextureDirs = []string{t.TempDir()}
	cfg.Screenshot.Dir = t.TempDir()
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func topDownCamera() *camera.Camera {
	return camera.New(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 0}, 60, 1)
}

func startWithWindow(t *testing.T, b *fakeBackend, pop Population, opts ...Option) *Manager {
	t.Helper()
	m := New(testConfig(t), b, pop, opts...)
	m.OpenWindow(1, 0, 100, 100, topDownCamera(), nil)
	m.Start()
	t.Cleanup(m.Shutdown)
	waitFor(t, "first frame", func() bool { return b.frameCount() > 0 })
	return m
}

func TestRedrawRateIsBounded(t *testing.T) {
	b := newFakeBackend()
	m := startWithWindow(t, b, &fakePop{})

	const span = 300 * time.Millisecond
	before := b.frameCount()
	start := time.Now()
	for time.Since(start) < span {
		m.QueueRedraw()
		time.Sleep(time.Millisecond)
	}
	drawn := b.frameCount() - before

	interval := config.Default().Render.FrameInterval()
	limit := int((span+interval-1)/interval) + 1
	if drawn > limit {
		t.Errorf("drew %d frames in %s, want at most %d", drawn, span, limit)
	}
	if drawn < 2 {
		t.Errorf("drew %d frames in %s, want continuous redraws", drawn, span)
	}
}

func TestShutdown(t *testing.T) {
	b := newFakeBackend()
	m := New(testConfig(t), b, &fakePop{})
	m.Start()
	if !m.IsGood() {
		t.Fatal("IsGood() = false after Start")
	}
	m.Shutdown()

	if m.IsGood() {
		t.Error("IsGood() = true after Shutdown")
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if !closed {
		t.Error("backend not closed by Shutdown")
	}
	if _, err := m.BlockOnScreenshot(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("BlockOnScreenshot() error = %v, want %v", err, ErrNotRunning)
	}
}

func TestScreenshotBlocksUntilCaptured(t *testing.T) {
	b := newFakeBackend()
	b.captureStarted = make(chan struct{})
	b.release = make(chan struct{})
	m := startWithWindow(t, b, &fakePop{})

	type result struct {
		img *image.RGBA
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := m.BlockOnScreenshot(context.Background())
		done <- result{img, err}
	}()

	select {
	case <-b.captureStarted:
	case <-time.After(3 * time.Second):
		t.Fatal("capture never started")
	}

	if _, err := m.BlockOnScreenshot(context.Background()); !errors.Is(err, ErrScreenshotInFlight) {
		t.Errorf("second BlockOnScreenshot() error = %v, want %v", err, ErrScreenshotInFlight)
	}
	select {
	case <-done:
		t.Fatal("BlockOnScreenshot() returned before the capture finished")
	default:
	}

	close(b.release)
	r := <-done
	if r.err != nil || r.img == nil {
		t.Fatalf("BlockOnScreenshot() = %v, %v, want an image", r.img, r.err)
	}
	b.mu.Lock()
	captures := b.captures
	b.mu.Unlock()
	if captures != 1 {
		t.Errorf("captures = %d, want 1", captures)
	}
}

func TestScreenshotWithoutWindow(t *testing.T) {
	b := newFakeBackend()
	m := New(testConfig(t), b, &fakePop{})
	m.Start()
	t.Cleanup(m.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := m.BlockOnScreenshot(ctx); !errors.Is(err, ErrNoWindow) {
		t.Errorf("BlockOnScreenshot() error = %v, want %v", err, ErrNoWindow)
	}
}

func TestSaveScreenshot(t *testing.T) {
	b := newFakeBackend()
	m := startWithWindow(t, b, &fakePop{})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	path, err := m.SaveScreenshot(ctx)
	if err != nil {
		t.Fatalf("SaveScreenshot() error = %v", err)
	}
	if path == "" {
		t.Error("SaveScreenshot() returned an empty path")
	}
}

func TestMeshBounds(t *testing.T) {
	release := make(chan struct{})
	reg := mesh.NewRegistry(func(mesh.Key) (*mesh.Proto, error) {
		<-release
		return mesh.Box(gpu.White)
	}, nil)

	cfg := testConfig(t)
	cfg.Render.BoundsTimeout = config.Duration(50 * time.Millisecond)
	m := New(cfg, newFakeBackend(), &fakePop{}, WithMeshRegistry(reg))

	if _, err := m.MeshBounds(context.Background(), "slow", false); !errors.Is(err, mesh.ErrNotReady) {
		t.Errorf("MeshBounds(no block) error = %v, want %v", err, mesh.ErrNotReady)
	}

	start := time.Now()
	if _, err := m.MeshBounds(context.Background(), "slow", true); !errors.Is(err, ErrBoundsTimeout) {
		t.Errorf("MeshBounds(block) error = %v, want %v", err, ErrBoundsTimeout)
	}
	if waited := time.Since(start); waited > 2*time.Second {
		t.Errorf("MeshBounds(block) waited %s", waited)
	}

	close(release)
	b, err := m.MeshBounds(context.Background(), "slow", true)
	if err != nil {
		t.Fatalf("MeshBounds(block) after load error = %v", err)
	}
	if !b.Contains(mgl64.Vec3{0.5, 0.5, 0.5}) || b.Contains(mgl64.Vec3{0.6, 0, 0}) {
		t.Errorf("MeshBounds() = %+v, want the unit cube", b)
	}
}

func TestFatalBackendStopsRendering(t *testing.T) {
	b := newFakeBackend()
	m := startWithWindow(t, b, &fakePop{})

	b.setErr(errors.New("context lost"))
	select {
	case <-m.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("render goroutine did not exit after a fatal error")
	}

	if m.IsGood() {
		t.Error("IsGood() = true after a fatal error")
	}
	if n := m.NumWindows(); n != 0 {
		t.Errorf("NumWindows() = %d, want 0", n)
	}
	if m.HandleMouseButton(1, 50, 50, interaction.PrimaryButton, true, 0) {
		t.Error("HandleMouseButton() = true after a fatal error")
	}
	if _, err := m.BlockOnScreenshot(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("BlockOnScreenshot() error = %v, want %v", err, ErrNotRunning)
	}
}

func TestDrawablePanicIsContained(t *testing.T) {
	good := &countingDrawable{id: 1}
	bad := &countingDrawable{id: 2, panics: true}
	pop := &fakePop{}
	pop.add(bad)
	pop.add(good)

	b := newFakeBackend()
	m := startWithWindow(t, b, pop)

	for i := 0; i < 5; i++ {
		m.UpdateTime(float64(i))
		time.Sleep(20 * time.Millisecond)
	}
	waitFor(t, "repeated updates", func() bool { return good.updates.Load() >= 2 })

	if !m.IsGood() {
		t.Error("IsGood() = false after a drawable panicked")
	}
	entries := m.ExceptionLog().Entries()
	if len(entries) != 1 || entries[0].Source != 2 || entries[0].Count < 2 {
		t.Errorf("ExceptionLog().Entries() = %+v, want one repeated entry from drawable 2", entries)
	}
	if got := m.SimTime(); got != 4 {
		t.Errorf("SimTime() = %v, want 4", got)
	}
}

func TestSelectAndDrag(t *testing.T) {
	e := &boxEntity{id: 7, size: mgl64.Vec3{1, 1, 1}}
	pop := &fakePop{}
	pop.add(e)

	b := newFakeBackend()
	m := startWithWindow(t, b, pop)
	m.MouseMoved(1, 50, 50)
	waitFor(t, "entity pick", func() bool { return len(m.PickForMouse(1)) > 0 })

	got, ok := m.HandleSelection(1, 50, 50)
	if !ok || got != interaction.Entity(e) {
		t.Fatalf("HandleSelection() = %v, %v, want the box", got, ok)
	}

	hasHandle := func() bool {
		for _, r := range m.PickAt(1, 50, 50) {
			if r.ID == int64(picking.MoveHandle) && !r.IsEntity {
				return true
			}
		}
		return false
	}
	waitFor(t, "selection handles", hasHandle)

	if m.HandleDrag(DragInfo{WindowID: 1, X: 60, Y: 50, DX: 10}) {
		t.Error("HandleDrag() before a handle press = true, want false")
	}
	if !m.HandleMouseButton(1, 50, 50, interaction.PrimaryButton, true, 0) {
		t.Fatal("HandleMouseButton(press on handle) = false, want true")
	}
	if !m.HandleDrag(DragInfo{WindowID: 1, X: 60, Y: 50, DX: 10}) {
		t.Fatal("HandleDrag() = false, want true")
	}
	pos := e.Position()
	if pos.Len() < 1e-6 || gomath.Abs(pos.Z()) > 1e-9 {
		t.Errorf("Position() after drag = %v, want a move within z = 0", pos)
	}

	m.HandleMouseButton(1, 60, 50, interaction.PrimaryButton, false, 0)
	if m.Interaction().IsDragging() {
		t.Error("IsDragging() = true after release")
	}

	if _, ok := m.HandleSelection(1, 0, 0); ok {
		t.Error("HandleSelection(empty corner) selected something")
	}
	if m.Interaction().Selected() != nil {
		t.Error("Selected() != nil after selecting empty space")
	}
}

func TestMouseMovedLocatesXYPlane(t *testing.T) {
	m := New(testConfig(t), newFakeBackend(), &fakePop{})
	m.OpenWindow(3, 0, 100, 100, topDownCamera(), nil)

	p, ok := m.MouseMoved(3, 50, 50)
	if !ok || !p.ApproxEqualThreshold(mgl64.Vec3{}, 1e-9) {
		t.Errorf("MouseMoved(center) = %v, %v, want origin", p, ok)
	}
	if _, ok := m.MouseMoved(99, 50, 50); ok {
		t.Error("MouseMoved(unknown window) ok = true")
	}
	x, y, in := func() (int, int, bool) { w, _ := m.Window(3); return w.Mouse() }()
	if x != 50 || y != 50 || !in {
		t.Errorf("Mouse() = %d, %d, %v, want 50, 50, true", x, y, in)
	}
}
