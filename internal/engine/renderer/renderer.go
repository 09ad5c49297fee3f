// Package renderer implements the drawing backend on OpenGL 4.1 core.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/framebuffer"
	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/lighting"
	"github.com/Faultbox/simview/internal/engine/shader"
	"github.com/Faultbox/simview/internal/logger"
)

// ErrNoSurface is returned for a window id that was never added.
var ErrNoSurface = errors.New("renderer: no such surface")

// Surface is a window the renderer can draw into. All surfaces share one
// GL context.
type Surface interface {
	MakeCurrent() error
	ReleaseCurrent() error
	Swap()
	// DrawableSize is the framebuffer size in pixels.
	DrawableSize() (int, int)
}

// Config holds renderer configuration.
type Config struct {
	ClearColor gpu.Color
	Sun        lighting.Sun
}

// DefaultConfig returns the renderer defaults.
func DefaultConfig() Config {
	return Config{
		ClearColor: gpu.Color{0.1, 0.1, 0.15, 1},
		Sun:        lighting.DefaultSun(),
	}
}

// DebugInfo is the picking diagnostics last reported for a window.
type DebugInfo struct {
	Text string
	IDs  []int64
}

type target struct {
	surface Surface
	fb      *framebuffer.Framebuffer
}

// Renderer draws through OpenGL. Surfaces are added from the main
// goroutine; everything else runs on the render goroutine, which must be
// locked to its OS thread.
type Renderer struct {
	config Config
	log    *zap.Logger

	mu      sync.Mutex
	targets map[int]*target
	retired []*target
	info    map[int]DebugInfo
	err     error

	initialized bool
	current     Surface
	programs    [2]*shader.Program
	vao         uint32
	badTexture  uint32
	textures    map[gpu.TextureHandle]struct{}
	buffers     map[gpu.Buffer]struct{}
	stats       FrameStats
}

// FrameStats counts work done by the last frame.
type FrameStats struct {
	DrawCalls   int
	Vertices    int
	BufferCount int
	Textures    int
}

// New creates a renderer. GL is initialized lazily on the render
// goroutine, the first time Ready is called with a surface available.
func New(cfg Config) *Renderer {
	return &Renderer{
		config:   cfg,
		log:      logger.Named("renderer"),
		targets:  make(map[int]*target),
		info:     make(map[int]DebugInfo),
		textures: make(map[gpu.TextureHandle]struct{}),
		buffers:  make(map[gpu.Buffer]struct{}),
	}
}

// AddSurface registers a window under id.
func (r *Renderer) AddSurface(id int, s Surface) {
	r.mu.Lock()
	r.targets[id] = &target{surface: s}
	r.mu.Unlock()
}

// RemoveSurface forgets a window. Its GL resources are released on the
// render goroutine.
func (r *Renderer) RemoveSurface(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	if !ok {
		return
	}
	delete(r.targets, id)
	delete(r.info, id)
	r.retired = append(r.retired, t)
}

func (r *Renderer) target(id int) (*target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[id]
	return t, ok
}

// firstSurface returns the surface with the lowest id.
func (r *Renderer) firstSurface() Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.targets))
	for id := range r.targets {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)
	return r.targets[ids[0]].surface
}

// Err implements manager.Backend.
func (r *Renderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Renderer) setErr(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// Ready implements manager.Backend. It initializes GL the first time a
// surface is available.
func (r *Renderer) Ready() bool {
	if r.initialized {
		return true
	}
	if r.Err() != nil {
		return false
	}
	s := r.firstSurface()
	if s == nil {
		return false
	}
	if err := r.init(s); err != nil {
		r.setErr(err)
		return false
	}
	r.initialized = true
	return true
}

func (r *Renderer) init(s Surface) error {
	if err := s.MakeCurrent(); err != nil {
		return err
	}
	r.current = s

	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	var err error
	if r.programs[gpu.MeshProgram], err = shader.Compile("mesh", meshVertexSrc, meshFragmentSrc); err != nil {
		return err
	}
	if r.programs[gpu.LineProgram], err = shader.Compile("line", lineVertexSrc, lineFragmentSrc); err != nil {
		return err
	}
	gl.GenVertexArrays(1, &r.vao)
	r.badTexture = r.createBadTexture()
	return nil
}

// makeCurrent binds the shared context to s if it is not already.
func (r *Renderer) makeCurrent(s Surface) error {
	if r.current == s {
		return nil
	}
	if err := s.MakeCurrent(); err != nil {
		return err
	}
	r.current = s
	return nil
}

func (r *Renderer) freeRetired() {
	r.mu.Lock()
	retired := r.retired
	r.retired = nil
	r.mu.Unlock()
	for _, t := range retired {
		if t.fb != nil {
			t.fb.Destroy()
			t.fb = nil
		}
	}
}

// BeginFrame implements manager.Backend.
func (r *Renderer) BeginFrame(windowID int) error {
	t, ok := r.target(windowID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSurface, windowID)
	}
	if err := r.makeCurrent(t.surface); err != nil {
		r.setErr(err)
		return err
	}
	r.freeRetired()

	w, h := t.surface.DrawableSize()
	if t.fb == nil {
		fb, err := framebuffer.New(w, h)
		if err != nil {
			r.setErr(err)
			return err
		}
		t.fb = fb
	}
	t.fb.Resize(w, h)
	t.fb.Bind()

	c := r.config.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.stats = FrameStats{BufferCount: len(r.buffers), Textures: len(r.textures)}
	return nil
}

// EndFrame implements manager.Backend.
func (r *Renderer) EndFrame(windowID int) error {
	t, ok := r.target(windowID)
	if !ok || t.fb == nil {
		return fmt.Errorf("%w: %d", ErrNoSurface, windowID)
	}
	t.fb.Present()
	t.surface.Swap()

	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
	case gl.OUT_OF_MEMORY:
		err := errors.New("renderer: GL out of memory")
		r.setErr(err)
		return err
	default:
		r.log.Debug("GL error", zap.Uint32("code", code), zap.Int("window", windowID))
	}
	return nil
}

// Capture implements manager.Backend. It reads the offscreen target of
// the last frame drawn into windowID.
func (r *Renderer) Capture(windowID int) (*image.RGBA, error) {
	t, ok := r.target(windowID)
	if !ok || t.fb == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoSurface, windowID)
	}
	if err := r.makeCurrent(t.surface); err != nil {
		return nil, err
	}
	return t.fb.ReadImage()
}

// SetDebugInfo implements manager.Backend.
func (r *Renderer) SetDebugInfo(windowID int, info string, ids []int64) {
	r.mu.Lock()
	r.info[windowID] = DebugInfo{Text: info, IDs: ids}
	r.mu.Unlock()
}

// DebugInfo returns the last diagnostics reported for windowID.
func (r *Renderer) DebugInfo(windowID int) (DebugInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.info[windowID]
	return info, ok
}

// Stats returns the counters of the frame being drawn.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Close implements manager.Backend.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if !r.initialized {
		return
	}
	r.freeRetired()

	r.mu.Lock()
	targets := make([]*target, 0, len(r.targets))
	for _, t := range r.targets {
		targets = append(targets, t)
	}
	r.mu.Unlock()
	for _, t := range targets {
		if t.fb != nil {
			t.fb.Destroy()
			t.fb = nil
		}
	}

	for _, p := range r.programs {
		if p != nil {
			p.Delete()
		}
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.badTexture != 0 {
		gl.DeleteTextures(1, &r.badTexture)
	}
	if len(r.buffers) > 0 || len(r.textures) > 0 {
		r.log.Warn("resources still allocated at close",
			zap.Int("buffers", len(r.buffers)),
			zap.Int("textures", len(r.textures)))
	}
	if r.current != nil {
		if err := r.current.ReleaseCurrent(); err != nil {
			r.log.Warn("release context", zap.Error(err))
		}
		r.current = nil
	}
	r.initialized = false
}
