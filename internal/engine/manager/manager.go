// Package manager drives rendering: it owns the render goroutine, paces
// redraws, assembles frames from the drawable population and routes mouse
// interaction to picking and the selection controller.
package manager

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/config"
	"github.com/Faultbox/simview/internal/engine/debug"
	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/interaction"
	"github.com/Faultbox/simview/internal/engine/mesh"
	"github.com/Faultbox/simview/internal/engine/scene"
	"github.com/Faultbox/simview/internal/engine/texture"
	"github.com/Faultbox/simview/internal/logger"
)

var (
	// ErrNotRunning is returned once the manager has shut down or its
	// backend has failed.
	ErrNotRunning = errors.New("manager: not running")
	// ErrScreenshotInFlight is returned when a screenshot is requested
	// while another one is pending.
	ErrScreenshotInFlight = errors.New("manager: screenshot already in flight")
	// ErrBoundsTimeout is returned by a blocking MeshBounds call whose mesh
	// did not load within render.bounds_timeout.
	ErrBoundsTimeout = errors.New("manager: timed out waiting for mesh bounds")
	// ErrNoWindow is returned for operations on an unknown window.
	ErrNoWindow = errors.New("manager: no such window")
)

// Backend is the drawing device. Err may be called from any goroutine;
// every other method is called on the render goroutine only.
type Backend interface {
	gpu.Device
	texture.Uploader

	// Ready reports whether the device has finished initializing. The
	// render loop polls it until it returns true, so implementations may
	// finish initializing inside it.
	Ready() bool
	// Err returns the error that made the device unusable, or nil.
	Err() error

	// BeginFrame makes windowID current and clears it.
	BeginFrame(windowID int) error
	// EndFrame presents windowID.
	EndFrame(windowID int) error
	// Capture reads back the last frame drawn into windowID.
	Capture(windowID int) (*image.RGBA, error)
	// SetDebugInfo shows picking diagnostics for a window.
	SetDebugInfo(windowID int, info string, ids []int64)

	// Close releases the device.
	Close()
}

// Population is the set of objects to draw.
type Population interface {
	// Drawables returns the population in a stable order.
	Drawables() []scene.Drawable
	// Entity returns the interactive entity with the given picking id.
	Entity(id int64) (interaction.Entity, bool)
}

// Option configures a Manager.
type Option func(*Manager)

// WithMeshRegistry sets the registry meshes are loaded from.
func WithMeshRegistry(r *mesh.Registry) Option {
	return func(m *Manager) { m.meshes = r }
}

// WithTextureCache sets the texture cache.
func WithTextureCache(c *texture.Cache) Option {
	return func(m *Manager) { m.textures = c }
}

// WithScreenshots sets where SaveScreenshot writes files.
func WithScreenshots(sc *debug.ScreenshotCapture) Option {
	return func(m *Manager) { m.shots = sc }
}

// Manager is the render loop driver. Create one with New, call Start once
// and Shutdown when done.
type Manager struct {
	cfg      config.RenderConfig
	overlay  bool
	backend  Backend
	pop      Population
	meshes   *mesh.Registry
	textures *texture.Cache
	shots    *debug.ScreenshotCapture

	asm      *scene.Assembler
	interact *interaction.Controller
	log      *zap.Logger

	simTime atomic.Uint64 // math.Float64bits

	sched scheduler

	started     atomic.Bool
	finished    atomic.Bool
	fatal       atomic.Bool
	shutdownReq atomic.Bool
	done        chan struct{}
	stopOnce    sync.Once
	stopTicker  chan struct{}

	winMu    sync.Mutex
	windows  map[int]*Window
	activeID int

	frameMu sync.Mutex
	frame   *scene.Frame

	shotMu      sync.Mutex
	shotCond    *sync.Cond
	shotPending bool
	shotSeq     uint64
	shotImg     *image.RGBA
	shotErr     error
}

// New creates a manager drawing pop through backend. Meshes and textures
// get a default registry and cache unless supplied as options.
func New(cfg *config.Config, backend Backend, pop Population, opts ...Option) *Manager {
	if cfg == nil {
		cfg = config.Default()
	}
	m := &Manager{
		cfg:        cfg.Render,
		overlay:    cfg.Picking.DebugOverlay,
		backend:    backend,
		pop:        pop,
		interact:   interaction.NewController(),
		log:        logger.Named("render"),
		done:       make(chan struct{}),
		stopTicker: make(chan struct{}),
		windows:    make(map[int]*Window),
		activeID:   -1,
	}
	m.sched.init(cfg.Render.FrameInterval())
	m.shotCond = sync.NewCond(&m.shotMu)
	m.asm = scene.NewAssembler(scene.NewExceptionLog(cfg.Render.ExceptionLogSize))

	for _, o := range opts {
		o(m)
	}
	if m.meshes == nil {
		m.meshes = mesh.NewRegistry(mesh.BuiltinLoader(nil), m.QueueRedraw)
	}
	if m.textures == nil {
		m.textures = texture.NewCache(cfg.Assets.TextureDirs, m.QueueRedraw)
	}
	if m.shots == nil {
		m.shots = debug.NewScreenshotCapture(cfg.Screenshot.Dir, cfg.Screenshot.Prefix)
	}
	return m
}

// Start launches the render goroutine and the redraw ticker.
func (m *Manager) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	m.log.Info("render manager starting",
		zap.Int("fps", m.cfg.FPS),
		zap.Duration("frame_interval", m.cfg.FrameInterval()))
	go m.runTicker()
	go m.run()
}

// IsGood reports whether the manager is running normally. Callers check it
// before using any other operation.
func (m *Manager) IsGood() bool {
	return !m.finished.Load() && !m.fatal.Load()
}

// Done is closed when the render goroutine exits.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Shutdown asks the render goroutine to release the device and exit, and
// waits for it.
func (m *Manager) Shutdown() {
	if !m.started.Load() {
		m.finished.Store(true)
		m.stop()
		return
	}
	m.shutdownReq.Store(true)
	m.wake()
	<-m.done
}

// Meshes returns the mesh registry.
func (m *Manager) Meshes() *mesh.Registry { return m.meshes }

// Textures returns the texture cache.
func (m *Manager) Textures() *texture.Cache { return m.textures }

// Interaction returns the selection controller.
func (m *Manager) Interaction() *interaction.Controller { return m.interact }

// ExceptionLog returns the log of errors raised by drawables.
func (m *Manager) ExceptionLog() *scene.ExceptionLog { return m.asm.Exceptions() }

// stop ends the ticker and releases screenshot waiters.
func (m *Manager) stop() {
	m.stopOnce.Do(func() {
		close(m.stopTicker)
		m.shotMu.Lock()
		if m.shotPending {
			m.shotPending = false
			m.shotImg = nil
			m.shotErr = ErrNotRunning
			m.shotSeq++
		}
		m.shotCond.Broadcast()
		m.shotMu.Unlock()
	})
}
