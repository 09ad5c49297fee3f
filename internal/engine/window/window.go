// Package window handles SDL2 window and OpenGL context creation.
package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/config"
	"github.com/Faultbox/simview/internal/logger"
)

func init() {
	// SDL events must be pumped from the main thread.
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
}

// FromConfig converts the window section of the application config.
func FromConfig(c config.WindowConfig) Config {
	return Config{
		Title:  c.Title,
		Width:  c.Width,
		Height: c.Height,
		VSync:  c.VSync,
	}
}

var sdlInit struct {
	once sync.Once
	err  error
}

// Window wraps an SDL2 window. Windows opened with Share draw through the
// GL context of the window they were opened from.
type Window struct {
	config    Config
	id        int
	sdlWindow *sdl.Window
	glContext sdl.GLContext
	owner     bool
	log       *zap.Logger
}

// New creates a window with a new OpenGL 4.1 core context. The context
// is left current on no thread, so the render goroutine can claim it.
func New(cfg Config) (*Window, error) {
	sdlInit.once.Do(func() {
		logger.Info("initializing SDL2")
		if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
			sdlInit.err = fmt.Errorf("SDL_Init failed: %w", err)
		}
	})
	if sdlInit.err != nil {
		return nil, sdlInit.err
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	w, err := create(cfg)
	if err != nil {
		return nil, err
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}
	w.owner = true

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		w.log.Warn("failed to set swap interval", zap.Int("interval", interval), zap.Error(err))
	}

	if err := w.ReleaseCurrent(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// Share opens another window drawn through w's context.
func (w *Window) Share(cfg Config) (*Window, error) {
	s, err := create(cfg)
	if err != nil {
		return nil, err
	}
	s.glContext = w.glContext
	return s, nil
}

func create(cfg Config) (*Window, error) {
	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}

	sw, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}
	id, err := sw.GetID()
	if err != nil {
		sw.Destroy()
		return nil, fmt.Errorf("SDL_GetWindowID failed: %w", err)
	}

	w := &Window{
		config:    cfg,
		id:        int(id),
		sdlWindow: sw,
		log:       logger.Named("window").With(zap.Int("window", int(id))),
	}
	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// ID returns the SDL window id. Input events carry the same id.
func (w *Window) ID() int { return w.id }

// MakeCurrent binds the GL context to this window on the calling thread.
func (w *Window) MakeCurrent() error {
	if err := w.sdlWindow.GLMakeCurrent(w.glContext); err != nil {
		return fmt.Errorf("window %d: make current: %w", w.id, err)
	}
	return nil
}

// ReleaseCurrent unbinds any context from the calling thread.
func (w *Window) ReleaseCurrent() error {
	if err := w.sdlWindow.GLMakeCurrent(nil); err != nil {
		return fmt.Errorf("window %d: release context: %w", w.id, err)
	}
	return nil
}

// Swap presents the back buffer.
func (w *Window) Swap() {
	w.sdlWindow.GLSwap()
}

// Size returns the window size in screen coordinates.
func (w *Window) Size() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}

// DrawableSize returns the framebuffer size in pixels, which differs from
// Size on high DPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// Close destroys the window, and the GL context if this window created
// it.
func (w *Window) Close() {
	w.log.Info("closing window")
	if w.owner && w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
		w.glContext = nil
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
		w.sdlWindow = nil
	}
}

// Quit shuts SDL down. Call it after every window is closed.
func Quit() {
	sdl.Quit()
}
