package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/config"
	"github.com/Faultbox/simview/internal/engine/camera"
	"github.com/Faultbox/simview/internal/engine/input"
	"github.com/Faultbox/simview/internal/engine/manager"
	"github.com/Faultbox/simview/internal/engine/renderer"
	"github.com/Faultbox/simview/internal/engine/texture"
	"github.com/Faultbox/simview/internal/engine/window"
	"github.com/Faultbox/simview/internal/logger"
	"github.com/Faultbox/simview/internal/sim/entity"
)

const (
	pollInterval   = 4 * time.Millisecond
	titleInterval  = 250 * time.Millisecond
	screenshotWait = 5 * time.Second
	// viewID of the main window.
	mainView = 0
)

// viewer owns the window, the render manager and the main loop.
type viewer struct {
	cfg     *config.Config
	log     *zap.Logger
	win     *window.Window
	rend    *renderer.Renderer
	mgr     *manager.Manager
	pop     *entity.Population
	ctl     *camera.OrbitController
	in      *input.Input
	watcher *texture.Watcher

	simTime float64
	speed   float64
	paused  bool

	pressed  bool
	dragged  bool
	locator  mgl64.Vec3
	onPlane  bool
	lastInfo time.Time
}

func newViewer(cfg *config.Config) (*viewer, error) {
	v := &viewer{
		cfg:   cfg,
		log:   logger.Named("viewer"),
		speed: 1,
	}

	win, err := window.New(window.FromConfig(cfg.Window))
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}
	v.win = win

	v.rend = renderer.New(renderer.DefaultConfig())
	v.rend.AddSurface(win.ID(), win)

	v.pop = entity.NewPopulation()
	v.mgr = manager.New(cfg, v.rend, v.pop)
	if err := populate(v.pop, v.mgr.Meshes()); err != nil {
		v.Close()
		return nil, fmt.Errorf("building scene: %w", err)
	}

	w, h := win.Size()
	cam := camera.New(mgl64.Vec3{10, -10, 10}, mgl64.Vec3{}, 45, float64(w)/float64(max(h, 1)))
	v.ctl = camera.NewOrbitController(cam)
	v.mgr.OpenWindow(win.ID(), mainView, w, h, cam, v.ctl)

	if cfg.Assets.Watch && len(cfg.Assets.TextureDirs) > 0 {
		watcher, err := texture.Watch(v.mgr.Textures(), cfg.Assets.TextureDirs)
		if err != nil {
			v.log.Warn("texture hot reload disabled", zap.Error(err))
		} else {
			v.watcher = watcher
		}
	}

	v.in = input.New()
	v.mgr.Start()
	return v, nil
}

// Run pumps input until the user quits or rendering fails.
func (v *viewer) Run() error {
	v.log.Info("starting main loop")
	last := time.Now()

	for {
		if v.in.Update() {
			return nil
		}
		for _, ev := range v.in.Events() {
			if !v.handle(ev) {
				return nil
			}
		}

		now := time.Now()
		if !v.paused {
			v.simTime += now.Sub(last).Seconds() * v.speed
			v.mgr.UpdateTime(v.simTime)
		}
		last = now

		if !v.mgr.IsGood() {
			return fmt.Errorf("renderer stopped: %w", v.rend.Err())
		}
		if now.Sub(v.lastInfo) >= titleInterval {
			v.updateTitle()
			v.lastInfo = now
		}
		time.Sleep(pollInterval)
	}
}

// handle routes one event and returns false to quit.
func (v *viewer) handle(ev input.Event) bool {
	switch ev.Type {
	case input.EventQuit, input.EventWindowClose:
		return false

	case input.EventWindowResize:
		v.mgr.ResizeWindow(ev.WindowID, ev.Width, ev.Height)

	case input.EventWindowFocus:
		v.mgr.SetActiveWindow(ev.WindowID)

	case input.EventMouseLeave:
		v.mgr.MouseExited(ev.WindowID)
		v.onPlane = false

	case input.EventMouseDown:
		if ev.Button == input.ButtonLeft {
			v.pressed, v.dragged = true, false
		}
		v.mgr.HandleMouseButton(ev.WindowID, ev.X, ev.Y, ev.Button, true, ev.Mods)

	case input.EventMouseUp:
		v.mgr.HandleMouseButton(ev.WindowID, ev.X, ev.Y, ev.Button, false, ev.Mods)
		if ev.Button == input.ButtonLeft && v.pressed && !v.dragged && !ev.Mods.Ctrl() {
			if e, ok := v.mgr.HandleSelection(ev.WindowID, ev.X, ev.Y); ok {
				v.log.Debug("selected", zap.Int64("id", e.PickingID()))
			}
		}
		v.pressed = false

	case input.EventMouseMove:
		v.locator, v.onPlane = v.mgr.MouseMoved(ev.WindowID, ev.X, ev.Y)
		v.mouseDrag(ev)

	case input.EventMouseWheel:
		v.ctl.HandleZoom(float64(ev.Wheel))
		v.mgr.QueueRedraw()

	case input.EventKeyDown:
		return v.key(ev)
	}
	return true
}

func (v *viewer) mouseDrag(ev input.Event) {
	switch {
	case ev.Held(input.ButtonLeft):
		v.dragged = true
		handled := v.mgr.HandleDrag(manager.DragInfo{
			WindowID: ev.WindowID,
			X:        ev.X,
			Y:        ev.Y,
			DX:       ev.DX,
			DY:       ev.DY,
			Mods:     ev.Mods,
		})
		if !handled {
			v.ctl.HandleDrag(float64(ev.DX), float64(ev.DY))
			v.mgr.QueueRedraw()
		}
	case ev.Held(input.ButtonRight):
		v.ctl.HandleMovement(float64(ev.DY)*0.2, float64(-ev.DX)*0.2, 0)
		v.mgr.QueueRedraw()
	}
}

func (v *viewer) key(ev input.Event) bool {
	switch ev.Key {
	case sdl.SCANCODE_ESCAPE:
		return false
	case sdl.SCANCODE_I:
		v.mgr.SetIsometricView()
	case sdl.SCANCODE_X:
		v.mgr.SetXYPlaneView()
	case sdl.SCANCODE_SPACE:
		v.paused = !v.paused
		v.log.Info("simulation paused", zap.Bool("paused", v.paused))
	case sdl.SCANCODE_EQUALS:
		v.speed *= 2
	case sdl.SCANCODE_MINUS:
		v.speed /= 2
	case sdl.SCANCODE_DELETE:
		v.mgr.SetSelection(nil)
	case sdl.SCANCODE_E:
		v.mgr.ExceptionLog().Print(v.log)
	case sdl.SCANCODE_F12:
		go v.screenshot()
	}
	return true
}

// screenshot runs off the main goroutine since it blocks on the render
// loop.
func (v *viewer) screenshot() {
	ctx, cancel := context.WithTimeout(context.Background(), screenshotWait)
	defer cancel()
	path, err := v.mgr.SaveScreenshot(ctx)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *viewer) updateTitle() {
	title := v.cfg.Window.Title
	if v.onPlane {
		title = fmt.Sprintf("%s  (%.2f, %.2f)", title, v.locator.X(), v.locator.Y())
	}
	if v.cfg.Picking.DebugOverlay {
		if info, ok := v.rend.DebugInfo(v.win.ID()); ok {
			title += "  " + info.Text
		}
	}
	v.win.SetTitle(title)
}

// Close stops rendering and releases the window.
func (v *viewer) Close() {
	if v.mgr != nil {
		v.mgr.Shutdown()
	}
	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			v.log.Warn("closing texture watcher", zap.Error(err))
		}
	}
	if v.win != nil {
		v.rend.RemoveSurface(v.win.ID())
		v.win.Close()
		v.win = nil
	}
	window.Quit()
}
