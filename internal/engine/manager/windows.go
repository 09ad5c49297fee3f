package manager

import (
	"cmp"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/camera"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/pkg/math"
)

// Window is an open view onto the scene.
type Window struct {
	ID      int
	ViewID  int
	Camera  *camera.Camera
	Control *camera.OrbitController

	mu      sync.Mutex
	width   int
	height  int
	mouseX  int
	mouseY  int
	mouseIn bool
}

// Size returns the viewport size in pixels.
func (w *Window) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Mouse returns the last mouse position and whether the mouse is inside
// the window.
func (w *Window) Mouse() (x, y int, in bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mouseX, w.mouseY, w.mouseIn
}

// Ray returns the world space pick ray through pixel x, y.
func (w *Window) Ray(x, y int) math.Ray {
	width, height := w.Size()
	return picking.ScreenToRay(w.Camera.Snapshot(), float64(x), float64(y), float64(width), float64(height))
}

// OpenWindow registers a window drawing view viewID through cam. ctl may
// be nil. The first window opened becomes the active one.
func (m *Manager) OpenWindow(id, viewID, width, height int, cam *camera.Camera, ctl *camera.OrbitController) *Window {
	w := &Window{
		ID:      id,
		ViewID:  viewID,
		Camera:  cam,
		Control: ctl,
		width:   width,
		height:  height,
	}
	if height > 0 {
		cam.SetAspect(float64(width) / float64(height))
	}

	m.winMu.Lock()
	m.windows[id] = w
	if m.activeID < 0 {
		m.activeID = id
	}
	m.winMu.Unlock()

	m.log.Info("window opened", zap.Int("window", id), zap.Int("view", viewID))
	m.QueueRedraw()
	return w
}

// CloseWindow forgets a window.
func (m *Manager) CloseWindow(id int) {
	m.winMu.Lock()
	delete(m.windows, id)
	if m.activeID == id {
		m.activeID = -1
		for other := range m.windows {
			m.activeID = other
			break
		}
	}
	m.winMu.Unlock()
	m.log.Info("window closed", zap.Int("window", id))
}

// Window returns the open window with the given id.
func (m *Manager) Window(id int) (*Window, bool) {
	m.winMu.Lock()
	defer m.winMu.Unlock()
	w, ok := m.windows[id]
	return w, ok
}

// NumWindows returns the number of open windows.
func (m *Manager) NumWindows() int {
	m.winMu.Lock()
	defer m.winMu.Unlock()
	return len(m.windows)
}

// openWindows returns the open windows ordered by id.
func (m *Manager) openWindows() []*Window {
	m.winMu.Lock()
	out := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, w)
	}
	m.winMu.Unlock()
	slices.SortFunc(out, func(a, b *Window) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// SetActiveWindow selects the window view presets apply to.
func (m *Manager) SetActiveWindow(id int) {
	m.winMu.Lock()
	defer m.winMu.Unlock()
	if _, ok := m.windows[id]; ok {
		m.activeID = id
	}
}

func (m *Manager) activeWindow() (*Window, bool) {
	m.winMu.Lock()
	defer m.winMu.Unlock()
	w, ok := m.windows[m.activeID]
	return w, ok
}

// ResizeWindow updates a window's viewport size.
func (m *Manager) ResizeWindow(id, width, height int) {
	w, ok := m.Window(id)
	if !ok {
		return
	}
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	if height > 0 {
		w.Camera.SetAspect(float64(width) / float64(height))
	}
	m.QueueRedraw()
}

// MouseMoved records the mouse position in a window and returns the point
// under it on the z = 0 plane, if any.
func (m *Manager) MouseMoved(id, x, y int) (mgl64.Vec3, bool) {
	w, ok := m.Window(id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	w.mu.Lock()
	w.mouseX, w.mouseY, w.mouseIn = x, y, true
	w.mu.Unlock()
	if m.overlay {
		m.QueueRedraw()
	}
	return math.XYPlane.Intersect(w.Ray(x, y))
}

// MouseExited marks the mouse as outside a window.
func (m *Manager) MouseExited(id int) {
	if w, ok := m.Window(id); ok {
		w.mu.Lock()
		w.mouseIn = false
		w.mu.Unlock()
	}
}

// SetIsometricView moves the active window's camera to the isometric
// preset.
func (m *Manager) SetIsometricView() {
	if w, ok := m.activeWindow(); ok && w.Control != nil {
		w.Control.SetIsometric()
		m.QueueRedraw()
	}
}

// SetXYPlaneView moves the active window's camera to look straight down.
func (m *Manager) SetXYPlaneView() {
	if w, ok := m.activeWindow(); ok && w.Control != nil {
		w.Control.SetXYPlane()
		m.QueueRedraw()
	}
}
