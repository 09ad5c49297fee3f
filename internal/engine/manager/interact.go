package manager

import (
	"github.com/Faultbox/simview/internal/engine/interaction"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/pkg/math"
)

// DragInfo is a mouse move with the primary button held. DX and DY are the
// movement since the previous event.
type DragInfo struct {
	WindowID int
	X, Y     int
	DX, DY   int
	Mods     interaction.Modifiers
}

// PickForMouse returns what is under the mouse in a window, closest first
// with one result per id.
func (m *Manager) PickForMouse(windowID int) []picking.Result {
	w, ok := m.Window(windowID)
	if !ok {
		return nil
	}
	x, y, _ := w.Mouse()
	return m.pickAt(w, x, y)
}

// PickAt returns what is under pixel x, y of a window.
func (m *Manager) PickAt(windowID, x, y int) []picking.Result {
	w, ok := m.Window(windowID)
	if !ok {
		return nil
	}
	return m.pickAt(w, x, y)
}

func (m *Manager) pickAt(w *Window, x, y int) []picking.Result {
	return m.pickRay(w.Ray(x, y), w.ViewID)
}

// pickRay intersects ray with the last assembled frame.
func (m *Manager) pickRay(ray math.Ray, viewID int) []picking.Result {
	m.frameMu.Lock()
	f := m.frame
	m.frameMu.Unlock()
	if f == nil {
		return nil
	}
	return picking.Dedupe(f.Pick(ray, viewID), m.resolveEntity)
}

// resolveEntity sizes entity picks by the length of their size vector.
func (m *Manager) resolveEntity(id int64) (float64, bool) {
	if picking.HandleID(id).IsHandle() {
		return 0, false
	}
	e, ok := m.pop.Entity(id)
	if !ok {
		return 0, false
	}
	return e.Size().Len(), true
}

// SetSelection selects e, or clears the selection when e is nil.
func (m *Manager) SetSelection(e interaction.Entity) {
	m.interact.SetSelection(e)
	m.QueueRedraw()
}

// HandleSelection selects the smallest entity under x, y in a window, or
// clears the selection if there is none.
func (m *Manager) HandleSelection(windowID, x, y int) (interaction.Entity, bool) {
	results := m.PickAt(windowID, x, y)
	picking.SortForSelection(results)
	for _, r := range results {
		if !r.IsEntity {
			continue
		}
		if e, ok := m.pop.Entity(r.ID); ok {
			m.SetSelection(e)
			return e, true
		}
	}
	m.SetSelection(nil)
	return nil, false
}

// HandleMouseButton passes a button event to the selection controller and
// reports whether it was consumed.
func (m *Manager) HandleMouseButton(windowID, x, y, button int, down bool, mods interaction.Modifiers) bool {
	if !m.IsGood() {
		return false
	}
	w, ok := m.Window(windowID)
	if !ok {
		return false
	}
	ev := interaction.ButtonEvent{
		Button: button,
		Down:   down,
		Mods:   mods,
		Ray:    w.Ray(x, y),
	}
	handled := m.interact.HandleMouseButton(ev, func() []picking.Result {
		return m.pickAt(w, x, y)
	})
	if handled {
		m.QueueRedraw()
	}
	return handled
}

// HandleDrag applies a drag to the selected entity. It returns false when
// the drag belongs to the camera.
func (m *Manager) HandleDrag(info DragInfo) bool {
	if !m.IsGood() {
		return false
	}
	w, ok := m.Window(info.WindowID)
	if !ok {
		return false
	}
	handled := m.interact.HandleDrag(interaction.DragEvent{
		Current: w.Ray(info.X, info.Y),
		Last:    w.Ray(info.X-info.DX, info.Y-info.DY),
		Mods:    info.Mods,
	})
	if handled {
		m.QueueRedraw()
	}
	return handled
}
