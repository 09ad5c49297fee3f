package interaction

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/internal/logger"
	"github.com/Faultbox/simview/pkg/math"
)

// Modifiers is the keyboard modifier state of a mouse event.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// Shift reports whether shift is held.
func (m Modifiers) Shift() bool { return m&ModShift != 0 }

// Ctrl reports whether control is held.
func (m Modifiers) Ctrl() bool { return m&ModCtrl != 0 }

// PrimaryButton is the button that selects and drags.
const PrimaryButton = 1

// ButtonEvent is a mouse button press or release.
type ButtonEvent struct {
	Button int
	Down   bool
	Mods   Modifiers
	// Ray is the pick ray under the cursor.
	Ray math.Ray
}

// DragEvent is a mouse move with the primary button held. Last is the ray
// under the previous cursor position.
type DragEvent struct {
	Current math.Ray
	Last    math.Ray
	Mods    Modifiers
}

// Controller tracks the selection and the handle being dragged.
type Controller struct {
	mu       sync.Mutex
	selected Entity
	dragging bool
	handle   picking.HandleID

	log *zap.Logger
}

// NewController creates an idle controller with nothing selected.
func NewController() *Controller {
	return &Controller{log: logger.Named("interaction")}
}

// SetSelection selects e, or clears the selection when e is nil. Any drag
// in progress ends.
func (c *Controller) SetSelection(e Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = e
	c.dragging = false
	c.handle = picking.NoHandle
}

// Selected returns the selected entity or nil.
func (c *Controller) Selected() Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// IsDragging reports whether a handle drag is in progress.
func (c *Controller) IsDragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// ActiveHandle returns the handle being dragged, or NoHandle.
func (c *Controller) ActiveHandle() picking.HandleID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return picking.NoHandle
	}
	return c.handle
}

// HandleMouseButton processes a button event and reports whether it was
// consumed. pick is called for a plain press to find the handles under the
// cursor.
//
// A control click on a polyline splits the segment under the cursor;
// control+shift removes the node under the cursor.
func (c *Controller) HandleMouseButton(ev ButtonEvent, pick func() []picking.Result) bool {
	if ev.Button != PrimaryButton {
		return false
	}

	if !ev.Down {
		c.mu.Lock()
		c.dragging = false
		c.mu.Unlock()
		return true
	}

	if ev.Mods.Ctrl() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.dragging = false
		hsp, ok := c.selected.(HasScreenPoints)
		if !ok {
			return false
		}
		if ev.Mods.Shift() {
			removeLineNode(hsp, ev.Ray)
		} else {
			splitLine(hsp, ev.Ray)
		}
		return true
	}

	if pick == nil {
		return false
	}
	results := pick()
	if len(results) == 0 {
		return false
	}
	picking.SortForHandles(results)
	h, ok := picking.FirstHandle(results)
	if !ok {
		return false
	}

	c.mu.Lock()
	c.dragging = true
	c.handle = h
	c.mu.Unlock()
	c.log.Debug("drag started", zap.Stringer("handle", h))
	return true
}

// HandleDrag applies a drag to the selected entity through the active
// handle. It returns false when the drag should go to the camera instead.
func (c *Controller) HandleDrag(ev DragEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dragging || c.selected == nil {
		return false
	}
	if !c.selected.Movable() || ev.Mods.Ctrl() {
		return false
	}

	d := newDrag(c.selected, ev)
	if d == nil {
		// Entity plane is parallel to, or behind, one of the rays.
		return true
	}

	switch kind := c.handle.Kind(); kind {
	case picking.KindMove:
		d.move()
		return true
	case picking.KindResizeAxis, picking.KindResizeCorner:
		c.handle = d.resize(c.handle)
		return true
	case picking.KindRotate:
		d.rotate()
		return true
	case picking.KindLineDrag:
		d.dragLine()
		return true
	case picking.KindLineNode:
		i, _ := c.handle.NodeIndex()
		return d.dragNode(i)
	}
	return false
}
