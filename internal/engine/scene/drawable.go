package scene

import (
	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/picking"
)

// Drawable is an object in the displayed population. The scene never owns
// drawables, it only visits them once per frame.
type Drawable interface {
	PickingID() int64
	// UpdateGraphics brings display state up to date for simTime.
	UpdateGraphics(simTime float64) error
	Bindings() []Binding
}

// Binding adapts a drawable to one visual representation and produces the
// proxies for it.
type Binding interface {
	CollectProxies(fc *FrameContext) ([]Proxy, error)
	// CollectSelectionProxies returns the outline and handles drawn while
	// the bound drawable is selected.
	CollectSelectionProxies(fc *FrameContext) ([]Proxy, error)
	IsBoundTo(d Drawable) bool
}

// Proxy describes one thing to draw for one frame.
type Proxy interface {
	picking.Target
	VisibleIn(viewID int) bool
	HasTransparent() bool
	Render(ctx *gpu.Context) error
	RenderTransparent(ctx *gpu.Context) error
}

// FrameContext is passed to bindings while a frame is assembled.
type FrameContext struct {
	SimTime float64
	Stats   *CacheStats
}

// visibleIn reports whether viewID is listed, with an empty list meaning
// every view.
func visibleIn(views []int, viewID int) bool {
	if len(views) == 0 {
		return true
	}
	for _, v := range views {
		if v == viewID {
			return true
		}
	}
	return false
}
