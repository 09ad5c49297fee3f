package scene

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/internal/logger"
	"github.com/Faultbox/simview/pkg/math"
)

// Assembler turns the drawable population into a Frame. It runs on the
// render thread only.
type Assembler struct {
	exceptions *ExceptionLog
	stats      CacheStats
	log        *zap.Logger
}

// NewAssembler creates an assembler that records failures in exceptions.
func NewAssembler(exceptions *ExceptionLog) *Assembler {
	if exceptions == nil {
		exceptions = NewExceptionLog(0)
	}
	return &Assembler{
		exceptions: exceptions,
		log:        logger.Named("scene"),
	}
}

// Exceptions returns the log failures are recorded in.
func (a *Assembler) Exceptions() *ExceptionLog { return a.exceptions }

// Frame is the set of proxies to draw and pick for one frame.
type Frame struct {
	SimTime float64

	// Proxies holds opaque-only proxies first, then those with transparent
	// parts.
	Proxies []Proxy
	// Selection holds outline and handle proxies of the selected drawable.
	Selection []Proxy

	CacheHits   int64
	CacheMisses int64
	GatherTime  time.Duration

	numOpaque  int
	exceptions *ExceptionLog
}

// Gather updates every drawable for simTime and collects its proxies.
// selected may be nil. A drawable whose update fails is skipped for this
// frame; a failing binding only loses its own proxies.
func (a *Assembler) Gather(drawables []Drawable, simTime float64, selected Drawable) *Frame {
	start := time.Now()
	a.stats.Reset()
	fc := &FrameContext{SimTime: simTime, Stats: &a.stats}

	var opaque, transparent, selection []Proxy
	for _, d := range drawables {
		if d == nil {
			continue
		}
		id := d.PickingID()
		if err := SafeCall(func() error { return d.UpdateGraphics(simTime) }); err != nil {
			a.exceptions.Record(id, fmt.Errorf("update graphics: %w", err))
			continue
		}

		var bindings []Binding
		if err := SafeCall(func() error { bindings = d.Bindings(); return nil }); err != nil {
			a.exceptions.Record(id, fmt.Errorf("bindings: %w", err))
			continue
		}
		for _, b := range bindings {
			var proxies []Proxy
			err := SafeCall(func() (err error) {
				proxies, err = b.CollectProxies(fc)
				return err
			})
			if err != nil {
				a.exceptions.Record(id, fmt.Errorf("collect proxies: %w", err))
				continue
			}
			for _, p := range proxies {
				if p == nil {
					continue
				}
				if p.HasTransparent() {
					transparent = append(transparent, p)
				} else {
					opaque = append(opaque, p)
				}
			}

			if selected == nil || !b.IsBoundTo(selected) {
				continue
			}
			err = SafeCall(func() (err error) {
				proxies, err = b.CollectSelectionProxies(fc)
				return err
			})
			if err != nil {
				a.exceptions.Record(id, fmt.Errorf("collect selection proxies: %w", err))
				continue
			}
			for _, p := range proxies {
				if p != nil {
					selection = append(selection, p)
				}
			}
		}
	}

	f := &Frame{
		SimTime:     simTime,
		Proxies:     append(opaque, transparent...),
		Selection:   selection,
		CacheHits:   a.stats.Hits(),
		CacheMisses: a.stats.Misses(),
		GatherTime:  time.Since(start),
		numOpaque:   len(opaque),
		exceptions:  a.exceptions,
	}
	a.log.Debug("frame gathered",
		zap.Int("proxies", len(f.Proxies)),
		zap.Int("selection", len(selection)),
		zap.Int64("cache_hits", f.CacheHits),
		zap.Int64("cache_misses", f.CacheMisses),
		zap.Duration("elapsed", f.GatherTime))
	return f
}

// Draw renders the frame into one view: every proxy's opaque parts, then
// the transparent parts, then the selection on top.
func (f *Frame) Draw(ctx *gpu.Context) {
	for _, p := range f.Proxies {
		f.call(p, func() error { return p.Render(ctx) })
	}
	for _, p := range f.Proxies[f.numOpaque:] {
		f.call(p, func() error { return p.RenderTransparent(ctx) })
	}
	for _, p := range f.Selection {
		f.call(p, func() error { return p.Render(ctx) })
	}
}

func (f *Frame) call(p Proxy, fn func() error) {
	if err := SafeCall(fn); err != nil && f.exceptions != nil {
		f.exceptions.Record(p.PickingID(), fmt.Errorf("render: %w", err))
	}
}

// Targets returns everything pickable in the frame, selection included.
func (f *Frame) Targets() []picking.Target {
	out := make([]picking.Target, 0, len(f.Proxies)+len(f.Selection))
	for _, p := range f.Selection {
		out = append(out, p)
	}
	for _, p := range f.Proxies {
		out = append(out, p)
	}
	return out
}

// Pick casts ray against the frame in viewID, nearest hit first.
func (f *Frame) Pick(ray math.Ray, viewID int) []picking.Hit {
	return picking.PickScene(f.Targets(), ray, viewID)
}
