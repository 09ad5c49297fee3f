package entity

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/interaction"
	"github.com/Faultbox/simview/internal/engine/scene"
	"github.com/Faultbox/simview/internal/logger"
)

// Population is the ordered set of drawables shown by the viewer. The
// render goroutine reads it every frame while the input goroutine edits
// it.
type Population struct {
	mu    sync.RWMutex
	order []scene.Drawable
	byID  map[int64]scene.Drawable
	log   *zap.Logger
}

// NewPopulation creates an empty population.
func NewPopulation() *Population {
	return &Population{
		byID: make(map[int64]scene.Drawable),
		log:  logger.Named("sim"),
	}
}

// Add appends d. Picking ids must be positive and unique.
func (p *Population) Add(d scene.Drawable) error {
	id := d.PickingID()
	if id <= 0 {
		return fmt.Errorf("add drawable: picking id %d is not positive", id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byID[id]; ok {
		return fmt.Errorf("add drawable: duplicate picking id %d", id)
	}
	p.byID[id] = d
	p.order = append(p.order, d)
	p.log.Debug("drawable added", zap.Int64("id", id), zap.Int("count", len(p.order)))
	return nil
}

// Remove drops the drawable with id and reports whether it was present.
func (p *Population) Remove(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.byID[id]
	if !ok {
		return false
	}
	delete(p.byID, id)
	p.order = slices.DeleteFunc(p.order, func(o scene.Drawable) bool { return o == d })
	return true
}

// Len returns the number of drawables.
func (p *Population) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Drawables returns a copy of the population in insertion order.
func (p *Population) Drawables() []scene.Drawable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.order)
}

// Entity returns the drawable with id if it can be manipulated.
func (p *Population) Entity(id int64) (interaction.Entity, bool) {
	p.mu.RLock()
	d, ok := p.byID[id]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e, ok := d.(interaction.Entity)
	return e, ok
}
