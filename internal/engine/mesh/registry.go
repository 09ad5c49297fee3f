package mesh

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/logger"
	"github.com/Faultbox/simview/pkg/math"
)

// ErrNotReady is returned by non-blocking queries while a mesh is loading.
var ErrNotReady = errors.New("mesh: not ready")

// Key identifies a mesh asset.
type Key string

// Loader parses the asset behind key into a prototype. It runs on a
// background goroutine and must not touch the device.
type Loader func(key Key) (*Proto, error)

type loadState int

const (
	loading loadState = iota
	ready
	failed
)

type registryEntry struct {
	state loadState
	proto *Proto
	// uploaded is set under Registry.mu once LoadGPU has returned. Other
	// goroutines must check it instead of the prototype's own flag.
	uploaded bool
	bounds   math.AABB
	err      error
}

// Registry owns every mesh prototype. Loading happens in the background;
// device upload happens in Upload on the render thread.
type Registry struct {
	mu      sync.Mutex
	cond    *sync.Cond
	loader  Loader
	entries map[Key]*registryEntry
	pending []Key
	onReady func()
	log     *zap.Logger
}

// NewRegistry creates a registry. onReady, if not nil, is called when a
// mesh finishes parsing.
func NewRegistry(loader Loader, onReady func()) *Registry {
	r := &Registry{
		loader:  loader,
		entries: make(map[Key]*registryEntry),
		onReady: onReady,
		log:     logger.Named("mesh"),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Load starts loading key if it is not already known.
func (r *Registry) Load(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(key)
}

func (r *Registry) loadLocked(key Key) *registryEntry {
	if e, ok := r.entries[key]; ok {
		return e
	}
	e := &registryEntry{state: loading}
	r.entries[key] = e
	go r.run(key, e)
	return e
}

func (r *Registry) run(key Key, e *registryEntry) {
	p, err := r.parse(key)

	r.mu.Lock()
	if err != nil {
		e.state = failed
		e.err = err
		r.log.Warn("mesh load failed", zap.String("key", string(key)), zap.Error(err))
	} else {
		e.state = ready
		e.proto = p
		e.bounds = p.Hull().AABB(identity)
		r.pending = append(r.pending, key)
	}
	r.cond.Broadcast()
	r.mu.Unlock()

	if err == nil && r.onReady != nil {
		r.onReady()
	}
}

func (r *Registry) parse(key Key) (p *Proto, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("loading %s: panic: %v", key, rec)
		}
	}()
	p, err = r.loader(key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if p == nil {
		return nil, fmt.Errorf("loading %s: loader returned no mesh", key)
	}
	if err := p.GenerateHull(); err != nil && !errors.Is(err, ErrAlreadyLoaded) {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return p, nil
}

// Proto returns the prototype for key if it is parsed and on the device.
func (r *Registry) Proto(key Key) (*Proto, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.loadLocked(key)
	if e.state != ready || !e.uploaded {
		return nil, false
	}
	return e.proto, true
}

// Bounds returns the model space bounds of key without blocking. It
// returns ErrNotReady and starts a load if the mesh is not parsed yet.
func (r *Registry) Bounds(key Key) (math.AABB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundsLocked(r.loadLocked(key))
}

func (r *Registry) boundsLocked(e *registryEntry) (math.AABB, error) {
	switch e.state {
	case ready:
		return e.bounds, nil
	case failed:
		return math.AABB{}, e.err
	default:
		return math.AABB{}, ErrNotReady
	}
}

// WaitBounds blocks until key's bounds are known, loading fails, or ctx
// is done.
func (r *Registry) WaitBounds(ctx context.Context, key Key) (math.AABB, error) {
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.loadLocked(key)
	for e.state == loading {
		if err := ctx.Err(); err != nil {
			return math.AABB{}, err
		}
		r.cond.Wait()
	}
	return r.boundsLocked(e)
}

// Upload moves every parsed prototype to the device. Render thread only.
// Returns the number of prototypes uploaded.
func (r *Registry) Upload(dev gpu.Device, textures gpu.TextureSource) int {
	r.mu.Lock()
	keys := r.pending
	r.pending = nil
	protos := make([]*Proto, 0, len(keys))
	for _, k := range keys {
		protos = append(protos, r.entries[k].proto)
	}
	r.mu.Unlock()

	n := 0
	for i, p := range protos {
		err := p.LoadGPU(dev, textures)
		r.mu.Lock()
		e := r.entries[keys[i]]
		if err != nil {
			e.state = failed
			e.err = err
		} else {
			e.uploaded = true
			n++
		}
		r.mu.Unlock()
		if err != nil {
			r.log.Error("mesh upload failed", zap.String("key", string(keys[i])), zap.Error(err))
		}
	}
	return n
}

// Free releases every uploaded prototype. Render thread only.
func (r *Registry) Free(dev gpu.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, e := range r.entries {
		if e.uploaded {
			e.proto.Free(dev)
		}
		delete(r.entries, k)
	}
	r.pending = nil
}
