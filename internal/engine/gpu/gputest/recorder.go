// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"sync"

	"github.com/Faultbox/simview/internal/engine/gpu"
)

// Recorder is a gpu.Device that records every call instead of drawing.
type Recorder struct {
	mu sync.Mutex

	next    gpu.Buffer
	Buffers map[gpu.Buffer][]float32
	Deleted []gpu.Buffer
	Draws   []gpu.DrawCall
	Blends  []gpu.BlendState
	Depth   []bool

	// DepthWrite tracks the current depth write state.
	DepthWrite bool
}

// New returns an empty recorder with depth writes enabled.
func New() *Recorder {
	return &Recorder{
		Buffers:    make(map[gpu.Buffer][]float32),
		DepthWrite: true,
	}
}

// NewBuffer implements gpu.Device.
func (r *Recorder) NewBuffer(data []float32) (gpu.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	cp := make([]float32, len(data))
	copy(cp, data)
	r.Buffers[r.next] = cp
	return r.next, nil
}

// DeleteBuffers implements gpu.Device.
func (r *Recorder) DeleteBuffers(bufs ...gpu.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bufs {
		if b == 0 {
			continue
		}
		delete(r.Buffers, b)
		r.Deleted = append(r.Deleted, b)
	}
}

// SetBlend implements gpu.Device.
func (r *Recorder) SetBlend(state gpu.BlendState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Blends = append(r.Blends, state)
}

// SetDepthWrite implements gpu.Device.
func (r *Recorder) SetDepthWrite(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Depth = append(r.Depth, enabled)
	r.DepthWrite = enabled
}

// Draw implements gpu.Device.
func (r *Recorder) Draw(call gpu.DrawCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Draws = append(r.Draws, call)
}

// BufferCount returns the number of live buffers.
func (r *Recorder) BufferCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Buffers)
}

// Reset forgets recorded draws and state changes, keeping buffers.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Draws = nil
	r.Blends = nil
	r.Depth = nil
}
