package manager

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/simview/internal/engine/gpu"
	"github.com/Faultbox/simview/internal/engine/picking"
	"github.com/Faultbox/simview/internal/engine/scene"
)

// run is the render goroutine.
func (m *Manager) run() {
	// GL contexts are bound to an OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(m.done)

	for !m.finished.Load() && !m.fatal.Load() {
		if err := m.backend.Err(); err != nil {
			m.fail(err)
			return
		}
		if m.shutdownReq.Load() {
			m.shutdown()
			return
		}

		m.sched.markDrawn(time.Now())

		if !m.backend.Ready() {
			time.Sleep(m.cfg.InitRetry.Std())
			continue
		}

		if err := scene.SafeCall(m.renderFrame); err != nil {
			m.ExceptionLog().Record(0, fmt.Errorf("frame: %w", err))
		}

		if m.shutdownReq.Load() {
			m.shutdown()
			return
		}
		m.sched.clear()

		if m.screenshotPending() {
			m.takeScreenshot()
		}

		m.sched.wait(m.cfg.RedrawWait.Std(), func() bool {
			return m.shutdownReq.Load() || m.backend.Err() != nil
		})
	}
}

// renderFrame uploads pending assets, assembles the scene and draws it
// into every open window.
func (m *Manager) renderFrame() error {
	for _, w := range m.openWindows() {
		if w.Control != nil {
			w.Control.CheckForUpdate()
		}
	}

	m.meshes.Upload(m.backend, m.textures)
	m.textures.Flush(m.backend)

	simTime := m.SimTime()
	var selected scene.Drawable
	if d, ok := m.interact.Selected().(scene.Drawable); ok {
		selected = d
	}
	frame := m.asm.Gather(m.pop.Drawables(), simTime, selected)

	m.frameMu.Lock()
	m.frame = frame
	m.frameMu.Unlock()

	for _, w := range m.openWindows() {
		if err := m.drawWindow(w, frame); err != nil {
			m.log.Warn("window draw failed", zap.Int("window", w.ID), zap.Error(err))
		}
	}
	if m.overlay {
		m.updateDebugInfo(frame)
	}
	return nil
}

func (m *Manager) drawWindow(w *Window, frame *scene.Frame) error {
	if err := m.backend.BeginFrame(w.ID); err != nil {
		return err
	}
	frame.Draw(&gpu.Context{
		Device:          m.backend,
		Textures:        m.textures,
		View:            w.Camera.Snapshot(),
		ViewID:          w.ViewID,
		MinApparentSize: m.cfg.ApparentSizeCull,
	})
	return m.backend.EndFrame(w.ID)
}

// updateDebugInfo reports what is under the mouse in every window.
func (m *Manager) updateDebugInfo(frame *scene.Frame) {
	stats := fmt.Sprintf("Hits: %d Misses: %d Gather: %s",
		frame.CacheHits, frame.CacheMisses, frame.GatherTime.Round(time.Microsecond))
	for _, w := range m.openWindows() {
		x, y, in := w.Mouse()
		if !in {
			m.backend.SetDebugInfo(w.ID, stats+" Not picking.", nil)
			continue
		}
		results := m.pickAt(w, x, y)
		ids := make([]int64, len(results))
		names := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.ID
			if r.IsEntity {
				names[i] = fmt.Sprint(r.ID)
			} else {
				names[i] = picking.HandleID(r.ID).String()
			}
		}
		m.backend.SetDebugInfo(w.ID, fmt.Sprintf("%s Picked %d at (%d, %d): %s",
			stats, len(results), x, y, strings.Join(names, ", ")), ids)
	}
}

// fail latches a fatal backend error. Rendering never restarts.
func (m *Manager) fail(err error) {
	m.fatal.Store(true)
	m.log.Error("renderer failed", zap.Error(err))
	m.winMu.Lock()
	clear(m.windows)
	m.winMu.Unlock()
	m.stop()
	m.ExceptionLog().Print(m.log)
}

// shutdown releases the device from the render goroutine.
func (m *Manager) shutdown() {
	m.log.Info("render manager shutting down")
	m.finished.Store(true)
	m.stop()
	m.meshes.Free(m.backend)
	m.textures.Free(m.backend)
	m.backend.Close()
	m.ExceptionLog().Print(m.log)
}
