package manager

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
)

func (m *Manager) screenshotPending() bool {
	m.shotMu.Lock()
	defer m.shotMu.Unlock()
	return m.shotPending
}

// BlockOnScreenshot requests a capture of the next frame and waits for it.
// Only one request may be in flight; a second one gets
// ErrScreenshotInFlight.
func (m *Manager) BlockOnScreenshot(ctx context.Context) (*image.RGBA, error) {
	if !m.IsGood() {
		return nil, ErrNotRunning
	}

	m.shotMu.Lock()
	if m.shotPending {
		m.shotMu.Unlock()
		return nil, ErrScreenshotInFlight
	}
	m.shotPending = true
	seq := m.shotSeq
	m.shotMu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		m.shotMu.Lock()
		m.shotCond.Broadcast()
		m.shotMu.Unlock()
	})
	defer stop()

	m.QueueRedraw()

	m.shotMu.Lock()
	defer m.shotMu.Unlock()
	for m.shotSeq == seq {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.shotCond.Wait()
	}
	return m.shotImg, m.shotErr
}

// SaveScreenshot captures the next frame and writes it as a PNG file.
func (m *Manager) SaveScreenshot(ctx context.Context) (string, error) {
	img, err := m.BlockOnScreenshot(ctx)
	if err != nil {
		return "", err
	}
	return m.shots.CaptureFromImage(img)
}

// takeScreenshot runs on the render goroutine after a frame is drawn.
func (m *Manager) takeScreenshot() {
	var img *image.RGBA
	var err error
	if w, ok := m.captureWindow(); ok {
		img, err = m.backend.Capture(w.ID)
		if err != nil {
			err = fmt.Errorf("capture window %d: %w", w.ID, err)
		}
	} else {
		err = ErrNoWindow
	}
	if err != nil {
		m.log.Warn("screenshot failed", zap.Error(err))
	}

	m.shotMu.Lock()
	m.shotPending = false
	m.shotImg = img
	m.shotErr = err
	m.shotSeq++
	m.shotCond.Broadcast()
	m.shotMu.Unlock()
}

// captureWindow returns the active window, or the first one open.
func (m *Manager) captureWindow() (*Window, bool) {
	if w, ok := m.activeWindow(); ok {
		return w, true
	}
	if ws := m.openWindows(); len(ws) > 0 {
		return ws[0], true
	}
	return nil, false
}
