package manager

import (
	gomath "math"
	"sync"
	"sync/atomic"
	"time"
)

// scheduler paces redraws. Requests record a draw time no sooner than one
// frame interval after the last draw; a ticker raises the redraw flag once
// that time has passed.
type scheduler struct {
	frame     time.Duration
	lastDraw  atomic.Int64 // unix nanoseconds
	scheduled atomic.Int64

	mu     sync.Mutex
	cond   *sync.Cond
	redraw bool

	now func() time.Time
}

func (s *scheduler) init(frame time.Duration) {
	s.frame = frame
	s.cond = sync.NewCond(&s.mu)
	s.now = time.Now
}

// request schedules a draw. Only the earliest pending request counts.
func (s *scheduler) request() {
	sched := s.scheduled.Load()
	last := s.lastDraw.Load()
	if sched > last {
		return
	}
	next := s.now().UnixNano()
	if next-last < int64(s.frame) {
		next = last + int64(s.frame)
	}
	s.scheduled.CompareAndSwap(sched, next)
}

// due reports whether a scheduled draw has come up.
func (s *scheduler) due(now time.Time) bool {
	sched := s.scheduled.Load()
	return sched > s.lastDraw.Load() && now.UnixNano() >= sched
}

func (s *scheduler) markDrawn(t time.Time) {
	s.lastDraw.Store(t.UnixNano())
}

func (s *scheduler) signal() {
	s.mu.Lock()
	s.redraw = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *scheduler) clear() {
	s.mu.Lock()
	s.redraw = false
	s.mu.Unlock()
}

// wait blocks until the redraw flag is raised or stop returns true. stop
// is polled at least every timeout.
func (s *scheduler) wait(timeout time.Duration, stop func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.redraw && !stop() {
		t := time.AfterFunc(timeout, func() {
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		})
		s.cond.Wait()
		t.Stop()
	}
}

// QueueRedraw asks for a new frame. Requests arriving faster than the
// frame rate are coalesced.
func (m *Manager) QueueRedraw() {
	m.sched.request()
}

// UpdateTime sets the simulation time to draw and queues a redraw.
func (m *Manager) UpdateTime(simTime float64) {
	if !m.IsGood() {
		return
	}
	m.simTime.Store(gomath.Float64bits(simTime))
	m.QueueRedraw()
}

// SimTime returns the simulation time of the next frame.
func (m *Manager) SimTime() float64 {
	return gomath.Float64frombits(m.simTime.Load())
}

func (m *Manager) wake() {
	m.sched.signal()
}

// runTicker checks for due redraws at twice the frame rate.
func (m *Manager) runTicker() {
	t := time.NewTicker(m.cfg.FrameInterval() / 2)
	defer t.Stop()
	for {
		select {
		case <-m.stopTicker:
			return
		case now := <-t.C:
			m.tick(now)
		}
	}
}

func (m *Manager) tick(now time.Time) {
	if !m.sched.due(now) {
		return
	}
	if m.NumWindows() == 0 && !m.screenshotPending() {
		return
	}
	m.sched.signal()
}
