package scene

import (
	"cmp"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PanicError is a panic recovered inside a drawable or binding callback.
type PanicError struct {
	Value  any
	Origin string // function and line the panic came from
}

func (e *PanicError) Error() string {
	if e.Origin == "" {
		return fmt.Sprintf("panic: %v", e.Value)
	}
	return fmt.Sprintf("panic: %v (at %s)", e.Value, e.Origin)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// SafeCall runs fn and converts a panic into a *PanicError, so one bad
// drawable cannot take down the render thread.
func SafeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Origin: panicOrigin()}
		}
	}()
	return fn()
}

// panicOrigin finds the first non-runtime frame above the deferred recover.
func panicOrigin() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			return fmt.Sprintf("%s:%d", f.Function, f.Line)
		}
		if !more {
			return ""
		}
	}
}

// ExceptionEntry aggregates every error with the same cause.
type ExceptionEntry struct {
	Cause     string
	Count     int
	Source    int64 // picking id of the first drawable that failed
	Last      error
	FirstSeen time.Time
	LastSeen  time.Time
}

// ExceptionLog keeps a bounded, deduplicated record of recoverable errors
// raised while assembling or drawing frames.
type ExceptionLog struct {
	mu      sync.Mutex
	max     int
	entries map[string]*ExceptionEntry
	total   int
	dropped int
	now     func() time.Time
}

// NewExceptionLog creates a log holding at most limit distinct causes.
func NewExceptionLog(limit int) *ExceptionLog {
	if limit <= 0 {
		limit = 64
	}
	return &ExceptionLog{
		max:     limit,
		entries: make(map[string]*ExceptionEntry),
		now:     time.Now,
	}
}

// Record adds err raised by the drawable with picking id source.
func (l *ExceptionLog) Record(source int64, err error) {
	if err == nil {
		return
	}
	cause := causeOf(err)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++

	if e, ok := l.entries[cause]; ok {
		e.Count++
		e.Last = err
		e.LastSeen = now
		return
	}
	if len(l.entries) >= l.max {
		l.dropped++
		return
	}
	l.entries[cause] = &ExceptionEntry{
		Cause:     cause,
		Count:     1,
		Source:    source,
		Last:      err,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// causeOf keys errors by their innermost cause so wrapping with per-object
// context does not defeat deduplication.
func causeOf(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// Total returns the number of errors recorded, including dropped ones.
func (l *ExceptionLog) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Dropped returns the number of errors whose cause did not fit.
func (l *ExceptionLog) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Entries returns a copy of the log, most frequent first.
func (l *ExceptionLog) Entries() []ExceptionEntry {
	l.mu.Lock()
	out := make([]ExceptionEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	l.mu.Unlock()

	slices.SortFunc(out, func(a, b ExceptionEntry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Cause, b.Cause)
	})
	return out
}

// Print writes a summary of the log.
func (l *ExceptionLog) Print(log *zap.Logger) {
	entries := l.Entries()
	log.Info("render exceptions",
		zap.Int("total", l.Total()),
		zap.Int("causes", len(entries)),
		zap.Int("dropped", l.Dropped()))
	for _, e := range entries {
		log.Info("render exception",
			zap.String("cause", e.Cause),
			zap.Int("count", e.Count),
			zap.Int64("source", e.Source),
			zap.Time("last_seen", e.LastSeen))
	}
}

// Reset clears the log.
func (l *ExceptionLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.entries)
	l.total = 0
	l.dropped = 0
}
