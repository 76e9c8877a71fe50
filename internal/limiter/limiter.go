// Package limiter implements fixed window admission control: requests are
// counted per client key in discrete, non-overlapping time windows, and
// rejected once the window ceiling is reached.
package limiter

import (
	"sync"
	"time"
)

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type record struct {
	windowStart time.Time
	count       int
}

// FixedWindow keeps its counters in process memory only; they are lost on
// restart, which is fine for a best-effort deterrent. Each logical limiter
// (general API, login, contact form) gets its own instance with independent
// state.
type FixedWindow struct {
	mutex   sync.Mutex
	window  time.Duration
	max     int
	records map[string]*record

	// ability to inject the clock for unit testing
	NowFunc func() time.Time
}

func NewFixedWindow(window time.Duration, max int) *FixedWindow {
	return &FixedWindow{
		window:  window,
		max:     max,
		records: make(map[string]*record),
		NowFunc: time.Now,
	}
}

// Allow registers a request for the given client key and decides whether it
// may pass. A rejected request still counts toward the window, so retrying
// faster never resets the counter.
func (l *FixedWindow) Allow(key string) Result {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.NowFunc()

	rec, ok := l.records[key]
	if !ok || now.Sub(rec.windowStart) >= l.window {
		l.records[key] = &record{windowStart: now, count: 1}
		return Result{
			Allowed:   true,
			Limit:     l.max,
			Remaining: l.max - 1,
			ResetAt:   now.Add(l.window),
		}
	}

	rec.count++
	remaining := l.max - rec.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   rec.count <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   rec.windowStart.Add(l.window),
	}
}

// Sweep drops records whose window elapsed, to keep the map from growing
// with one entry per client address forever. Meant to be called periodically.
func (l *FixedWindow) Sweep() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.NowFunc()
	removed := 0
	for key, rec := range l.records {
		if now.Sub(rec.windowStart) >= l.window {
			delete(l.records, key)
			removed++
		}
	}
	return removed
}
