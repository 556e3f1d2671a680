package moderation

import (
	"sync"
	"time"

	"discord-guardian/models"
)

// FloodStatus is the verdict of one Observe call.
type FloodStatus struct {
	WithinLimit bool
	Count       int
}

// floodWindow is the transient per-member window state. It is never
// persisted: a restart resets flood history, never reputation.
type floodWindow struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// FloodDetector is a per-member sliding-window rate limiter whose enforced
// interval shrinks as reputation grows. Windows for distinct members are
// independent: observing one member never touches or blocks another.
type FloodDetector struct {
	policy models.FloodPolicy
	maxRep float64

	mu      sync.RWMutex
	windows map[string]*floodWindow
}

// NewFloodDetector creates a detector with empty window state.
func NewFloodDetector(policy models.FloodPolicy, maxRep float64) *FloodDetector {
	return &FloodDetector{
		policy:  policy,
		maxRep:  maxRep,
		windows: make(map[string]*floodWindow),
	}
}

// Interval returns the enforced message interval for a reputation score.
// Higher reputation means a shorter interval, i.e. more permissive.
func (fd *FloodDetector) Interval(reputation float64) time.Duration {
	base := time.Duration(fd.policy.BaseIntervalMs) * time.Millisecond
	spread := time.Duration(fd.policy.SpreadMs) * time.Millisecond
	factor := 1 - reputation/fd.maxRep
	if factor < 0 {
		factor = 0
	}
	return base + time.Duration(float64(spread)*factor)
}

// window returns the member's window, creating it on first observation.
func (fd *FloodDetector) window(memberID string) *floodWindow {
	fd.mu.RLock()
	w, ok := fd.windows[memberID]
	fd.mu.RUnlock()
	if ok {
		return w
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()
	if w, ok = fd.windows[memberID]; !ok {
		w = &floodWindow{}
		fd.windows[memberID] = w
	}
	return w
}

// Observe records one event for the member and reports whether they are
// within their rate limit. The window restarts whenever the elapsed time
// since windowStart exceeds the member's current interval. On a violation
// the window is zeroed, so one burst produces exactly one enforcement.
func (fd *FloodDetector) Observe(memberID string, reputation float64, now time.Time) FloodStatus {
	interval := fd.Interval(reputation)

	w := fd.window(memberID)
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.windowStart.IsZero() || now.Sub(w.windowStart) >= interval {
		w.count = 1
		w.windowStart = now
	} else {
		w.count++
	}

	status := FloodStatus{
		WithinLimit: w.count <= fd.policy.Threshold,
		Count:       w.count,
	}

	if !status.WithinLimit {
		w.count = 0
		w.windowStart = time.Time{}
	}

	return status
}
