package memory

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter is a sliding-window-log rate limiter keyed by an arbitrary string.
type WindowLimiter struct {
	mu        sync.Mutex
	entries   map[string][]time.Time
	now       func() time.Time
	nextSweep time.Time
}

// NewWindowLimiter returns an empty limiter. A nil now uses time.Now.
func NewWindowLimiter(now func() time.Time) *WindowLimiter {
	if now == nil {
		now = time.Now
	}
	return &WindowLimiter{entries: make(map[string][]time.Time), now: now}
}

// Allow admits at most limit events per key within any window-long interval.
// When denied it returns how long until the oldest event leaves the window.
// A non-positive limit denies everything.
func (l *WindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 {
		return false, window, nil
	}
	now := l.now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		l.sweep(cutoff)
		l.nextSweep = now.Add(window)
	}

	valid := prune(l.entries[key], cutoff)
	if len(valid) >= limit {
		l.entries[key] = valid
		retry := valid[0].Add(window).Sub(now)
		if retry <= 0 {
			retry = time.Second
		}
		return false, retry, nil
	}
	l.entries[key] = append(valid, now)
	return true, 0, nil
}

func (l *WindowLimiter) sweep(cutoff time.Time) {
	for k, ts := range l.entries {
		if valid := prune(ts, cutoff); len(valid) == 0 {
			delete(l.entries, k)
		} else {
			l.entries[k] = valid
		}
	}
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	valid := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}
