// Package ratelimit implements the sliding-window admission control that
// paces upstream fetches per namespace. This is deliberately not a token
// bucket: the quota is counted over a trailing fixed-length window,
// recomputed against "now" on every check, matching the upstream vendor's
// published per-minute limits.
package ratelimit

import "time"

// Window is a sliding-window counter for one namespace. Each admitted call
// records its timestamp; timestamps older than the window length are pruned
// on every check. Denied calls are never recorded, so being throttled does
// not extend the throttle.
//
// Window is not safe for concurrent use. The governor holds the namespace
// lock around Allow so that check-and-record is atomic with the cache read
// that depends on it.
type Window struct {
	quota  int
	length time.Duration
	stamps []time.Time
}

// NewWindow creates a limiter admitting at most quota calls per length.
func NewWindow(quota int, length time.Duration) *Window {
	if quota < 1 {
		quota = 1
	}
	return &Window{
		quota:  quota,
		length: length,
		stamps: make([]time.Time, 0, quota),
	}
}

// Allow reports whether a call at the given instant is admitted. Admitted
// calls are recorded; denied calls are not.
func (w *Window) Allow(now time.Time) bool {
	w.prune(now)
	if len(w.stamps) >= w.quota {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// prune drops timestamps at or before now minus the window length.
func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.length)
	// Stamps are appended in order, so everything before the first live
	// one can go in a single slice cut.
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// InFlight returns how many admissions are currently inside the window.
func (w *Window) InFlight(now time.Time) int {
	w.prune(now)
	return len(w.stamps)
}

// Quota returns the configured admission bound.
func (w *Window) Quota() int { return w.quota }
