// Package governor decides, per request, whether to serve fresh data, stale
// data, or fail. It owns the per-namespace cache stores and sliding rate
// windows and is the only code that touches them, holding one mutex per
// namespace across the limiter-check/cache-read pair so the admission
// decision and the value it depends on cannot interleave.
package governor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onnwee/ticker-proxy/internal/cache"
	"github.com/onnwee/ticker-proxy/internal/metrics"
	"github.com/onnwee/ticker-proxy/internal/ratelimit"
)

// Namespace is an independently governed partition of cache and rate-limit
// state. The set is closed; each endpoint family gets its own budget.
type Namespace string

const (
	Search  Namespace = "search"
	Stock   Namespace = "stock"
	History Namespace = "history"
	Live    Namespace = "live"
	News    Namespace = "news"
)

// Namespaces lists the closed namespace set in a stable order.
func Namespaces() []Namespace {
	return []Namespace{Search, Stock, History, Live, News}
}

// Limits configures one namespace: cache freshness and size, and the
// upstream admission budget.
type Limits struct {
	TTL      time.Duration
	Capacity int
	Quota    int
	Window   time.Duration
}

// FetchFunc performs the upstream-specific call for one key: URL
// construction, the governed HTTP exchange, and decoding into a domain
// value. Failures must be classified (*Error) for the fallback policy to
// discriminate; unclassified errors are treated like transport failures.
type FetchFunc func(ctx context.Context) (any, error)

// Result is a successful resolution. Stale marks values served past their
// TTL because admission was denied or the fetch failed.
type Result struct {
	Value any
	Stale bool
}

// space is the jointly-locked state of one namespace.
type space struct {
	mu     sync.Mutex
	store  *cache.Store
	window *ratelimit.Window
}

// Governor composes the cache stores, the rate windows and the retrying
// fetchers into one per-request decision.
type Governor struct {
	spaces map[Namespace]*space
	now    func() time.Time
}

// New creates a Governor with empty state for each configured namespace.
func New(table map[Namespace]Limits) *Governor {
	g := &Governor{
		spaces: make(map[Namespace]*space, len(table)),
		now:    time.Now,
	}
	for ns, lim := range table {
		g.spaces[ns] = &space{
			store:  cache.NewStore(lim.Capacity, lim.TTL),
			window: ratelimit.NewWindow(lim.Quota, lim.Window),
		}
	}
	return g
}

// Resolve runs the admission/cache/fetch decision for one key.
//
// Rate-limited requests are answered from cache even with an expired entry;
// only a cache miss under limit surfaces KindRateLimited. Admitted requests
// take a fresh cache hit if one exists, otherwise fetch. Fetch failures
// other than KindNotFound are rescued with any cached entry before
// surfacing KindUnavailable; KindNotFound is surfaced as-is, never masked
// by stale data. The namespace lock is never held across the fetch.
func (g *Governor) Resolve(ctx context.Context, ns Namespace, key string, fetch FetchFunc) (Result, error) {
	sp, ok := g.spaces[ns]
	if !ok {
		return Result{}, fmt.Errorf("governor: unknown namespace %q", ns)
	}
	label := string(ns)
	now := g.now()

	sp.mu.Lock()
	if !sp.window.Allow(now) {
		metrics.RateLimitDenials.WithLabelValues(label).Inc()
		value, fr := sp.store.Get(key, now, true)
		sp.mu.Unlock()
		switch fr {
		case cache.Fresh:
			metrics.Resolutions.WithLabelValues(label, "fresh").Inc()
			return Result{Value: value}, nil
		case cache.Stale:
			metrics.CacheStaleServes.WithLabelValues(label).Inc()
			metrics.Resolutions.WithLabelValues(label, "stale").Inc()
			return Result{Value: value, Stale: true}, nil
		default:
			metrics.Resolutions.WithLabelValues(label, "failed").Inc()
			return Result{}, RateLimited()
		}
	}
	metrics.RateLimitAdmissions.WithLabelValues(label).Inc()

	value, fr := sp.store.Get(key, now, false)
	sp.mu.Unlock()
	if fr == cache.Fresh {
		metrics.CacheHits.WithLabelValues(label).Inc()
		metrics.Resolutions.WithLabelValues(label, "fresh").Inc()
		return Result{Value: value}, nil
	}
	metrics.CacheMisses.WithLabelValues(label).Inc()

	// Fetch outside the lock: backoff sleeps and network waits must not
	// stall other requests in this namespace.
	payload, err := fetch(ctx)
	if err != nil {
		if KindOf(err) == KindNotFound {
			metrics.Resolutions.WithLabelValues(label, "failed").Inc()
			return Result{}, err
		}
		return g.rescue(sp, label, key, err)
	}
	if ctx.Err() != nil {
		// The caller is gone; abandon the result without touching the
		// store so a half-delivered request cannot plant an entry.
		metrics.Resolutions.WithLabelValues(label, "failed").Inc()
		return Result{}, ctx.Err()
	}

	now = g.now()
	sp.mu.Lock()
	before := sp.store.Evictions()
	sp.store.Set(key, payload, now)
	evicted := sp.store.Evictions() - before
	items := sp.store.Len()
	sp.mu.Unlock()

	if evicted > 0 {
		metrics.CacheEvictions.WithLabelValues(label).Add(float64(evicted))
	}
	metrics.CacheItems.WithLabelValues(label).Set(float64(items))
	metrics.Resolutions.WithLabelValues(label, "fetched").Inc()
	return Result{Value: payload}, nil
}

// rescue answers a failed fetch from cache when possible, forcing the
// limited flag so an expired entry still counts.
func (g *Governor) rescue(sp *space, label, key string, fetchErr error) (Result, error) {
	now := g.now()
	sp.mu.Lock()
	value, fr := sp.store.Get(key, now, true)
	sp.mu.Unlock()

	switch fr {
	case cache.Fresh:
		metrics.Resolutions.WithLabelValues(label, "fresh").Inc()
		return Result{Value: value}, nil
	case cache.Stale:
		metrics.CacheStaleServes.WithLabelValues(label).Inc()
		metrics.Resolutions.WithLabelValues(label, "stale").Inc()
		return Result{Value: value, Stale: true}, nil
	default:
		metrics.Resolutions.WithLabelValues(label, "failed").Inc()
		return Result{}, Unavailable(fetchErr)
	}
}

// SpaceStats is a point-in-time view of one namespace, for status endpoints.
type SpaceStats struct {
	Items     int    `json:"items"`
	Capacity  int    `json:"capacity"`
	Evictions uint64 `json:"evictions"`
	InWindow  int    `json:"in_window"`
	Quota     int    `json:"quota"`
}

// Stats snapshots every namespace.
func (g *Governor) Stats() map[Namespace]SpaceStats {
	out := make(map[Namespace]SpaceStats, len(g.spaces))
	now := g.now()
	for ns, sp := range g.spaces {
		sp.mu.Lock()
		out[ns] = SpaceStats{
			Items:     sp.store.Len(),
			Capacity:  sp.store.Capacity(),
			Evictions: sp.store.Evictions(),
			InWindow:  sp.window.InFlight(now),
			Quota:     sp.window.Quota(),
		}
		sp.mu.Unlock()
	}
	return out
}
