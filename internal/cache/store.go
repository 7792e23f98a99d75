// Package cache implements the namespaced TTL store that backs the upstream
// governance layer. Expiry never removes an entry; it only downgrades it from
// fresh to stale, so a throttled or failing upstream can still be papered
// over with the last known value.
package cache

import "time"

// Freshness classifies the result of a lookup.
type Freshness int

const (
	// Miss means no usable entry exists.
	Miss Freshness = iota
	// Fresh means the entry is within its TTL.
	Fresh
	// Stale means the entry is past its TTL but was returned anyway
	// because the caller is currently rate limited or rescuing a failed
	// fetch.
	Stale
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

type entry struct {
	value      any
	insertedAt time.Time
}

// Store is a capacity-bounded key→value map for a single namespace. When a
// new key would exceed capacity, the entry with the smallest insertion time
// is evicted — oldest-by-insertion, not LRU. Recency of access is
// deliberately ignored so that entries survive for stale serving no matter
// how they are read.
//
// Store is not safe for concurrent use. Callers serialize access together
// with the namespace's rate window; see governor.
type Store struct {
	ttl      time.Duration
	capacity int
	entries  map[string]entry

	evictions uint64
}

// NewStore creates a store with the given capacity and freshness window.
func NewStore(capacity int, ttl time.Duration) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]entry, capacity),
	}
}

// Get looks up key at the given instant. A live entry is Fresh. An expired
// entry is Stale when limited is true (the caller cannot or should not go
// upstream) and a Miss otherwise. Absent keys are always a Miss.
func (s *Store) Get(key string, now time.Time, limited bool) (any, Freshness) {
	e, ok := s.entries[key]
	if !ok {
		return nil, Miss
	}
	if now.Sub(e.insertedAt) < s.ttl {
		return e.value, Fresh
	}
	if limited {
		return e.value, Stale
	}
	return nil, Miss
}

// Set inserts or overwrites key with value, stamped at now. If the key is
// new and the store is at capacity, the oldest-inserted entry is evicted
// first, so the size bound holds after every mutation.
func (s *Store) Set(key string, value any, now time.Time) {
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.capacity {
		s.evictOldest()
	}
	s.entries[key] = entry{value: value, insertedAt: now}
}

func (s *Store) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range s.entries {
		if first || e.insertedAt.Before(oldest) {
			oldestKey, oldest = k, e.insertedAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
		s.evictions++
	}
}

// Len returns the current number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Capacity returns the configured entry bound.
func (s *Store) Capacity() int { return s.capacity }

// Evictions returns the number of entries removed by capacity eviction.
func (s *Store) Evictions() uint64 { return s.evictions }
