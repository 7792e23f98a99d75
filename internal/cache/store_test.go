package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestStore_FreshWithinTTL(t *testing.T) {
	s := NewStore(10, 60*time.Second)
	t0 := time.Now()

	s.Set("AAPL", "quote", t0)

	v, fr := s.Get("AAPL", t0.Add(59*time.Second), false)
	if fr != Fresh {
		t.Fatalf("expected Fresh, got %v", fr)
	}
	if v != "quote" {
		t.Errorf("expected stored value, got %v", v)
	}
}

func TestStore_ExpiredIsMissWhenNotLimited(t *testing.T) {
	s := NewStore(10, 60*time.Second)
	t0 := time.Now()

	s.Set("AAPL", "quote", t0)

	v, fr := s.Get("AAPL", t0.Add(60*time.Second), false)
	if fr != Miss {
		t.Fatalf("expected Miss for expired entry without limit flag, got %v", fr)
	}
	if v != nil {
		t.Errorf("expected nil value on miss, got %v", v)
	}
}

func TestStore_ExpiredIsStaleWhenLimited(t *testing.T) {
	s := NewStore(10, 60*time.Second)
	t0 := time.Now()

	s.Set("AAPL", "quote", t0)

	// Same state, limited=true: the expired entry is served as stale.
	v, fr := s.Get("AAPL", t0.Add(2*time.Minute), true)
	if fr != Stale {
		t.Fatalf("expected Stale for expired entry under limit, got %v", fr)
	}
	if v != "quote" {
		t.Errorf("expected stored value, got %v", v)
	}
}

func TestStore_AbsentKeyIsMissRegardlessOfLimit(t *testing.T) {
	s := NewStore(10, 60*time.Second)
	now := time.Now()

	if _, fr := s.Get("GOOG", now, false); fr != Miss {
		t.Errorf("expected Miss, got %v", fr)
	}
	if _, fr := s.Get("GOOG", now, true); fr != Miss {
		t.Errorf("expected Miss with limited=true, got %v", fr)
	}
}

func TestStore_EvictsOldestByInsertion(t *testing.T) {
	s := NewStore(2, time.Minute)
	t0 := time.Now()

	s.Set("k1", 1, t0)
	s.Set("k2", 2, t0.Add(1*time.Second))
	s.Set("k3", 3, t0.Add(2*time.Second))

	if s.Len() != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", s.Len())
	}
	if _, fr := s.Get("k1", t0.Add(3*time.Second), false); fr != Miss {
		t.Error("expected k1 (oldest insertion) to be evicted")
	}
	if _, fr := s.Get("k2", t0.Add(3*time.Second), false); fr != Fresh {
		t.Error("expected k2 to survive")
	}
	if _, fr := s.Get("k3", t0.Add(3*time.Second), false); fr != Fresh {
		t.Error("expected k3 to survive")
	}
	if s.Evictions() != 1 {
		t.Errorf("expected 1 eviction, got %d", s.Evictions())
	}
}

func TestStore_OverwriteDoesNotEvict(t *testing.T) {
	s := NewStore(2, time.Minute)
	t0 := time.Now()

	s.Set("k1", 1, t0)
	s.Set("k2", 2, t0.Add(time.Second))
	// Overwriting an existing key at capacity must not evict anything.
	s.Set("k1", 11, t0.Add(2*time.Second))

	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}
	v, fr := s.Get("k1", t0.Add(3*time.Second), false)
	if fr != Fresh || v != 11 {
		t.Errorf("expected refreshed value 11, got %v (%v)", v, fr)
	}
	if s.Evictions() != 0 {
		t.Errorf("expected no evictions, got %d", s.Evictions())
	}
}

func TestStore_OverwriteResetsInsertionTime(t *testing.T) {
	s := NewStore(2, time.Minute)
	t0 := time.Now()

	s.Set("k1", 1, t0)
	s.Set("k2", 2, t0.Add(time.Second))
	// Refresh k1: it is now the newest insertion, so adding k3 evicts k2.
	s.Set("k1", 1, t0.Add(2*time.Second))
	s.Set("k3", 3, t0.Add(3*time.Second))

	if _, fr := s.Get("k2", t0.Add(4*time.Second), false); fr != Miss {
		t.Error("expected k2 to be evicted after k1 refresh")
	}
	if _, fr := s.Get("k1", t0.Add(4*time.Second), false); fr != Fresh {
		t.Error("expected refreshed k1 to survive")
	}
}

func TestStore_CapacityInvariant(t *testing.T) {
	const capacity = 7
	s := NewStore(capacity, time.Minute)
	t0 := time.Now()

	for i := 0; i < 100; i++ {
		s.Set(fmt.Sprintf("key-%d", i%20), i, t0.Add(time.Duration(i)*time.Millisecond))
		if s.Len() > capacity {
			t.Fatalf("capacity invariant violated after set %d: len=%d", i, s.Len())
		}
	}
}

func TestStore_ExpiryDoesNotRemove(t *testing.T) {
	s := NewStore(10, time.Second)
	t0 := time.Now()

	s.Set("AAPL", "quote", t0)

	// Read long after expiry without the limit flag, then with it: the
	// entry must still be present.
	if _, fr := s.Get("AAPL", t0.Add(time.Hour), false); fr != Miss {
		t.Fatalf("expected Miss, got %v", fr)
	}
	if s.Len() != 1 {
		t.Fatalf("expired entry must remain in store, len=%d", s.Len())
	}
	if _, fr := s.Get("AAPL", t0.Add(time.Hour), true); fr != Stale {
		t.Errorf("expected Stale, got %v", fr)
	}
}

func TestFreshness_String(t *testing.T) {
	cases := map[Freshness]string{Miss: "miss", Fresh: "fresh", Stale: "stale"}
	for fr, want := range cases {
		if got := fr.String(); got != want {
			t.Errorf("Freshness(%d).String() = %q, want %q", fr, got, want)
		}
	}
}
