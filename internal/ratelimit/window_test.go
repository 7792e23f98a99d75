package ratelimit

import (
	"testing"
	"time"
)

func TestWindow_AdmissionSequence(t *testing.T) {
	w := NewWindow(2, 60*time.Second)
	t0 := time.Now()

	if !w.Allow(t0) {
		t.Fatal("t=0: expected admitted")
	}
	if !w.Allow(t0.Add(1 * time.Second)) {
		t.Fatal("t=1: expected admitted")
	}
	if w.Allow(t0.Add(2 * time.Second)) {
		t.Fatal("t=2: expected limited, quota exhausted")
	}
	// At t=61 the t=0 stamp has left the window.
	if !w.Allow(t0.Add(61 * time.Second)) {
		t.Fatal("t=61: expected admitted after oldest stamp expired")
	}
}

func TestWindow_DeniedCallsNotRecorded(t *testing.T) {
	w := NewWindow(1, 60*time.Second)
	t0 := time.Now()

	if !w.Allow(t0) {
		t.Fatal("expected first call admitted")
	}
	// Hammer the limiter while denied; none of these may count.
	for i := 1; i <= 30; i++ {
		if w.Allow(t0.Add(time.Duration(i) * time.Second)) {
			t.Fatalf("t=%d: expected limited", i)
		}
	}
	if got := w.InFlight(t0.Add(30 * time.Second)); got != 1 {
		t.Errorf("expected 1 recorded admission, got %d", got)
	}
	// The original admission expires at t=60; the next call gets in.
	if !w.Allow(t0.Add(61 * time.Second)) {
		t.Error("expected admitted once the recorded stamp aged out")
	}
}

func TestWindow_QuotaInvariant(t *testing.T) {
	const quota = 5
	w := NewWindow(quota, 10*time.Second)
	t0 := time.Now()

	for i := 0; i < 200; i++ {
		now := t0.Add(time.Duration(i) * 250 * time.Millisecond)
		w.Allow(now)
		if got := w.InFlight(now); got > quota {
			t.Fatalf("window invariant violated at step %d: %d > %d", i, got, quota)
		}
	}
}

func TestWindow_PruneAtExactCutoff(t *testing.T) {
	w := NewWindow(1, 60*time.Second)
	t0 := time.Now()

	if !w.Allow(t0) {
		t.Fatal("expected admitted")
	}
	// At exactly t0+60s the stamp is no longer inside the trailing window.
	if !w.Allow(t0.Add(60 * time.Second)) {
		t.Error("expected stamp at exact cutoff to be pruned")
	}
}

func TestNewWindow_MinimumQuota(t *testing.T) {
	w := NewWindow(0, time.Second)
	if w.Quota() != 1 {
		t.Errorf("expected quota floor of 1, got %d", w.Quota())
	}
}
