package simulation

import (
	"math/rand"
	"testing"
)

func TestVolTrackerSeedsWithBase(t *testing.T) {
	tr := NewVolTracker()
	if v := tr.Current("AAPL", 0.01); v != 0.01 {
		t.Fatalf("first use: got %v, want base", v)
	}
}

func TestVolTrackerClamp(t *testing.T) {
	const base = 0.01
	tr := NewVolTracker()
	rng := rand.New(rand.NewSource(7))

	lo, hi := volClampMin*base, volClampMax*base
	for i := 0; i < 5000; i++ {
		ret := (rng.Float64()*2 - 1) * 0.5 // far beyond any sane per-bar return
		v := tr.Update("AAPL", base, ret)
		if v < lo || v > hi {
			t.Fatalf("iteration %d: estimate %v outside [%v, %v]", i, v, lo, hi)
		}
	}
}

func TestVolTrackerLargeMovesRaiseEstimate(t *testing.T) {
	const base = 0.01
	tr := NewVolTracker()
	tr.Seed("AAPL", base)
	v := tr.Update("AAPL", base, 0.10)
	if v <= base {
		t.Fatalf("estimate did not rise after large move: %v", v)
	}
}

func TestVolTrackerReset(t *testing.T) {
	const base = 0.01
	tr := NewVolTracker()
	tr.Update("AAPL", base, 0.10)
	tr.Reset("AAPL")
	if v := tr.Current("AAPL", base); v != base {
		t.Fatalf("after reset: got %v, want base", v)
	}

	tr.Update("MSFT", base, 0.10)
	tr.ResetAll()
	if v := tr.Current("MSFT", base); v != base {
		t.Fatalf("after reset all: got %v, want base", v)
	}
}
