package simulation

import (
	"math"
	"sync"
)

const (
	ewmaLambda = 0.94

	// EWMA clamp bounds, as multiples of the scenario's baseVolatility.
	volClampMin = 0.3
	volClampMax = 3.0
)

// VolTracker maintains a per-symbol exponentially weighted estimate of recent
// realized volatility so large moves raise near-term expected volatility
// (clustering). State survives across generation calls for a symbol and must
// be reset explicitly when a new scenario is applied.
type VolTracker struct {
	mu   sync.Mutex
	vols map[string]float64
}

func NewVolTracker() *VolTracker {
	return &VolTracker{vols: make(map[string]float64)}
}

// Seed sets the symbol's estimate to the scenario's base volatility. Called at
// the start of a full-series generation so reruns with identical inputs are
// reproducible.
func (t *VolTracker) Seed(symbol string, base float64) {
	t.mu.Lock()
	t.vols[symbol] = base
	t.mu.Unlock()
}

// Current returns the symbol's estimate, seeding it with base on first use.
func (t *VolTracker) Current(symbol string, base float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.vols[symbol]
	if !ok {
		t.vols[symbol] = base
		return base
	}
	return v
}

// Update folds one bar's return into the estimate:
// newVol = lambda*prevVol + (1-lambda)*|ret|, clamped to [0.3, 3]*base.
func (t *VolTracker) Update(symbol string, base, ret float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.vols[symbol]
	if !ok {
		prev = base
	}
	v := clampVol(ewmaLambda*prev+(1-ewmaLambda)*math.Abs(ret), base)
	t.vols[symbol] = v
	return v
}

// Reset clears the symbol's state so stale volatility does not leak across
// scenario switches.
func (t *VolTracker) Reset(symbol string) {
	t.mu.Lock()
	delete(t.vols, symbol)
	t.mu.Unlock()
}

// ResetAll clears all per-symbol state.
func (t *VolTracker) ResetAll() {
	t.mu.Lock()
	t.vols = make(map[string]float64)
	t.mu.Unlock()
}

func clampVol(v, base float64) float64 {
	lo, hi := volClampMin*base, volClampMax*base
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
