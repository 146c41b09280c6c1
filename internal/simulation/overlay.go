package simulation

import (
	"math"
	"math/rand"

	"SimTape/internal/domain/models"
)

// activeOverlay is a pattern overlay with its window resolved (jittered) for
// one generation run.
type activeOverlay struct {
	cfg    models.PatternOverlayConfig
	start  int
	end    int
	anchor float64 // price at window entry, used by MEAN_REVERSION
}

type overlaySet []*activeOverlay

// resolveOverlays jitters each overlay's nominal window by a uniform integer
// offset in [-noiseBars, +noiseBars], applied identically to both edges so the
// window width is preserved. The jitter draws from the run's seeded stream, so
// it is reproducible within a generation call.
func resolveOverlays(rng *rand.Rand, overlays []models.PatternOverlayConfig) overlaySet {
	out := make(overlaySet, 0, len(overlays))
	for _, o := range overlays {
		end := o.AtBar
		if o.ToBar != nil && *o.ToBar > o.AtBar {
			end = *o.ToBar
		}
		jit := 0
		if o.NoiseBars > 0 {
			jit = rng.Intn(2*o.NoiseBars+1) - o.NoiseBars
		}
		out = append(out, &activeOverlay{cfg: o, start: o.AtBar + jit, end: end + jit})
	}
	return out
}

// at returns the first overlay whose window contains bar. Overlays never
// stack; windows that overlap are won by declaration order.
func (set overlaySet) at(bar int, price float64) *activeOverlay {
	for _, o := range set {
		if bar >= o.start && bar <= o.end {
			if o.anchor == 0 {
				o.anchor = price
			}
			return o
		}
	}
	return nil
}

func (o *activeOverlay) direction() float64 {
	if o.cfg.Direction == models.DirectionDown {
		return -1
	}
	return 1
}

// forcesGapAt reports whether this overlay scripts an open gap at the bar.
func (o *activeOverlay) forcesGapAt(bar int) bool {
	return o.cfg.Type == models.OverlayGapAndGo && bar == o.start
}

// apply combines the overlay's effect with the base-process return. Each type
// has its own combination rule; PULLBACK fully overrides with a counter-trend
// push, the double-top/bottom shapes dampen momentum by halving the return.
func (o *activeOverlay) apply(r, price, curVol float64, s models.SimulationSettings) float64 {
	dir := o.direction()
	k := s.PatternOverlayStrength
	switch o.cfg.Type {
	case models.OverlayBreakout:
		return dir * (math.Abs(r) + 1.2*curVol*k)
	case models.OverlayPullback:
		depth := 1.5
		if o.cfg.DepthATR != nil {
			depth = *o.cfg.DepthATR
		}
		return -dir * curVol * depth * k
	case models.OverlayGapAndGo:
		return dir * (0.5*math.Abs(r) + 0.8*curVol*k)
	case models.OverlayMeanReversion:
		if o.anchor > 0 {
			return 0.5*r - ((price-o.anchor)/o.anchor)*0.8*k
		}
		return 0.5 * r
	case models.OverlayDoubleTop:
		return 0.5*r - 0.2*curVol*k
	case models.OverlayDoubleBottom:
		return 0.5*r + 0.2*curVol*k
	}
	return r
}
