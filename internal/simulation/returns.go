package simulation

import (
	"math"
	"math/rand"

	"SimTape/internal/domain/models"
)

// gaussian draws a standard-normal sample via the Box-Muller transform. The
// first uniform draw is floored away from zero to guard the logarithm.
func gaussian(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// nextReturn produces one per-bar fractional return: gaussian shock scaled by
// the live EWMA volatility and regime multiplier, plus drift, minus mean
// reversion toward the previous close, occasionally amplified by a fat-tail
// shock, then shaped by any active overlay and hard-clamped.
func nextReturn(
	rng *rand.Rand,
	price, prevClose, curVol float64,
	params models.RegimeParameters,
	ovl *activeOverlay,
	s models.SimulationSettings,
) float64 {
	r := gaussian(rng) * curVol * params.VolatilityMultiplier * s.VolatilityScale
	r += params.Drift * s.DriftScale

	if params.MeanReversion > 0 && prevClose > 0 {
		r -= ((price - prevClose) / prevClose) * params.MeanReversion * s.MeanReversionStrength
	}

	if p := params.FatTailProbability * s.FatTailMultiplier; p > 0 && rng.Float64() < p {
		size := s.FatTailMinSize + rng.Float64()*(s.FatTailMaxSize-s.FatTailMinSize)
		if rng.Float64() < 0.5 {
			size = -size
		}
		r *= size
	}

	if ovl != nil {
		r = ovl.apply(r, price, curVol, s)
	}

	if r > s.MaxReturnPerBar {
		r = s.MaxReturnPerBar
	}
	if r < -s.MaxReturnPerBar {
		r = -s.MaxReturnPerBar
	}
	return r
}
