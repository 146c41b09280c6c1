package simulation

import (
	"math"
	"math/rand"
	"time"

	"SimTape/internal/domain/models"
)

// Baseline volume magnitudes per timeframe bucket.
func baseVolumeForTimeframe(tfMin int) float64 {
	switch tfMin {
	case 1:
		return 75_000
	case 5:
		return 350_000
	case 15:
		return 1_000_000
	default:
		return 75_000 * float64(tfMin)
	}
}

// sessionVolumeFactor models the intraday volume curve: elevated near the open
// and close, a lunch lull mid-day, a trickle outside trading hours. Each band
// carries its own jitter.
func (e *Engine) sessionVolumeFactor(rng *rand.Rand, t time.Time) float64 {
	h := t.Hour()
	u := rng.Float64()
	switch {
	case h < e.sessionOpenHour || h >= e.sessionCloseHour:
		return 0.15 + 0.10*u
	case h == e.sessionOpenHour:
		return 1.50 + 0.40*u
	case h == e.sessionCloseHour-1:
		return 1.30 + 0.30*u
	case h >= 12 && h <= 13:
		return 0.60 + 0.20*u
	default:
		return 0.90 + 0.20*u
	}
}

type barInput struct {
	symbol    string
	bar       int
	barTime   time.Time
	tfMin     int
	prevClose float64
	ret       float64
	curVol    float64
	params    models.RegimeParameters
	ovl       *activeOverlay
	live      bool
	elapsed   float64 // fraction of the live bar elapsed, in [0, 1]
}

// synthesize turns the scalar close-to-close return into a full OHLCV bar.
func (e *Engine) synthesize(rng *rand.Rand, in barInput, cfg *models.ScenarioConfig, s models.SimulationSettings) models.Candle {
	open := in.prevClose

	gp := cfg.GapProbability * in.params.GapProbabilityModifier
	if in.barTime.Hour() == e.sessionOpenHour {
		gp *= 3
	}
	forceGap := in.ovl != nil && in.ovl.forcesGapAt(in.bar)
	if forceGap || (gp > 0 && rng.Float64() < gp) {
		gapPct := rng.Float64() * cfg.MaxGapPercent
		if forceGap {
			gapPct *= in.ovl.direction()
		} else if rng.Float64() < 0.5 {
			gapPct = -gapPct
		}
		open = in.prevClose * (1 + gapPct)
	}

	target := in.prevClose * (1 + in.ret)
	closeV := target
	if in.live {
		// Partially-formed candle: walk the close toward the target by the
		// elapsed fraction and add tick noise.
		closeV = open + (target-open)*in.elapsed
		closeV += (rng.Float64()*2 - 1) * s.LiveTickNoise * in.curVol * open
	}

	span := math.Abs(open-closeV) + in.curVol*open*0.5
	high := math.Max(open, closeV) + rng.Float64()*span*s.HighLowRangeMultiplier
	low := math.Min(open, closeV) - rng.Float64()*span*s.HighLowRangeMultiplier
	if low < 0 {
		low = 0
	}

	o, c := round2(open), round2(closeV)
	h, l := round2(high), round2(low)
	if m := math.Max(o, c); h < m {
		h = m
	}
	if m := math.Min(o, c); l > m {
		l = m
	}

	vol := baseVolumeForTimeframe(in.tfMin) * e.sessionVolumeFactor(rng, in.barTime) * in.params.VolumeMultiplier
	if in.ovl != nil && in.ovl.cfg.VolumeBoost > 0 {
		vol *= in.ovl.cfg.VolumeBoost
	}
	if in.live {
		frac := in.elapsed
		if frac < 0.1 {
			frac = 0.1
		}
		vol *= frac
	}

	return models.Candle{
		Symbol: in.symbol,
		Time:   in.barTime,
		Open:   o,
		High:   h,
		Low:    l,
		Close:  c,
		Volume: int64(math.Round(vol)),
	}
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
