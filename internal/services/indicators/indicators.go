package indicators

import (
	"math"

	"SimTape/internal/domain/models"
)

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(candles)-1, or nil if insufficient data.
func ComputeLogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RollingVolatility computes the sample standard deviation of log returns over
// the trailing window. Returns 0 when there is not enough data.
func RollingVolatility(logReturns []float64, window int) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// VWAP is the volume-weighted average of typical price (H+L+C)/3 over the
// whole slice. Returns 0 when no volume traded.
func VWAP(candles []models.Candle) float64 {
	var pv, vol float64
	for _, c := range candles {
		typical := (c.High + c.Low + c.Close) / 3
		v := float64(c.Volume)
		pv += typical * v
		vol += v
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

// ATR is Wilder's average true range over the given period. The first true
// range uses high-low only; subsequent bars include the gap to the prior
// close. Returns 0 when fewer than period+1 candles are available.
func ATR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}
	trueRange := func(i int) float64 {
		c := candles[i]
		tr := c.High - c.Low
		if i > 0 {
			prev := candles[i-1].Close
			tr = math.Max(tr, math.Abs(c.High-prev))
			tr = math.Max(tr, math.Abs(c.Low-prev))
		}
		return tr
	}

	start := len(candles) - period - 1
	atr := 0.0
	for i := start; i < start+period; i++ {
		atr += trueRange(i)
	}
	atr /= float64(period)
	// Wilder smoothing for the final bar.
	return (atr*float64(period-1) + trueRange(len(candles)-1)) / float64(period)
}
