package indicators

import (
	"context"
	"math"
	"testing"
	"time"

	"SimTape/internal/domain/models"
)

func flatCandles(n int, price float64, vol int64) []models.Candle {
	start := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Symbol: "TEST",
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   price, High: price, Low: price, Close: price,
			Volume: vol,
		}
	}
	return out
}

func TestVWAPFlatSeries(t *testing.T) {
	candles := flatCandles(20, 50, 1000)
	if got := VWAP(candles); math.Abs(got-50) > 1e-9 {
		t.Fatalf("VWAP %v, want 50", got)
	}
}

func TestVWAPWeightsByVolume(t *testing.T) {
	candles := []models.Candle{
		{High: 10, Low: 10, Close: 10, Volume: 900},
		{High: 20, Low: 20, Close: 20, Volume: 100},
	}
	if got := VWAP(candles); math.Abs(got-11) > 1e-9 {
		t.Fatalf("VWAP %v, want 11", got)
	}
}

func TestVWAPZeroVolume(t *testing.T) {
	if got := VWAP(flatCandles(5, 50, 0)); got != 0 {
		t.Fatalf("VWAP with zero volume: %v", got)
	}
}

func TestATRConstantRange(t *testing.T) {
	candles := flatCandles(30, 100, 1000)
	for i := range candles {
		candles[i].High = 101
		candles[i].Low = 99
	}
	// every true range is 2, so any smoothing yields 2
	if got := ATR(candles, 14); math.Abs(got-2) > 1e-9 {
		t.Fatalf("ATR %v, want 2", got)
	}
}

func TestATRInsufficientData(t *testing.T) {
	if got := ATR(flatCandles(10, 100, 1000), 14); got != 0 {
		t.Fatalf("ATR on short series: %v", got)
	}
}

func TestRollingVolatilityFlatIsZero(t *testing.T) {
	rets := ComputeLogReturns(flatCandles(40, 100, 1000))
	if got := RollingVolatility(rets, 20); got != 0 {
		t.Fatalf("volatility of flat series: %v", got)
	}
}

func TestComputeLogReturnsLength(t *testing.T) {
	if got := ComputeLogReturns(flatCandles(1, 100, 1)); got != nil {
		t.Fatalf("single candle should give nil returns")
	}
	if got := len(ComputeLogReturns(flatCandles(10, 100, 1))); got != 9 {
		t.Fatalf("got %d returns, want 9", got)
	}
}

func TestScannerDirections(t *testing.T) {
	scanner := NewScanner()

	above := flatCandles(30, 100, 1000)
	for i := range above {
		above[i].High = 101
		above[i].Low = 99
	}
	above[len(above)-1].Close = 105
	sig, err := scanner.Scan(context.Background(), "TEST", above)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sig.Direction != "LONG" {
		t.Fatalf("close above VWAP: direction %q", sig.Direction)
	}
	if sig.Stop >= sig.Entry || sig.Target <= sig.Entry {
		t.Fatalf("long levels inverted: %+v", sig)
	}

	below := flatCandles(30, 100, 1000)
	for i := range below {
		below[i].High = 101
		below[i].Low = 99
	}
	below[len(below)-1].Close = 95
	sig, err = scanner.Scan(context.Background(), "TEST", below)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sig.Direction != "SHORT" {
		t.Fatalf("close below VWAP: direction %q", sig.Direction)
	}
	if sig.Stop <= sig.Entry || sig.Target >= sig.Entry {
		t.Fatalf("short levels inverted: %+v", sig)
	}
}

func TestScannerFlatIsNone(t *testing.T) {
	candles := flatCandles(30, 100, 1000)
	for i := range candles {
		candles[i].High = 100.05
		candles[i].Low = 99.95
	}
	sig, err := NewScanner().Scan(context.Background(), "TEST", candles)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sig.Direction != "NONE" {
		t.Fatalf("flat series produced %q", sig.Direction)
	}
}

func TestScannerRejectsShortWindow(t *testing.T) {
	if _, err := NewScanner().Scan(context.Background(), "TEST", flatCandles(5, 100, 1)); err == nil {
		t.Fatalf("short window accepted")
	}
}
