package indicators

import (
	"context"
	"fmt"

	"SimTape/internal/domain/models"
)

const (
	atrPeriod      = 14
	stopATRMult    = 1.5
	targetATRMult  = 2.5
	vwapDeadbandPc = 0.001 // within 0.1% of VWAP counts as flat
)

// Scanner derives a VWAP/ATR trade idea from a candle window: price above
// VWAP leans long, below leans short, stops and targets are ATR multiples.
type Scanner struct{}

func NewScanner() *Scanner { return &Scanner{} }

func (s *Scanner) Scan(_ context.Context, symbol string, candles []models.Candle) (models.Signal, error) {
	if len(candles) < atrPeriod+1 {
		return models.Signal{}, fmt.Errorf("need at least %d candles, got %d", atrPeriod+1, len(candles))
	}
	last := candles[len(candles)-1]
	vwap := VWAP(candles)
	atr := ATR(candles, atrPeriod)

	sig := models.Signal{
		Symbol:    symbol,
		Timestamp: last.Time,
		Direction: "NONE",
		Entry:     last.Close,
		VWAP:      vwap,
		ATR:       atr,
	}
	if vwap <= 0 || atr <= 0 {
		return sig, nil
	}

	switch {
	case last.Close > vwap*(1+vwapDeadbandPc):
		sig.Direction = "LONG"
		sig.Stop = last.Close - stopATRMult*atr
		sig.Target = last.Close + targetATRMult*atr
	case last.Close < vwap*(1-vwapDeadbandPc):
		sig.Direction = "SHORT"
		sig.Stop = last.Close + stopATRMult*atr
		sig.Target = last.Close - targetATRMult*atr
	}
	return sig, nil
}
