package models

import "time"

// Candle represents one OHLCV bar. Simulated candles are shape-identical to
// candles sourced from a real quote provider; nothing downstream may tell
// them apart.
type Candle struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Signal is an indicator-based trade idea computed over a candle window.
type Signal struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"` // "LONG" | "SHORT" | "NONE"
	Entry     float64   `json:"entry"`
	Stop      float64   `json:"stop"`
	Target    float64   `json:"target"`
	VWAP      float64   `json:"vwap"`
	ATR       float64   `json:"atr"`
}
