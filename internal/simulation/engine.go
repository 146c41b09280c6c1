// Package simulation generates synthetic OHLCV candle series: a random-walk
// base process shaped by a regime schedule, pattern overlays, and EWMA
// volatility clustering. Generation is deterministic for a given seed, does no
// I/O, and never fails for in-domain input.
package simulation

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"SimTape/internal/domain/models"
)

// Engine produces candle series from scenario configurations. The only state
// it carries between calls is the per-symbol EWMA volatility map; generation
// for one symbol is serialized by a per-symbol lock.
type Engine struct {
	sessionOpenHour  int
	sessionCloseHour int

	vol *VolTracker

	mu       sync.Mutex
	symLocks map[string]*sync.Mutex
}

// NewEngine creates an engine with the exchange session's clock hours, used
// for gap elevation at the open and the intraday volume curve.
func NewEngine(sessionOpenHour, sessionCloseHour int) *Engine {
	if sessionCloseHour <= sessionOpenHour {
		sessionOpenHour, sessionCloseHour = 9, 16
	}
	return &Engine{
		sessionOpenHour:  sessionOpenHour,
		sessionCloseHour: sessionCloseHour,
		vol:              NewVolTracker(),
		symLocks:         make(map[string]*sync.Mutex),
	}
}

// GenerateRequest carries everything one generation call needs. Config and
// Settings are snapshots; the engine never reads shared mutable state.
type GenerateRequest struct {
	Symbol           string
	Config           *models.ScenarioConfig
	Settings         models.SimulationSettings
	StartPrice       float64
	StartTime        time.Time
	TotalBars        int
	TimeframeMinutes int
	CurrentTime      time.Time
}

// GenerateCandles produces a chronological candle series for the request,
// stopping before any bar whose open time is after CurrentTime. The final
// emitted bar is treated as live (partially formed) when CurrentTime falls
// inside its time bucket.
func (e *Engine) GenerateCandles(req GenerateRequest) []models.Candle {
	cfg := req.Config
	if cfg == nil {
		cfg = &models.ScenarioConfig{Name: "default", BaseVolatility: 0.01}
	}
	if req.TotalBars <= 0 || req.StartPrice <= 0 {
		return nil
	}
	tfMin := req.TimeframeMinutes
	if tfMin <= 0 {
		tfMin = 1
	}

	// Single writer per symbol: concurrent generation calls for the same
	// symbol would otherwise race on the EWMA state.
	unlock := e.lockSymbol(req.Symbol)
	defer unlock()

	rng := rand.New(rand.NewSource(resolveSeed(cfg, req.Symbol, req.CurrentTime)))
	sched := BuildRegimeSchedule(cfg.Regimes, req.TotalBars, cfg.BaseVolatility)
	overlays := resolveOverlays(rng, cfg.Overlays)

	// A full-series run restarts clustering from the scenario's base so
	// reruns with identical inputs reproduce bit-identical output.
	e.vol.Seed(req.Symbol, cfg.BaseVolatility)

	tf := time.Duration(tfMin) * time.Minute
	out := make([]models.Candle, 0, req.TotalBars)
	price := req.StartPrice
	prevClose := req.StartPrice
	curVol := cfg.BaseVolatility

	for bar := 0; bar < req.TotalBars; bar++ {
		barTime := req.StartTime.Add(time.Duration(bar) * tf)
		if barTime.After(req.CurrentTime) {
			break // never fabricate future candles
		}
		params := sched.At(bar)
		ovl := overlays.at(bar, price)

		ret := nextReturn(rng, price, prevClose, curVol, params, ovl, req.Settings)
		curVol = e.vol.Update(req.Symbol, cfg.BaseVolatility, ret)

		barEnd := barTime.Add(tf)
		live := barEnd.After(req.CurrentTime)
		elapsed := 1.0
		if live {
			elapsed = req.CurrentTime.Sub(barTime).Seconds() / tf.Seconds()
			if elapsed < 0 {
				elapsed = 0
			} else if elapsed > 1 {
				elapsed = 1
			}
		}

		c := e.synthesize(rng, barInput{
			symbol:    req.Symbol,
			bar:       bar,
			barTime:   barTime,
			tfMin:     tfMin,
			prevClose: price,
			ret:       ret,
			curVol:    curVol,
			params:    params,
			ovl:       ovl,
			live:      live,
			elapsed:   elapsed,
		}, cfg, req.Settings)

		out = append(out, c)
		prevClose = price
		price = c.Close
	}
	return out
}

// ResetState clears the symbol's EWMA volatility. Callers reset whenever a
// new scenario is applied so stale clustering does not leak across switches.
func (e *Engine) ResetState(symbol string) { e.vol.Reset(symbol) }

// ResetAll clears all per-symbol volatility state.
func (e *Engine) ResetAll() { e.vol.ResetAll() }

// CurrentVolatility exposes the live EWMA estimate for a symbol.
func (e *Engine) CurrentVolatility(symbol string, base float64) float64 {
	return e.vol.Current(symbol, base)
}

func (e *Engine) lockSymbol(symbol string) func() {
	e.mu.Lock()
	l, ok := e.symLocks[symbol]
	if !ok {
		l = &sync.Mutex{}
		e.symLocks[symbol] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// resolveSeed prefers the scenario's explicit seed; otherwise it derives one
// from the symbol and calendar day so reruns for the same symbol/day match
// while other symbols and days diverge.
func resolveSeed(cfg *models.ScenarioConfig, symbol string, at time.Time) int64 {
	if cfg.Seed != nil {
		return *cfg.Seed
	}
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{'|'})
	h.Write([]byte(at.UTC().Format("2006-01-02")))
	return int64(h.Sum64())
}
