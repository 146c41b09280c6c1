package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"SimTape/internal/domain/models"
	domrepo "SimTape/internal/domain/repository"
	"SimTape/internal/scenario"
	"SimTape/internal/simulation"
)

// ErrUnknownSymbol marks requests for symbols outside the configured universe.
var ErrUnknownSymbol = errors.New("unknown symbol")

// CandlesUseCase produces candle series on demand. Series are regenerated
// from the active scenario on every call; determinism of the engine makes
// repeated calls within a day agree bar for bar.
type CandlesUseCase struct {
	engine    *simulation.Engine
	scenarios *scenario.Store
	symbols   map[string]float64 // session start price per symbol
}

func NewCandlesUseCase(engine *simulation.Engine, scenarios *scenario.Store, symbols map[string]float64) *CandlesUseCase {
	return &CandlesUseCase{engine: engine, scenarios: scenarios, symbols: symbols}
}

// Symbols lists the configured universe in stable order.
func (uc *CandlesUseCase) Symbols() []string {
	out := make([]string, 0, len(uc.symbols))
	for s := range uc.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Series generates the full current-day series for a symbol up to now. The
// day is anchored at midnight UTC so successive calls extend, never repaint,
// the earlier bars.
func (uc *CandlesUseCase) Series(ctx context.Context, symbol string, tf domrepo.Timeframe, now time.Time) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	startPrice, ok := uc.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	tfMin := tf.Minutes()
	if tfMin <= 0 {
		return nil, fmt.Errorf("invalid timeframe %q", tf)
	}

	dayStart := now.UTC().Truncate(24 * time.Hour)
	candles := uc.engine.GenerateCandles(simulation.GenerateRequest{
		Symbol:           symbol,
		Config:           uc.scenarios.Active(),
		Settings:         uc.scenarios.Settings(),
		StartPrice:       startPrice,
		StartTime:        dayStart,
		TotalBars:        24 * 60 / tfMin,
		TimeframeMinutes: tfMin,
		CurrentTime:      now,
	})
	return candles, nil
}

type GetCandlesParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Bars      int
	Now       time.Time
}

type GetCandlesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"tf"`
	Count     int             `json:"count"`
	Candles   []models.Candle `json:"candles"`
}

// GetCandles returns the trailing Bars candles for the symbol.
func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Bars <= 0 {
		p.Bars = 390
	}
	if p.Bars > 5000 {
		p.Bars = 5000
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}

	candles, err := uc.Series(ctx, p.Symbol, p.Timeframe, p.Now)
	if err != nil {
		return nil, fmt.Errorf("generate candles: %w", err)
	}
	if len(candles) > p.Bars {
		candles = candles[len(candles)-p.Bars:]
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Count:     len(candles),
		Candles:   candles,
	}, nil
}
