package usecase

import (
	"context"
	"fmt"
	"time"

	"SimTape/internal/domain/models"
	domrepo "SimTape/internal/domain/repository"
	domservice "SimTape/internal/domain/service"
)

// SignalsUseCase computes indicator signals over freshly generated candles.
type SignalsUseCase struct {
	candles *CandlesUseCase
	scanner domservice.SignalScanner
}

func NewSignalsUseCase(candles *CandlesUseCase, scanner domservice.SignalScanner) *SignalsUseCase {
	return &SignalsUseCase{candles: candles, scanner: scanner}
}

type GetSignalParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Window    int
	Now       time.Time
}

// GetSignal scans the trailing Window candles for a trade idea.
func (uc *SignalsUseCase) GetSignal(ctx context.Context, p GetSignalParams) (models.Signal, error) {
	if p.Symbol == "" {
		return models.Signal{}, fmt.Errorf("symbol required")
	}
	if p.Window <= 0 {
		p.Window = 60
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}

	candles, err := uc.candles.Series(ctx, p.Symbol, p.Timeframe, p.Now)
	if err != nil {
		return models.Signal{}, fmt.Errorf("generate candles: %w", err)
	}
	if len(candles) > p.Window {
		candles = candles[len(candles)-p.Window:]
	}
	return uc.scanner.Scan(ctx, p.Symbol, candles)
}
