package service

import (
	"context"

	"SimTape/internal/domain/models"
)

// SignalScanner computes indicator-based signals over a candle window.
type SignalScanner interface {
	Scan(ctx context.Context, symbol string, candles []models.Candle) (models.Signal, error)
}
