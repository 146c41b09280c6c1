package repository

import (
	"context"
	"time"

	"SimTape/internal/domain/models"
)

// CandleStream is a live source of candles. The simulated stream satisfies the
// same contract a real quote feed would.
type CandleStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Candle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher fans candles out to a message broker.
type Publisher interface {
	Publish(ctx context.Context, c *models.Candle) error
	PublishBatch(ctx context.Context, candles []*models.Candle) error
	Close() error
}

// Storage persists candle history.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, c *models.Candle) error
	StoreBatch(ctx context.Context, candles []*models.Candle) error
	Query(ctx context.Context, symbol string, from, to time.Time, tf Timeframe, limit int) ([]*models.Candle, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Broadcaster pushes candles to connected dashboard clients.
type Broadcaster interface {
	Broadcast(c *models.Candle)
	ClientCount() int
}

type Metrics interface {
	RecordCandle(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
