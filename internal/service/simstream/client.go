// Package simstream adapts the candle generator to the streaming contract a
// real quote feed would satisfy, so everything downstream of the stream
// interface is provider-agnostic.
package simstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SimTape/internal/domain/models"
	drepo "SimTape/internal/domain/repository"
)

// SeriesSource produces the current-day candle series for a symbol.
type SeriesSource interface {
	Series(ctx context.Context, symbol string, tf drepo.Timeframe, now time.Time) ([]models.Candle, error)
}

// Client implements a CandleStream backed by the simulation engine. Each tick
// it re-derives the live bar for every symbol; when a bar bucket rolls over it
// first emits the finalized previous bar.
type Client struct {
	source       SeriesSource
	symbols      []string
	tf           drepo.Timeframe
	tickInterval time.Duration

	mu        sync.Mutex
	connected bool
	lastBar   map[string]time.Time
}

// New creates a simulated CandleStream.
func New(source SeriesSource, symbols []string, tf drepo.Timeframe, tickInterval time.Duration) drepo.CandleStream {
	if tickInterval <= 0 {
		tickInterval = 2 * time.Second
	}
	return &Client{
		source:       source,
		symbols:      symbols,
		tf:           tf,
		tickInterval: tickInterval,
		lastBar:      make(map[string]time.Time),
	}
}

// Connect marks the stream live. There is no remote endpoint to dial.
func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.connected = true
	c.lastBar = make(map[string]time.Time)
	c.mu.Unlock()
	return nil
}

// Subscribe validates the configured universe.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return fmt.Errorf("simstream not connected")
	}
	if len(c.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	return nil
}

// Read streams candle updates and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Candle, <-chan error) {
	candles := make(chan *models.Candle, 1024)
	errs := make(chan error, 1)

	go func() {
		defer close(candles)
		defer close(errs)
		ticker := time.NewTicker(c.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if !c.IsConnected() {
					continue
				}
				for _, sym := range c.symbols {
					c.emit(ctx, sym, now, candles, errs)
				}
			}
		}
	}()

	return candles, errs
}

func (c *Client) emit(ctx context.Context, symbol string, now time.Time, out chan<- *models.Candle, errs chan<- error) {
	series, err := c.source.Series(ctx, symbol, c.tf, now)
	if err != nil {
		select {
		case errs <- fmt.Errorf("simstream %s: %w", symbol, err):
		default:
		}
		return
	}
	if len(series) == 0 {
		return
	}
	live := series[len(series)-1]

	c.mu.Lock()
	prev, seen := c.lastBar[symbol]
	c.lastBar[symbol] = live.Time
	c.mu.Unlock()

	// Bucket rolled over: the previous bar is now final, send its settled form
	// before the new live bar.
	if seen && live.Time.After(prev) && len(series) >= 2 {
		closed := series[len(series)-2]
		if closed.Time.Equal(prev) {
			c.send(out, &closed)
		}
	}
	c.send(out, &live)
}

func (c *Client) send(out chan<- *models.Candle, candle *models.Candle) {
	select {
	case out <- candle:
	default:
		// drop on backpressure
	}
}

// Reconnect resets stream state.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close stops emitting.
func (c *Client) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
