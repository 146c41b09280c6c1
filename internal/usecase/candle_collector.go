package usecase

import (
	"context"

	"SimTape/internal/domain/models"
	drepo "SimTape/internal/domain/repository"
	mid "SimTape/internal/middleware"
)

// CandleCollector consumes the candle stream, broadcasts every update to
// dashboard clients, and hands candles to the pipeline for persistence.
type CandleCollector struct {
	stream  drepo.CandleStream
	proc    *CandleProcessor
	metrics drepo.Metrics
	pipe    *mid.CandlePipeline
	hub     drepo.Broadcaster
}

// NewCandleCollector creates a new CandleCollector instance.
func NewCandleCollector(
	stream drepo.CandleStream,
	proc *CandleProcessor,
	metrics drepo.Metrics,
	pipe *mid.CandlePipeline,
	hub drepo.Broadcaster,
) *CandleCollector {
	return &CandleCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe, hub: hub}
}

// IsConnected reports whether the candle stream is running.
func (c *CandleCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *CandleCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	cnCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, cnCh, errCh)
	return nil
}

func (c *CandleCollector) consume(ctx context.Context, cnCh <-chan *models.Candle, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case cn := <-cnCh:
			if cn == nil {
				continue
			}
			if c.hub != nil {
				c.hub.Broadcast(cn)
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, cn)
			} else {
				_ = c.proc.Process(ctx, cn)
			}
			c.metrics.RecordLastPrice(cn.Symbol, cn.Close)
		}
	}
}

func (c *CandleCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying CandleProcessor for lifecycle management.
func (c *CandleCollector) Processor() *CandleProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *CandleCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
