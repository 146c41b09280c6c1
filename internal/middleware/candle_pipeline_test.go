package middleware

import (
	"context"
	"fmt"
	"testing"
	"time"

	"SimTape/internal/domain/models"
)

type fakeProc struct {
	got  []*models.Candle
	fail bool
}

func (f *fakeProc) Process(_ context.Context, c *models.Candle) error {
	if f.fail {
		return fmt.Errorf("downstream down")
	}
	f.got = append(f.got, c)
	return nil
}

type fakeMetrics struct {
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (m *fakeMetrics) RecordCandle(string, string)     {}
func (m *fakeMetrics) RecordError(kind string)         { m.errors[kind]++ }
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}

func testCandle(symbol string) *models.Candle {
	return &models.Candle{
		Symbol: symbol,
		Time:   time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		Open:   100, High: 101, Low: 99, Close: 100.5,
		Volume: 1000,
	}
}

func TestPipelineForwardsValidCandle(t *testing.T) {
	proc := &fakeProc{}
	p := NewCandlePipeline(proc, newFakeMetrics())

	if err := p.Process(context.Background(), testCandle("AAPL")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.got) != 1 {
		t.Fatalf("forwarded %d candles, want 1", len(proc.got))
	}
}

func TestPipelineRejectsInvalidCandle(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	p := NewCandlePipeline(proc, m)

	bad := []*models.Candle{
		nil,
		{Time: time.Now(), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		{Symbol: "AAPL", Open: 100, High: 101, Low: 99, Close: 100, Volume: 1},
		{Symbol: "AAPL", Time: time.Now(), Open: -1, High: 101, Low: 99, Close: 100, Volume: 1},
		{Symbol: "AAPL", Time: time.Now(), Open: 100, High: 99, Low: 98, Close: 100, Volume: 1}, // high < open
		{Symbol: "AAPL", Time: time.Now(), Open: 100, High: 101, Low: 100.5, Close: 100, Volume: 1},
	}
	for i, c := range bad {
		if err := p.Process(context.Background(), c); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if len(proc.got) != 0 {
		t.Fatalf("invalid candles reached downstream: %d", len(proc.got))
	}
	if m.errors["pipeline_validate"] != len(bad) {
		t.Fatalf("validate errors %d, want %d", m.errors["pipeline_validate"], len(bad))
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	p := NewCandlePipeline(proc, m, WithMaxRPS(1))

	// Two candles for the same symbol within the same second: second dropped.
	if err := p.Process(context.Background(), testCandle("AAPL")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := p.Process(context.Background(), testCandle("AAPL")); err != nil {
		t.Fatalf("throttled candle should drop silently, got %v", err)
	}
	// Different symbol is not affected.
	if err := p.Process(context.Background(), testCandle("MSFT")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if len(proc.got) != 2 {
		t.Fatalf("forwarded %d candles, want 2", len(proc.got))
	}
	if m.errors["pipeline_throttle"] != 1 {
		t.Fatalf("throttle errors %d, want 1", m.errors["pipeline_throttle"])
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &fakeProc{fail: true}
	m := newFakeMetrics()
	p := NewCandlePipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), testCandle("AAPL")); err == nil {
		t.Fatalf("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffered %d candles, want 1", len(p.bufCh))
	}

	// Buffered candle flushes once downstream recovers.
	proc.fail = false
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(proc.got) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("buffered candle never flushed")
}

func TestPipelineTransformApplied(t *testing.T) {
	proc := &fakeProc{}
	p := NewCandlePipeline(proc, newFakeMetrics(), WithTransform(func(c *models.Candle) *models.Candle {
		out := *c
		out.Symbol = "X:" + c.Symbol
		return &out
	}))

	if err := p.Process(context.Background(), testCandle("AAPL")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.got[0].Symbol != "X:AAPL" {
		t.Fatalf("transform not applied: %q", proc.got[0].Symbol)
	}
}
