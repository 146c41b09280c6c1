package simstream

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"SimTape/internal/domain/models"
	drepo "SimTape/internal/domain/repository"
)

type fakeSource struct {
	mu     sync.Mutex
	series []models.Candle
	err    error
}

func (f *fakeSource) Series(context.Context, string, drepo.Timeframe, time.Time) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Candle, len(f.series))
	copy(out, f.series)
	return out, nil
}

func (f *fakeSource) set(series []models.Candle) {
	f.mu.Lock()
	f.series = series
	f.mu.Unlock()
}

func bar(min int, close float64) models.Candle {
	return models.Candle{
		Symbol: "AAPL",
		Time:   time.Date(2025, 6, 2, 9, min, 0, 0, time.UTC),
		Open:   close - 0.5, High: close + 1, Low: close - 1, Close: close,
		Volume: 1000,
	}
}

func newTestClient(src SeriesSource) *Client {
	c := New(src, []string{"AAPL"}, drepo.TF1m, time.Second).(*Client)
	_ = c.Connect(context.Background())
	return c
}

func drain(ch chan *models.Candle) []*models.Candle {
	var out []*models.Candle
	for {
		select {
		case c := <-ch:
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestEmitSendsLiveBar(t *testing.T) {
	src := &fakeSource{series: []models.Candle{bar(30, 100), bar(31, 101)}}
	c := newTestClient(src)

	out := make(chan *models.Candle, 16)
	errs := make(chan error, 1)
	c.emit(context.Background(), "AAPL", time.Now(), out, errs)

	got := drain(out)
	if len(got) != 1 {
		t.Fatalf("emitted %d candles, want 1", len(got))
	}
	if !got[0].Time.Equal(bar(31, 101).Time) {
		t.Fatalf("live bar time %v, want %v", got[0].Time, bar(31, 101).Time)
	}
}

func TestEmitFinalizesBarOnRollover(t *testing.T) {
	src := &fakeSource{series: []models.Candle{bar(30, 100), bar(31, 101)}}
	c := newTestClient(src)

	out := make(chan *models.Candle, 16)
	errs := make(chan error, 1)

	c.emit(context.Background(), "AAPL", time.Now(), out, errs)
	drain(out)

	// Next tick the bucket has rolled over: bar 31 settles, bar 32 is live.
	src.set([]models.Candle{bar(30, 100), bar(31, 101.25), bar(32, 102)})
	c.emit(context.Background(), "AAPL", time.Now(), out, errs)

	got := drain(out)
	if len(got) != 2 {
		t.Fatalf("emitted %d candles, want closed+live", len(got))
	}
	if !got[0].Time.Equal(bar(31, 0).Time) || got[0].Close != 101.25 {
		t.Fatalf("closed bar wrong: %+v", got[0])
	}
	if !got[1].Time.Equal(bar(32, 0).Time) {
		t.Fatalf("live bar wrong: %+v", got[1])
	}
}

func TestEmitSameBucketSendsOnlyLive(t *testing.T) {
	src := &fakeSource{series: []models.Candle{bar(30, 100), bar(31, 101)}}
	c := newTestClient(src)

	out := make(chan *models.Candle, 16)
	errs := make(chan error, 1)

	c.emit(context.Background(), "AAPL", time.Now(), out, errs)
	drain(out)

	// Same bucket, updated live price: one candle, no finalized duplicate.
	src.set([]models.Candle{bar(30, 100), bar(31, 101.5)})
	c.emit(context.Background(), "AAPL", time.Now(), out, errs)

	got := drain(out)
	if len(got) != 1 {
		t.Fatalf("emitted %d candles, want 1", len(got))
	}
	if got[0].Close != 101.5 {
		t.Fatalf("live close %v, want 101.5", got[0].Close)
	}
}

func TestEmitForwardsSourceError(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("boom")}
	c := newTestClient(src)

	out := make(chan *models.Candle, 16)
	errs := make(chan error, 1)
	c.emit(context.Background(), "AAPL", time.Now(), out, errs)

	select {
	case err := <-errs:
		if err == nil {
			t.Fatalf("nil error on errs channel")
		}
	default:
		t.Fatalf("source error not forwarded")
	}
	if len(drain(out)) != 0 {
		t.Fatalf("candles emitted despite source error")
	}
}

func TestSubscribeRequiresConnect(t *testing.T) {
	c := New(&fakeSource{}, []string{"AAPL"}, drepo.TF1m, time.Second).(*Client)
	if err := c.Subscribe(context.Background()); err == nil {
		t.Fatalf("expected error before Connect")
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Subscribe(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !c.IsConnected() {
		t.Fatalf("expected connected")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.IsConnected() {
		t.Fatalf("expected disconnected after Close")
	}
}
