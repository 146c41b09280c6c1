package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domrepo "SimTape/internal/domain/repository"
	"SimTape/internal/scenario"
	"SimTape/internal/service/cache"
	"SimTape/internal/services/indicators"
	"SimTape/internal/simulation"
	"SimTape/pkg/logger"
)

func testCandlesUseCase(t *testing.T) *CandlesUseCase {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store := scenario.NewStore(cache.NewTTLCache(), log)
	engine := simulation.NewEngine(9, 16)
	return NewCandlesUseCase(engine, store, map[string]float64{
		"AAPL": 190,
		"MSFT": 420,
	})
}

func TestSymbolsSorted(t *testing.T) {
	uc := testCandlesUseCase(t)
	got := uc.Symbols()
	want := []string{"AAPL", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("symbols %v, want %v", got, want)
	}
}

func TestSeriesUnknownSymbol(t *testing.T) {
	uc := testCandlesUseCase(t)
	_, err := uc.Series(context.Background(), "GME", domrepo.TF1m, time.Now())
	if !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("error %v, want ErrUnknownSymbol", err)
	}
}

func TestSeriesDeterministicWithinDay(t *testing.T) {
	uc := testCandlesUseCase(t)
	now := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	a, err := uc.Series(context.Background(), "AAPL", domrepo.TF1m, now)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	b, err := uc.Series(context.Background(), "AAPL", domrepo.TF1m, now)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two series for the same instant differ")
	}
}

func TestSeriesExtendsWithoutRepainting(t *testing.T) {
	uc := testCandlesUseCase(t)
	early := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	late := early.Add(2 * time.Hour)

	a, err := uc.Series(context.Background(), "AAPL", domrepo.TF1m, early)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	b, err := uc.Series(context.Background(), "AAPL", domrepo.TF1m, late)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(b) <= len(a) {
		t.Fatalf("later call has %d bars, earlier %d", len(b), len(a))
	}
	// All but the bar that was live at the early call must be unchanged.
	for i := 0; i < len(a)-1; i++ {
		if !reflect.DeepEqual(a[i], b[i]) {
			t.Fatalf("bar %d repainted: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGetCandlesTrailingWindow(t *testing.T) {
	uc := testCandlesUseCase(t)
	now := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol:    "AAPL",
		Timeframe: domrepo.TF1m,
		Bars:      30,
		Now:       now,
	})
	if err != nil {
		t.Fatalf("get candles: %v", err)
	}
	if res.Count != 30 || len(res.Candles) != 30 {
		t.Fatalf("count %d / %d candles, want 30", res.Count, len(res.Candles))
	}
	last := res.Candles[len(res.Candles)-1]
	if !last.Time.Equal(now.Truncate(time.Minute)) {
		t.Fatalf("last bar at %v, want %v", last.Time, now.Truncate(time.Minute))
	}
}

func TestGetCandlesDefaultsAndCaps(t *testing.T) {
	uc := testCandlesUseCase(t)
	now := time.Date(2025, 6, 2, 23, 59, 0, 0, time.UTC)

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol:    "AAPL",
		Timeframe: domrepo.TF1m,
		Bars:      -5,
		Now:       now,
	})
	if err != nil {
		t.Fatalf("get candles: %v", err)
	}
	if res.Count != 390 {
		t.Fatalf("default window %d, want 390", res.Count)
	}
}

func TestGetSignalOverGeneratedSeries(t *testing.T) {
	uc := testCandlesUseCase(t)
	sig := NewSignalsUseCase(uc, indicators.NewScanner())
	now := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	s, err := sig.GetSignal(context.Background(), GetSignalParams{
		Symbol:    "AAPL",
		Timeframe: domrepo.TF1m,
		Window:    60,
		Now:       now,
	})
	if err != nil {
		t.Fatalf("get signal: %v", err)
	}
	if s.Symbol != "AAPL" {
		t.Fatalf("signal symbol %q", s.Symbol)
	}
	switch s.Direction {
	case "LONG", "SHORT", "NONE":
	default:
		t.Fatalf("direction %q", s.Direction)
	}
	if s.VWAP <= 0 || s.Entry <= 0 {
		t.Fatalf("signal levels not populated: %+v", s)
	}
}
