package simulation

import (
	"math"
	"testing"
	"time"

	"SimTape/internal/domain/models"
)

func int64Ptr(v int64) *int64 { return &v }

func baseRequest() GenerateRequest {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return GenerateRequest{
		Symbol: "AAPL",
		Config: &models.ScenarioConfig{
			Name:           "test",
			Seed:           int64Ptr(42),
			BaseVolatility: 0.01,
			GapProbability: 0.02,
			MaxGapPercent:  0.01,
		},
		Settings:         models.DefaultSimulationSettings(),
		StartPrice:       100,
		StartTime:        start,
		TotalBars:        390,
		TimeframeMinutes: 1,
		CurrentTime:      start.Add(24 * time.Hour),
	}
}

func TestGenerateCandlesDeterministic(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()

	a := e.GenerateCandles(req)
	b := e.GenerateCandles(req)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("candle %d differs:\n  %+v\n  %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateCandlesOHLCConsistent(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.Config.Regimes = []models.RegimePhase{
		{Type: models.RegimeTrendUp, Bars: 100},
		{Type: models.RegimeCrash, Bars: 50},
		{Type: models.RegimeHighVol, Bars: 240},
	}

	candles := e.GenerateCandles(req)
	if len(candles) != 390 {
		t.Fatalf("got %d candles, want 390", len(candles))
	}
	for i, c := range candles {
		maxOC := math.Max(c.Open, c.Close)
		minOC := math.Min(c.Open, c.Close)
		if c.Low > minOC || c.High < maxOC || c.Low > c.High {
			t.Fatalf("candle %d violates low<=min(o,c)<=max(o,c)<=high: %+v", i, c)
		}
		if c.Low < 0 {
			t.Fatalf("candle %d has negative low: %+v", i, c)
		}
		if c.Volume < 0 {
			t.Fatalf("candle %d has negative volume: %+v", i, c)
		}
	}
}

func TestGenerateCandlesConstantStep(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.TimeframeMinutes = 5
	req.TotalBars = 78

	candles := e.GenerateCandles(req)
	if len(candles) != 78 {
		t.Fatalf("got %d candles, want 78", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if got := candles[i].Time.Sub(candles[i-1].Time); got != 5*time.Minute {
			t.Fatalf("step between %d and %d is %v", i-1, i, got)
		}
	}
}

func TestGenerateCandlesEmptyRegimesFillDay(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.Config.Regimes = nil
	req.TotalBars = 50

	if got := len(e.GenerateCandles(req)); got != 50 {
		t.Fatalf("got %d candles, want 50", got)
	}
}

func TestGenerateCandlesStopsAtCurrentTime(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.CurrentTime = req.StartTime.Add(4*time.Minute + 30*time.Second)

	candles := e.GenerateCandles(req)
	if len(candles) != 5 {
		t.Fatalf("got %d candles, want 5 (four closed, one live)", len(candles))
	}
	if last := candles[4].Time; !last.Equal(req.StartTime.Add(4 * time.Minute)) {
		t.Fatalf("last bar opens at %v", last)
	}
}

func TestGenerateCandlesNoGapContinuity(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.Config.GapProbability = 0

	candles := e.GenerateCandles(req)
	if candles[0].Open != 100 {
		t.Fatalf("first open %v, want start price", candles[0].Open)
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Open != candles[i-1].Close {
			t.Fatalf("bar %d: open %v != previous close %v",
				i, candles[i].Open, candles[i-1].Close)
		}
	}
}

func TestGenerateCandlesReturnClamp(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.Config.GapProbability = 0
	req.Config.Regimes = []models.RegimePhase{{Type: models.RegimeCrash, Bars: 390}}
	req.Settings.MaxReturnPerBar = 0.05

	candles := e.GenerateCandles(req)
	// Closed bars only: the live bar adds tick noise on top of the clamp.
	// Tolerance covers the 2-decimal rounding of both closes.
	for i := 1; i < len(candles); i++ {
		r := (candles[i].Close - candles[i-1].Close) / candles[i-1].Close
		if math.Abs(r) > 0.05+2e-3 {
			t.Fatalf("bar %d return %v exceeds clamp", i, r)
		}
	}
}

func TestGenerateCandlesGapAndGoForcesGap(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.Config.GapProbability = 0
	req.Config.Overlays = []models.PatternOverlayConfig{{
		Type:      models.OverlayGapAndGo,
		AtBar:     20,
		Direction: models.DirectionUp,
	}}

	candles := e.GenerateCandles(req)
	if candles[20].Open <= candles[19].Close {
		t.Fatalf("bar 20: open %v not gapped above previous close %v",
			candles[20].Open, candles[19].Close)
	}
	// All other bars stay gapless.
	for i := 1; i < len(candles); i++ {
		if i == 20 {
			continue
		}
		if candles[i].Open != candles[i-1].Close {
			t.Fatalf("bar %d gapped unexpectedly", i)
		}
	}
}

func TestGenerateCandlesSeedByDay(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.Config.Seed = nil

	a := e.GenerateCandles(req)
	b := e.GenerateCandles(req)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same symbol/day diverged at candle %d", i)
		}
	}

	req.CurrentTime = req.CurrentTime.Add(24 * time.Hour)
	c := e.GenerateCandles(req)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different days produced identical series")
	}
}

func TestGenerateCandlesRejectsBadInput(t *testing.T) {
	e := NewEngine(9, 16)

	req := baseRequest()
	req.TotalBars = 0
	if got := e.GenerateCandles(req); got != nil {
		t.Fatalf("zero bars: got %d candles", len(got))
	}

	req = baseRequest()
	req.StartPrice = 0
	if got := e.GenerateCandles(req); got != nil {
		t.Fatalf("zero start price: got %d candles", len(got))
	}

	req = baseRequest()
	req.Config = nil
	if got := e.GenerateCandles(req); len(got) == 0 {
		t.Fatalf("nil config should fall back to defaults")
	}
}

func TestGenerateCandlesLiveBarScalesVolume(t *testing.T) {
	e := NewEngine(9, 16)
	req := baseRequest()
	req.Config.Seed = int64Ptr(7)

	closedReq := req
	closedReq.CurrentTime = req.StartTime.Add(24 * time.Hour)
	closed := e.GenerateCandles(closedReq)

	liveReq := req
	liveReq.CurrentTime = req.StartTime.Add(10*time.Minute + 6*time.Second) // 10% into bar 10
	live := e.GenerateCandles(liveReq)

	if len(live) != 11 {
		t.Fatalf("got %d candles, want 11", len(live))
	}
	if live[10].Volume >= closed[10].Volume {
		t.Fatalf("live bar volume %d not scaled below closed %d",
			live[10].Volume, closed[10].Volume)
	}
}
