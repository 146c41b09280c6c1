package simulation

import (
	"math/rand"
	"testing"

	"SimTape/internal/domain/models"
)

func intPtr(v int) *int { return &v }

func TestOverlayJitterPreservesWidth(t *testing.T) {
	cfg := models.PatternOverlayConfig{
		Type:      models.OverlayBreakout,
		AtBar:     50,
		ToBar:     intPtr(60),
		Direction: models.DirectionUp,
		NoiseBars: 3,
	}

	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		set := resolveOverlays(rng, []models.PatternOverlayConfig{cfg})
		o := set[0]
		if o.end-o.start != 10 {
			t.Fatalf("seed %d: width %d, want 10", seed, o.end-o.start)
		}
		if o.start < 47 || o.start > 53 {
			t.Fatalf("seed %d: start %d outside jitter range", seed, o.start)
		}
	}
}

func TestOverlayWindowDefaultsToSingleBar(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	set := resolveOverlays(rng, []models.PatternOverlayConfig{{
		Type: models.OverlayGapAndGo, AtBar: 12, Direction: models.DirectionUp,
	}})
	o := set[0]
	if o.start != 12 || o.end != 12 {
		t.Fatalf("window [%d,%d], want [12,12]", o.start, o.end)
	}
}

func TestOverlayFirstMatchWins(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	set := resolveOverlays(rng, []models.PatternOverlayConfig{
		{Type: models.OverlayPullback, AtBar: 10, ToBar: intPtr(20), Direction: models.DirectionUp},
		{Type: models.OverlayBreakout, AtBar: 15, ToBar: intPtr(25), Direction: models.DirectionUp},
	})
	o := set.at(18, 100)
	if o == nil || o.cfg.Type != models.OverlayPullback {
		t.Fatalf("expected first declared overlay to win, got %+v", o)
	}
	if set.at(30, 100) != nil {
		t.Fatalf("expected no overlay outside all windows")
	}
}

func TestPullbackOverridesCounterTrend(t *testing.T) {
	s := models.DefaultSimulationSettings()
	o := &activeOverlay{cfg: models.PatternOverlayConfig{
		Type: models.OverlayPullback, Direction: models.DirectionUp,
	}}
	// counter to an UP trend: negative regardless of base return sign
	if r := o.apply(0.02, 100, 0.01, s); r >= 0 {
		t.Fatalf("pullback against UP produced %v, want negative", r)
	}
	if r := o.apply(-0.02, 100, 0.01, s); r >= 0 {
		t.Fatalf("pullback against UP produced %v, want negative", r)
	}
}

func TestDoubleTopDampensMomentum(t *testing.T) {
	s := models.DefaultSimulationSettings()
	s.PatternOverlayStrength = 0 // isolate the damping term
	o := &activeOverlay{cfg: models.PatternOverlayConfig{
		Type: models.OverlayDoubleTop, Direction: models.DirectionUp,
	}}
	if r := o.apply(0.02, 100, 0.01, s); r != 0.01 {
		t.Fatalf("double top: got %v, want halved return 0.01", r)
	}
}
