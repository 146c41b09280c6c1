package simulation

import (
	"testing"

	"SimTape/internal/domain/models"
)

func TestBuildRegimeScheduleTilesExactly(t *testing.T) {
	cases := []struct {
		name      string
		phases    []models.RegimePhase
		totalBars int
	}{
		{"empty", nil, 50},
		{"single", []models.RegimePhase{{Type: models.RegimeRange, Bars: 50}}, 50},
		{"short", []models.RegimePhase{{Type: models.RegimeRange, Bars: 10}}, 30},
		{"excess", []models.RegimePhase{
			{Type: models.RegimeTrendUp, Bars: 100},
			{Type: models.RegimeCrash, Bars: 100},
		}, 40},
		{"multi", []models.RegimePhase{
			{Type: models.RegimeLowVol, Bars: 10},
			{Type: models.RegimeTrendUp, Bars: 20},
			{Type: models.RegimeHighVol, Bars: 5},
		}, 60},
	}

	for _, tc := range cases {
		sched := BuildRegimeSchedule(tc.phases, tc.totalBars, 0.01)
		if len(sched) == 0 {
			t.Fatalf("%s: empty schedule", tc.name)
		}
		if sched[0].Start != 0 {
			t.Fatalf("%s: schedule starts at %d", tc.name, sched[0].Start)
		}
		for i := 1; i < len(sched); i++ {
			if sched[i].Start != sched[i-1].End+1 {
				t.Fatalf("%s: gap/overlap between entries %d and %d", tc.name, i-1, i)
			}
		}
		if last := sched[len(sched)-1].End; last != tc.totalBars-1 {
			t.Fatalf("%s: schedule ends at %d, want %d", tc.name, last, tc.totalBars-1)
		}
	}
}

func TestShortScheduleRepeatsLastPhase(t *testing.T) {
	phases := []models.RegimePhase{{Type: models.RegimeRange, Bars: 10}}
	sched := BuildRegimeSchedule(phases, 30, 0.01)

	want := sched.At(5)
	for bar := 10; bar < 30; bar++ {
		if got := sched.At(bar); got != want {
			t.Fatalf("bar %d: params %+v, want repeated RANGE %+v", bar, got, want)
		}
	}
}

func TestEmptyPhasesSynthesizeRange(t *testing.T) {
	sched := BuildRegimeSchedule(nil, 50, 0.01)
	if len(sched) != 1 {
		t.Fatalf("expected one implicit phase, got %d", len(sched))
	}
	if sched.At(0) != regimeDefaults[models.RegimeRange] {
		t.Fatalf("implicit phase is not RANGE")
	}
}

func TestPhaseOverridesApplied(t *testing.T) {
	vol := 0.03
	drift := -0.01
	phases := []models.RegimePhase{{
		Type:             models.RegimeTrendUp,
		Bars:             10,
		Volatility:       &vol,
		Drift:            &drift,
		VolumeMultiplier: 2.0,
	}}
	p := BuildRegimeSchedule(phases, 10, 0.01).At(0)

	if p.VolatilityMultiplier != 3.0 {
		t.Fatalf("volatility override: got multiplier %v, want 3.0", p.VolatilityMultiplier)
	}
	if p.Drift != drift {
		t.Fatalf("drift override: got %v, want %v", p.Drift, drift)
	}
	def := regimeDefaults[models.RegimeTrendUp]
	if p.VolumeMultiplier != def.VolumeMultiplier*2.0 {
		t.Fatalf("volume override: got %v", p.VolumeMultiplier)
	}
}

func TestLookupNeverFails(t *testing.T) {
	sched := BuildRegimeSchedule(nil, 10, 0.01)
	// out-of-range bar falls back to RANGE defaults rather than panicking
	if got := sched.At(999); got != regimeDefaults[models.RegimeRange] {
		t.Fatalf("fallback params: %+v", got)
	}
}
