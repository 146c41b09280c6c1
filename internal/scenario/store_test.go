package scenario

import (
	"testing"

	"SimTape/internal/domain/models"
	"SimTape/internal/service/cache"
	"SimTape/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestStoreStartsWithDefaultPreset(t *testing.T) {
	s := NewStore(cache.NewTTLCache(), testLogger(t))
	if got := s.Active().Name; got != DefaultPreset {
		t.Fatalf("active scenario %q, want %q", got, DefaultPreset)
	}
	if s.Settings() != models.DefaultSimulationSettings() {
		t.Fatalf("settings not defaulted: %+v", s.Settings())
	}
}

func TestStoreRestoresPersistedScenario(t *testing.T) {
	blob := cache.NewTTLCache()
	log := testLogger(t)

	first := NewStore(blob, log)
	if err := first.ApplyPreset("crash"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	second := NewStore(blob, log)
	if got := second.Active().Name; got != "crash" {
		t.Fatalf("restored scenario %q, want crash", got)
	}
}

func TestStoreApplyIsolatesCallerConfig(t *testing.T) {
	s := NewStore(cache.NewTTLCache(), testLogger(t))
	cfg, _ := Preset("trend-day-up")
	if err := s.Apply(cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Mutating the caller's object must not leak into the active snapshot.
	cfg.BaseVolatility = 0.19
	cfg.Regimes[0].Bars = 1
	active := s.Active()
	if active.BaseVolatility == 0.19 || active.Regimes[0].Bars == 1 {
		t.Fatalf("active scenario aliases caller config: %+v", active)
	}
}

func TestStoreApplyRejectsInvalid(t *testing.T) {
	s := NewStore(cache.NewTTLCache(), testLogger(t))
	bad := []*models.ScenarioConfig{
		nil,
		{Name: "", BaseVolatility: 0.01},
		{Name: "x", BaseVolatility: 0},
		{Name: "x", BaseVolatility: 0.01, GapProbability: 1.5},
		{Name: "x", BaseVolatility: 0.01, Regimes: []models.RegimePhase{{Type: "SIDEWAYS", Bars: 10}}},
		{Name: "x", BaseVolatility: 0.01, Regimes: []models.RegimePhase{{Type: models.RegimeRange, Bars: 0}}},
		{Name: "x", BaseVolatility: 0.01, Overlays: []models.PatternOverlayConfig{
			{Type: models.OverlayBreakout, AtBar: 5, Direction: "SIDEWAYS"},
		}},
	}
	for i, cfg := range bad {
		if err := s.Apply(cfg); err == nil {
			t.Fatalf("case %d: invalid scenario accepted", i)
		}
	}
	if got := s.Active().Name; got != DefaultPreset {
		t.Fatalf("active scenario changed by rejected apply: %q", got)
	}
}

func TestStoreApplyUnknownPreset(t *testing.T) {
	s := NewStore(cache.NewTTLCache(), testLogger(t))
	if err := s.ApplyPreset("no-such-preset"); err == nil {
		t.Fatalf("unknown preset accepted")
	}
}

func TestStoreApplyFiresHooks(t *testing.T) {
	s := NewStore(cache.NewTTLCache(), testLogger(t))
	var applied []string
	s.OnApply(func(cfg *models.ScenarioConfig) { applied = append(applied, cfg.Name) })

	if err := s.ApplyPreset("gap-and-go"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied) != 1 || applied[0] != "gap-and-go" {
		t.Fatalf("hooks saw %v", applied)
	}
}

func TestStoreUpdateSettingsClamps(t *testing.T) {
	s := NewStore(cache.NewTTLCache(), testLogger(t))
	huge := 99.0
	tiny := 0.0001
	got := s.UpdateSettings(&models.UpdateSettingsRequest{
		VolatilityScale: &huge,
		MaxReturnPerBar: &tiny,
	})
	if got.VolatilityScale != 10 {
		t.Fatalf("volatilityScale %v, want clamped to 10", got.VolatilityScale)
	}
	if got.MaxReturnPerBar != 0.005 {
		t.Fatalf("maxReturnPerBar %v, want clamped to 0.005", got.MaxReturnPerBar)
	}
	// Untouched fields keep their values.
	if got.DriftScale != 1.0 {
		t.Fatalf("driftScale %v changed by partial update", got.DriftScale)
	}
}

func TestStoreResetRestoresDefaults(t *testing.T) {
	s := NewStore(cache.NewTTLCache(), testLogger(t))
	half := 0.5
	s.UpdateSettings(&models.UpdateSettingsRequest{VolatilityScale: &half})
	if err := s.ApplyPreset("crash"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := s.Active().Name; got != DefaultPreset {
		t.Fatalf("after reset active is %q", got)
	}
	if s.Settings() != models.DefaultSimulationSettings() {
		t.Fatalf("after reset settings are %+v", s.Settings())
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range PresetNames() {
		cfg, ok := Preset(name)
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if err := Validate(cfg); err != nil {
			t.Fatalf("preset %q invalid: %v", name, err)
		}
	}
}
