package scenario

import (
	"sort"

	"SimTape/internal/domain/models"
)

// DefaultPreset is the scenario activated on a fresh start or reset.
const DefaultPreset = "range-day"

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// presets covers the canonical session shapes. All are sized for a 390-bar
// one-minute regular session; the schedule builder stretches or truncates
// them for other horizons.
var presets = map[string]models.ScenarioConfig{
	"range-day": {
		Name:           "range-day",
		Description:    "Choppy mean-reverting session with no directional bias",
		BaseVolatility: 0.008,
		GapProbability: 0.01,
		MaxGapPercent:  0.004,
		Regimes: []models.RegimePhase{
			{Type: models.RegimeRange, Bars: 390},
		},
	},
	"trend-day-up": {
		Name:           "trend-day-up",
		Description:    "Steady uptrend with a midday pullback",
		BaseVolatility: 0.009,
		GapProbability: 0.015,
		MaxGapPercent:  0.006,
		Regimes: []models.RegimePhase{
			{Type: models.RegimeTrendUp, Bars: 180},
			{Type: models.RegimeRange, Bars: 60},
			{Type: models.RegimeTrendUp, Bars: 150},
		},
		Overlays: []models.PatternOverlayConfig{
			{Type: models.OverlayPullback, AtBar: 190, ToBar: iptr(220),
				Direction: models.DirectionUp, DepthATR: fptr(1.2), NoiseBars: 5},
		},
	},
	"trend-day-down": {
		Name:           "trend-day-down",
		Description:    "Persistent selloff that accelerates into the close",
		BaseVolatility: 0.010,
		GapProbability: 0.015,
		MaxGapPercent:  0.006,
		Regimes: []models.RegimePhase{
			{Type: models.RegimeTrendDown, Bars: 300},
			{Type: models.RegimeTrendDown, Bars: 90, Volatility: fptr(0.016), VolumeMultiplier: 1.4},
		},
	},
	"crash": {
		Name:           "crash",
		Description:    "Calm open, sharp waterfall decline, unstable aftermath",
		BaseVolatility: 0.010,
		GapProbability: 0.02,
		MaxGapPercent:  0.012,
		Regimes: []models.RegimePhase{
			{Type: models.RegimeRange, Bars: 120},
			{Type: models.RegimeCrash, Bars: 60},
			{Type: models.RegimeHighVol, Bars: 210},
		},
	},
	"gap-and-go": {
		Name:           "gap-and-go",
		Description:    "Large opening gap with trend continuation",
		BaseVolatility: 0.011,
		GapProbability: 0.01,
		MaxGapPercent:  0.03,
		Regimes: []models.RegimePhase{
			{Type: models.RegimeTrendUp, Bars: 240},
			{Type: models.RegimeRange, Bars: 150},
		},
		Overlays: []models.PatternOverlayConfig{
			{Type: models.OverlayGapAndGo, AtBar: 0, ToBar: iptr(30),
				Direction: models.DirectionUp, VolumeBoost: 2.5},
		},
	},
	"volatile-open": {
		Name:           "volatile-open",
		Description:    "Wild first hour that settles into a quiet drift",
		BaseVolatility: 0.009,
		GapProbability: 0.03,
		MaxGapPercent:  0.008,
		Regimes: []models.RegimePhase{
			{Type: models.RegimeHighVol, Bars: 60},
			{Type: models.RegimeLowVol, Bars: 330},
		},
	},
	"double-top-fade": {
		Name:           "double-top-fade",
		Description:    "Morning rally, failed retest of the high, afternoon fade",
		BaseVolatility: 0.009,
		GapProbability: 0.015,
		MaxGapPercent:  0.005,
		Regimes: []models.RegimePhase{
			{Type: models.RegimeTrendUp, Bars: 150},
			{Type: models.RegimeRange, Bars: 90},
			{Type: models.RegimeTrendDown, Bars: 150},
		},
		Overlays: []models.PatternOverlayConfig{
			{Type: models.OverlayDoubleTop, AtBar: 150, ToBar: iptr(240),
				Direction: models.DirectionUp, NoiseBars: 8},
		},
	},
}

// Preset returns a deep copy of the named preset so callers can mutate their
// copy freely.
func Preset(name string) (*models.ScenarioConfig, bool) {
	cfg, ok := presets[name]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

// PresetNames lists available presets in stable order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Presets returns deep copies of every preset, keyed by name.
func Presets() map[string]*models.ScenarioConfig {
	out := make(map[string]*models.ScenarioConfig, len(presets))
	for name, cfg := range presets {
		out[name] = cfg.Clone()
	}
	return out
}
