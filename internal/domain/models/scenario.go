package models

// RegimeType names a market behavior mode with characteristic
// drift/volatility/volume defaults.
type RegimeType string

const (
	RegimeRange     RegimeType = "RANGE"
	RegimeTrendUp   RegimeType = "TREND_UP"
	RegimeTrendDown RegimeType = "TREND_DOWN"
	RegimeLowVol    RegimeType = "LOW_VOL"
	RegimeHighVol   RegimeType = "HIGH_VOL"
	RegimeCrash     RegimeType = "CRASH"
)

// RegimePhase is one contiguous segment of a scenario's regime schedule.
type RegimePhase struct {
	Type             RegimeType `json:"type"`
	Bars             int        `json:"bars"`
	VolumeMultiplier float64    `json:"volumeMultiplier,omitempty"`
	Volatility       *float64   `json:"volatility,omitempty"` // absolute per-bar vol override
	Drift            *float64   `json:"drift,omitempty"`      // absolute per-bar drift override
}

// RegimeParameters are the resolved per-bar numeric knobs for a regime.
// They are derived from the phase type's defaults plus phase-level overrides,
// never configured directly.
type RegimeParameters struct {
	VolatilityMultiplier   float64
	Drift                  float64
	VolumeMultiplier       float64
	MeanReversion          float64
	FatTailProbability     float64
	GapProbabilityModifier float64
}

// OverlayType names a scripted, time-boxed price pattern superimposed on the
// base stochastic process.
type OverlayType string

const (
	OverlayBreakout      OverlayType = "BREAKOUT"
	OverlayPullback      OverlayType = "PULLBACK"
	OverlayGapAndGo      OverlayType = "GAP_AND_GO"
	OverlayMeanReversion OverlayType = "MEAN_REVERSION"
	OverlayDoubleTop     OverlayType = "DOUBLE_TOP"
	OverlayDoubleBottom  OverlayType = "DOUBLE_BOTTOM"
)

// Overlay directions.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// PatternOverlayConfig describes one scripted pattern event.
type PatternOverlayConfig struct {
	Type        OverlayType `json:"type"`
	AtBar       int         `json:"atBar"`
	ToBar       *int        `json:"toBar,omitempty"` // defaults to AtBar
	Direction   string      `json:"direction"`
	VolumeBoost float64     `json:"volumeBoost,omitempty"`
	DepthATR    *float64    `json:"depthATR,omitempty"` // counter-move depth, fraction of vol (PULLBACK)
	NoiseBars   int         `json:"noiseBars,omitempty"`
}

// ScenarioConfig is the immutable-per-run simulation recipe.
type ScenarioConfig struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Seed           *int64                 `json:"seed,omitempty"`
	BaseVolatility float64                `json:"baseVolatility"`
	GapProbability float64                `json:"gapProbability"`
	MaxGapPercent  float64                `json:"maxGapPercent"`
	Regimes        []RegimePhase          `json:"regimes"`
	Overlays       []PatternOverlayConfig `json:"overlays,omitempty"`
}

// Clone returns a deep copy. A scenario is cloned before becoming active so
// later mutation of the caller's object cannot affect an in-flight generation.
func (c *ScenarioConfig) Clone() *ScenarioConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.Seed != nil {
		seed := *c.Seed
		out.Seed = &seed
	}
	out.Regimes = make([]RegimePhase, len(c.Regimes))
	for i, p := range c.Regimes {
		cp := p
		if p.Volatility != nil {
			v := *p.Volatility
			cp.Volatility = &v
		}
		if p.Drift != nil {
			d := *p.Drift
			cp.Drift = &d
		}
		out.Regimes[i] = cp
	}
	out.Overlays = make([]PatternOverlayConfig, len(c.Overlays))
	for i, o := range c.Overlays {
		co := o
		if o.ToBar != nil {
			b := *o.ToBar
			co.ToBar = &b
		}
		if o.DepthATR != nil {
			d := *o.DepthATR
			co.DepthATR = &d
		}
		out.Overlays[i] = co
	}
	return &out
}

// SimulationSettings are process-wide scaling knobs applied uniformly
// regardless of scenario. Read fresh once per generation call.
type SimulationSettings struct {
	VolatilityScale        float64 `json:"volatilityScale"`
	DriftScale             float64 `json:"driftScale"`
	MeanReversionStrength  float64 `json:"meanReversionStrength"`
	FatTailMultiplier      float64 `json:"fatTailMultiplier"`
	FatTailMinSize         float64 `json:"fatTailMinSize"`
	FatTailMaxSize         float64 `json:"fatTailMaxSize"`
	MaxReturnPerBar        float64 `json:"maxReturnPerBar"`
	LiveTickNoise          float64 `json:"liveTickNoise"`
	HighLowRangeMultiplier float64 `json:"highLowRangeMultiplier"`
	PatternOverlayStrength float64 `json:"patternOverlayStrength"`
}

// DefaultSimulationSettings returns neutral scaling.
func DefaultSimulationSettings() SimulationSettings {
	return SimulationSettings{
		VolatilityScale:        1.0,
		DriftScale:             1.0,
		MeanReversionStrength:  1.0,
		FatTailMultiplier:      1.0,
		FatTailMinSize:         2.0,
		FatTailMaxSize:         4.0,
		MaxReturnPerBar:        0.08,
		LiveTickNoise:          0.1,
		HighLowRangeMultiplier: 0.6,
		PatternOverlayStrength: 1.0,
	}
}
