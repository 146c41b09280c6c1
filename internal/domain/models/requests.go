package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m"`
	Bars   int    `query:"bars" json:"bars" default:"390" validate:"gte=1,lte=5000"`
}

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1m 5m 15m"`
	Window int    `query:"window" json:"window" default:"60" validate:"gte=5,lte=1000"`
}

// ApplyScenarioRequest applies either a named preset or a full custom config.
// Exactly one of Preset/Custom should be set; Preset wins when both are.
type ApplyScenarioRequest struct {
	Preset string          `json:"preset" validate:"omitempty,max=64"`
	Custom *ScenarioConfig `json:"custom"`
}

type UpdateSettingsRequest struct {
	VolatilityScale        *float64 `json:"volatilityScale" validate:"omitempty,gte=0"`
	DriftScale             *float64 `json:"driftScale" validate:"omitempty,gte=0"`
	MeanReversionStrength  *float64 `json:"meanReversionStrength" validate:"omitempty,gte=0"`
	FatTailMultiplier      *float64 `json:"fatTailMultiplier" validate:"omitempty,gte=0"`
	FatTailMinSize         *float64 `json:"fatTailMinSize" validate:"omitempty,gte=0"`
	FatTailMaxSize         *float64 `json:"fatTailMaxSize" validate:"omitempty,gte=0"`
	MaxReturnPerBar        *float64 `json:"maxReturnPerBar" validate:"omitempty,gt=0"`
	LiveTickNoise          *float64 `json:"liveTickNoise" validate:"omitempty,gte=0"`
	HighLowRangeMultiplier *float64 `json:"highLowRangeMultiplier" validate:"omitempty,gte=0"`
	PatternOverlayStrength *float64 `json:"patternOverlayStrength" validate:"omitempty,gte=0"`
}
