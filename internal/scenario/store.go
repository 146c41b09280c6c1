// Package scenario holds the active simulation configuration: which scenario
// is driving candle generation and the process-wide tuning settings. The store
// is the single writer; readers get immutable snapshots.
package scenario

import (
	"encoding/json"
	"fmt"
	"sync"

	"SimTape/internal/domain/models"
	"SimTape/internal/service/cache"
	"SimTape/pkg/logger"
)

const (
	activeScenarioKey = "simtape:scenario:active"
	settingsKey       = "simtape:settings"
)

// Store guards the active scenario and settings. Applied configs are deep
// copies, so an in-flight generation keeps the snapshot it started with even
// if a new scenario lands mid-run.
type Store struct {
	mu       sync.RWMutex
	active   *models.ScenarioConfig
	settings models.SimulationSettings

	blob cache.BytesCache
	log  *logger.Logger

	onApply []func(cfg *models.ScenarioConfig)
}

// NewStore restores the last persisted scenario and settings from the cache,
// falling back to the default preset on a cold start or a corrupt blob.
func NewStore(blob cache.BytesCache, log *logger.Logger) *Store {
	s := &Store{
		blob:     blob,
		log:      log,
		settings: models.DefaultSimulationSettings(),
	}
	cfg, _ := Preset(DefaultPreset)
	s.active = cfg

	if b, ok, err := blob.GetBytes(activeScenarioKey); err == nil && ok {
		var restored models.ScenarioConfig
		if err := json.Unmarshal(b, &restored); err == nil && Validate(&restored) == nil {
			s.active = &restored
			log.Info("restored active scenario", logger.String("scenario", restored.Name))
		} else {
			log.Warn("discarding unreadable persisted scenario", logger.String("key", activeScenarioKey))
		}
	}
	if b, ok, err := blob.GetBytes(settingsKey); err == nil && ok {
		var restored models.SimulationSettings
		if err := json.Unmarshal(b, &restored); err == nil {
			s.settings = clampSettings(restored)
		}
	}
	return s
}

// OnApply registers a hook fired after every scenario switch. The engine uses
// this to drop stale volatility state.
func (s *Store) OnApply(fn func(cfg *models.ScenarioConfig)) {
	s.mu.Lock()
	s.onApply = append(s.onApply, fn)
	s.mu.Unlock()
}

// Active returns a deep copy of the current scenario.
func (s *Store) Active() *models.ScenarioConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.Clone()
}

// Settings returns the current tuning settings by value.
func (s *Store) Settings() models.SimulationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Apply validates and activates a scenario, persisting it for restart
// continuity.
func (s *Store) Apply(cfg *models.ScenarioConfig) error {
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}
	next := cfg.Clone()

	s.mu.Lock()
	s.active = next
	hooks := make([]func(*models.ScenarioConfig), len(s.onApply))
	copy(hooks, s.onApply)
	s.mu.Unlock()

	s.persist(activeScenarioKey, next)
	for _, fn := range hooks {
		fn(next.Clone())
	}
	s.log.Info("scenario applied",
		logger.String("scenario", next.Name),
		logger.Int("regimes", len(next.Regimes)),
		logger.Int("overlays", len(next.Overlays)))
	return nil
}

// ApplyPreset activates a built-in preset by name.
func (s *Store) ApplyPreset(name string) error {
	cfg, ok := Preset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	return s.Apply(cfg)
}

// Reset returns the store to the default preset and neutral settings.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.settings = models.DefaultSimulationSettings()
	s.mu.Unlock()
	s.persist(settingsKey, s.Settings())
	return s.ApplyPreset(DefaultPreset)
}

// UpdateSettings applies the non-nil fields of the request, clamps the result
// to safe bounds, and returns the effective settings.
func (s *Store) UpdateSettings(req *models.UpdateSettingsRequest) models.SimulationSettings {
	s.mu.Lock()
	next := s.settings
	if req.VolatilityScale != nil {
		next.VolatilityScale = *req.VolatilityScale
	}
	if req.DriftScale != nil {
		next.DriftScale = *req.DriftScale
	}
	if req.MeanReversionStrength != nil {
		next.MeanReversionStrength = *req.MeanReversionStrength
	}
	if req.FatTailMultiplier != nil {
		next.FatTailMultiplier = *req.FatTailMultiplier
	}
	if req.FatTailMinSize != nil {
		next.FatTailMinSize = *req.FatTailMinSize
	}
	if req.FatTailMaxSize != nil {
		next.FatTailMaxSize = *req.FatTailMaxSize
	}
	if req.MaxReturnPerBar != nil {
		next.MaxReturnPerBar = *req.MaxReturnPerBar
	}
	if req.LiveTickNoise != nil {
		next.LiveTickNoise = *req.LiveTickNoise
	}
	if req.HighLowRangeMultiplier != nil {
		next.HighLowRangeMultiplier = *req.HighLowRangeMultiplier
	}
	if req.PatternOverlayStrength != nil {
		next.PatternOverlayStrength = *req.PatternOverlayStrength
	}
	next = clampSettings(next)
	s.settings = next
	s.mu.Unlock()

	s.persist(settingsKey, next)
	return next
}

func (s *Store) persist(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal for persistence failed", logger.Error(err), logger.String("key", key))
		return
	}
	// TTL 0 keeps the blob until the next write.
	if err := s.blob.SetBytes(key, b, 0); err != nil {
		s.log.Warn("persist failed", logger.Error(err), logger.String("key", key))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampSettings(s models.SimulationSettings) models.SimulationSettings {
	s.VolatilityScale = clamp(s.VolatilityScale, 0.1, 10)
	s.DriftScale = clamp(s.DriftScale, 0, 10)
	s.MeanReversionStrength = clamp(s.MeanReversionStrength, 0, 10)
	s.FatTailMultiplier = clamp(s.FatTailMultiplier, 0, 10)
	s.FatTailMinSize = clamp(s.FatTailMinSize, 1, 10)
	s.FatTailMaxSize = clamp(s.FatTailMaxSize, s.FatTailMinSize, 20)
	s.MaxReturnPerBar = clamp(s.MaxReturnPerBar, 0.005, 0.5)
	s.LiveTickNoise = clamp(s.LiveTickNoise, 0, 1)
	s.HighLowRangeMultiplier = clamp(s.HighLowRangeMultiplier, 0, 3)
	s.PatternOverlayStrength = clamp(s.PatternOverlayStrength, 0, 5)
	return s
}

var validRegimes = map[models.RegimeType]bool{
	models.RegimeRange:     true,
	models.RegimeTrendUp:   true,
	models.RegimeTrendDown: true,
	models.RegimeLowVol:    true,
	models.RegimeHighVol:   true,
	models.RegimeCrash:     true,
}

var validOverlays = map[models.OverlayType]bool{
	models.OverlayBreakout:      true,
	models.OverlayPullback:      true,
	models.OverlayGapAndGo:      true,
	models.OverlayMeanReversion: true,
	models.OverlayDoubleTop:     true,
	models.OverlayDoubleBottom:  true,
}

// Validate checks a scenario config for structural and range errors. It does
// not mutate the config.
func Validate(cfg *models.ScenarioConfig) error {
	if cfg == nil {
		return fmt.Errorf("scenario is nil")
	}
	if cfg.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if cfg.BaseVolatility <= 0 || cfg.BaseVolatility > 0.2 {
		return fmt.Errorf("baseVolatility %v out of range (0, 0.2]", cfg.BaseVolatility)
	}
	if cfg.GapProbability < 0 || cfg.GapProbability > 1 {
		return fmt.Errorf("gapProbability %v out of range [0, 1]", cfg.GapProbability)
	}
	if cfg.MaxGapPercent < 0 || cfg.MaxGapPercent > 0.2 {
		return fmt.Errorf("maxGapPercent %v out of range [0, 0.2]", cfg.MaxGapPercent)
	}
	for i, p := range cfg.Regimes {
		if !validRegimes[p.Type] {
			return fmt.Errorf("regime %d: unknown type %q", i, p.Type)
		}
		if p.Bars <= 0 {
			return fmt.Errorf("regime %d: bars must be positive", i)
		}
		if p.Volatility != nil && (*p.Volatility <= 0 || *p.Volatility > 0.5) {
			return fmt.Errorf("regime %d: volatility override %v out of range (0, 0.5]", i, *p.Volatility)
		}
		if p.VolumeMultiplier < 0 {
			return fmt.Errorf("regime %d: volumeMultiplier must not be negative", i)
		}
	}
	for i, o := range cfg.Overlays {
		if !validOverlays[o.Type] {
			return fmt.Errorf("overlay %d: unknown type %q", i, o.Type)
		}
		if o.AtBar < 0 {
			return fmt.Errorf("overlay %d: atBar must not be negative", i)
		}
		if o.ToBar != nil && *o.ToBar < o.AtBar {
			return fmt.Errorf("overlay %d: toBar precedes atBar", i)
		}
		if o.Direction != models.DirectionUp && o.Direction != models.DirectionDown {
			return fmt.Errorf("overlay %d: direction must be UP or DOWN", i)
		}
		if o.VolumeBoost < 0 {
			return fmt.Errorf("overlay %d: volumeBoost must not be negative", i)
		}
		if o.DepthATR != nil && *o.DepthATR <= 0 {
			return fmt.Errorf("overlay %d: depthATR must be positive", i)
		}
		if o.NoiseBars < 0 {
			return fmt.Errorf("overlay %d: noiseBars must not be negative", i)
		}
	}
	return nil
}
