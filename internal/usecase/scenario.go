package usecase

import (
	"fmt"

	"SimTape/internal/domain/models"
	"SimTape/internal/scenario"
	"SimTape/internal/simulation"
)

// ScenarioUseCase exposes scenario control to the API layer and keeps the
// engine's per-symbol state in sync with scenario switches.
type ScenarioUseCase struct {
	store  *scenario.Store
	engine *simulation.Engine
}

func NewScenarioUseCase(store *scenario.Store, engine *simulation.Engine) *ScenarioUseCase {
	uc := &ScenarioUseCase{store: store, engine: engine}
	// Volatility clustering must not carry over from the previous scenario.
	store.OnApply(func(*models.ScenarioConfig) { engine.ResetAll() })
	return uc
}

// Active returns the current scenario.
func (uc *ScenarioUseCase) Active() *models.ScenarioConfig {
	return uc.store.Active()
}

// Apply activates a preset or a custom scenario. Preset wins when both are
// given.
func (uc *ScenarioUseCase) Apply(req *models.ApplyScenarioRequest) (*models.ScenarioConfig, error) {
	switch {
	case req == nil:
		return nil, fmt.Errorf("request is nil")
	case req.Preset != "":
		if err := uc.store.ApplyPreset(req.Preset); err != nil {
			return nil, err
		}
	case req.Custom != nil:
		if err := uc.store.Apply(req.Custom); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("either preset or custom scenario is required")
	}
	return uc.store.Active(), nil
}

// Reset reverts to the default preset and neutral settings.
func (uc *ScenarioUseCase) Reset() (*models.ScenarioConfig, error) {
	if err := uc.store.Reset(); err != nil {
		return nil, err
	}
	return uc.store.Active(), nil
}

// Presets lists the built-in scenario library.
func (uc *ScenarioUseCase) Presets() map[string]*models.ScenarioConfig {
	return scenario.Presets()
}

// Settings returns current tuning settings.
func (uc *ScenarioUseCase) Settings() models.SimulationSettings {
	return uc.store.Settings()
}

// UpdateSettings applies a partial settings update and returns the result.
func (uc *ScenarioUseCase) UpdateSettings(req *models.UpdateSettingsRequest) (models.SimulationSettings, error) {
	if req == nil {
		return models.SimulationSettings{}, fmt.Errorf("request is nil")
	}
	return uc.store.UpdateSettings(req), nil
}
