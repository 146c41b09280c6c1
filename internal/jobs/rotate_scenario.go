// Package jobs holds queue job handlers for background scenario control.
package jobs

import (
	"context"
	"fmt"

	"SimTape/internal/domain/models"
	"SimTape/internal/usecase"
	"SimTape/pkg/logger"
	"SimTape/pkg/queue"
)

// RotateScenarioPayload names the preset to switch to.
type RotateScenarioPayload struct {
	Preset string `json:"preset"`
}

// RotateScenarioJob switches the active scenario preset. Enqueued by the
// rotation scheduler, but any producer on the queue can drive it.
type RotateScenarioJob struct {
	scenarios *usecase.ScenarioUseCase
	log       *logger.Logger
}

func NewRotateScenarioJob(scenarios *usecase.ScenarioUseCase, log *logger.Logger) *RotateScenarioJob {
	return &RotateScenarioJob{scenarios: scenarios, log: log}
}

func (j *RotateScenarioJob) Name() string { return "rotate-scenario" }
func (j *RotateScenarioJob) Type() string { return "scenario.rotate" }

func (j *RotateScenarioJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RotateScenarioPayload](payload)
	if err != nil {
		return fmt.Errorf("rotate scenario payload: %w", err)
	}
	if p.Preset == "" {
		return fmt.Errorf("rotate scenario: preset is empty")
	}
	if _, err := j.scenarios.Apply(&models.ApplyScenarioRequest{Preset: p.Preset}); err != nil {
		return fmt.Errorf("rotate scenario: %w", err)
	}
	j.log.Info("scenario rotated", logger.String("preset", p.Preset))
	return nil
}

var _ queue.Job = (*RotateScenarioJob)(nil)
