package jobs

import (
	"context"
	"fmt"

	drepo "SimTape/internal/domain/repository"
	"SimTape/pkg/logger"
	"SimTape/pkg/queue"
)

// ErrorDigestJob re-emits aggregated error bursts collected by the logger
// as single warn lines with counts. Only error-level logs are collected,
// so re-emitting at warn cannot loop back into the collector.
type ErrorDigestJob struct {
	log     *logger.Logger
	metrics drepo.Metrics
}

func NewErrorDigestJob(log *logger.Logger, metrics drepo.Metrics) *ErrorDigestJob {
	return &ErrorDigestJob{log: log, metrics: metrics}
}

func (j *ErrorDigestJob) Name() string { return "error-digest" }
func (j *ErrorDigestJob) Type() string { return "logs.error.aggregate" }

func (j *ErrorDigestJob) Handle(ctx context.Context, payload interface{}) error {
	entries, err := queue.ParsePayload[[]logger.AggregatedLogEntry](payload)
	if err != nil {
		return fmt.Errorf("error digest payload: %w", err)
	}
	for _, e := range *entries {
		j.metrics.RecordError("log_digest")
		j.log.Warn("error digest",
			logger.String("message", e.Message),
			logger.String("caller", e.Caller),
			logger.Int("count", e.Count),
			logger.Any("first_seen", e.FirstSeen),
			logger.Any("last_seen", e.LastSeen),
		)
	}
	return nil
}

var _ queue.Job = (*ErrorDigestJob)(nil)
