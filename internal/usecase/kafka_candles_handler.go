package usecase

import (
	"context"
	"encoding/json"
	"time"

	"SimTape/internal/domain/models"
	domrepo "SimTape/internal/domain/repository"
	pkgkafka "SimTape/pkg/kafka"
)

// KafkaCandlesHandler consumes candle messages and writes them to storage.
type KafkaCandlesHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaCandlesHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

func (h *KafkaCandlesHandler) Handle(ctx context.Context, b []byte) error {
	var c models.Candle
	if err := json.Unmarshal(b, &c); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	// E2E latency from bar open time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(c.Time).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &c)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordCandle("clickhouse", c.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCandlesHandler)(nil)
