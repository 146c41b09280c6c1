package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SimTape/internal/domain/models"
	domrepo "SimTape/internal/domain/repository"
	pkgkafka "SimTape/pkg/kafka"
	applogger "SimTape/pkg/logger"
	"SimTape/pkg/util"
)

// ClickHouseStorage implements Storage for ClickHouse. One instance is bound
// to the timeframe its writers produce; reads may ask for any timeframe.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
	tf    domrepo.Timeframe
	l     *applogger.Logger
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string, tf domrepo.Timeframe) *ClickHouseStorage {
	return &ClickHouseStorage{db: db, table: table, tf: tf}
}

// SetLogger injects a structured logger.
func (s *ClickHouseStorage) SetLogger(l *applogger.Logger) { s.l = l }

// Init creates the database and candle table. ReplacingMergeTree keyed by
// (symbol, tf, ts) collapses live-bar rewrites into the final bar.
func (s *ClickHouseStorage) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE DATABASE IF NOT EXISTS simtape",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            symbol String,
            tf String,
            ts DateTime,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Int64,
            inserted_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(inserted_at)
        ORDER BY (symbol, tf, ts)`, s.table),
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clickhouse init: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, c *models.Candle) error {
	q := fmt.Sprintf("INSERT INTO %s (symbol, tf, ts, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		c.Symbol,
		string(s.tf),
		c.Time,
		c.Open,
		c.High,
		c.Low,
		c.Close,
		c.Volume,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips; 2000 rows per chunk.
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, c := range candles[start:end] {
			if c == nil || c.Symbol == "" || c.Time.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				c.Symbol,
				string(s.tf),
				c.Time,
				c.Open,
				c.High,
				c.Low,
				c.Close,
				c.Volume,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, tf, ts, open, high, low, close, volume) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe, limit int) ([]*models.Candle, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 10000
	}
	from, to = util.AlignFromTo(from, to, string(tf))
	q := fmt.Sprintf(`
        SELECT symbol, ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND tf = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse candle query error",
				applogger.String("table", s.table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]*models.Candle, 0, limit)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Symbol, &c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse candle query ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // connection owned by pkg client
}

var _ domrepo.Storage = (*ClickHouseStorage)(nil)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by symbol
// so per-symbol ordering survives partitioning.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, c *models.Candle) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), c)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{Key: []byte(c.Symbol), Value: c}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
