// Package infra opens the backing services a process is configured for and
// closes them on shutdown.
package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"kubecred/internal/platform/config"
	"kubecred/internal/platform/database"
	"kubecred/internal/platform/health"
	"kubecred/internal/platform/kafka"
	"kubecred/internal/platform/kafka/producer"
	"kubecred/internal/platform/redis"
	"kubecred/migrations"
	"kubecred/pkg/platform/events"
)

const poolStatsInterval = 15 * time.Second

// Infra holds the connections for one process. DB and Redis are nil unless the
// store driver needs them; Producer is nil when no brokers are configured.
type Infra struct {
	DB       *database.Pool
	Redis    *redis.Client
	Producer *producer.Producer
	Events   *events.Publisher

	logger *slog.Logger
}

// Open connects everything cfg asks for. On error, whatever was opened is closed.
func Open(ctx context.Context, cfg config.Server, reg prometheus.Registerer, logger *slog.Logger) (*Infra, error) {
	in := &Infra{logger: logger}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.New(ctx, database.DefaultConfig(cfg.Database.URL))
		if err != nil {
			return nil, err
		}
		in.DB = pool
		if err := database.Migrate(ctx, pool.DB(), migrations.FS); err != nil {
			in.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database connected", "driver", "postgres")
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis, reg)
		if err != nil {
			return nil, err
		}
		in.Redis = client
		logger.Info("redis connected")
	}

	var p events.Producer = producer.NewNoopProducer()
	if cfg.Kafka.Brokers != "" {
		kp, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), logger)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.Producer = kp
		p = kp
		logger.Info("kafka producer connected", "topic", cfg.Kafka.Topic)
	}
	in.Events = events.NewPublisher(p, cfg.Kafka.Topic, events.WithLogger(logger))

	return in, nil
}

// SQL returns the database handle, or nil when Postgres is not in use.
func (in *Infra) SQL() *sql.DB {
	if in.DB == nil {
		return nil
	}
	return in.DB.DB()
}

// RedisClient returns the Redis client, or a nil interface when Redis is not
// in use so callers never see a typed nil.
func (in *Infra) RedisClient() goredis.UniversalClient {
	if in.Redis == nil {
		return nil
	}
	return in.Redis.Client
}

// RegisterChecks adds a readiness check per open connection.
func (in *Infra) RegisterChecks(h *health.Handler) {
	if in.DB != nil {
		h.RegisterCheck("database", in.DB.Health)
	}
	if in.Redis != nil {
		h.RegisterCheck("redis", in.Redis.Health)
	}
	if in.Producer != nil {
		checker := kafka.NewHealthChecker(in.Producer.Client())
		h.RegisterCheck(checker.Name(), checker.Check)
	}
}

// SamplePoolStats records Redis pool metrics until ctx is done. It returns
// immediately when Redis is not in use.
func (in *Infra) SamplePoolStats(ctx context.Context) error {
	if in.Redis == nil {
		return nil
	}
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		in.Redis.RecordPoolStats()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close releases every connection, producer first so queued events flush.
func (in *Infra) Close() error {
	var errs []error
	if in.Producer != nil {
		errs = append(errs, in.Producer.Close())
	}
	if in.Redis != nil {
		errs = append(errs, in.Redis.Close())
	}
	if in.DB != nil {
		errs = append(errs, in.DB.Close())
	}
	if err := errors.Join(errs...); err != nil {
		in.logger.Error("failed to close connections", "error", err)
		return err
	}
	return nil
}
