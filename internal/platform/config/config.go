package config

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"
)

// Service identifies which binary is loading configuration.
type Service string

const (
	ServiceIssuance     Service = "issuance"
	ServiceVerification Service = "verification"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	IDDeterministic = "deterministic"
	IDRandom        = "random"

	VerifyReplay = "replay"
	VerifyLookup = "lookup"
)

// Server captures process level configuration for either service.
type Server struct {
	Service        Service
	Addr           string
	WorkerID       string
	Environment    string
	LogLevel       string
	AllowedOrigins []string
	StoreDriver    string
	IDStrategy     string
	VerifyStrategy string
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Issuance       IssuanceClientConfig
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is optional; events are discarded when Brokers is empty.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// IssuanceClientConfig is used by the verification service to reach issuance.
type IssuanceClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// IsProduction reports whether ENVIRONMENT is production.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv(service Service) (Server, error) {
	cfg := Server{
		Service:        service,
		Addr:           addrFromEnv(service),
		WorkerID:       os.Getenv("WORKER_ID"),
		Environment:    envOr("ENVIRONMENT", "development"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(envOr("ALLOWED_ORIGINS", "*")),
		StoreDriver:    strings.ToLower(envOr("STORE_DRIVER", StoreMemory)),
		IDStrategy:     strings.ToLower(envOr("ID_STRATEGY", IDDeterministic)),
		VerifyStrategy: strings.ToLower(envOr("VERIFY_STRATEGY", VerifyReplay)),
		Database:       DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   envOr("EVENTS_TOPIC", "credential-events"),
		},
		Issuance: IssuanceClientConfig{
			BaseURL: strings.TrimRight(envOr("ISSUANCE_SERVICE_URL", "http://localhost:3001"), "/"),
			Timeout: 10 * time.Second,
		},
	}

	if cfg.WorkerID == "" {
		cfg.WorkerID = DefaultWorkerID(service)
	}

	if raw := os.Getenv("ISSUANCE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Server{}, fmt.Errorf("ISSUANCE_TIMEOUT must be a positive duration, got %q", raw)
		}
		cfg.Issuance.Timeout = d
	}

	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) validate() error {
	switch s.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if s.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreRedis:
		if s.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", s.StoreDriver)
	}
	if s.IDStrategy != IDDeterministic && s.IDStrategy != IDRandom {
		return fmt.Errorf("unknown ID_STRATEGY %q", s.IDStrategy)
	}
	if s.VerifyStrategy != VerifyReplay && s.VerifyStrategy != VerifyLookup {
		return fmt.Errorf("unknown VERIFY_STRATEGY %q", s.VerifyStrategy)
	}
	return nil
}

// DefaultWorkerID returns a random label such as worker-42 or verifier-7.
func DefaultWorkerID(service Service) string {
	prefix := "worker"
	if service == ServiceVerification {
		prefix = "verifier"
	}
	return fmt.Sprintf("%s-%d", prefix, rand.IntN(1000))
}

func addrFromEnv(service Service) string {
	if addr := os.Getenv("ADDR"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	if service == ServiceVerification {
		return ":3002"
	}
	return ":3001"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
