package infra

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubecred/internal/platform/config"
	"kubecred/internal/platform/health"
	"kubecred/pkg/platform/events"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenMemoryNeedsNothing(t *testing.T) {
	in, err := Open(context.Background(), config.Server{StoreDriver: config.StoreMemory}, prometheus.NewRegistry(), discard())
	require.NoError(t, err)
	defer in.Close()

	assert.Nil(t, in.DB)
	assert.Nil(t, in.Redis)
	assert.Nil(t, in.Producer)
	require.NotNil(t, in.Events)
	in.Events.Emit(context.Background(), events.Event{Type: events.TypeCredentialIssued, CredentialID: "cred-1"})
	assert.NoError(t, in.SamplePoolStats(context.Background()))
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Server{
		StoreDriver: config.StoreRedis,
		Redis:       config.RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 2},
	}

	in, err := Open(context.Background(), cfg, prometheus.NewRegistry(), discard())
	require.NoError(t, err)
	defer in.Close()
	require.NotNil(t, in.Redis)

	h := health.New("test", "worker-1")
	in.RegisterChecks(h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, in.SamplePoolStats(ctx))
}

func TestOpenRedisUnreachable(t *testing.T) {
	cfg := config.Server{
		StoreDriver: config.StoreRedis,
		Redis:       config.RedisConfig{URL: "redis://127.0.0.1:1"},
	}
	_, err := Open(context.Background(), cfg, prometheus.NewRegistry(), discard())
	assert.Error(t, err)
}

func TestHandlesAreNilWhenUnused(t *testing.T) {
	in := &Infra{logger: discard()}
	assert.Nil(t, in.SQL())
	assert.Nil(t, in.RedisClient())
}
