package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubecred/internal/platform/config"
)

func TestNewAndHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	reg := prometheus.NewRegistry()

	client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()}, reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Health(context.Background()))
}

func TestNewRejectsMissingURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{}, prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestRecordPoolStats(t *testing.T) {
	mr := miniredis.RunT(t)
	client := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), prometheus.NewRegistry())
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	client.RecordPoolStats()
	first := testutil.ToFloat64(client.metrics.hits) + testutil.ToFloat64(client.metrics.misses)
	assert.Positive(t, first)

	require.NoError(t, client.Get(context.Background(), "k").Err())
	client.RecordPoolStats()
	second := testutil.ToFloat64(client.metrics.hits) + testutil.ToFloat64(client.metrics.misses)
	assert.GreaterOrEqual(t, second, first)
	assert.Positive(t, testutil.ToFloat64(client.metrics.totalConns))
}
