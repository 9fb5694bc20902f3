package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"kubecred/internal/issuance/models"
	"kubecred/pkg/platform/sentinel"
	"kubecred/pkg/testutil"
)

type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(*testing.T) Store { return NewInMemory() }})
}

func TestRedisStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) Store {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewRedis(client)
	}})
}

func record(id string, ts time.Time) *models.IssuanceRecord {
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.NewRecord(id, models.IssueCommand{
		HolderName:     "John Doe",
		CredentialType: "Driver License",
		ExpiryDate:     &expiry,
		Data:           map[string]any{"class": "B", "points": float64(12)},
	}, "worker-1", ts)
}

func (s *StoreSuite) TestPutThenGet() {
	ctx := context.Background()
	rec := record("cred-john-doe-driver-license-00000001", time.Date(2026, 1, 1, 10, 0, 0, 123456000, time.UTC))

	s.Require().NoError(s.store.Put(ctx, rec))

	got, err := s.store.Get(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
	s.Equal(rec.ID, got.Credential.ID)
	s.Equal("worker-1", got.WorkerID)
	s.Equal(models.StatusIssued, got.Status)
	s.True(rec.Timestamp.Equal(got.Timestamp))
	s.True(rec.Credential.ExpiryDate.Equal(*got.Credential.ExpiryDate))
	s.Equal(map[string]any{"class": "B", "points": float64(12)}, got.Credential.Data)
}

func (s *StoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "does-not-exist")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestPutDuplicateRejected() {
	ctx := context.Background()
	first := record("cred-dup", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	second := record("cred-dup", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	second.WorkerID = "worker-2"

	s.Require().NoError(s.store.Put(ctx, first))
	s.ErrorIs(s.store.Put(ctx, second), sentinel.ErrAlreadyUsed)

	got, err := s.store.Get(ctx, "cred-dup")
	s.Require().NoError(err)
	s.Equal("worker-1", got.WorkerID, "first write wins")

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *StoreSuite) TestListAllNewestFirst() {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Put(ctx, record("cred-b", base.Add(time.Minute))))
	s.Require().NoError(s.store.Put(ctx, record("cred-a", base)))
	s.Require().NoError(s.store.Put(ctx, record("cred-c", base.Add(2*time.Minute))))

	all, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	s.Equal([]string{"cred-c", "cred-b", "cred-a"}, ids)
}

func (s *StoreSuite) TestListAllEmpty() {
	all, err := s.store.ListAll(context.Background())
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *StoreSuite) TestConcurrentPutSingleWinner() {
	ctx := context.Background()

	result := testutil.RunConcurrent(16, func(int) error {
		return s.store.Put(ctx, record("cred-race", time.Now()))
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(15), result.Conflicts)
	s.Zero(result.Errors)
}

func TestForDriver(t *testing.T) {
	st, err := ForDriver("memory", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &InMemory{}, st)

	mr := miniredis.RunT(t)
	st, err = ForDriver("redis", nil, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, st)

	_, err = ForDriver("postgres", nil, nil)
	assert.Error(t, err)
	_, err = ForDriver("cassandra", nil, nil)
	assert.Error(t, err)
}
