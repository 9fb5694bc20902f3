package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"kubecred/internal/verification/models"
	"kubecred/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	base     time.Time
}

func (s *StoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.base = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
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

func (s *StoreSuite) record(credentialID string, offset time.Duration, result models.Result) *models.VerificationRecord {
	rec := &models.VerificationRecord{
		ID:                 uuid.NewString(),
		CredentialID:       credentialID,
		WorkerID:           "verifier-1",
		Timestamp:          s.base.Add(offset),
		VerificationResult: result,
	}
	if result == models.ResultValid {
		issued := s.base.Add(-24 * time.Hour)
		rec.IssuanceWorkerID = "worker-1"
		rec.IssuanceTimestamp = &issued
	}
	return rec
}

func (s *StoreSuite) TestAppendAndListNewestFirst() {
	ctx := context.Background()
	first := s.record("cred-a", 0, models.ResultInvalid)
	second := s.record("cred-a", time.Minute, models.ResultValid)
	other := s.record("cred-b", 2*time.Minute, models.ResultExpired)

	s.Require().NoError(s.store.Put(ctx, first))
	s.Require().NoError(s.store.Put(ctx, second))
	s.Require().NoError(s.store.Put(ctx, other))

	got, err := s.store.ListByCredential(ctx, "cred-a")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(second.ID, got[0].ID)
	s.Equal(models.ResultValid, got[0].VerificationResult)
	s.Equal("worker-1", got[0].IssuanceWorkerID)
	s.Require().NotNil(got[0].IssuanceTimestamp)
	s.True(second.IssuanceTimestamp.Equal(*got[0].IssuanceTimestamp))
	s.Equal(first.ID, got[1].ID)
	s.Nil(got[1].IssuanceTimestamp)
}

func (s *StoreSuite) TestListUnknownCredential() {
	got, err := s.store.ListByCredential(context.Background(), "cred-none")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *StoreSuite) TestDuplicateIDRejected() {
	ctx := context.Background()
	rec := s.record("cred-a", 0, models.ResultInvalid)
	s.Require().NoError(s.store.Put(ctx, rec))
	s.ErrorIs(s.store.Put(ctx, rec), sentinel.ErrAlreadyUsed)
}
