package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kubecred/internal/verification/models"
	"kubecred/pkg/platform/sentinel"
)

const (
	redisRecordPrefix     = "kubecred:verification:"
	redisCredentialPrefix = "kubecred:verifications:"
)

var putScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// RedisStore keeps each verification as JSON plus a per-credential sorted
// set of verification ids scored by time.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, rec *models.VerificationRecord) error {
	if rec == nil {
		return fmt.Errorf("verification record is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}
	created, err := putScript.Run(ctx, s.client,
		[]string{redisRecordPrefix + rec.ID, redisCredentialPrefix + rec.CredentialID},
		payload, rec.Timestamp.UnixMicro(), rec.ID,
	).Int()
	if err != nil {
		return fmt.Errorf("put verification: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("verification %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *RedisStore) ListByCredential(ctx context.Context, credentialID string) ([]*models.VerificationRecord, error) {
	ids, err := s.client.ZRevRange(ctx, redisCredentialPrefix+credentialID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list verification ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisRecordPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load verifications: %w", err)
	}

	out := make([]*models.VerificationRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec models.VerificationRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode verification: %w", err)
		}
		out = append(out, &rec)
	}
	sortNewestFirst(out)
	return out, nil
}
