package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kubecred/internal/issuance/models"
	"kubecred/pkg/platform/sentinel"
)

const (
	redisRecordPrefix = "kubecred:credential:"
	redisTimeIndex    = "kubecred:credentials:by_time"
)

// putScript writes the record only if its key is absent and indexes it by
// timestamp in the same step.
var putScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
return 1
`)

// RedisStore keeps each record as a JSON string and a sorted set of ids
// scored by issuance time.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, rec *models.IssuanceRecord) error {
	if rec == nil {
		return fmt.Errorf("issuance record is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	created, err := putScript.Run(ctx, s.client,
		[]string{redisRecordPrefix + rec.ID, redisTimeIndex},
		payload, rec.Timestamp.UnixMicro(), rec.ID,
	).Int()
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("credential %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.IssuanceRecord, error) {
	payload, err := s.client.Get(ctx, redisRecordPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return decodeRecord(payload)
}

// ListAll walks the time index from newest to oldest.
func (s *RedisStore) ListAll(ctx context.Context) ([]*models.IssuanceRecord, error) {
	ids, err := s.client.ZRevRange(ctx, redisTimeIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list credential ids: %w", err)
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
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	out := make([]*models.IssuanceRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	// Equal scores come back in reverse lexical order; restore id order for ties.
	sortNewestFirst(out)
	return out, nil
}

func decodeRecord(payload []byte) (*models.IssuanceRecord, error) {
	var rec models.IssuanceRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &rec, nil
}
