// Package store holds the append-only verification log stores.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kubecred/internal/verification/models"
)

type Store interface {
	Put(ctx context.Context, rec *models.VerificationRecord) error
	ListByCredential(ctx context.Context, credentialID string) ([]*models.VerificationRecord, error)
}

// ForDriver picks the implementation for a STORE_DRIVER value.
func ForDriver(driver string, db *sql.DB, rdb redis.UniversalClient) (Store, error) {
	switch driver {
	case "", "memory":
		return NewInMemory(), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres store needs a database")
		}
		return NewPostgres(db), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis store needs a redis client")
		}
		return NewRedis(rdb), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
