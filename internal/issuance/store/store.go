// Package store holds the issuance record stores. Every implementation gives
// Put primary-key semantics: a second Put for the same id fails with
// sentinel.ErrAlreadyUsed.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"kubecred/internal/issuance/models"
)

type Store interface {
	Put(ctx context.Context, rec *models.IssuanceRecord) error
	Get(ctx context.Context, id string) (*models.IssuanceRecord, error)
	ListAll(ctx context.Context) ([]*models.IssuanceRecord, error)
}

// ForDriver picks the implementation for a STORE_DRIVER value. db and rdb
// are only read by the driver that needs them.
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
