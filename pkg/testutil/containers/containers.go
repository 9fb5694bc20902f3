//go:build integration

// Package containers starts the backing services the kubecred integration
// suites run against: one Postgres with the credentials and verifications
// schema applied, and one Redpanda broker for the event producer. Each is
// started lazily on first use and reused by every suite in the test binary,
// so suites must clear the tables they write (see FreshPostgres).
package containers

import (
	"context"
	"sync"
	"testing"
)

// Manager hands out the shared containers.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	kafka    *KafkaContainer
}

var (
	manager     *Manager
	managerOnce sync.Once
)

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns the shared migrated Postgres.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t)
	}
	return m.postgres
}

// FreshPostgres returns the shared Postgres with the given store tables
// emptied, so a store suite starts from no credentials or verifications.
func (m *Manager) FreshPostgres(t *testing.T, tables ...string) *PostgresContainer {
	t.Helper()

	pg := m.GetPostgres(t)
	if err := pg.TruncateTables(context.Background(), tables...); err != nil {
		t.Fatalf("failed to clear %v: %v", tables, err)
	}
	return pg
}

// GetKafka returns the shared Redpanda broker the event producer publishes to.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kafka == nil {
		m.kafka = NewKafkaContainer(t)
	}
	return m.kafka
}
