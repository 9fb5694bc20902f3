package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"kubecred/internal/issuance/models"
	"kubecred/pkg/platform/sentinel"
)

// InMemory keeps issuance records in a map. Safe for concurrent use.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*models.IssuanceRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*models.IssuanceRecord)}
}

// Put stores rec unless a record with the same id exists.
func (s *InMemory) Put(_ context.Context, rec *models.IssuanceRecord) error {
	if rec == nil {
		return fmt.Errorf("issuance record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("credential %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *InMemory) Get(_ context.Context, id string) (*models.IssuanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// ListAll returns every record, newest first.
func (s *InMemory) ListAll(_ context.Context) ([]*models.IssuanceRecord, error) {
	s.mu.RLock()
	out := make([]*models.IssuanceRecord, 0, len(s.records))
	for rec := range maps.Values(s.records) {
		out = append(out, cloneRecord(rec))
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(records []*models.IssuanceRecord) {
	slices.SortFunc(records, func(a, b *models.IssuanceRecord) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneRecord(rec *models.IssuanceRecord) *models.IssuanceRecord {
	c := *rec
	c.Credential.Data = maps.Clone(rec.Credential.Data)
	return &c
}
