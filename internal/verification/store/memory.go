package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"kubecred/internal/verification/models"
	"kubecred/pkg/platform/sentinel"
)

// InMemory keeps the verification log in memory, indexed by credential id.
type InMemory struct {
	mu           sync.RWMutex
	ids          map[string]struct{}
	byCredential map[string][]models.VerificationRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		ids:          make(map[string]struct{}),
		byCredential: make(map[string][]models.VerificationRecord),
	}
}

func (s *InMemory) Put(_ context.Context, rec *models.VerificationRecord) error {
	if rec == nil {
		return fmt.Errorf("verification record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[rec.ID]; exists {
		return fmt.Errorf("verification %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
	}
	s.ids[rec.ID] = struct{}{}
	s.byCredential[rec.CredentialID] = append(s.byCredential[rec.CredentialID], *rec)
	return nil
}

// ListByCredential returns the log entries for credentialID, newest first.
func (s *InMemory) ListByCredential(_ context.Context, credentialID string) ([]*models.VerificationRecord, error) {
	s.mu.RLock()
	entries := s.byCredential[credentialID]
	out := make([]*models.VerificationRecord, len(entries))
	for i := range entries {
		rec := entries[i]
		out[i] = &rec
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(records []*models.VerificationRecord) {
	slices.SortStableFunc(records, func(a, b *models.VerificationRecord) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
