package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"kubecred/internal/issuance/metrics"
	"kubecred/internal/issuance/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/platform/events"
	"kubecred/pkg/platform/sentinel"
	platformsync "kubecred/pkg/platform/sync"
	"kubecred/pkg/requestcontext"
)

const (
	msgRequiredFields = "holderName and credentialType are required"
	msgIssueFailed    = "Failed to issue credential"
)

// Store persists issuance records. Put must fail with sentinel.ErrAlreadyUsed
// when a record with the same id exists; Get returns sentinel.ErrNotFound.
type Store interface {
	Put(ctx context.Context, rec *models.IssuanceRecord) error
	Get(ctx context.Context, id string) (*models.IssuanceRecord, error)
	ListAll(ctx context.Context) ([]*models.IssuanceRecord, error)
}

// EventPublisher emits credential lifecycle events.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event)
}

// Service issues credentials and deduplicates them by derived id.
type Service struct {
	store    Store
	workerID string
	ids      models.IDGenerator
	events   EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	mu       *platformsync.ShardedMutex
}

type Option func(*Service)

func WithIDGenerator(g models.IDGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.ids = g
		}
	}
}

func WithEvents(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(store Store, workerID string, opts ...Option) *Service {
	s := &Service{
		store:    store,
		workerID: workerID,
		ids:      models.DeterministicIDs{},
		events:   events.Nop{},
		logger:   slog.Default(),
		mu:       platformsync.NewShardedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WorkerID is the label stamped on records this instance creates.
func (s *Service) WorkerID() string {
	return s.workerID
}

// Issue returns the stored credential when the derived id already exists and
// creates it otherwise. At most one write happens per call.
func (s *Service) Issue(ctx context.Context, cmd models.IssueCommand) (*models.IssueResult, error) {
	if strings.TrimSpace(cmd.HolderName) == "" || strings.TrimSpace(cmd.CredentialType) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, msgRequiredFields)
	}

	id, err := s.ids.Generate(cmd)
	if err != nil {
		s.metrics.IncFailure("derive_id")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgIssueFailed)
	}

	// Serializes check-then-create for one id inside this process. Other
	// processes are caught by the store's primary key below.
	s.mu.Lock(id)
	defer s.mu.Unlock(id)

	existing, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		return s.alreadyIssued(ctx, existing), nil
	case !errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncFailure("lookup")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgIssueFailed)
	}

	rec := models.NewRecord(id, cmd, s.workerID, requestcontext.Now(ctx))
	if err := s.store.Put(ctx, rec); err != nil {
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncFailure("persist")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgIssueFailed)
		}
		// A concurrent request stored the same id first; answer with its record.
		winner, getErr := s.store.Get(ctx, id)
		if getErr != nil {
			s.metrics.IncFailure("lookup")
			return nil, dErrors.Wrap(getErr, dErrors.CodeInternal, msgIssueFailed)
		}
		return s.alreadyIssued(ctx, winner), nil
	}

	s.metrics.IncIssued()
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", rec.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, rec, false)
	return rec.Result(false), nil
}

func (s *Service) alreadyIssued(ctx context.Context, rec *models.IssuanceRecord) *models.IssueResult {
	s.metrics.IncDeduplicated()
	s.logger.InfoContext(ctx, "credential already issued",
		"credential_id", rec.ID,
		"original_worker_id", rec.WorkerID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, rec, true)
	return rec.Result(true)
}

func (s *Service) emit(ctx context.Context, rec *models.IssuanceRecord, alreadyIssued bool) {
	s.events.Emit(ctx, events.Event{
		Type:           events.TypeCredentialIssued,
		CredentialID:   rec.ID,
		HolderName:     rec.Credential.HolderName,
		CredentialType: rec.Credential.CredentialType,
		WorkerID:       s.workerID,
		Timestamp:      requestcontext.Now(ctx),
		AlreadyIssued:  &alreadyIssued,
	})
}

// Get returns the record stored under id.
func (s *Service) Get(ctx context.Context, id string) (*models.IssuanceRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to retrieve credential")
	}
	return rec, nil
}

// List returns every record, newest first.
func (s *Service) List(ctx context.Context) ([]*models.IssuanceRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to list credentials")
	}
	return records, nil
}
