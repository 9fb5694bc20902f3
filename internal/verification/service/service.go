package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"kubecred/internal/verification/metrics"
	"kubecred/internal/verification/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/credential"
	"kubecred/pkg/platform/events"
	"kubecred/pkg/requestcontext"
)

const msgVerifyFailed = "Failed to verify credential"

// Store appends verification records and lists them per credential, newest first.
type Store interface {
	Put(ctx context.Context, rec *models.VerificationRecord) error
	ListByCredential(ctx context.Context, credentialID string) ([]*models.VerificationRecord, error)
}

// Checker asks the issuance service whether a credential exists.
// Errors carrying dErrors.CodeTimeout are reported as upstream timeouts.
type Checker interface {
	Check(ctx context.Context, cred credential.Credential) (*models.IssuanceCheck, error)
}

// EventPublisher emits credential lifecycle events.
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event)
}

// Service verifies presented credentials against the issuance service and
// keeps an append-only log of every attempt.
type Service struct {
	store    Store
	checker  Checker
	workerID string
	events   EventPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

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

func New(store Store, checker Checker, workerID string, opts ...Option) *Service {
	s := &Service{
		store:    store,
		checker:  checker,
		workerID: workerID,
		events:   events.Nop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) WorkerID() string {
	return s.workerID
}

// Verify decides whether cred is valid. Expired credentials are rejected
// without contacting issuance. Upstream failures fold into an invalid result
// rather than an error; only a failure to log the attempt is returned.
func (s *Service) Verify(ctx context.Context, cred credential.Credential) (*models.VerifyResult, error) {
	now := requestcontext.Now(ctx)
	result := &models.VerifyResult{
		WorkerID:   s.workerID,
		Timestamp:  now,
		Credential: cred,
	}

	if cred.ExpiredAt(now) {
		result.Result = models.ResultExpired
		result.Reason = models.ReasonExpired
		result.Message = models.MessageExpired
	} else {
		s.applyCheck(ctx, cred, result)
	}

	rec := &models.VerificationRecord{
		ID:                 uuid.NewString(),
		CredentialID:       cred.ID,
		WorkerID:           s.workerID,
		Timestamp:          now,
		VerificationResult: result.Result,
		IssuanceWorkerID:   result.IssuanceWorkerID,
		IssuanceTimestamp:  result.IssuanceTimestamp,
	}
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to record verification",
			"error", err,
			"credential_id", cred.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgVerifyFailed)
	}

	s.metrics.IncResult(string(result.Result), string(result.Reason))
	s.logger.InfoContext(ctx, "credential verified",
		"credential_id", cred.ID,
		"result", result.Result,
		"reason", result.Reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.events.Emit(ctx, events.Event{
		Type:           events.TypeCredentialVerified,
		CredentialID:   cred.ID,
		HolderName:     cred.HolderName,
		CredentialType: cred.CredentialType,
		WorkerID:       s.workerID,
		Timestamp:      now,
		Result:         string(result.Result),
		Reason:         string(result.Reason),
		RequestID:      requestcontext.RequestID(ctx),
	})
	return result, nil
}

func (s *Service) applyCheck(ctx context.Context, cred credential.Credential, result *models.VerifyResult) {
	result.Result = models.ResultInvalid
	result.Message = models.MessageNotValid

	check, err := s.checker.Check(ctx, cred)
	switch {
	case err != nil:
		result.Reason = models.ReasonUpstreamUnavailable
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			result.Reason = models.ReasonUpstreamTimeout
		}
		s.logger.WarnContext(ctx, "issuance check failed",
			"error", err,
			"credential_id", cred.ID,
			"reason", result.Reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	case check.Issued:
		result.Valid = true
		result.Result = models.ResultValid
		result.Reason = models.ReasonNone
		result.Message = models.MessageValid
		result.IssuanceWorkerID = check.WorkerID
		result.IssuanceTimestamp = check.Timestamp
	case check.Mismatch:
		result.Reason = models.ReasonMismatch
	default:
		result.Reason = models.ReasonNotIssued
	}
}

// History lists the verification log for one credential, newest first.
func (s *Service) History(ctx context.Context, credentialID string) ([]*models.VerificationRecord, error) {
	records, err := s.store.ListByCredential(ctx, credentialID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to load verification history")
	}
	return records, nil
}
