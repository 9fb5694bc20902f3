package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kubecred/internal/platform/database"
	"kubecred/internal/verification/models"
	"kubecred/pkg/credential"
	"kubecred/pkg/platform/sentinel"
)

// PostgresStore appends verification records to the verifications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, rec *models.VerificationRecord) error {
	if rec == nil {
		return fmt.Errorf("verification record is required")
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("verification id must be a uuid: %w", err)
	}

	var issuanceWorker sql.NullString
	if rec.IssuanceWorkerID != "" {
		issuanceWorker = sql.NullString{String: rec.IssuanceWorkerID, Valid: true}
	}
	var issuanceTime sql.NullTime
	if rec.IssuanceTimestamp != nil {
		issuanceTime = sql.NullTime{Time: *rec.IssuanceTimestamp, Valid: true}
	}

	query := `
		INSERT INTO verifications (id, credential_id, worker_id, verified_at, result, issuance_worker_id, issuance_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		id,
		rec.CredentialID,
		rec.WorkerID,
		rec.Timestamp,
		string(rec.VerificationResult),
		issuanceWorker,
		issuanceTime,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("verification %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCredential(ctx context.Context, credentialID string) ([]*models.VerificationRecord, error) {
	query := `
		SELECT id, credential_id, worker_id, verified_at, result, issuance_worker_id, issuance_timestamp
		FROM verifications
		WHERE credential_id = $1
		ORDER BY verified_at DESC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRecord
	for rows.Next() {
		var (
			rec            models.VerificationRecord
			id             uuid.UUID
			result         string
			verifiedAt     time.Time
			issuanceWorker sql.NullString
			issuanceTime   sql.NullTime
		)
		if err := rows.Scan(&id, &rec.CredentialID, &rec.WorkerID, &verifiedAt, &result, &issuanceWorker, &issuanceTime); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		rec.ID = id.String()
		rec.Timestamp = credential.Normalize(verifiedAt)
		rec.VerificationResult = models.Result(result)
		rec.IssuanceWorkerID = issuanceWorker.String
		if issuanceTime.Valid {
			t := credential.Normalize(issuanceTime.Time)
			rec.IssuanceTimestamp = &t
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}
