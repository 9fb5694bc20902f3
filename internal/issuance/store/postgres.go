package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kubecred/internal/issuance/models"
	"kubecred/internal/platform/database"
	"kubecred/pkg/credential"
	"kubecred/pkg/platform/sentinel"
)

// PostgresStore persists issuance records in the credentials table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put inserts rec. The primary key rejects a second record for the same id.
func (s *PostgresStore) Put(ctx context.Context, rec *models.IssuanceRecord) error {
	if rec == nil {
		return fmt.Errorf("issuance record is required")
	}
	data, err := encodeData(rec.Credential.Data)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO credentials (id, holder_name, credential_type, issue_date, expiry_date, data, worker_id, issued_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Credential.HolderName,
		rec.Credential.CredentialType,
		rec.Credential.IssueDate,
		nullTime(rec.Credential.ExpiryDate),
		data,
		rec.WorkerID,
		rec.Timestamp,
		string(rec.Status),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("credential %s: %w", rec.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.IssuanceRecord, error) {
	query := `
		SELECT id, holder_name, credential_type, issue_date, expiry_date, data, worker_id, issued_at, status
		FROM credentials
		WHERE id = $1
	`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential by id: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.IssuanceRecord, error) {
	query := `
		SELECT id, holder_name, credential_type, issue_date, expiry_date, data, worker_id, issued_at, status
		FROM credentials
		ORDER BY issued_at DESC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.IssuanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.IssuanceRecord, error) {
	var (
		rec    models.IssuanceRecord
		expiry sql.NullTime
		data   []byte
		status string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Credential.HolderName,
		&rec.Credential.CredentialType,
		&rec.Credential.IssueDate,
		&expiry,
		&data,
		&rec.WorkerID,
		&rec.Timestamp,
		&status,
	)
	if err != nil {
		return nil, err
	}
	rec.Credential.ID = rec.ID
	rec.Credential.IssueDate = credential.Normalize(rec.Credential.IssueDate)
	rec.Timestamp = credential.Normalize(rec.Timestamp)
	if expiry.Valid {
		t := credential.Normalize(expiry.Time)
		rec.Credential.ExpiryDate = &t
	}
	if len(data) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("decode credential data: %w", err)
		}
		if len(decoded) > 0 {
			rec.Credential.Data = decoded
		}
	}
	rec.Status = models.Status(status)
	return &rec, nil
}

func encodeData(data map[string]any) ([]byte, error) {
	if data == nil {
		return []byte("{}"), nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode credential data: %w", err)
	}
	return encoded, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
