package models

import (
	"time"

	"kubecred/pkg/credential"
)

// Status of an issuance record. Revoked is reserved; nothing sets it yet.
type Status string

const (
	StatusIssued  Status = "issued"
	StatusRevoked Status = "revoked"
)

// IssuanceRecord wraps a credential with the worker and time that created it.
// Records are written once and never updated.
type IssuanceRecord struct {
	ID         string                `json:"id"`
	Credential credential.Credential `json:"credential"`
	WorkerID   string                `json:"workerId"`
	Timestamp  time.Time             `json:"timestamp"`
	Status     Status                `json:"status"`
}

// IssueCommand is the validated input to an issuance.
type IssueCommand struct {
	HolderName     string
	CredentialType string
	ExpiryDate     *time.Time
	Data           map[string]any
}

// IssueResult is the outcome of an issuance. WorkerID and Timestamp belong to
// the record that was stored, which on a duplicate is the original one.
type IssueResult struct {
	Credential    credential.Credential
	WorkerID      string
	Timestamp     time.Time
	AlreadyIssued bool
}

// NewRecord builds the record for a fresh issuance at now.
func NewRecord(id string, cmd IssueCommand, workerID string, now time.Time) *IssuanceRecord {
	now = credential.Normalize(now)
	return &IssuanceRecord{
		ID: id,
		Credential: credential.Credential{
			ID:             id,
			HolderName:     cmd.HolderName,
			CredentialType: cmd.CredentialType,
			IssueDate:      now,
			ExpiryDate:     cmd.ExpiryDate,
			Data:           cmd.Data,
		},
		WorkerID:  workerID,
		Timestamp: now,
		Status:    StatusIssued,
	}
}

// Result reports rec as an issuance outcome.
func (rec *IssuanceRecord) Result(alreadyIssued bool) *IssueResult {
	return &IssueResult{
		Credential:    rec.Credential,
		WorkerID:      rec.WorkerID,
		Timestamp:     rec.Timestamp,
		AlreadyIssued: alreadyIssued,
	}
}
