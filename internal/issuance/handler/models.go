package handler

import (
	"time"

	"kubecred/internal/issuance/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/credential"
	s "kubecred/pkg/string"
	"kubecred/pkg/validation"
)

// IssueRequest is the body of POST /api/credentials.
type IssueRequest struct {
	HolderName     string         `json:"holderName" validate:"max=256"`
	CredentialType string         `json:"credentialType" validate:"max=128"`
	ExpiryDate     string         `json:"expiryDate,omitempty"`
	Data           map[string]any `json:"data,omitempty"`

	parsedExpiry *time.Time
}

func (r *IssueRequest) Sanitize() {
	s.TrimStrings(&r.HolderName, &r.CredentialType, &r.ExpiryDate)
}

func (r *IssueRequest) Validate() error {
	if r.HolderName == "" || r.CredentialType == "" {
		return dErrors.New(dErrors.CodeValidation, "holderName and credentialType are required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	expiry, err := credential.ParseTime(r.ExpiryDate)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "expiryDate must be an ISO 8601 date or timestamp")
	}
	r.parsedExpiry = expiry
	return nil
}

// Command converts the validated request into a service command.
func (r *IssueRequest) Command() models.IssueCommand {
	return models.IssueCommand{
		HolderName:     r.HolderName,
		CredentialType: r.CredentialType,
		ExpiryDate:     r.parsedExpiry,
		Data:           r.Data,
	}
}

// IssueResponse is returned for both fresh and repeated issuance.
type IssueResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	Credential    credential.Credential `json:"credential"`
	WorkerID      string                `json:"workerId"`
	Timestamp     time.Time             `json:"timestamp"`
	AlreadyIssued bool                  `json:"alreadyIssued"`
}

// CredentialResponse is the body of GET /api/credentials/{id}. WorkerID and
// Timestamp are those of the stored issuance record.
type CredentialResponse struct {
	Success    bool                  `json:"success"`
	Credential credential.Credential `json:"credential"`
	WorkerID   string                `json:"workerId"`
	Timestamp  time.Time             `json:"timestamp"`
	Status     models.Status         `json:"status"`
}

type RecordResponse struct {
	Credential credential.Credential `json:"credential"`
	WorkerID   string                `json:"workerId"`
	Timestamp  time.Time             `json:"timestamp"`
	Status     models.Status         `json:"status"`
}

type ListResponse struct {
	Success     bool             `json:"success"`
	Count       int              `json:"count"`
	Credentials []RecordResponse `json:"credentials"`
}

// IndexResponse describes the service at GET /.
type IndexResponse struct {
	Service   string   `json:"service"`
	WorkerID  string   `json:"workerId"`
	Endpoints []string `json:"endpoints"`
}
