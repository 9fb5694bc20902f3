package handler

import (
	"time"

	"kubecred/internal/verification/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/credential"
	s "kubecred/pkg/string"
)

const msgMissingFields = "Credential must include id, holderName, and credentialType"

// VerifyRequest is a credential as presented by the holder. Dates arrive as
// strings so date-only values from browser forms are accepted.
type VerifyRequest struct {
	ID             string         `json:"id"`
	HolderName     string         `json:"holderName"`
	CredentialType string         `json:"credentialType"`
	IssueDate      string         `json:"issueDate,omitempty"`
	ExpiryDate     string         `json:"expiryDate,omitempty"`
	Data           map[string]any `json:"data,omitempty"`

	issueDate  *time.Time
	expiryDate *time.Time
}

func (r *VerifyRequest) Sanitize() {
	s.TrimStrings(&r.ID, &r.HolderName, &r.CredentialType, &r.IssueDate, &r.ExpiryDate)
}

func (r *VerifyRequest) Validate() error {
	if r.ID == "" || r.HolderName == "" || r.CredentialType == "" {
		return dErrors.New(dErrors.CodeValidation, msgMissingFields)
	}
	var err error
	if r.issueDate, err = credential.ParseTime(r.IssueDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, "issueDate must be an ISO 8601 date or timestamp")
	}
	if r.expiryDate, err = credential.ParseTime(r.ExpiryDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, "expiryDate must be an ISO 8601 date or timestamp")
	}
	return nil
}

// Credential converts the validated request into the domain type.
func (r *VerifyRequest) Credential() credential.Credential {
	cred := credential.Credential{
		ID:             r.ID,
		HolderName:     r.HolderName,
		CredentialType: r.CredentialType,
		ExpiryDate:     r.expiryDate,
		Data:           r.Data,
	}
	if r.issueDate != nil {
		cred.IssueDate = *r.issueDate
	}
	return cred
}

// VerifyResponse is the body of POST /api/verify for both verdicts and
// rejected requests.
type VerifyResponse struct {
	Success           bool                   `json:"success"`
	Valid             bool                   `json:"valid"`
	Message           string                 `json:"message"`
	WorkerID          string                 `json:"workerId"`
	Timestamp         time.Time              `json:"timestamp"`
	Reason            models.Reason          `json:"reason,omitempty"`
	IssuanceWorkerID  string                 `json:"issuanceWorkerId,omitempty"`
	IssuanceTimestamp *time.Time             `json:"issuanceTimestamp,omitempty"`
	Credential        *credential.Credential `json:"credential,omitempty"`
}

type HistoryResponse struct {
	Success       bool                         `json:"success"`
	CredentialID  string                       `json:"credentialId"`
	Count         int                          `json:"count"`
	Verifications []*models.VerificationRecord `json:"verifications"`
}

// IndexResponse describes the service at GET /.
type IndexResponse struct {
	Service   string   `json:"service"`
	WorkerID  string   `json:"workerId"`
	Endpoints []string `json:"endpoints"`
}
