package models

import (
	"time"

	"kubecred/pkg/credential"
)

// Result is the stored outcome of one verification.
type Result string

const (
	ResultValid   Result = "valid"
	ResultInvalid Result = "invalid"
	ResultExpired Result = "expired"
)

// Reason refines an invalid result. Valid results carry no reason.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonExpired             Reason = "expired"
	ReasonNotIssued           Reason = "not_issued"
	ReasonMismatch            Reason = "mismatch"
	ReasonUpstreamTimeout     Reason = "upstream_timeout"
	ReasonUpstreamUnavailable Reason = "upstream_unavailable"
)

const (
	MessageExpired  = "Credential has expired"
	MessageValid    = "Credential is valid"
	MessageNotValid = "Credential is not valid or does not exist"
)

// VerificationRecord is the append-only log entry written for every verification.
type VerificationRecord struct {
	ID                 string     `json:"id"`
	CredentialID       string     `json:"credentialId"`
	WorkerID           string     `json:"workerId"`
	Timestamp          time.Time  `json:"timestamp"`
	VerificationResult Result     `json:"verificationResult"`
	IssuanceWorkerID   string     `json:"issuanceWorkerId,omitempty"`
	IssuanceTimestamp  *time.Time `json:"issuanceTimestamp,omitempty"`
}

// IssuanceCheck is what the issuance service reported about a credential.
type IssuanceCheck struct {
	Issued    bool
	Mismatch  bool
	WorkerID  string
	Timestamp *time.Time
}

// VerifyResult is the outcome returned to callers.
type VerifyResult struct {
	Valid             bool
	Result            Result
	Reason            Reason
	Message           string
	WorkerID          string
	Timestamp         time.Time
	IssuanceWorkerID  string
	IssuanceTimestamp *time.Time
	Credential        credential.Credential
}
