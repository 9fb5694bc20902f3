package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"kubecred/internal/verification/models"
	"kubecred/pkg/credential"
	"kubecred/pkg/platform/sentinel"
	"kubecred/pkg/platform/tracer"
)

// Checker asks the issuance service whether a credential was issued.
type Checker interface {
	Check(ctx context.Context, cred credential.Credential) (*models.IssuanceCheck, error)
}

// NewChecker returns the checker for a verify strategy: replay or lookup.
func NewChecker(strategy string, c *Client) (Checker, error) {
	switch strategy {
	case "", "replay":
		return ReplayChecker{client: c}, nil
	case "lookup":
		return LookupChecker{client: c}, nil
	default:
		return nil, fmt.Errorf("unknown verify strategy %q", strategy)
	}
}

type replayRequest struct {
	HolderName     string         `json:"holderName"`
	CredentialType string         `json:"credentialType"`
	ExpiryDate     string         `json:"expiryDate,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

type issueResponse struct {
	Success    bool `json:"success"`
	Credential struct {
		ID string `json:"id"`
	} `json:"credential"`
	WorkerID      string    `json:"workerId"`
	Timestamp     time.Time `json:"timestamp"`
	AlreadyIssued bool      `json:"alreadyIssued"`
}

// ReplayChecker re-submits the credential's tuple to POST /api/credentials.
// An alreadyIssued answer proves existence only when the stored id is the id
// presented; any other id is a mismatch. A tuple issuance has never seen gets
// issued as a side effect and reports not issued.
type ReplayChecker struct {
	client *Client
}

func (r ReplayChecker) Check(ctx context.Context, cred credential.Credential) (*models.IssuanceCheck, error) {
	resp, err := r.client.do(ctx, tracer.SpanIssuanceReplay, http.MethodPost, "/api/credentials", replayRequest{
		HolderName:     cred.HolderName,
		CredentialType: cred.CredentialType,
		ExpiryDate:     credential.FormatTime(cred.ExpiryDate),
		Data:           cred.Data,
	})
	if err != nil {
		return nil, err
	}

	switch resp.status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusBadRequest:
		return &models.IssuanceCheck{}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected issuance status %d", sentinel.ErrUnavailable, resp.status)
	}

	var body issueResponse
	if err := resp.decode(&body); err != nil {
		return nil, err
	}
	if !body.AlreadyIssued {
		return &models.IssuanceCheck{}, nil
	}
	if body.Credential.ID != cred.ID {
		return &models.IssuanceCheck{Mismatch: true}, nil
	}
	ts := credential.Normalize(body.Timestamp)
	return &models.IssuanceCheck{
		Issued:    true,
		WorkerID:  body.WorkerID,
		Timestamp: &ts,
	}, nil
}

type lookupResponse struct {
	Success    bool                  `json:"success"`
	Credential credential.Credential `json:"credential"`
	WorkerID   string                `json:"workerId"`
	Timestamp  time.Time             `json:"timestamp"`
}

// LookupChecker reads GET /api/credentials/{id} and requires the stored
// holder, type, expiry and data to match the presented credential.
type LookupChecker struct {
	client *Client
}

func (l LookupChecker) Check(ctx context.Context, cred credential.Credential) (*models.IssuanceCheck, error) {
	resp, err := l.client.do(ctx, tracer.SpanIssuanceLookup, http.MethodGet, credentialPath(cred.ID), nil)
	if err != nil {
		return nil, err
	}

	switch resp.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return &models.IssuanceCheck{}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected issuance status %d", sentinel.ErrUnavailable, resp.status)
	}

	var body lookupResponse
	if err := resp.decode(&body); err != nil {
		return nil, err
	}
	if !sameCredential(body.Credential, cred) {
		return &models.IssuanceCheck{Mismatch: true}, nil
	}
	ts := credential.Normalize(body.Timestamp)
	return &models.IssuanceCheck{
		Issued:    true,
		WorkerID:  body.WorkerID,
		Timestamp: &ts,
	}, nil
}

func sameCredential(stored, presented credential.Credential) bool {
	if stored.HolderName != presented.HolderName || stored.CredentialType != presented.CredentialType {
		return false
	}
	if (stored.ExpiryDate == nil) != (presented.ExpiryDate == nil) {
		return false
	}
	if stored.ExpiryDate != nil && !stored.ExpiryDate.Equal(*presented.ExpiryDate) {
		return false
	}
	return sameData(stored.Data, presented.Data)
}

// sameData compares payloads by their JSON encoding, which sorts map keys and
// erases the int/float distinction a decoded payload no longer has.
func sameData(stored, presented map[string]any) bool {
	if len(stored) == 0 || len(presented) == 0 {
		return len(stored) == len(presented)
	}
	a, errA := json.Marshal(stored)
	b, errB := json.Marshal(presented)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}
