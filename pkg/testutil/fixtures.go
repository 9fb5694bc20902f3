package testutil

import (
	"time"

	"kubecred/pkg/credential"
)

// CredentialBuilder builds credentials for tests with sensible defaults.
type CredentialBuilder struct {
	cred credential.Credential
}

// NewCredential starts from John Doe's degree, issued 2026-01-01 with no expiry.
func NewCredential() *CredentialBuilder {
	return &CredentialBuilder{cred: credential.Credential{
		ID:             "cred-john-doe-degree-1a2b3c4d",
		HolderName:     "John Doe",
		CredentialType: "Degree",
		IssueDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

func (b *CredentialBuilder) WithID(id string) *CredentialBuilder {
	b.cred.ID = id
	return b
}

func (b *CredentialBuilder) WithHolder(name string) *CredentialBuilder {
	b.cred.HolderName = name
	return b
}

func (b *CredentialBuilder) WithType(credentialType string) *CredentialBuilder {
	b.cred.CredentialType = credentialType
	return b
}

func (b *CredentialBuilder) WithExpiry(t time.Time) *CredentialBuilder {
	b.cred.ExpiryDate = &t
	return b
}

func (b *CredentialBuilder) WithData(data map[string]any) *CredentialBuilder {
	b.cred.Data = data
	return b
}

func (b *CredentialBuilder) Build() credential.Credential {
	return b.cred
}
