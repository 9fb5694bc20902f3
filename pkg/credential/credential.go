// Package credential holds the credential shape shared by the issuance and
// verification services.
package credential

import (
	"fmt"
	"strings"
	"time"
)

// Credential is the issued artifact. Its id is derived at issuance and never changes.
type Credential struct {
	ID             string         `json:"id"`
	HolderName     string         `json:"holderName"`
	CredentialType string         `json:"credentialType"`
	IssueDate      time.Time      `json:"issueDate"`
	ExpiryDate     *time.Time     `json:"expiryDate,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

// ExpiredAt reports whether the credential has an expiry strictly before now.
// A credential without an expiry never expires.
func (c Credential) ExpiredAt(now time.Time) bool {
	return c.ExpiryDate != nil && c.ExpiryDate.Before(now)
}

// Normalize returns t in UTC with microsecond precision, the resolution every
// store can round-trip.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseTime accepts RFC 3339 timestamps and the date/datetime-local values a
// browser form submits. An empty string yields nil.
func ParseTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			n := Normalize(t)
			return &n, nil
		}
	}
	return nil, fmt.Errorf("invalid timestamp %q", value)
}

// FormatTime renders an optional time the way it is sent on the wire.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
