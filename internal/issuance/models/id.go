package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"kubecred/pkg/credential"
	s "kubecred/pkg/string"
)

// IDGenerator derives the credential id for an issuance.
type IDGenerator interface {
	Generate(cmd IssueCommand) (string, error)
}

// NewIDGenerator returns the generator for a strategy name.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", "deterministic":
		return DeterministicIDs{}, nil
	case "random":
		return RandomIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}

func candidatePrefix(cmd IssueCommand) string {
	return "cred-" + s.Slugify(cmd.HolderName) + "-" + s.Slugify(cmd.CredentialType)
}

// DeterministicIDs suffixes the id with the first 8 hex characters of a
// SHA-256 over holder, type, expiry and the canonical JSON of data, so the
// same tuple always maps to the same id.
type DeterministicIDs struct{}

func (DeterministicIDs) Generate(cmd IssueCommand) (string, error) {
	data := []byte("{}")
	if len(cmd.Data) > 0 {
		// encoding/json sorts map keys, which makes the encoding canonical.
		encoded, err := json.Marshal(cmd.Data)
		if err != nil {
			return "", fmt.Errorf("encode credential data: %w", err)
		}
		data = encoded
	}

	h := sha256.New()
	for _, part := range [][]byte{
		[]byte(cmd.HolderName),
		[]byte(cmd.CredentialType),
		[]byte(credential.FormatTime(cmd.ExpiryDate)),
		data,
	} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return candidatePrefix(cmd) + "-" + hex.EncodeToString(h.Sum(nil))[:8], nil
}

// RandomIDs suffixes the id with 8 random hex characters. Repeat issuance of
// the same tuple never collides, so deduplication only happens on an explicit
// id clash.
type RandomIDs struct{}

func (RandomIDs) Generate(cmd IssueCommand) (string, error) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return candidatePrefix(cmd) + "-" + suffix, nil
}
