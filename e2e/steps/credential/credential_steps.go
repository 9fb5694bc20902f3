package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(target, path string, body any) error
	GET(target, path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	IssuanceRequests() int64
}

// RegisterSteps registers issuance and verification step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &credentialSteps{tc: tc}

	// Issuance steps
	ctx.Step(`^I issue a "([^"]*)" credential for "([^"]*)"$`, steps.issue)
	ctx.Step(`^I issue a "([^"]*)" credential for "([^"]*)" expiring "([^"]*)"$`, steps.issueExpiring)
	ctx.Step(`^I save the issued credential$`, steps.saveIssued)
	ctx.Step(`^I issue the saved credential again$`, steps.reissueSaved)
	ctx.Step(`^I get the saved credential$`, steps.getSaved)
	ctx.Step(`^I save the credential payload$`, steps.savePayload)

	// Verification steps
	ctx.Step(`^I verify the saved credential$`, steps.verifySaved)
	ctx.Step(`^I verify the saved credential presented with id "([^"]*)"$`, steps.verifySavedWithID)
	ctx.Step(`^I verify a "([^"]*)" credential for "([^"]*)" that expired (\d+) days? ago$`, steps.verifyExpired)
	ctx.Step(`^I request the verification history of the saved credential$`, steps.history)

	// Assertion steps
	ctx.Step(`^the credential id should equal the saved credential id$`, steps.idShouldEqualSaved)
	ctx.Step(`^the response field "([^"]*)" should equal the saved worker id$`, steps.fieldShouldEqualSavedWorker)
	ctx.Step(`^the timestamp should equal the saved timestamp$`, steps.timestampShouldEqualSaved)
	ctx.Step(`^the credential payload should be identical to the saved payload$`, steps.payloadShouldBeIdentical)
	ctx.Step(`^the issuance service should not have been called$`, steps.issuanceNotCalled)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) entr(?:y|ies)$`, steps.fieldShouldHaveEntries)
}

type credentialSteps struct {
	tc          TestContext
	saved       map[string]any
	savedWorker string
	savedTime   string
	payload     []byte
}

func (s *credentialSteps) issue(ctx context.Context, credentialType, holder string) error {
	return s.tc.POST("issuance", "/api/credentials", map[string]any{
		"holderName":     holder,
		"credentialType": credentialType,
	})
}

func (s *credentialSteps) issueExpiring(ctx context.Context, credentialType, holder, expiry string) error {
	return s.tc.POST("issuance", "/api/credentials", map[string]any{
		"holderName":     holder,
		"credentialType": credentialType,
		"expiryDate":     expiry,
	})
}

func (s *credentialSteps) saveIssued(ctx context.Context) error {
	cred, err := s.tc.GetResponseField("credential")
	if err != nil {
		return err
	}
	obj, ok := cred.(map[string]any)
	if !ok {
		return fmt.Errorf("credential is not an object: %v", cred)
	}
	s.saved = obj

	worker, err := s.tc.GetResponseField("workerId")
	if err != nil {
		return err
	}
	s.savedWorker = fmt.Sprintf("%v", worker)

	ts, err := s.tc.GetResponseField("timestamp")
	if err != nil {
		return err
	}
	s.savedTime = fmt.Sprintf("%v", ts)
	return nil
}

func (s *credentialSteps) requireSaved() error {
	if s.saved == nil {
		return fmt.Errorf("no credential saved")
	}
	return nil
}

func (s *credentialSteps) reissueSaved(ctx context.Context) error {
	if err := s.requireSaved(); err != nil {
		return err
	}
	body := map[string]any{
		"holderName":     s.saved["holderName"],
		"credentialType": s.saved["credentialType"],
	}
	if expiry, ok := s.saved["expiryDate"]; ok {
		body["expiryDate"] = expiry
	}
	if data, ok := s.saved["data"]; ok {
		body["data"] = data
	}
	return s.tc.POST("issuance", "/api/credentials", body)
}

func (s *credentialSteps) savedID() string {
	return fmt.Sprintf("%v", s.saved["id"])
}

func (s *credentialSteps) getSaved(ctx context.Context) error {
	if err := s.requireSaved(); err != nil {
		return err
	}
	return s.tc.GET("issuance", "/api/credentials/"+url.PathEscape(s.savedID()))
}

func (s *credentialSteps) savePayload(ctx context.Context) error {
	payload, err := s.credentialPayload()
	if err != nil {
		return err
	}
	s.payload = payload
	return nil
}

func (s *credentialSteps) credentialPayload() ([]byte, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	raw, ok := body["credential"]
	if !ok {
		return nil, fmt.Errorf("response has no credential")
	}
	return raw, nil
}

func (s *credentialSteps) verifySaved(ctx context.Context) error {
	if err := s.requireSaved(); err != nil {
		return err
	}
	return s.tc.POST("verification", "/api/verify", s.saved)
}

func (s *credentialSteps) verifySavedWithID(ctx context.Context, id string) error {
	if err := s.requireSaved(); err != nil {
		return err
	}
	presented := make(map[string]any, len(s.saved))
	for k, v := range s.saved {
		presented[k] = v
	}
	presented["id"] = id
	return s.tc.POST("verification", "/api/verify", presented)
}

func (s *credentialSteps) verifyExpired(ctx context.Context, credentialType, holder string, days int) error {
	now := time.Now().UTC()
	return s.tc.POST("verification", "/api/verify", map[string]any{
		"id":             "cred-expired-e2e",
		"holderName":     holder,
		"credentialType": credentialType,
		"issueDate":      now.AddDate(-2, 0, 0).Format(time.RFC3339),
		"expiryDate":     now.AddDate(0, 0, -days).Format(time.RFC3339),
	})
}

func (s *credentialSteps) history(ctx context.Context) error {
	if err := s.requireSaved(); err != nil {
		return err
	}
	return s.tc.GET("verification", "/api/verifications/"+url.PathEscape(s.savedID()))
}

func (s *credentialSteps) idShouldEqualSaved(ctx context.Context) error {
	id, err := s.tc.GetResponseField("credential.id")
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", id) != s.savedID() {
		return fmt.Errorf("expected credential id %s but got %v", s.savedID(), id)
	}
	return nil
}

func (s *credentialSteps) fieldShouldEqualSavedWorker(ctx context.Context, field string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", value) != s.savedWorker {
		return fmt.Errorf("expected %s to equal %s but got %v", field, s.savedWorker, value)
	}
	return nil
}

func (s *credentialSteps) timestampShouldEqualSaved(ctx context.Context) error {
	value, err := s.tc.GetResponseField("timestamp")
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", value) != s.savedTime {
		return fmt.Errorf("expected timestamp %s but got %v", s.savedTime, value)
	}
	return nil
}

func (s *credentialSteps) payloadShouldBeIdentical(ctx context.Context) error {
	payload, err := s.credentialPayload()
	if err != nil {
		return err
	}
	if !bytes.Equal(payload, s.payload) {
		return fmt.Errorf("credential payload changed:\nfirst:  %s\nsecond: %s", s.payload, payload)
	}
	return nil
}

func (s *credentialSteps) issuanceNotCalled(ctx context.Context) error {
	switch n := s.tc.IssuanceRequests(); {
	case n < 0:
		return godog.ErrPending
	case n > 0:
		return fmt.Errorf("issuance service received %d requests", n)
	}
	return nil
}

func (s *credentialSteps) fieldShouldHaveEntries(ctx context.Context, field string, count int) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	list, ok := value.([]any)
	if !ok {
		return fmt.Errorf("field %s is not a list: %v", field, value)
	}
	if len(list) != count {
		return fmt.Errorf("expected %d entries in %s but got %d", count, field, len(list))
	}
	return nil
}
