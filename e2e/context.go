package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Request targets accepted by POST and GET.
const (
	Issuance     = "issuance"
	Verification = "verification"
)

// TestContext holds state between test steps
type TestContext struct {
	IssuanceURL      string
	VerificationURL  string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	stack *stack
}

// NewTestContext starts an in-process stack unless both service URLs are set
// in the environment.
func NewTestContext() (*TestContext, error) {
	tc := &TestContext{
		IssuanceURL:     os.Getenv("ISSUANCE_URL"),
		VerificationURL: os.Getenv("VERIFICATION_URL"),
		HTTPClient:      &http.Client{Timeout: 10 * time.Second},
	}
	if tc.IssuanceURL == "" || tc.VerificationURL == "" {
		st, err := startStack()
		if err != nil {
			return nil, err
		}
		tc.stack = st
		tc.IssuanceURL = st.issuance.URL
		tc.VerificationURL = st.verification.URL
	}
	return tc, nil
}

// Close stops the in-process stack, if any.
func (tc *TestContext) Close() {
	if tc.stack != nil {
		tc.stack.close()
		tc.stack = nil
	}
}

func (tc *TestContext) baseURL(target string) string {
	if target == Verification {
		return tc.VerificationURL
	}
	return tc.IssuanceURL
}

// POST sends body as JSON and stores the response
func (tc *TestContext) POST(target string, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.POSTRaw(target, path, string(data))
}

// POSTRaw sends body verbatim, which lets features send malformed JSON
func (tc *TestContext) POSTRaw(target string, path, body string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tc.baseURL(target)+path, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(target string, path string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, tc.baseURL(target)+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a field from the JSON response. Dotted paths
// such as "credential.holderName" descend into objects.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for _, key := range strings.Split(field, ".") {
		obj, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
		if data, ok = obj[key]; !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
	}
	return data, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	if bytes.Contains(tc.LastResponseBody, []byte(text)) {
		return true
	}
	_, err := tc.GetResponseField(text)
	return err == nil
}

// IssuanceRequests counts requests the in-process issuance service received.
// It is -1 when running against a deployed stack.
func (tc *TestContext) IssuanceRequests() int64 {
	if tc.stack == nil {
		return -1
	}
	return tc.stack.issuanceHits.Load()
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}
