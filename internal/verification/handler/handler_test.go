package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kubecred/internal/verification/handler/mocks"
	"kubecred/internal/verification/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/credential"
	"kubecred/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	now     time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.service.EXPECT().WorkerID().Return("verifier-1").AnyTimes()
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), s.now)))
		})
	})
	s.router.Get("/", h.HandleIndex)
	s.router.Route("/api", h.Register)
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const presentedBody = `{
	"id": "cred-john-doe-degree-1a2b3c4d",
	"holderName": "John Doe",
	"credentialType": "Degree",
	"issueDate": "2026-01-01T00:00:00Z",
	"expiryDate": "2030-01-01",
	"data": {"gpa": 3.9}
}`

func (s *HandlerSuite) TestVerifyValid() {
	issuedAt := s.now.Add(-time.Hour)
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cred credential.Credential) (*models.VerifyResult, error) {
			s.Equal("cred-john-doe-degree-1a2b3c4d", cred.ID)
			s.Equal("John Doe", cred.HolderName)
			s.Require().NotNil(cred.ExpiryDate)
			s.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), *cred.ExpiryDate)
			s.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), cred.IssueDate)
			s.Equal(map[string]any{"gpa": 3.9}, cred.Data)
			return &models.VerifyResult{
				Valid:             true,
				Result:            models.ResultValid,
				Message:           models.MessageValid,
				WorkerID:          "verifier-1",
				Timestamp:         s.now,
				IssuanceWorkerID:  "worker-123",
				IssuanceTimestamp: &issuedAt,
				Credential:        cred,
			}, nil
		})

	rec := s.do(http.MethodPost, "/api/verify", presentedBody)

	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal(true, body["success"])
	s.Equal(true, body["valid"])
	s.Equal("Credential is valid", body["message"])
	s.Equal("verifier-1", body["workerId"])
	s.Equal("worker-123", body["issuanceWorkerId"])
	s.Equal("2026-05-01T07:00:00Z", body["issuanceTimestamp"])
	s.NotContains(body, "reason")
	s.Contains(body, "credential")
}

func (s *HandlerSuite) TestVerifyInvalidStillAnswers200() {
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(&models.VerifyResult{
		Result:    models.ResultInvalid,
		Reason:    models.ReasonUpstreamTimeout,
		Message:   models.MessageNotValid,
		WorkerID:  "verifier-1",
		Timestamp: s.now,
	}, nil)

	rec := s.do(http.MethodPost, "/api/verify", presentedBody)

	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal(true, body["success"])
	s.Equal(false, body["valid"])
	s.Equal("Credential is not valid or does not exist", body["message"])
	s.Equal("upstream_timeout", body["reason"])
	s.NotContains(body, "issuanceWorkerId")
	s.NotContains(body, "credential")
}

func (s *HandlerSuite) TestVerifyMissingFields() {
	for _, body := range []string{
		`{"holderName":"John Doe","credentialType":"Degree"}`,
		`{"id":"cred-1","credentialType":"Degree"}`,
		`{"id":"cred-1","holderName":"  ","credentialType":"Degree"}`,
		`{}`,
	} {
		rec := s.do(http.MethodPost, "/api/verify", body)

		s.Equal(http.StatusBadRequest, rec.Code, body)
		resp := s.decode(rec)
		s.Equal(false, resp["success"])
		s.Equal(false, resp["valid"])
		s.Equal("Credential must include id, holderName, and credentialType", resp["message"])
		s.Equal("verifier-1", resp["workerId"])
		s.Equal("2026-05-01T08:00:00Z", resp["timestamp"])
	}
}

func (s *HandlerSuite) TestVerifyBadDate() {
	rec := s.do(http.MethodPost, "/api/verify",
		`{"id":"cred-1","holderName":"John","credentialType":"Degree","expiryDate":"next tuesday"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("expiryDate must be an ISO 8601 date or timestamp", s.decode(rec)["message"])
}

func (s *HandlerSuite) TestVerifyMalformedJSON() {
	rec := s.do(http.MethodPost, "/api/verify", `{"id":`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(false, s.decode(rec)["success"])
}

func (s *HandlerSuite) TestVerifyFailure() {
	s.service.EXPECT().Verify(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "Failed to verify credential"))

	rec := s.do(http.MethodPost, "/api/verify", presentedBody)

	s.Equal(http.StatusInternalServerError, rec.Code)
	body := s.decode(rec)
	s.Equal(false, body["success"])
	s.Equal(false, body["valid"])
	s.Equal("Failed to verify credential", body["message"])
}

func (s *HandlerSuite) TestHistory() {
	records := []*models.VerificationRecord{
		{ID: "b", CredentialID: "cred-1", WorkerID: "verifier-1", Timestamp: s.now, VerificationResult: models.ResultValid},
		{ID: "a", CredentialID: "cred-1", WorkerID: "verifier-2", Timestamp: s.now.Add(-time.Minute), VerificationResult: models.ResultInvalid},
	}
	s.service.EXPECT().History(gomock.Any(), "cred-1").Return(records, nil)

	rec := s.do(http.MethodGet, "/api/verifications/cred-1", "")

	s.Equal(http.StatusOK, rec.Code)
	var body HistoryResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.Success)
	s.Equal(2, body.Count)
	s.Equal("b", body.Verifications[0].ID)
}

func (s *HandlerSuite) TestHistoryEmptyIsArray() {
	s.service.EXPECT().History(gomock.Any(), "cred-x").Return(nil, nil)

	rec := s.do(http.MethodGet, "/api/verifications/cred-x", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"verifications":[]`)
}

func (s *HandlerSuite) TestIndex() {
	rec := s.do(http.MethodGet, "/", "")

	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal(ServiceName, body["service"])
	s.Equal("verifier-1", body["workerId"])
}
