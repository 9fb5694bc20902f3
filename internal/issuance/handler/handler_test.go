package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
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

	"kubecred/internal/issuance/handler/mocks"
	"kubecred/internal/issuance/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/credential"
	"kubecred/pkg/platform/httputil"
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
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.router.Get("/", h.HandleIndex)
	s.router.Route("/api", h.Register)
	s.now = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
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

func (s *HandlerSuite) result(alreadyIssued bool, worker string) *models.IssueResult {
	return &models.IssueResult{
		Credential: credential.Credential{
			ID:             "cred-john-doe-driver-license-1a2b3c4d",
			HolderName:     "John Doe",
			CredentialType: "Driver License",
			IssueDate:      s.now,
		},
		WorkerID:      worker,
		Timestamp:     s.now,
		AlreadyIssued: alreadyIssued,
	}
}

func (s *HandlerSuite) TestIssueCreated() {
	s.service.EXPECT().Issue(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, cmd models.IssueCommand) (*models.IssueResult, error) {
			s.Equal("John Doe", cmd.HolderName)
			s.Equal("Driver License", cmd.CredentialType)
			s.Require().NotNil(cmd.ExpiryDate)
			s.Equal(time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC), *cmd.ExpiryDate)
			s.Equal(map[string]any{"class": "B"}, cmd.Data)
			return s.result(false, "worker-1"), nil
		})

	rec := s.do(http.MethodPost, "/api/credentials",
		`{"holderName":"  John Doe ","credentialType":"Driver License","expiryDate":"2030-12-31","data":{"class":"B"}}`)

	s.Equal(http.StatusCreated, rec.Code)
	var body IssueResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.Success)
	s.False(body.AlreadyIssued)
	s.Equal("Credential issued by worker-1", body.Message)
	s.Equal("John Doe", body.Credential.HolderName)
	s.Equal("worker-1", body.WorkerID)
}

func (s *HandlerSuite) TestIssueAlreadyIssued() {
	s.service.EXPECT().Issue(gomock.Any(), gomock.Any()).Return(s.result(true, "worker-original"), nil)

	rec := s.do(http.MethodPost, "/api/credentials", `{"holderName":"John Doe","credentialType":"Driver License"}`)

	s.Equal(http.StatusOK, rec.Code)
	var body IssueResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.AlreadyIssued)
	s.Equal("worker-original", body.WorkerID)
	s.Equal("Credential already issued by worker-original", body.Message)
}

func (s *HandlerSuite) TestIssueRejectsMissingFields() {
	for _, payload := range []string{
		`{"credentialType":"Degree"}`,
		`{"holderName":"John"}`,
		`{"holderName":"   ","credentialType":"Degree"}`,
		`{}`,
	} {
		rec := s.do(http.MethodPost, "/api/credentials", payload)
		s.Equal(http.StatusBadRequest, rec.Code, payload)
		s.JSONEq(`{"success":false,"message":"holderName and credentialType are required"}`, rec.Body.String())
	}
}

func (s *HandlerSuite) TestIssueRejectsBadInput() {
	s.Run("malformed json", func() {
		rec := s.do(http.MethodPost, "/api/credentials", `{"holderName":`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unparseable expiry", func() {
		rec := s.do(http.MethodPost, "/api/credentials", `{"holderName":"A","credentialType":"B","expiryDate":"someday"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestIssueStoreFailure() {
	s.service.EXPECT().Issue(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(errors.New("disk full"), dErrors.CodeInternal, "Failed to issue credential"))

	rec := s.do(http.MethodPost, "/api/credentials", `{"holderName":"John Doe","credentialType":"Degree"}`)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.JSONEq(`{"success":false,"message":"Failed to issue credential"}`, rec.Body.String())
}

func (s *HandlerSuite) TestGet() {
	s.Run("found", func() {
		rec := models.NewRecord("cred-a-b-12345678", models.IssueCommand{HolderName: "A", CredentialType: "B"}, "worker-9", s.now)
		s.service.EXPECT().Get(gomock.Any(), "cred-a-b-12345678").Return(rec, nil)

		resp := s.do(http.MethodGet, "/api/credentials/cred-a-b-12345678", "")
		s.Equal(http.StatusOK, resp.Code)
		var body CredentialResponse
		s.Require().NoError(json.Unmarshal(resp.Body.Bytes(), &body))
		s.True(body.Success)
		s.Equal("cred-a-b-12345678", body.Credential.ID)
		s.Equal("worker-9", body.WorkerID)
		s.Equal(models.StatusIssued, body.Status)
	})

	s.Run("not found", func() {
		s.service.EXPECT().Get(gomock.Any(), "does-not-exist").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Credential not found"))

		resp := s.do(http.MethodGet, "/api/credentials/does-not-exist", "")
		s.Equal(http.StatusNotFound, resp.Code)
		var body httputil.FailureResponse
		s.Require().NoError(json.Unmarshal(resp.Body.Bytes(), &body))
		s.False(body.Success)
		s.Equal("Credential not found", body.Message)
	})
}

func (s *HandlerSuite) TestList() {
	older := models.NewRecord("cred-old", models.IssueCommand{HolderName: "A", CredentialType: "B"}, "w", s.now.Add(-time.Hour))
	newer := models.NewRecord("cred-new", models.IssueCommand{HolderName: "C", CredentialType: "D"}, "w", s.now)
	s.service.EXPECT().List(gomock.Any()).Return([]*models.IssuanceRecord{newer, older}, nil)

	resp := s.do(http.MethodGet, "/api/credentials", "")
	s.Equal(http.StatusOK, resp.Code)
	var body ListResponse
	s.Require().NoError(json.Unmarshal(resp.Body.Bytes(), &body))
	s.Equal(2, body.Count)
	s.Equal("cred-new", body.Credentials[0].Credential.ID)
	s.Equal("cred-old", body.Credentials[1].Credential.ID)
}

func (s *HandlerSuite) TestIndex() {
	s.service.EXPECT().WorkerID().Return("worker-1")

	resp := s.do(http.MethodGet, "/", "")
	s.Equal(http.StatusOK, resp.Code)
	var body IndexResponse
	s.Require().NoError(json.Unmarshal(resp.Body.Bytes(), &body))
	s.Equal(ServiceName, body.Service)
	s.Contains(body.Endpoints, "POST /api/credentials")
}
