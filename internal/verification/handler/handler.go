package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kubecred/internal/verification/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/credential"
	"kubecred/pkg/platform/httputil"
	"kubecred/pkg/requestcontext"
)

// ServiceName is reported by the health and index endpoints.
const ServiceName = "credential-verification"

// Service defines the verification operations used by the handler.
type Service interface {
	Verify(ctx context.Context, cred credential.Credential) (*models.VerifyResult, error)
	History(ctx context.Context, credentialID string) ([]*models.VerificationRecord, error)
	WorkerID() string
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification routes under /api.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.HandleVerify)
	r.Get("/verifications/{credentialId}", h.HandleHistory)
}

// HandleIndex serves GET /.
func (h *Handler) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, IndexResponse{
		Service:  ServiceName,
		WorkerID: h.service.WorkerID(),
		Endpoints: []string{
			"GET /api/health",
			"POST /api/verify",
			"GET /api/verifications/{credentialId}",
		},
	})
}

// HandleVerify handles POST /api/verify. Every verdict, valid or not, answers
// 200; only a malformed request or a failure to log the attempt does not.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := httputil.PrepareRequest(req); err != nil {
		h.logger.WarnContext(ctx, "invalid verification request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteJSON(w, http.StatusBadRequest, VerifyResponse{
			Message:   err.Error(),
			WorkerID:  h.service.WorkerID(),
			Timestamp: requestcontext.Now(ctx),
		})
		return
	}

	result, err := h.service.Verify(ctx, req.Credential())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify credential",
			"request_id", requestID,
			"credential_id", req.ID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, VerifyResponse{
			Message:   "Failed to verify credential",
			WorkerID:  h.service.WorkerID(),
			Timestamp: requestcontext.Now(ctx),
		})
		return
	}

	resp := VerifyResponse{
		Success:           true,
		Valid:             result.Valid,
		Message:           result.Message,
		WorkerID:          result.WorkerID,
		Timestamp:         result.Timestamp,
		Reason:            result.Reason,
		IssuanceWorkerID:  result.IssuanceWorkerID,
		IssuanceTimestamp: result.IssuanceTimestamp,
	}
	if result.Valid {
		resp.Credential = &result.Credential
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleHistory handles GET /api/verifications/{credentialId}.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	credentialID := chi.URLParam(r, "credentialId")
	if credentialID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "credential id is required"))
		return
	}

	records, err := h.service.History(ctx, credentialID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load verification history",
			"request_id", requestcontext.RequestID(ctx),
			"credential_id", credentialID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*models.VerificationRecord{}
	}

	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{
		Success:       true,
		CredentialID:  credentialID,
		Count:         len(records),
		Verifications: records,
	})
}
