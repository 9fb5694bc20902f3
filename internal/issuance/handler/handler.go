package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kubecred/internal/issuance/models"
	dErrors "kubecred/pkg/domain-errors"
	"kubecred/pkg/platform/httputil"
	"kubecred/pkg/requestcontext"
)

// ServiceName is reported by the health and index endpoints.
const ServiceName = "credential-issuance"

// Service defines the issuance operations used by the handler.
type Service interface {
	Issue(ctx context.Context, cmd models.IssueCommand) (*models.IssueResult, error)
	Get(ctx context.Context, id string) (*models.IssuanceRecord, error)
	List(ctx context.Context) ([]*models.IssuanceRecord, error)
	WorkerID() string
}

// Handler wires issuance endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the credential routes under /api.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.HandleIssue)
	r.Get("/credentials", h.HandleList)
	r.Get("/credentials/{id}", h.HandleGet)
}

// HandleIndex serves GET /.
func (h *Handler) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, IndexResponse{
		Service:  ServiceName,
		WorkerID: h.service.WorkerID(),
		Endpoints: []string{
			"GET /api/health",
			"POST /api/credentials",
			"GET /api/credentials",
			"GET /api/credentials/{id}",
		},
	})
}

// HandleIssue handles POST /api/credentials. A new credential answers 201, a
// repeat of an existing one answers 200 with alreadyIssued set.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Issue(ctx, req.Command())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	message := fmt.Sprintf("Credential issued by %s", result.WorkerID)
	if result.AlreadyIssued {
		status = http.StatusOK
		message = fmt.Sprintf("Credential already issued by %s", result.WorkerID)
	}

	httputil.WriteJSON(w, status, IssueResponse{
		Success:       true,
		Message:       message,
		Credential:    result.Credential,
		WorkerID:      result.WorkerID,
		Timestamp:     result.Timestamp,
		AlreadyIssued: result.AlreadyIssued,
	})
}

// HandleGet handles GET /api/credentials/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "credential id is required"))
		return
	}

	rec, err := h.service.Get(ctx, id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to get credential",
				"request_id", requestcontext.RequestID(ctx),
				"credential_id", id,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CredentialResponse{
		Success:    true,
		Credential: rec.Credential,
		WorkerID:   rec.WorkerID,
		Timestamp:  rec.Timestamp,
		Status:     rec.Status,
	})
}

// HandleList handles GET /api/credentials.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list credentials",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, RecordResponse{
			Credential: rec.Credential,
			WorkerID:   rec.WorkerID,
			Timestamp:  rec.Timestamp,
			Status:     rec.Status,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Success:     true,
		Count:       len(out),
		Credentials: out,
	})
}
