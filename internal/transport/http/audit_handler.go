package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "certaudit/internal/errors"
	"certaudit/internal/services"
	"certaudit/internal/validation"
)

// AuditHandler handles audit requests
type AuditHandler struct {
	service      AuditRunner
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(service AuditRunner, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *AuditHandler {
	return &AuditHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "audit_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the audit routes
func (h *AuditHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.RunAudit)
	return r
}

// AuditRequest is the body of POST /api/audits.
type AuditRequest struct {
	services.AuditRequest
}

// Bind implements render.Binder; folder names are trimmed.
func (a *AuditRequest) Bind(r *http.Request) error {
	a.Folders = trimAll(a.Folders)
	return validation.Struct(a.AuditRequest)
}

// RunAudit handles POST /api/audits
func (h *AuditHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	req := &AuditRequest{}
	if err := render.Bind(r, req); err != nil {
		h.errorHandler.HandleError(w, r, bindError(err))
		return
	}

	summary, err := h.service.Run(r.Context(), req.AuditRequest)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "audit served",
		slog.String("run_id", summary.RunID),
		slog.Int("errors", summary.Errors))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// bindError keeps validation failures and wraps decoding failures.
func bindError(err error) error {
	var apiErr *apperrors.APIError
	if apperrors.As(err, &apiErr) {
		return apiErr
	}
	return apperrors.InvalidRequestWithError(err)
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
