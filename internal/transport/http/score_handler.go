package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "certaudit/internal/errors"
	"certaudit/internal/services"
	"certaudit/internal/validation"
)

// ScoreHandler handles supplier scoring requests
type ScoreHandler struct {
	service      Scorer
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(service Scorer, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ScoreHandler {
	return &ScoreHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "score_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the score routes
func (h *ScoreHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Score)
	return r
}

// ScoreRequest is the body of POST /api/scores.
type ScoreRequest struct {
	services.ScoreRequest
}

// Bind implements render.Binder
func (s *ScoreRequest) Bind(r *http.Request) error {
	s.Folders = trimAll(s.Folders)
	return validation.Struct(s.ScoreRequest)
}

// Score handles POST /api/scores
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	req := &ScoreRequest{}
	if err := render.Bind(r, req); err != nil {
		h.errorHandler.HandleError(w, r, bindError(err))
		return
	}

	summary, err := h.service.Score(r.Context(), req.ScoreRequest)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}
