package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"valido/internal/screening"
	"valido/pkg/platform/httputil"
	"valido/pkg/requestcontext"
)

// Service defines the interface for screening operations.
type Service interface {
	Screen(ctx context.Context, kind, value string) (*screening.Result, error)
}

// Handler wires identifier screening endpoints to the screening service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a screening handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts screening endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/screening/identifiers", h.HandleScreen)
}

// HandleScreen handles POST /screening/identifiers requests.
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ScreenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Screen(ctx, req.Kind, req.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "identifier screening failed",
			"request_id", requestID,
			"kind", req.Kind,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identifier screened",
		"request_id", requestID,
		"kind", result.Kind,
		"valid", result.Valid,
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}
