package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"valido/internal/validation"
	"valido/pkg/platform/httputil"
	"valido/pkg/requestcontext"
)

// Service defines the interface for validation operations.
type Service interface {
	ValidateFile(ctx context.Context, fileType string, lines []string) (*validation.Report, error)
	Schemas() []validation.SchemaInfo
}

// Handler wires file validation endpoints to the validation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a validation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts validation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/files/validate", h.HandleValidate)
	r.Get("/files/schemas", h.HandleSchemas)
}

// HandleValidate handles POST /files/validate requests.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.ValidateFile(ctx, req.FileType, req.ParsedLines())
	if err != nil {
		h.logger.ErrorContext(ctx, "file validation failed",
			"request_id", requestID,
			"file_type", req.FileType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "file validated",
		"request_id", requestID,
		"file_type", req.FileType,
		"run_id", report.RunID,
		"valid", report.Result.Valid,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromReport(report))
}

// HandleSchemas handles GET /files/schemas requests.
func (h *Handler) HandleSchemas(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, SchemasResponse{Schemas: h.service.Schemas()})
}
