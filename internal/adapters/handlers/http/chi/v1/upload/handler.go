package upload

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 upload routes
type HandlerV1 struct {
	uploadService port.UploadService
	logger        *slog.Logger
}

// NewUploadHandlerV1 creates HandlerV1
func NewUploadHandlerV1(service port.UploadService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		uploadService: service,
		logger:        logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", h.OpenUploadV1)
	router.Get("/{uploadID}", h.GetStatusV1)
	router.Put("/{uploadID}/parts/{partNumber}", h.UploadPartV1)
	router.Post("/{uploadID}/finalize", h.FinalizeUploadV1)
	router.Delete("/{uploadID}", h.CancelUploadV1)

	return router
}

// V1ErrorResponse carries the stable error code alongside the message
type V1ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(V1ErrorResponse{
		Code:  domain.CodeOf(err),
		Error: err.Error(),
	})
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("error encoding response", "error", err)
	}
}
