package upload

import (
	"errors"
	"net/http"
	"time"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1UploadStatusResponse is the resume view of a session
type V1UploadStatusResponse struct {
	UploadID      uuid.UUID `json:"upload_id"`
	Status        string    `json:"status"`
	TotalParts    int       `json:"total_parts"`
	UploadedParts []int     `json:"uploaded_parts"`
	MissingParts  []int     `json:"missing_parts"`
	UploadedBytes int64     `json:"uploaded_bytes"`
	ExpiresIn     int64     `json:"expires_in_seconds"`
}

func (h *HandlerV1) GetStatusV1(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	uuidSession, parseErr := uuid.Parse(uploadID)
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, domain.ErrInvalidUploadID)
		return
	}

	status, err := h.uploadService.Status(r.Context(), uuidSession)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err)
		return
	case err != nil:
		h.logger.Error("error getting upload status", "error", err, "upload_id", uuidSession)
		respondError(w, http.StatusServiceUnavailable, err)
		return
	case status == nil:
		http.Error(w, "upload status is nil", http.StatusInternalServerError)
		return
	default:
		resp := V1UploadStatusResponse{
			UploadID:      uuidSession,
			Status:        string(status.Status),
			TotalParts:    status.TotalParts,
			UploadedParts: status.UploadedParts,
			MissingParts:  status.MissingParts,
			UploadedBytes: status.UploadedBytes,
			ExpiresIn:     int64(status.ExpiresIn / time.Second),
		}
		respondJSON(w, h.logger, http.StatusOK, resp)
		return
	}
}
