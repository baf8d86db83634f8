package upload

import (
	"errors"
	"net/http"
	"strconv"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1UploadPartResponse acknowledges a stored part
type V1UploadPartResponse struct {
	UploadID   uuid.UUID `json:"upload_id"`
	PartNumber int       `json:"part_number"`
}

// UploadPartV1 receives one raw chunk body. The part number is 1-based and
// parts may arrive in any order; re-sending a part replaces it.
func (h *HandlerV1) UploadPartV1(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	uuidSession, parseErr := uuid.Parse(uploadID)
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, domain.ErrInvalidUploadID)
		return
	}

	partNumber, parseErr := strconv.Atoi(chi.URLParam(r, "partNumber"))
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, domain.ErrInvalidPartNumber)
		return
	}

	if r.ContentLength < 0 {
		http.Error(w, "Content-Length is required", http.StatusLengthRequired)
		return
	}

	err := h.uploadService.ReceivePart(r.Context(), uuidSession, partNumber, r.Body, r.ContentLength)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrInvalidPartNumber), errors.Is(err, domain.ErrPartSizeMismatch):
		respondError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, domain.ErrFinalizeInProgress):
		respondError(w, http.StatusConflict, err)
		return
	case errors.Is(err, domain.ErrSessionTerminal):
		respondError(w, http.StatusGone, err)
		return
	case err != nil:
		h.logger.Error("error receiving part", "error", err, "upload_id", uuidSession, "part_number", partNumber)
		respondError(w, http.StatusServiceUnavailable, err)
		return
	default:
		resp := V1UploadPartResponse{
			UploadID:   uuidSession,
			PartNumber: partNumber,
		}
		respondJSON(w, h.logger, http.StatusOK, resp)
		return
	}
}
