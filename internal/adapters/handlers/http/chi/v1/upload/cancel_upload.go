package upload

import (
	"errors"
	"net/http"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *HandlerV1) CancelUploadV1(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	uuidSession, parseErr := uuid.Parse(uploadID)
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, domain.ErrInvalidUploadID)
		return
	}

	err := h.uploadService.Cancel(r.Context(), uuidSession)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrFinalizeInProgress):
		respondError(w, http.StatusConflict, err)
		return
	case errors.Is(err, domain.ErrSessionTerminal):
		respondError(w, http.StatusGone, err)
		return
	case err != nil:
		h.logger.Error("error cancelling upload", "error", err, "upload_id", uuidSession)
		respondError(w, http.StatusServiceUnavailable, err)
		return
	default:
		w.WriteHeader(http.StatusNoContent)
		return
	}
}
