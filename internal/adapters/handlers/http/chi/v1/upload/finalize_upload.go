package upload

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1FinalizeRequest is the optional finalize body. TotalParts, when set,
// is cross-checked against the part count the session was opened with.
type V1FinalizeRequest struct {
	MimeType   string `json:"mime_type"`
	TotalParts int    `json:"total_parts"`
}

// V1FinalizeResponse is the committed object returned once assembly succeeds
type V1FinalizeResponse struct {
	FileID uuid.UUID `json:"file_id"`
	Name   string    `json:"name"`
	Size   int64     `json:"size_bytes"`
	Digest string    `json:"digest"`
}

func (h *HandlerV1) FinalizeUploadV1(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	uuidSession, parseErr := uuid.Parse(uploadID)
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, domain.ErrInvalidUploadID)
		return
	}

	var req V1FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("error decoding finalize request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	obj, err := h.uploadService.Finalize(r.Context(), uuidSession, req.MimeType, req.TotalParts)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrInvalidTotalParts):
		respondError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, domain.ErrChunkIncomplete):
		respondError(w, http.StatusConflict, err)
		return
	case errors.Is(err, domain.ErrFinalizeInProgress):
		respondError(w, http.StatusConflict, err)
		return
	case errors.Is(err, domain.ErrSessionTerminal):
		respondError(w, http.StatusGone, err)
		return
	case errors.Is(err, domain.ErrChecksumMismatch), errors.Is(err, domain.ErrNameConflict):
		respondError(w, http.StatusConflict, err)
		return
	case err != nil:
		h.logger.Error("error finalizing upload", "error", err, "upload_id", uuidSession)
		respondError(w, http.StatusServiceUnavailable, err)
		return
	case obj == nil:
		http.Error(w, "file object is nil", http.StatusInternalServerError)
		return
	default:
		resp := V1FinalizeResponse{
			FileID: obj.ID,
			Name:   obj.Name,
			Size:   obj.Size,
			Digest: obj.Digest,
		}
		respondJSON(w, h.logger, http.StatusCreated, resp)
		return
	}
}
