package upload

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// V1OpenUploadRequest is the request to open an upload session
type V1OpenUploadRequest struct {
	OwnerID        uuid.UUID `json:"owner_id"`
	ParentID       uuid.UUID `json:"parent_id"`
	FileName       string    `json:"filename"`
	SizeBytes      int64     `json:"size_bytes"`
	PartSize       int64     `json:"part_size"`
	ChecksumSha256 string    `json:"checksum_sha256"`
	Overwrite      bool      `json:"overwrite"`
}

// V1OpenUploadResponse is the response to open an upload session
type V1OpenUploadResponse struct {
	UploadID   uuid.UUID           `json:"upload_id"`
	PartSize   int64               `json:"part_size"`
	TotalParts int                 `json:"total_parts"`
	ExpiresIn  int64               `json:"expires_in_seconds"`
	Policy     domain.UploadPolicy `json:"policy"`
}

func (h *HandlerV1) OpenUploadV1(w http.ResponseWriter, r *http.Request) {
	var req V1OpenUploadRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.logger.Error("error decoding open upload request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.OwnerID == uuid.Nil || req.FileName == "" || req.SizeBytes == 0 {
		http.Error(w, "missing param", http.StatusBadRequest)
		return
	}

	ticket, openErr := h.uploadService.Open(r.Context(), req.OwnerID, req.ParentID, req.FileName, req.SizeBytes, req.PartSize, req.ChecksumSha256, req.Overwrite)

	switch {
	case errors.Is(openErr, domain.ErrFileSizeTooBig),
		errors.Is(openErr, domain.ErrInvalidPartSize),
		errors.Is(openErr, domain.ErrInvalidTotalParts),
		errors.Is(openErr, domain.ErrChecksumMismatch):
		respondError(w, http.StatusBadRequest, openErr)
		return
	case errors.Is(openErr, domain.ErrNameConflict):
		respondError(w, http.StatusConflict, openErr)
		return
	case errors.Is(openErr, domain.ErrQuotaExceeded):
		respondError(w, http.StatusRequestEntityTooLarge, openErr)
		return
	case errors.Is(openErr, domain.ErrTooManySessions):
		respondError(w, http.StatusTooManyRequests, openErr)
		return
	case openErr != nil:
		h.logger.Error("error opening upload session", "error", openErr)
		respondError(w, http.StatusServiceUnavailable, openErr)
		return
	case ticket == nil:
		http.Error(w, "upload ticket is nil", http.StatusInternalServerError)
		return
	default:
		resp := V1OpenUploadResponse{
			UploadID:   ticket.UploadID,
			PartSize:   ticket.PartSize,
			TotalParts: ticket.TotalParts,
			ExpiresIn:  int64(ticket.ExpiresIn / time.Second),
			Policy:     ticket.Policy,
		}
		respondJSON(w, h.logger, http.StatusCreated, resp)
		return
	}
}
