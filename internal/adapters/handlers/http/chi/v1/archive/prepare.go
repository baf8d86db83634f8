package archive

import (
	"encoding/json"
	"errors"
	"net/http"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// V1PrepareRequest is the request to queue a compress or extract job
type V1PrepareRequest struct {
	OwnerID    uuid.UUID   `json:"owner_id"`
	InputIDs   []uuid.UUID `json:"input_ids"`
	ParentID   uuid.UUID   `json:"parent_id"`
	TargetName string      `json:"target_name"`
}

// V1PrepareResponse returns the job id to poll
type V1PrepareResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

func (h *HandlerV1) CompressV1(w http.ResponseWriter, r *http.Request) {
	h.prepare(w, r, domain.ArchiveJobKindCompress)
}

func (h *HandlerV1) ExtractV1(w http.ResponseWriter, r *http.Request) {
	h.prepare(w, r, domain.ArchiveJobKindExtract)
}

func (h *HandlerV1) prepare(w http.ResponseWriter, r *http.Request, kind domain.ArchiveJobKind) {
	var req V1PrepareRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.logger.Error("error decoding archive request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.OwnerID == uuid.Nil || len(req.InputIDs) == 0 {
		http.Error(w, "missing param", http.StatusBadRequest)
		return
	}

	jobID, prepErr := h.archiveService.Prepare(r.Context(), req.OwnerID, kind, req.InputIDs, req.ParentID, req.TargetName)

	switch {
	case errors.Is(prepErr, domain.ErrJobInvalid), errors.Is(prepErr, domain.ErrObjectNotFound):
		respondError(w, http.StatusBadRequest, prepErr)
		return
	case prepErr != nil:
		h.logger.Error("error queueing archive job", "error", prepErr, "kind", kind)
		respondError(w, http.StatusServiceUnavailable, prepErr)
		return
	default:
		resp := V1PrepareResponse{
			JobID:  jobID,
			Status: string(domain.ArchiveJobStatusQueued),
		}
		respondJSON(w, h.logger, http.StatusAccepted, resp)
		return
	}
}
