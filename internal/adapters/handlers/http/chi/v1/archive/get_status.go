package archive

import (
	"errors"
	"net/http"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1JobStatusResponse is the pollable job view. Terminal states repeat the
// same payload on every poll.
type V1JobStatusResponse struct {
	JobID   uuid.UUID `json:"job_id"`
	Kind    string    `json:"kind"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
}

func (h *HandlerV1) GetStatusV1(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	uuidJob, parseErr := uuid.Parse(jobID)
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, domain.ErrJobNotFound)
		return
	}

	job, err := h.archiveService.Status(r.Context(), uuidJob)

	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		respondError(w, http.StatusNotFound, err)
		return
	case err != nil:
		h.logger.Error("error getting job status", "error", err, "job_id", uuidJob)
		respondError(w, http.StatusServiceUnavailable, err)
		return
	case job == nil:
		http.Error(w, "job is nil", http.StatusInternalServerError)
		return
	default:
		resp := V1JobStatusResponse{
			JobID:   job.ID,
			Kind:    string(job.Kind),
			Status:  string(job.Status),
			Message: job.Message,
		}
		respondJSON(w, h.logger, http.StatusOK, resp)
		return
	}
}
