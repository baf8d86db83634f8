package archive

import (
	"errors"
	"net/http"

	"filedepot/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1JobResultResponse is the terminal outcome of a finished job
type V1JobResultResponse struct {
	JobID   uuid.UUID `json:"job_id"`
	Kind    string    `json:"kind"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
}

func (h *HandlerV1) GetResultV1(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	uuidJob, parseErr := uuid.Parse(jobID)
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, domain.ErrJobNotFound)
		return
	}

	job, err := h.archiveService.Result(r.Context(), uuidJob)

	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		respondError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrJobNotReady):
		respondError(w, http.StatusConflict, err)
		return
	case err != nil:
		h.logger.Error("error getting job result", "error", err, "job_id", uuidJob)
		respondError(w, http.StatusServiceUnavailable, err)
		return
	case job == nil:
		http.Error(w, "job is nil", http.StatusInternalServerError)
		return
	default:
		resp := V1JobResultResponse{
			JobID:   job.ID,
			Kind:    string(job.Kind),
			Status:  string(job.Status),
			Message: job.Message,
		}
		respondJSON(w, h.logger, http.StatusOK, resp)
		return
	}
}
