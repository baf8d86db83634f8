package archive

import (
	"context"
	"time"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// run executes one job to a terminal state. A failure is recorded on the job
// record, never propagated: each job's outcome is independent.
func (s *Service) run(ctx context.Context, jobID uuid.UUID) {

	job, ok := s.snapshot(jobID)
	if !ok {
		return
	}
	s.setStatus(jobID, domain.ArchiveJobStatusRunning, "")
	s.logger.Info("archive job running", "job", jobID, "kind", job.Kind)

	var (
		message string
		err     error
	)
	switch job.Kind {
	case domain.ArchiveJobKindCompress:
		message, err = s.compress(ctx, &job)
	case domain.ArchiveJobKindExtract:
		message, err = s.extract(ctx, &job)
	}

	detail := message
	if err != nil {
		detail = err.Error()
		s.setStatus(jobID, domain.ArchiveJobStatusError, detail)
		s.logger.Error("archive job failed", "job", jobID, "error", err)
	} else {
		s.setStatus(jobID, domain.ArchiveJobStatusReady, message)
		s.logger.Info("archive job ready", "job", jobID, "result", message)
	}

	if s.events != nil {
		ev := domain.Event{
			Type:      domain.EventTypeArchiveFinished,
			OwnerID:   job.OwnerID,
			SubjectID: jobID,
			Detail:    detail,
			At:        time.Now(),
		}
		if pubErr := s.events.Publish(ctx, ev); pubErr != nil {
			s.logger.Error("failed to publish archive event", "job", jobID, "error", pubErr)
		}
	}
}
