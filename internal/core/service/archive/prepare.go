package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// recognized archive containers for extract jobs
var extractSuffixes = []string{".zip", ".tar.gz", ".tgz"}

// Prepare validates the inputs and enqueues a job. It returns the job id
// immediately and never blocks on the operation itself.
func (s *Service) Prepare(ctx context.Context, ownerID uuid.UUID, kind domain.ArchiveJobKind, inputIDs []uuid.UUID, parentID uuid.UUID, targetName string) (uuid.UUID, error) {

	if len(inputIDs) == 0 {
		return uuid.Nil, fmt.Errorf("%w: no inputs", domain.ErrJobInvalid)
	}

	switch kind {
	case domain.ArchiveJobKindCompress:
		if targetName == "" {
			return uuid.Nil, fmt.Errorf("%w: missing target name", domain.ErrJobInvalid)
		}
	case domain.ArchiveJobKindExtract:
		if len(inputIDs) != 1 {
			return uuid.Nil, fmt.Errorf("%w: extract takes exactly one input", domain.ErrJobInvalid)
		}
	default:
		return uuid.Nil, fmt.Errorf("%w: unknown kind %q", domain.ErrJobInvalid, kind)
	}

	// inputs must exist and belong to the requesting user
	for _, id := range inputIDs {
		obj, err := s.files.FindByID(ctx, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: input %s: %v", domain.ErrJobInvalid, id, err)
		}
		if obj.OwnerID != ownerID {
			return uuid.Nil, fmt.Errorf("%w: input %s not owned by caller", domain.ErrJobInvalid, id)
		}
		if kind == domain.ArchiveJobKindExtract && !recognizedContainer(obj.Name) {
			return uuid.Nil, fmt.Errorf("%w: %q is not a recognized archive container", domain.ErrJobInvalid, obj.Name)
		}
	}

	now := time.Now()
	job := &domain.ArchiveJob{
		ID:         uuid.New(),
		Kind:       kind,
		OwnerID:    ownerID,
		InputIDs:   inputIDs,
		ParentID:   parentID,
		TargetName: targetName,
		Status:     domain.ArchiveJobStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.prune(now)
	s.jobs[job.ID] = job
	s.mu.Unlock()

	select {
	case s.queue <- job.ID:
	default:
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		return uuid.Nil, fmt.Errorf("%w: job queue full", domain.ErrJobInvalid)
	}

	s.logger.Info("archive job queued", "job", job.ID, "kind", kind, "inputs", len(inputIDs))
	return job.ID, nil
}

func recognizedContainer(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range extractSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
