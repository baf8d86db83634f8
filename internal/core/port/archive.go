package port

import (
	"context"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// ArchiveService runs long compress/extract operations out-of-band. Prepare
// returns a job id immediately; Status is a pure read safe to poll. Result
// returns the terminal outcome only once the job finished.
type ArchiveService interface {
	Prepare(ctx context.Context, ownerID uuid.UUID, kind domain.ArchiveJobKind, inputIDs []uuid.UUID, parentID uuid.UUID, targetName string) (uuid.UUID, error)
	Status(ctx context.Context, jobID uuid.UUID) (*domain.ArchiveJob, error)
	Result(ctx context.Context, jobID uuid.UUID) (*domain.ArchiveJob, error)
}
