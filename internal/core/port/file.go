package port

import (
	"context"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// FileRepository is the file/directory metadata tree collaborator. The
// finalizer's only write to it is the single atomic Commit call.
type FileRepository interface {
	// Commit atomically creates the object node or, when overwrite is set,
	// replaces the node with the same (owner, parent, name).
	Commit(ctx context.Context, obj domain.FileObject, overwrite bool) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.FileObject, error)
	FindByName(ctx context.Context, ownerID, parentID uuid.UUID, name string) (*domain.FileObject, error)
	FindByDigest(ctx context.Context, ownerID uuid.UUID, digest string, size int64) (*domain.FileObject, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
