package port

import (
	"context"
	"filedepot/internal/core/domain"
	"io"
	"time"

	"github.com/google/uuid"
)

// UploadSessionRepository is an interface to interact with upload session repositories
type UploadSessionRepository interface {
	Create(ctx context.Context, session domain.UploadSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UploadSessionStatus) error
	UpdateExpiresAt(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	FindNonTerminal(ctx context.Context) ([]domain.UploadSession, error)
	FindFailedBefore(ctx context.Context, cutoff time.Time) ([]domain.UploadSession, error)
}

// UploadPartRepository indexes the parts received for each session
type UploadPartRepository interface {
	Upsert(ctx context.Context, part domain.PartRecord) error
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.PartRecord, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}

// UploadService is the upload session registry together with its finalizer
type UploadService interface {
	Open(ctx context.Context, ownerID, parentID uuid.UUID, name string, size, partSize int64, digest string, overwrite bool) (*domain.UploadTicket, error)
	ReceivePart(ctx context.Context, sessionID uuid.UUID, partNumber int, body io.Reader, size int64) error
	Status(ctx context.Context, sessionID uuid.UUID) (*domain.UploadStatus, error)
	Finalize(ctx context.Context, sessionID uuid.UUID, mimeType string, totalParts int) (*domain.FileObject, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) error
}
