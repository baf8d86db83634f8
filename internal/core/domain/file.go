package domain

import (
	"time"

	"github.com/google/uuid"
)

// FileObject is a committed durable object and its node in the metadata tree
type FileObject struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	ParentID   uuid.UUID
	Name       string
	Size       int64
	MimeType   string
	Digest     string
	StorageKey string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
