package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveJobKind is the kind of long-running archive operation
type ArchiveJobKind string

const (
	ArchiveJobKindCompress ArchiveJobKind = "compress"
	ArchiveJobKindExtract  ArchiveJobKind = "extract"
)

// ArchiveJobStatus represents the lifecycle state of an archive job
type ArchiveJobStatus string

const (
	ArchiveJobStatusQueued  ArchiveJobStatus = "queued"
	ArchiveJobStatusRunning ArchiveJobStatus = "running"
	ArchiveJobStatusReady   ArchiveJobStatus = "ready"
	ArchiveJobStatusError   ArchiveJobStatus = "error"
)

// Terminal reports whether the job has reached a final state
func (s ArchiveJobStatus) Terminal() bool {
	return s == ArchiveJobStatusReady || s == ArchiveJobStatusError
}

// ArchiveJob is an asynchronous compress/extract operation polled for status.
// Polling after a terminal state returns the same result idempotently.
type ArchiveJob struct {
	ID         uuid.UUID
	Kind       ArchiveJobKind
	OwnerID    uuid.UUID
	InputIDs   []uuid.UUID
	ParentID   uuid.UUID
	TargetName string
	Status     ArchiveJobStatus
	Message    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
