package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadSessionStatus represents the lifecycle state of an upload session
type UploadSessionStatus string

const (
	UploadSessionStatusInitiated       UploadSessionStatus = "initiated"
	UploadSessionStatusReceiving       UploadSessionStatus = "receiving"
	UploadSessionStatusFinalizePending UploadSessionStatus = "finalize_pending"
	UploadSessionStatusFinalizing      UploadSessionStatus = "finalizing"
	UploadSessionStatusCompleted       UploadSessionStatus = "completed"
	UploadSessionStatusCancelled       UploadSessionStatus = "cancelled"
	UploadSessionStatusExpired         UploadSessionStatus = "expired"
	UploadSessionStatusFailed          UploadSessionStatus = "failed"
)

// Terminal reports whether no further transition is allowed from the status
func (s UploadSessionStatus) Terminal() bool {
	switch s {
	case UploadSessionStatusCompleted, UploadSessionStatusCancelled,
		UploadSessionStatusExpired, UploadSessionStatusFailed:
		return true
	}
	return false
}

// UploadSession represents one in-progress multi-part upload
type UploadSession struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	ParentID      uuid.UUID
	Name          string
	Size          int64
	PartSize      int64
	TotalParts    int
	Status        UploadSessionStatus
	Digest        string // declared whole-object sha256, empty unless the client knows it up front
	Overwrite     bool
	ReservationID uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time
}

// ExpectedPartSize returns the byte length part n must carry.
// Every part is PartSize except the last, which holds the remainder.
func (s *UploadSession) ExpectedPartSize(partNumber int) int64 {
	if partNumber < s.TotalParts {
		return s.PartSize
	}
	return s.Size - int64(s.TotalParts-1)*s.PartSize
}

// PartRecord represents one stored chunk of an upload session
type PartRecord struct {
	SessionID  uuid.UUID
	PartNumber int
	Size       int64
	Digest     string
	StorageKey string
	CreatedAt  time.Time
}

// UploadTicket is returned when a session is opened
type UploadTicket struct {
	UploadID   uuid.UUID
	PartSize   int64
	TotalParts int
	ExpiresIn  time.Duration
	Policy     UploadPolicy
}

// UploadStatus is the pollable view of a session, used by clients to resume
// an interrupted transfer without re-uploading completed parts
type UploadStatus struct {
	Status        UploadSessionStatus
	TotalParts    int
	UploadedParts []int
	MissingParts  []int
	UploadedBytes int64
	ExpiresIn     time.Duration
}
