package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is a type that represents the type of an audit event
type EventType string

const (
	EventTypeUploadCompleted EventType = "upload.completed"
	EventTypeUploadCancelled EventType = "upload.cancelled"
	EventTypeUploadExpired   EventType = "upload.expired"
	EventTypeUploadFailed    EventType = "upload.failed"
	EventTypeArchiveFinished EventType = "archive.finished"
)

// Event is an audit record emitted by the core. The core only emits; audit
// log writing is an external collaborator.
type Event struct {
	Type      EventType `json:"type"`
	OwnerID   uuid.UUID `json:"owner_id"`
	SubjectID uuid.UUID `json:"subject_id"` // session, object or job id
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}
