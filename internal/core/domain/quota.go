package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationState represents the state of a quota reservation
type ReservationState string

const (
	ReservationStateActive    ReservationState = "active"
	ReservationStateCommitted ReservationState = "committed"
	ReservationStateReleased  ReservationState = "released"
)

// QuotaReservation is a provisional hold against a user's storage budget.
// Every reservation reaches exactly one terminal state: committed or released.
type QuotaReservation struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Bytes     int64
	State     ReservationState
	CreatedAt time.Time
	SettledAt time.Time
}

// QuotaAccount is the per-user storage budget
type QuotaAccount struct {
	OwnerID    uuid.UUID
	LimitBytes int64
	UsedBytes  int64
}
