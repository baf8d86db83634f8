package port

import (
	"context"
	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// QuotaLedger reserves and settles storage bytes against per-user budgets.
// Reserve, Commit and Release are short atomic steps: concurrent reservations
// for one user can never jointly exceed the limit. Commit and Release are
// no-ops on reservations that already reached a terminal state.
type QuotaLedger interface {
	Reserve(ctx context.Context, ownerID uuid.UUID, bytes int64) (uuid.UUID, error)
	Commit(ctx context.Context, reservationID uuid.UUID) error
	Release(ctx context.Context, reservationID uuid.UUID) error
	Account(ctx context.Context, ownerID uuid.UUID) (domain.QuotaAccount, error)
}

// QuotaRepository is the durable store behind the ledger
type QuotaRepository interface {
	FindAccount(ctx context.Context, ownerID uuid.UUID) (*domain.QuotaAccount, error)
	EnsureAccount(ctx context.Context, ownerID uuid.UUID, limitBytes int64) error
	AddUsage(ctx context.Context, ownerID uuid.UUID, delta int64) error
}
