package quota

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

// settledRetention is how long a committed or released reservation stays in
// the map as a tombstone, keeping retried Commit/Release calls idempotent
// before the entry is pruned.
const settledRetention = time.Hour

// Ledger holds per-user accounts in memory so that reserve/commit/release are
// short atomic steps that never block on storage I/O. Committed usage is
// written through the repository; active reservations exist only in memory
// and are restored from the session table at startup.
type Ledger struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*domain.QuotaAccount
	reservations map[uuid.UUID]*domain.QuotaReservation
	repo         port.QuotaRepository
	defaultLimit int64
	logger       *slog.Logger
}

// NewLedger creates a new quota ledger backed by repo. Accounts are hydrated
// lazily on first touch; unknown users get defaultLimit.
func NewLedger(repo port.QuotaRepository, defaultLimit int64, logger *slog.Logger) *Ledger {
	return &Ledger{
		accounts:     make(map[uuid.UUID]*domain.QuotaAccount),
		reservations: make(map[uuid.UUID]*domain.QuotaReservation),
		repo:         repo,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// account returns the in-memory account, loading it from the repository on
// first access. Caller must hold l.mu.
func (l *Ledger) account(ctx context.Context, ownerID uuid.UUID) (*domain.QuotaAccount, error) {
	if acc, ok := l.accounts[ownerID]; ok {
		return acc, nil
	}

	stored, err := l.repo.FindAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if err := l.repo.EnsureAccount(ctx, ownerID, l.defaultLimit); err != nil {
			return nil, err
		}
		stored = &domain.QuotaAccount{OwnerID: ownerID, LimitBytes: l.defaultLimit}
	}
	l.accounts[ownerID] = stored
	return stored, nil
}

// activeBytes sums the active reservations for one owner. Caller must hold l.mu.
func (l *Ledger) activeBytes(ownerID uuid.UUID) int64 {
	var sum int64
	for _, r := range l.reservations {
		if r.OwnerID == ownerID && r.State == domain.ReservationStateActive {
			sum += r.Bytes
		}
	}
	return sum
}

// Reserve atomically checks used + active + bytes <= limit and records the
// reservation before returning.
func (l *Ledger) Reserve(ctx context.Context, ownerID uuid.UUID, bytes int64) (uuid.UUID, error) {
	if bytes < 0 {
		return uuid.Nil, fmt.Errorf("negative reservation of %d bytes", bytes)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneSettled()

	acc, err := l.account(ctx, ownerID)
	if err != nil {
		return uuid.Nil, err
	}

	if acc.UsedBytes+l.activeBytes(ownerID)+bytes > acc.LimitBytes {
		return uuid.Nil, domain.ErrQuotaExceeded
	}

	res := &domain.QuotaReservation{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Bytes:     bytes,
		State:     domain.ReservationStateActive,
		CreatedAt: time.Now(),
	}
	l.reservations[res.ID] = res
	return res.ID, nil
}

// Commit converts a reservation into permanent usage. Committing a
// reservation that already reached a terminal state is a no-op.
func (l *Ledger) Commit(ctx context.Context, reservationID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if res.State != domain.ReservationStateActive {
		return nil
	}

	acc, err := l.account(ctx, res.OwnerID)
	if err != nil {
		return err
	}

	if err := l.repo.AddUsage(ctx, res.OwnerID, res.Bytes); err != nil {
		return err
	}
	acc.UsedBytes += res.Bytes
	res.State = domain.ReservationStateCommitted
	res.SettledAt = time.Now()
	return nil
}

// Release returns reserved bytes to the available pool. Releasing an
// already-committed or already-released reservation is a no-op to tolerate
// retries.
func (l *Ledger) Release(ctx context.Context, reservationID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if res.State != domain.ReservationStateActive {
		return nil
	}
	res.State = domain.ReservationStateReleased
	res.SettledAt = time.Now()
	return nil
}

// pruneSettled drops terminal reservations older than the tombstone window so
// the map does not grow with every finished upload. Caller must hold l.mu.
func (l *Ledger) pruneSettled() {
	cutoff := time.Now().Add(-settledRetention)
	for id, res := range l.reservations {
		if res.State != domain.ReservationStateActive && res.SettledAt.Before(cutoff) {
			delete(l.reservations, id)
		}
	}
}

// Account returns a snapshot of the owner's budget including active reservations
func (l *Ledger) Account(ctx context.Context, ownerID uuid.UUID) (domain.QuotaAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.account(ctx, ownerID)
	if err != nil {
		return domain.QuotaAccount{}, err
	}
	snapshot := *acc
	snapshot.UsedBytes += l.activeBytes(ownerID)
	return snapshot, nil
}

// Restore re-registers an active reservation after a restart, keyed by the
// reservation id recorded on the session row. Used at startup for sessions
// that were non-terminal when the process stopped.
func (l *Ledger) Restore(ownerID, reservationID uuid.UUID, bytes int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.reservations[reservationID]; ok {
		return
	}
	l.reservations[reservationID] = &domain.QuotaReservation{
		ID:        reservationID,
		OwnerID:   ownerID,
		Bytes:     bytes,
		State:     domain.ReservationStateActive,
		CreatedAt: time.Now(),
	}
	l.logger.Info("restored quota reservation", "owner", ownerID, "bytes", bytes)
}
