package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

type sqlUploadSessionRepository struct {
	db SQLQuerier
}

// NewSQLUploadSessionRepository creates a new sqlUploadSessionRepository
func NewSQLUploadSessionRepository(db SQLQuerier) port.UploadSessionRepository {
	return &sqlUploadSessionRepository{db: db}
}

const sessionColumns = `id, owner_id, parent_id, name, size_bytes, part_size, total_parts, status, digest, overwrite, reservation_id, created_at, updated_at, expires_at`

// Create creates an upload session
func (s *sqlUploadSessionRepository) Create(ctx context.Context, session domain.UploadSession) error {
	query := `
		INSERT INTO upload_session (
			id, owner_id, parent_id, name, size_bytes, part_size, total_parts,
			status, digest, overwrite, reservation_id, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.OwnerID,
		session.ParentID,
		session.Name,
		session.Size,
		session.PartSize,
		session.TotalParts,
		session.Status,
		session.Digest,
		session.Overwrite,
		session.ReservationID,
		session.ExpiresAt,
	)
	if err != nil {
		return err
	}
	return nil
}

func (s *sqlUploadSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM upload_session WHERE id = $1`

	var row dbUploadSession
	err := s.db.QueryRowContext(ctx, query, id).Scan(row.fields()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// UpdateStatus updates the lifecycle state
func (s *sqlUploadSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UploadSessionStatus) error {
	query := `UPDATE upload_session SET status = $1, updated_at = now() WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// UpdateExpiresAt refreshes the sliding TTL of a live session
func (s *sqlUploadSessionRepository) UpdateExpiresAt(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	query := `
		UPDATE upload_session SET expires_at = $1, updated_at = now()
		WHERE id = $2 AND status IN ('initiated', 'receiving', 'finalize_pending')`

	result, err := s.db.ExecContext(ctx, query, expiresAt, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// CountActiveByOwner counts the owner's non-terminal sessions
func (s *sqlUploadSessionRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM upload_session
		WHERE owner_id = $1 AND status IN ('initiated', 'receiving', 'finalize_pending', 'finalizing')`

	var count int
	if err := s.db.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// FindNonTerminal returns the snapshot the garbage collector sweeps
func (s *sqlUploadSessionRepository) FindNonTerminal(ctx context.Context) ([]domain.UploadSession, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM upload_session
		WHERE status IN ('initiated', 'receiving', 'finalize_pending', 'finalizing')`

	return s.queryMany(ctx, query)
}

// FindFailedBefore returns failed sessions whose diagnostic grace period is over
func (s *sqlUploadSessionRepository) FindFailedBefore(ctx context.Context, cutoff time.Time) ([]domain.UploadSession, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM upload_session
		WHERE status = 'failed' AND updated_at < $1`

	return s.queryMany(ctx, query, cutoff)
}

func (s *sqlUploadSessionRepository) queryMany(ctx context.Context, query string, args ...any) ([]domain.UploadSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.UploadSession
	for rows.Next() {
		var row dbUploadSession
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, err
		}
		sessions = append(sessions, *row.ToDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

type dbUploadSession struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	ParentID      uuid.UUID
	Name          string
	Size          int64
	PartSize      int64
	TotalParts    int
	Status        string
	Digest        string
	Overwrite     bool
	ReservationID uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time
}

func (d *dbUploadSession) fields() []any {
	return []any{
		&d.ID, &d.OwnerID, &d.ParentID, &d.Name, &d.Size, &d.PartSize,
		&d.TotalParts, &d.Status, &d.Digest, &d.Overwrite, &d.ReservationID,
		&d.CreatedAt, &d.UpdatedAt, &d.ExpiresAt,
	}
}

// ToDomain converts to domain.UploadSession
func (d *dbUploadSession) ToDomain() *domain.UploadSession {
	return &domain.UploadSession{
		ID:            d.ID,
		OwnerID:       d.OwnerID,
		ParentID:      d.ParentID,
		Name:          d.Name,
		Size:          d.Size,
		PartSize:      d.PartSize,
		TotalParts:    d.TotalParts,
		Status:        domain.UploadSessionStatus(d.Status),
		Digest:        d.Digest,
		Overwrite:     d.Overwrite,
		ReservationID: d.ReservationID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		ExpiresAt:     d.ExpiresAt,
	}
}
