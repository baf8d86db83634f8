package postgres

import (
	"context"
	"database/sql"
	"errors"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

type sqlQuotaRepository struct {
	db SQLQuerier
}

// NewSQLQuotaRepository creates a new sqlQuotaRepository
func NewSQLQuotaRepository(db SQLQuerier) port.QuotaRepository {
	return &sqlQuotaRepository{db: db}
}

// FindAccount returns the stored account, or nil when the user has none yet
// (the ledger applies the configured default limit in that case).
func (s *sqlQuotaRepository) FindAccount(ctx context.Context, ownerID uuid.UUID) (*domain.QuotaAccount, error) {
	query := `SELECT owner_id, limit_bytes, used_bytes FROM quota_account WHERE owner_id = $1`

	var acc domain.QuotaAccount
	err := s.db.QueryRowContext(ctx, query, ownerID).Scan(&acc.OwnerID, &acc.LimitBytes, &acc.UsedBytes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// EnsureAccount creates the account row with the given limit if the user has
// none yet. Existing rows keep their operator-assigned limit.
func (s *sqlQuotaRepository) EnsureAccount(ctx context.Context, ownerID uuid.UUID, limitBytes int64) error {
	query := `
		INSERT INTO quota_account (owner_id, limit_bytes, used_bytes)
		VALUES ($1, $2, 0)
		ON CONFLICT (owner_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, ownerID, limitBytes)
	return err
}

// AddUsage adjusts committed usage
func (s *sqlQuotaRepository) AddUsage(ctx context.Context, ownerID uuid.UUID, delta int64) error {
	query := `
		UPDATE quota_account
		SET used_bytes = used_bytes + $2, updated_at = now()
		WHERE owner_id = $1`

	_, err := s.db.ExecContext(ctx, query, ownerID, delta)
	return err
}
