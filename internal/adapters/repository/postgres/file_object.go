package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

type sqlFileRepository struct {
	db SQLQuerier
}

// NewSQLFileRepository creates sqlFileRepository that implements port.FileRepository
func NewSQLFileRepository(db SQLQuerier) port.FileRepository {
	return &sqlFileRepository{db: db}
}

const fileColumns = `id, owner_id, parent_id, name, size_bytes, mime_type, digest, storage_key, created_at, updated_at`

// Commit atomically creates the object node, or replaces the node with the
// same (owner, parent, name) when overwrite is set.
func (s *sqlFileRepository) Commit(ctx context.Context, obj domain.FileObject, overwrite bool) error {

	if overwrite {
		query := `
			INSERT INTO file_object (id, owner_id, parent_id, name, size_bytes, mime_type, digest, storage_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (owner_id, parent_id, name) DO UPDATE
			SET id = EXCLUDED.id,
			    size_bytes = EXCLUDED.size_bytes,
			    mime_type = EXCLUDED.mime_type,
			    digest = EXCLUDED.digest,
			    storage_key = EXCLUDED.storage_key,
			    updated_at = now()`

		_, err := s.db.ExecContext(ctx, query, obj.ID, obj.OwnerID, obj.ParentID, obj.Name, obj.Size, obj.MimeType, obj.Digest, obj.StorageKey)
		if err != nil {
			return fmt.Errorf("error committing file object: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO file_object (id, owner_id, parent_id, name, size_bytes, mime_type, digest, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (owner_id, parent_id, name) DO NOTHING`

	result, err := s.db.ExecContext(ctx, query, obj.ID, obj.OwnerID, obj.ParentID, obj.Name, obj.Size, obj.MimeType, obj.Digest, obj.StorageKey)
	if err != nil {
		return fmt.Errorf("error committing file object: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNameConflict
	}
	return nil
}

func (s *sqlFileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FileObject, error) {
	query := `SELECT ` + fileColumns + ` FROM file_object WHERE id = $1`
	return s.queryOne(ctx, query, id)
}

func (s *sqlFileRepository) FindByName(ctx context.Context, ownerID, parentID uuid.UUID, name string) (*domain.FileObject, error) {
	query := `SELECT ` + fileColumns + ` FROM file_object WHERE owner_id = $1 AND parent_id = $2 AND name = $3`
	return s.queryOne(ctx, query, ownerID, parentID, name)
}

// FindByDigest backs the instant-upload short circuit: same owner, same
// digest, same size.
func (s *sqlFileRepository) FindByDigest(ctx context.Context, ownerID uuid.UUID, digest string, size int64) (*domain.FileObject, error) {
	query := `SELECT ` + fileColumns + ` FROM file_object WHERE owner_id = $1 AND digest = $2 AND size_bytes = $3 LIMIT 1`
	return s.queryOne(ctx, query, ownerID, digest, size)
}

func (s *sqlFileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM file_object WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrObjectNotFound
	}
	return nil
}

func (s *sqlFileRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.FileObject, error) {
	var row dbFileObject
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.OwnerID, &row.ParentID, &row.Name, &row.Size,
		&row.MimeType, &row.Digest, &row.StorageKey, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

type dbFileObject struct {
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

// ToDomain converts to domain.FileObject
func (d *dbFileObject) ToDomain() *domain.FileObject {
	return &domain.FileObject{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		ParentID:   d.ParentID,
		Name:       d.Name,
		Size:       d.Size,
		MimeType:   d.MimeType,
		Digest:     d.Digest,
		StorageKey: d.StorageKey,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
