package postgres

import (
	"context"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

type sqlUploadPartRepository struct {
	db SQLQuerier
}

// NewSQLUploadPartRepository creates a new sqlUploadPartRepository
func NewSQLUploadPartRepository(db SQLQuerier) port.UploadPartRepository {
	return &sqlUploadPartRepository{db: db}
}

// Upsert records a received part. Re-uploading a part number replaces the
// previous record, matching the overwrite semantics of the part store.
func (s *sqlUploadPartRepository) Upsert(ctx context.Context, part domain.PartRecord) error {
	query := `
		INSERT INTO upload_part (session_id, part_number, size_bytes, digest, storage_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, part_number) DO UPDATE
		SET size_bytes = EXCLUDED.size_bytes,
		    digest = EXCLUDED.digest,
		    storage_key = EXCLUDED.storage_key,
		    created_at = now()`

	_, err := s.db.ExecContext(ctx, query, part.SessionID, part.PartNumber, part.Size, part.Digest, part.StorageKey)
	return err
}

// FindBySession lists the parts received so far, ordered by part number
func (s *sqlUploadPartRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.PartRecord, error) {
	query := `
		SELECT session_id, part_number, size_bytes, digest, storage_key, created_at
		FROM upload_part
		WHERE session_id = $1
		ORDER BY part_number`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []domain.PartRecord
	for rows.Next() {
		var (
			part      domain.PartRecord
			createdAt time.Time
		)
		if err := rows.Scan(&part.SessionID, &part.PartNumber, &part.Size, &part.Digest, &part.StorageKey, &createdAt); err != nil {
			return nil, err
		}
		part.CreatedAt = createdAt
		parts = append(parts, part)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return parts, nil
}

// DeleteBySession drops the whole part index of a session
func (s *sqlUploadPartRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM upload_part WHERE session_id = $1`, sessionID)
	return err
}
