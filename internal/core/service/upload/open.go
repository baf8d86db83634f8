package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

// Open validates the declared size and part size against the configured
// limits, reserves quota, and creates the session. The name-conflict check
// runs before any reservation is made so a rejected open never touches the
// ledger.
func (u *uploadService) Open(ctx context.Context, ownerID, parentID uuid.UUID, name string, size, partSize int64, digest string, overwrite bool) (*domain.UploadTicket, error) {

	if name == "" {
		return nil, fmt.Errorf("%w: empty name", domain.ErrNameConflict)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive", domain.ErrInvalidTotalParts)
	}
	if size > u.cfg.MaxFileSize {
		return nil, domain.ErrFileSizeTooBig
	}
	if partSize < u.cfg.MinPartSize || partSize > u.cfg.MaxPartSize {
		return nil, domain.ErrInvalidPartSize
	}
	if digest != "" && !strings.HasPrefix(digest, digestPrefix) {
		return nil, fmt.Errorf("%w: unsupported digest scheme", domain.ErrChecksumMismatch)
	}

	totalParts := int((size + partSize - 1) / partSize)
	if totalParts < 1 || totalParts > u.cfg.MaxTotalParts {
		return nil, domain.ErrInvalidTotalParts
	}

	active, err := u.uow.UploadSessionRepo().CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if active >= u.cfg.MaxSessionsPerUser {
		return nil, domain.ErrTooManySessions
	}

	if !overwrite {
		existing, err := u.uow.FileRepo().FindByName(ctx, ownerID, parentID, name)
		if err != nil && !errors.Is(err, domain.ErrObjectNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrNameConflict
		}
	}

	reservationID, err := u.ledger.Reserve(ctx, ownerID, size)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	now := time.Now()
	session := domain.UploadSession{
		ID:            sessionID,
		OwnerID:       ownerID,
		ParentID:      parentID,
		Name:          name,
		Size:          size,
		PartSize:      partSize,
		TotalParts:    totalParts,
		Status:        domain.UploadSessionStatusInitiated,
		Digest:        digest,
		Overwrite:     overwrite,
		ReservationID: reservationID,
		ExpiresAt:     now.Add(u.cfg.SessionTTL),
	}

	txErr := u.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.UploadSessionRepo().Create(ctx, session); err != nil {
			return err
		}
		return uow.UploadSessionRepo().UpdateStatus(ctx, sessionID, domain.UploadSessionStatusReceiving)
	})
	if txErr != nil {
		// the reservation must not dangle when the session never opened
		if relErr := u.ledger.Release(ctx, reservationID); relErr != nil {
			u.logger.Error("failed to release reservation after open failure", "error", relErr)
		}
		return nil, fmt.Errorf("could not open upload session: %w", txErr)
	}

	u.logger.Info("upload session opened", "session", sessionID, "owner", ownerID, "size", size, "parts", totalParts)

	return &domain.UploadTicket{
		UploadID:   sessionID,
		PartSize:   partSize,
		TotalParts: totalParts,
		ExpiresIn:  u.cfg.SessionTTL,
		Policy:     u.cfg.Policy(),
	}, nil
}
