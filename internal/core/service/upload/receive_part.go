package upload

import (
	"context"
	"fmt"
	"hash"
	"io"
	"time"

	"filedepot/internal/core/domain"

	"github.com/google/uuid"
)

// ReceivePart writes one chunk through to the part store. Re-uploading the
// same part number is a deterministic overwrite, not an error. Receipt
// refreshes the session's expiry clock so an actively-uploading session is
// never collected mid-transfer.
func (u *uploadService) ReceivePart(ctx context.Context, sessionID uuid.UUID, partNumber int, body io.Reader, size int64) error {

	session, err := u.uow.UploadSessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.Status == domain.UploadSessionStatusFinalizing {
		return domain.ErrFinalizeInProgress
	}
	if session.Status.Terminal() {
		return domain.ErrSessionTerminal
	}
	if partNumber < 1 || partNumber > session.TotalParts {
		return fmt.Errorf("%w: %d of %d", domain.ErrInvalidPartNumber, partNumber, session.TotalParts)
	}
	if expected := session.ExpectedPartSize(partNumber); size != expected {
		return fmt.Errorf("%w: part %d carries %d bytes, expected %d", domain.ErrPartSizeMismatch, partNumber, size, expected)
	}

	sem := u.sems.get(sessionID)
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sem.Release(1)

	var hasher hash.Hash
	if u.cfg.HashVerify {
		hasher = newDigester()
		body = io.TeeReader(body, hasher)
	}

	key, err := u.parts.WritePart(ctx, sessionID, partNumber, body, size)
	if err != nil {
		return fmt.Errorf("part store write failed: %w", err)
	}

	var digest string
	if hasher != nil {
		digest = digestOf(hasher)
	}
	return u.recordPart(ctx, session, partNumber, size, digest, key)
}

func (u *uploadService) recordPart(ctx context.Context, session *domain.UploadSession, partNumber int, size int64, digest, storageKey string) error {

	err := u.uow.UploadPartRepo().Upsert(ctx, domain.PartRecord{
		SessionID:  session.ID,
		PartNumber: partNumber,
		Size:       size,
		Digest:     digest,
		StorageKey: storageKey,
	})
	if err != nil {
		return err
	}

	// sliding TTL
	if err := u.uow.UploadSessionRepo().UpdateExpiresAt(ctx, session.ID, time.Now().Add(u.cfg.SessionTTL)); err != nil {
		return err
	}

	received, err := u.uow.UploadPartRepo().FindBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	if len(received) == session.TotalParts && session.Status == domain.UploadSessionStatusReceiving {
		if err := u.uow.UploadSessionRepo().UpdateStatus(ctx, session.ID, domain.UploadSessionStatusFinalizePending); err != nil {
			return err
		}
	}
	return nil
}
