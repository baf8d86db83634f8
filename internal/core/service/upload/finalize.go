package upload

import (
	"context"
	"fmt"
	"hash"
	"io"
	"sort"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

// Finalize assembles the verified parts into a durable object, commits it
// into the file tree, converts the quota reservation into a permanent charge
// and releases the session's staging resources. The per-session lock held for
// the whole operation is the only mutual exclusion in the pipeline: a
// concurrent finalize, cancel or GC expiry observes the lock and backs off.
func (u *uploadService) Finalize(ctx context.Context, sessionID uuid.UUID, mimeType string, totalParts int) (*domain.FileObject, error) {

	if !u.arena.TryAcquire(sessionID) {
		return nil, domain.ErrFinalizeInProgress
	}
	defer u.arena.Release(sessionID)

	// read under the lock so a cancel that won the race is observed
	session, err := u.uow.UploadSessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.UploadSessionStatusFinalizing {
		return nil, domain.ErrFinalizeInProgress
	}
	if session.Status.Terminal() {
		return nil, domain.ErrSessionTerminal
	}
	if totalParts != 0 && totalParts != session.TotalParts {
		return nil, fmt.Errorf("%w: declared %d, session expects %d", domain.ErrInvalidTotalParts, totalParts, session.TotalParts)
	}

	parts, err := u.uow.UploadPartRepo().FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(parts) != session.TotalParts && !u.instantEligible(session) {
		return nil, fmt.Errorf("%w: %d of %d parts received", domain.ErrChunkIncomplete, len(parts), session.TotalParts)
	}

	if err := u.uow.UploadSessionRepo().UpdateStatus(ctx, sessionID, domain.UploadSessionStatusFinalizing); err != nil {
		return nil, err
	}

	if u.instantEligible(session) {
		obj, hit, instErr := u.tryInstant(ctx, session, mimeType)
		if hit {
			// a dedup hit is final either way: on commit failure the session
			// is already FAILED and its reservation released, assembly must
			// not run after it
			return obj, instErr
		}
		if len(parts) != session.TotalParts {
			// no dedup hit and no bytes to assemble: the session cannot make
			// progress, report it and fail so quota is returned
			err := fmt.Errorf("%w: no matching object for instant upload", domain.ErrChunkIncomplete)
			u.fail(ctx, session, err)
			return nil, err
		}
	}

	obj, err := u.assemble(ctx, session, parts, mimeType)
	if err != nil {
		u.fail(ctx, session, err)
		return nil, err
	}

	if err := u.complete(ctx, session, obj); err != nil {
		u.fail(ctx, session, err)
		return nil, err
	}
	return obj, nil
}

func (u *uploadService) instantEligible(session *domain.UploadSession) bool {
	return u.cfg.InstantUpload && session.Digest != ""
}

// tryInstant short-circuits the upload when an object with the same owner,
// digest and size already exists: the new tree node references the existing
// bytes, quota is charged exactly once and no assembly happens. hit reports
// whether a matching object was found; a hit with a non-nil error means the
// commit failed and the session has been failed.
func (u *uploadService) tryInstant(ctx context.Context, session *domain.UploadSession, mimeType string) (obj *domain.FileObject, hit bool, err error) {

	existing, err := u.uow.FileRepo().FindByDigest(ctx, session.OwnerID, session.Digest, session.Size)
	if err != nil || existing == nil {
		return nil, false, nil
	}

	obj = &domain.FileObject{
		ID:         uuid.New(),
		OwnerID:    session.OwnerID,
		ParentID:   session.ParentID,
		Name:       session.Name,
		Size:       session.Size,
		MimeType:   mimeType,
		Digest:     session.Digest,
		StorageKey: existing.StorageKey,
	}

	if err := u.complete(ctx, session, obj); err != nil {
		u.fail(ctx, session, err)
		return nil, true, err
	}
	u.logger.Info("instant upload", "session", session.ID, "object", obj.ID, "digest", session.Digest)
	return obj, true, nil
}

// assemble streams all parts in ascending part-number order into the object
// store, producing a deterministic byte stream regardless of arrival order,
// and verifies the whole-object digest when one was declared.
func (u *uploadService) assemble(ctx context.Context, session *domain.UploadSession, parts []domain.PartRecord, mimeType string) (*domain.FileObject, error) {

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})

	var hasher hash.Hash
	if u.cfg.HashVerify {
		hasher = newDigester()
	}

	objectID := uuid.New()
	storageKey := objectID.String()

	pr, pw := io.Pipe()
	go func() {
		var w io.Writer = pw
		if hasher != nil {
			w = io.MultiWriter(pw, hasher)
		}
		for _, p := range parts {
			rc, err := u.parts.ReadPart(ctx, session.ID, p.PartNumber)
			if err != nil {
				pw.CloseWithError(fmt.Errorf("reading part %d: %w", p.PartNumber, err))
				return
			}
			_, err = io.Copy(w, rc)
			rc.Close()
			if err != nil {
				pw.CloseWithError(fmt.Errorf("streaming part %d: %w", p.PartNumber, err))
				return
			}
		}
		pw.Close()
	}()

	written, err := u.objects.WriteObject(ctx, storageKey, pr, session.Size, mimeType)
	if err != nil {
		// unblock the pump goroutine: it may still be parked in a pipe write
		pr.CloseWithError(err)
		return nil, fmt.Errorf("object write failed: %w", err)
	}
	if written != session.Size {
		pr.Close()
		u.discardObject(ctx, storageKey)
		return nil, fmt.Errorf("%w: assembled %d bytes, declared %d", domain.ErrChecksumMismatch, written, session.Size)
	}

	digest := session.Digest
	if hasher != nil {
		digest = digestOf(hasher)
		if session.Digest != "" && digest != session.Digest {
			u.discardObject(ctx, storageKey)
			return nil, fmt.Errorf("%w: assembled %s, declared %s", domain.ErrChecksumMismatch, digest, session.Digest)
		}
	}

	return &domain.FileObject{
		ID:         objectID,
		OwnerID:    session.OwnerID,
		ParentID:   session.ParentID,
		Name:       session.Name,
		Size:       session.Size,
		MimeType:   mimeType,
		Digest:     digest,
		StorageKey: storageKey,
	}, nil
}

func (u *uploadService) discardObject(ctx context.Context, key string) {
	if err := u.objects.DeleteObject(ctx, key); err != nil {
		u.logger.Error("failed to discard rejected object", "key", key, "error", err)
	}
}

// complete commits the object and the session's terminal success state in one
// transaction, then settles quota and discards the staging parts.
func (u *uploadService) complete(ctx context.Context, session *domain.UploadSession, obj *domain.FileObject) error {

	txErr := u.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.FileRepo().Commit(ctx, *obj, session.Overwrite); err != nil {
			return err
		}
		if err := uow.UploadPartRepo().DeleteBySession(ctx, session.ID); err != nil {
			return err
		}
		return uow.UploadSessionRepo().UpdateStatus(ctx, session.ID, domain.UploadSessionStatusCompleted)
	})
	if txErr != nil {
		return txErr
	}

	if err := u.ledger.Commit(ctx, session.ReservationID); err != nil {
		// usage write-through failed; the reservation stays settled in memory
		// and the inconsistency is loud, never swallowed
		u.logger.Error("quota commit failed after object commit", "session", session.ID, "error", err)
		return err
	}

	if err := u.parts.DeleteParts(ctx, session.ID); err != nil {
		u.logger.Error("failed to delete staging parts", "session", session.ID, "error", err)
	}
	u.sems.forget(session.ID)

	u.publish(ctx, domain.Event{
		Type:      domain.EventTypeUploadCompleted,
		OwnerID:   session.OwnerID,
		SubjectID: obj.ID,
		At:        time.Now(),
	})

	u.logger.Info("upload finalized", "session", session.ID, "object", obj.ID, "size", obj.Size)
	return nil
}

// fail moves the session to the terminal failure state and returns its quota.
// Staging parts are left in place for diagnostic inspection; the garbage
// collector reclaims them after the grace period.
func (u *uploadService) fail(ctx context.Context, session *domain.UploadSession, cause error) {

	if err := u.uow.UploadSessionRepo().UpdateStatus(ctx, session.ID, domain.UploadSessionStatusFailed); err != nil {
		u.logger.Error("failed to mark session failed", "session", session.ID, "error", err)
	}
	if err := u.ledger.Release(ctx, session.ReservationID); err != nil {
		u.logger.Error("failed to release reservation", "session", session.ID, "error", err)
	}
	u.sems.forget(session.ID)

	u.publish(ctx, domain.Event{
		Type:      domain.EventTypeUploadFailed,
		OwnerID:   session.OwnerID,
		SubjectID: session.ID,
		Detail:    cause.Error(),
		At:        time.Now(),
	})

	u.logger.Error("finalize failed", "session", session.ID, "error", cause)
}

func (u *uploadService) publish(ctx context.Context, ev domain.Event) {
	if u.events == nil {
		return
	}
	if err := u.events.Publish(ctx, ev); err != nil {
		u.logger.Error("failed to publish event", "type", ev.Type, "error", err)
	}
}
