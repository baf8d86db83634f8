package upload

import (
	"context"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

// Cancel aborts a session that has not entered finalize. It contends on the
// same lock Finalize uses: whichever acquires first wins, the loser
// observes a terminal-state or finalize-in-progress error.
func (u *uploadService) Cancel(ctx context.Context, sessionID uuid.UUID) error {

	if !u.arena.TryAcquire(sessionID) {
		return domain.ErrFinalizeInProgress
	}
	defer u.arena.Release(sessionID)

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

	txErr := u.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.UploadSessionRepo().UpdateStatus(ctx, sessionID, domain.UploadSessionStatusCancelled); err != nil {
			return err
		}
		return uow.UploadPartRepo().DeleteBySession(ctx, sessionID)
	})
	if txErr != nil {
		return txErr
	}

	if err := u.ledger.Release(ctx, session.ReservationID); err != nil {
		u.logger.Error("failed to release reservation on cancel", "session", sessionID, "error", err)
	}
	if err := u.parts.DeleteParts(ctx, sessionID); err != nil {
		u.logger.Error("failed to delete staging parts on cancel", "session", sessionID, "error", err)
	}
	u.sems.forget(sessionID)

	u.publish(ctx, domain.Event{
		Type:      domain.EventTypeUploadCancelled,
		OwnerID:   session.OwnerID,
		SubjectID: sessionID,
		At:        time.Now(),
	})

	u.logger.Info("upload session cancelled", "session", sessionID)
	return nil
}
