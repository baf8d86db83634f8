package gc

import (
	"context"
	"time"

	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
)

// Sweep scans a snapshot of non-terminal sessions and reclaims storage and
// quota from those whose TTL elapsed. Each session's finalize lock is taken
// only transiently; a session whose lock is held is reported as locked_stale
// and skipped for this pass. In dry-run mode nothing is mutated and the
// deleted count reports intended deletions. One session's failure is logged
// and does not abort the pass.
func (g *gcService) Sweep(ctx context.Context, now time.Time, dryRun bool) (*domain.SweepReport, error) {

	sessions, err := g.uow.UploadSessionRepo().FindNonTerminal(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.SweepReport{}
	for _, session := range sessions {
		report.Scanned++

		if session.ExpiresAt.After(now) {
			report.Skipped++
			continue
		}

		if !g.arena.TryAcquire(session.ID) {
			report.LockedStale++
			g.logger.Warn("expired session is finalize-locked, skipped", "session", session.ID)
			continue
		}

		if dryRun {
			g.arena.Release(session.ID)
			report.Deleted++
			continue
		}

		if err := g.expire(ctx, &session); err != nil {
			g.logger.Error("failed to expire session", "session", session.ID, "error", err)
		} else {
			report.Deleted++
		}
		g.arena.Release(session.ID)
	}

	// failed sessions keep their parts for diagnostics; reclaim the staging
	// data once the grace period is over
	failed, err := g.uow.UploadSessionRepo().FindFailedBefore(ctx, now.Add(-g.cfg.FailedGrace))
	if err != nil {
		g.logger.Error("failed to list failed sessions", "error", err)
		return report, nil
	}
	for _, session := range failed {
		report.Scanned++
		if dryRun {
			report.Deleted++
			continue
		}
		if err := g.reclaimParts(ctx, session.ID); err != nil {
			g.logger.Error("failed to reclaim parts of failed session", "session", session.ID, "error", err)
			continue
		}
		report.Deleted++
	}

	g.logger.Info("gc sweep complete", "dry_run", dryRun,
		"scanned", report.Scanned, "deleted", report.Deleted,
		"skipped", report.Skipped, "locked_stale", report.LockedStale)
	return report, nil
}

// expire runs the same release path a cancel uses: terminal state, quota
// release, staging cleanup.
func (g *gcService) expire(ctx context.Context, session *domain.UploadSession) error {

	txErr := g.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.UploadSessionRepo().UpdateStatus(ctx, session.ID, domain.UploadSessionStatusExpired); err != nil {
			return err
		}
		return uow.UploadPartRepo().DeleteBySession(ctx, session.ID)
	})
	if txErr != nil {
		return txErr
	}

	if err := g.ledger.Release(ctx, session.ReservationID); err != nil {
		g.logger.Error("failed to release reservation on expiry", "session", session.ID, "error", err)
	}
	if err := g.parts.DeleteParts(ctx, session.ID); err != nil {
		return err
	}

	if g.events != nil {
		ev := domain.Event{
			Type:      domain.EventTypeUploadExpired,
			OwnerID:   session.OwnerID,
			SubjectID: session.ID,
			At:        time.Now(),
		}
		if err := g.events.Publish(ctx, ev); err != nil {
			g.logger.Error("failed to publish expiry event", "session", session.ID, "error", err)
		}
	}
	return nil
}

func (g *gcService) reclaimParts(ctx context.Context, sessionID uuid.UUID) error {
	if err := g.uow.UploadPartRepo().DeleteBySession(ctx, sessionID); err != nil {
		return err
	}
	return g.parts.DeleteParts(ctx, sessionID)
}
