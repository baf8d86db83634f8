package port

import (
	"context"
	"filedepot/internal/core/domain"
	"time"
)

// GCService reclaims storage and quota from sessions that exceeded their TTL
// without completing. A dry-run pass mutates nothing.
type GCService interface {
	Sweep(ctx context.Context, now time.Time, dryRun bool) (*domain.SweepReport, error)
}
