package gc

import (
	"log/slog"

	"filedepot/internal/config"
	"filedepot/internal/core/port"
	"filedepot/internal/core/service/upload"
)

type gcService struct {
	uow    port.UnitOfWork
	parts  port.PartStore
	ledger port.QuotaLedger
	events port.EventPublisher
	arena  *upload.Arena
	cfg    config.GCConfig
	logger *slog.Logger
}

// NewGCService creates the garbage collector. It shares the finalize lock
// arena with the upload service so a sweep can never delete storage out from
// under an in-progress finalize.
func NewGCService(uow port.UnitOfWork, parts port.PartStore, ledger port.QuotaLedger, events port.EventPublisher, arena *upload.Arena, cfg config.GCConfig, logger *slog.Logger) port.GCService {
	return &gcService{
		uow:    uow,
		parts:  parts,
		ledger: ledger,
		events: events,
		arena:  arena,
		cfg:    cfg,
		logger: logger,
	}
}
