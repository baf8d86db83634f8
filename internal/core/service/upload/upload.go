package upload

import (
	"log/slog"
	"sync"

	"filedepot/internal/config"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

type uploadService struct {
	uow     port.UnitOfWork
	parts   port.PartStore
	objects port.ObjectStore
	ledger  port.QuotaLedger
	events  port.EventPublisher
	arena   *Arena
	cfg     config.UploadConfig
	logger  *slog.Logger

	// per-session ceilings for simultaneous part writes
	sems *semMap
}

// NewUploadService creates the upload session registry. The arena is shared
// with the garbage collector so both contend on the same finalize locks.
func NewUploadService(uow port.UnitOfWork, parts port.PartStore, objects port.ObjectStore, ledger port.QuotaLedger, events port.EventPublisher, arena *Arena, cfg config.UploadConfig, logger *slog.Logger) port.UploadService {
	return &uploadService{
		uow:     uow,
		parts:   parts,
		objects: objects,
		ledger:  ledger,
		events:  events,
		arena:   arena,
		cfg:     cfg,
		logger:  logger,
		sems:    newSemMap(int64(cfg.MaxParallelParts)),
	}
}

// semMap hands out one weighted semaphore per session, bounding how many part
// writes run in parallel for that session.
type semMap struct {
	mu      sync.Mutex
	weight  int64
	entries map[uuid.UUID]*semaphore.Weighted
}

func newSemMap(weight int64) *semMap {
	if weight < 1 {
		weight = 1
	}
	return &semMap{weight: weight, entries: make(map[uuid.UUID]*semaphore.Weighted)}
}

func (s *semMap) get(id uuid.UUID) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.entries[id]
	if !ok {
		sem = semaphore.NewWeighted(s.weight)
		s.entries[id] = sem
	}
	return sem
}

func (s *semMap) forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}
