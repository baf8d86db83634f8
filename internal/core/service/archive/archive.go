package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"filedepot/internal/config"
	"filedepot/internal/core/domain"
	"filedepot/internal/core/port"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service runs compress/extract jobs out-of-band. Jobs are plain in-memory
// state records pulled from a buffered queue by a worker pool; clients poll
// Status at a fixed interval. Terminal results are retained for the
// configured window, then pruned.
type Service struct {
	mu    sync.Mutex
	jobs  map[uuid.UUID]*domain.ArchiveJob
	queue chan uuid.UUID

	files   port.FileRepository
	objects port.ObjectStore
	ledger  port.QuotaLedger
	events  port.EventPublisher
	cfg     config.ArchiveConfig
	logger  *slog.Logger
}

// NewService creates the archive job runner
func NewService(files port.FileRepository, objects port.ObjectStore, ledger port.QuotaLedger, events port.EventPublisher, cfg config.ArchiveConfig, logger *slog.Logger) *Service {
	return &Service{
		jobs:    make(map[uuid.UUID]*domain.ArchiveJob),
		queue:   make(chan uuid.UUID, cfg.QueueSize),
		files:   files,
		objects: objects,
		ledger:  ledger,
		events:  events,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start runs the worker pool until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	grp, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		grp.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case jobID := <-s.queue:
					s.run(ctx, jobID)
				}
			}
		})
	}
	s.logger.Info("archive worker pool started", "workers", s.cfg.Workers)
	return grp.Wait()
}

// Status returns the job's current state. Reads after a terminal state return
// the same result idempotently.
func (s *Service) Status(ctx context.Context, jobID uuid.UUID) (*domain.ArchiveJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// Result returns the job's terminal outcome. A job that has not finished yet
// yields ErrJobNotReady so the caller keeps polling.
func (s *Service) Result(ctx context.Context, jobID uuid.UUID) (*domain.ArchiveJob, error) {
	job, err := s.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.Terminal() {
		return nil, domain.ErrJobNotReady
	}
	return job, nil
}

func (s *Service) setStatus(jobID uuid.UUID, status domain.ArchiveJobStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.Status = status
	job.Message = message
	job.UpdatedAt = time.Now()
}

func (s *Service) snapshot(jobID uuid.UUID) (domain.ArchiveJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ArchiveJob{}, false
	}
	return *job, true
}

// prune drops terminal jobs past the retention window. Caller must hold s.mu.
func (s *Service) prune(now time.Time) {
	for id, job := range s.jobs {
		if job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.cfg.Retention {
			delete(s.jobs, id)
		}
	}
}
