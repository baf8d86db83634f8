package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"filedepot/internal/adapters/repository/postgres"
	"filedepot/internal/adapters/storage/minio"
	"filedepot/internal/config"
	"filedepot/internal/core/service/gc"
	"filedepot/internal/core/service/quota"
	"filedepot/internal/core/service/upload"

	_ "github.com/lib/pq"
)

// One-shot garbage collection pass, meant to run from cron or by hand.
// Default is a dry run; pass -execute to actually reclaim.
func main() {
	var execute bool
	flag.BoolVar(&execute, "execute", false, "Reclaim expired sessions instead of only reporting them")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	minioAdapter, err := minio.NewAdapter(ctx, cfg.Minio, logger)
	if err != nil {
		logger.Error("failed to init minio", "error", err)
		os.Exit(1)
	}

	unitOfWork := postgres.NewUnitOfWork(db)
	quotaRepo := postgres.NewSQLQuotaRepository(db)
	sessionRepo := postgres.NewSQLUploadSessionRepository(db)

	ledger := quota.NewLedger(quotaRepo, cfg.Quota.DefaultLimit, logger)
	live, err := sessionRepo.FindNonTerminal(ctx)
	if err != nil {
		logger.Error("failed to list live sessions", "error", err)
		os.Exit(1)
	}
	for _, s := range live {
		ledger.Restore(s.OwnerID, s.ReservationID, s.Size)
	}

	if execute {
		// finalize locks live in the API process, a standalone sweep cannot
		// see them
		logger.Warn("executing against a fresh lock arena: stop the API server or avoid sweeping while uploads are finalizing")
	}

	// no event publisher here: a standalone sweep has nobody to notify
	service := gc.NewGCService(unitOfWork, minioAdapter, ledger, nil, upload.NewArena(), cfg.GC, logger)

	report, err := service.Sweep(ctx, time.Now(), !execute)
	if err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}

	mode := "dry-run"
	if execute {
		mode = "execute"
	}
	fmt.Printf("mode=%s scanned=%d deleted=%d skipped=%d locked_stale=%d\n",
		mode, report.Scanned, report.Deleted, report.Skipped, report.LockedStale)
}
