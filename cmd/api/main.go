package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	natsbroker "filedepot/internal/adapters/eventbroker/nats"
	"filedepot/internal/adapters/handlers/http/chi"
	archivev1 "filedepot/internal/adapters/handlers/http/chi/v1/archive"
	uploadv1 "filedepot/internal/adapters/handlers/http/chi/v1/upload"
	"filedepot/internal/adapters/repository/postgres"
	"filedepot/internal/adapters/storage/minio"
	"filedepot/internal/config"
	"filedepot/internal/core/port"
	"filedepot/internal/core/service/archive"
	"filedepot/internal/core/service/gc"
	"filedepot/internal/core/service/quota"
	"filedepot/internal/core/service/upload"

	_ "github.com/lib/pq"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {
			logger.Error("failed to close database", "error", err)
			os.Exit(1)
		}
	}(db)
	logger.Info("db connection established")

	//storage
	minioAdapter, err := minio.NewAdapter(ctx, cfg.Minio, logger)
	if err != nil {
		logger.Error("failed to init minio", "error", err)
		os.Exit(1)
	}

	//event broker
	publisher, err := natsbroker.NewNATSPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to init nats", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close nats", "error", err)
		}
	}()

	//repositories
	unitOfWork := postgres.NewUnitOfWork(db)
	sessionRepo := postgres.NewSQLUploadSessionRepository(db)
	quotaRepo := postgres.NewSQLQuotaRepository(db)
	fileRepo := postgres.NewSQLFileRepository(db)

	//core services
	ledger := quota.NewLedger(quotaRepo, cfg.Quota.DefaultLimit, logger)
	if err := restoreReservations(ctx, sessionRepo, ledger); err != nil {
		logger.Error("failed to restore quota reservations", "error", err)
		os.Exit(1)
	}

	arena := upload.NewArena()
	uploadService := upload.NewUploadService(unitOfWork, minioAdapter, minioAdapter, ledger, publisher, arena, cfg.Upload, logger)
	gcService := gc.NewGCService(unitOfWork, minioAdapter, ledger, publisher, arena, cfg.GC, logger)
	archiveService := archive.NewService(fileRepo, minioAdapter, ledger, publisher, cfg.Archive, logger)

	//http
	uploadHandler := uploadv1.NewUploadHandlerV1(uploadService, logger)
	archiveHandler := archivev1.NewArchiveHandlerV1(archiveService, logger)

	maxBody := cfg.Upload.MaxPartSize + (1 << 20)
	router := chi.NewRouter(logger, uploadHandler, archiveHandler, cfg.Env.Env, maxBody)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// init archive workers
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := archiveService.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("archive workers stopped", "error", err)
		}
	}()

	// init gc sweep task
	wg.Add(1)
	go func() {
		defer wg.Done()
		initSweepTask(ctx, gcService, cfg.GC.SweepEvery, logger)
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}

func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

// restoreReservations rebuilds in-memory quota reservations for sessions that
// were live when the previous process stopped, so their bytes count against
// the quota again.
func restoreReservations(ctx context.Context, sessions port.UploadSessionRepository, ledger *quota.Ledger) error {
	live, err := sessions.FindNonTerminal(ctx)
	if err != nil {
		return err
	}
	for _, s := range live {
		ledger.Restore(s.OwnerID, s.ReservationID, s.Size)
	}
	return nil
}

func initSweepTask(ctx context.Context, service port.GCService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("gc sweep task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			report, err := service.Sweep(ctx, time.Now(), false)
			if err != nil {
				logger.Error("gc sweep failed", "error", err)
				continue
			}
			logger.Info("gc sweep completed",
				"scanned", report.Scanned,
				"deleted", report.Deleted,
				"skipped", report.Skipped,
				"locked_stale", report.LockedStale,
			)
		case <-ctx.Done():
			logger.Info("gc sweep task stopped")
			return
		}
	}

}
