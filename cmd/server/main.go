package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/data"
	"github.com/nepallicenseprep/likhit-backend/internal/database"
	"github.com/nepallicenseprep/likhit-backend/internal/exam"
	"github.com/nepallicenseprep/likhit-backend/internal/handler"
	"github.com/nepallicenseprep/likhit-backend/internal/logger"
	"github.com/nepallicenseprep/likhit-backend/internal/middleware"
	"github.com/nepallicenseprep/likhit-backend/internal/repository"
	"github.com/nepallicenseprep/likhit-backend/internal/router"
	"github.com/nepallicenseprep/likhit-backend/internal/scheduler"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
	"github.com/nepallicenseprep/likhit-backend/internal/validator"
	"github.com/nepallicenseprep/likhit-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("env", cfg.AppEnv).
		Str("archive", cfg.ArchiveBackend).
		Msg("Starting Likhit Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Embedded Content ─────────────────────────────────────────
	// Malformed banks are a build defect; refuse to start.
	questionRepo, err := repository.LoadQuestions(repository.EmbeddedBanks()...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load question banks")
	}
	signRepo, err := repository.LoadTrafficSigns(data.TrafficSigns)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load traffic signs")
	}
	log.Info().Int("questions", len(questionRepo.LoadAll())).Msg("Question banks loaded")

	// ─── Connect to PostgreSQL (optional) ──────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	if pool != nil {
		defer pool.Close()
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		if cfg.ArchiveBackend == config.ArchiveBackendRedis {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Warn().Err(err).Msg("Redis unavailable, continuing without queue and cache")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	var archive exam.Archive
	switch cfg.ArchiveBackend {
	case config.ArchiveBackendMemory:
		archive = repository.NewMemoryResultArchive()
	case config.ArchiveBackendRedis:
		archive = repository.NewRedisResultArchive(rdb, log)
	default:
		log.Fatal().Str("archive", cfg.ArchiveBackend).Msg("Unknown ARCHIVE_BACKEND")
	}

	// Interfaces stay nil without a database so the services can tell.
	var (
		statsReader  service.StatsReader
		contactStore service.ContactStore
		resultRepo   *repository.SessionResultRepository
	)
	if pool != nil {
		resultRepo = repository.NewSessionResultRepository(pool)
		statsReader = resultRepo
		contactStore = repository.NewContactRepository(pool)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	questionService := service.NewQuestionService(questionRepo, cfg.PracticePerPage)
	sessionService := service.NewExamSessionService(cfg, questionRepo, archive, exam.SystemClock{}, rdb, log)
	signService := service.NewTrafficSignService(signRepo)
	adService := service.NewAdService(cfg.Ads, config.AdPlacements)
	statsService := service.NewStatsService(statsReader, rdb, log)
	contactService := service.NewContactService(contactStore, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Question: handler.NewQuestionHandler(questionService),
		Session:  handler.NewSessionHandler(sessionService),
		Catalog:  handler.NewCatalogHandler(signService, adService, statsService, contactService),
		WS:       handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	if resultRepo != nil && rdb != nil {
		resultWorker := worker.NewResultWorker(resultRepo, rdb, log)
		go func() {
			defer close(workerDone)
			resultWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
		log.Info().Msg("Analytics disabled, result worker not started")
	}

	sched := scheduler.New(sessionService, scheduler.DefaultSweepInterval, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	contactLimiter := middleware.NewRateLimiter(cfg.ContactRatePerMinute, time.Minute)
	r := router.SetupRouter(authService, handlers, cfg, contactLimiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop timers and periodic jobs. Live sessions are dropped.
	sched.Stop()
	contactLimiter.Stop()
	sessionService.Close()
	log.Info().Int("sessions", sessionService.Active()).Msg("Session timers stopped")

	// 3. Stop the result worker and wait for its queue to drain.
	workerCancel()
	waitForWorker(workerDone, log)

	log.Info().Msg("Shutdown complete")
}

func waitForWorker(done <-chan struct{}, log zerolog.Logger) {
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Result worker did not drain in time")
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
