package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkaminski/vocadrill/internal/access"
	"github.com/pkaminski/vocadrill/internal/config"
	"github.com/pkaminski/vocadrill/internal/domain/srs"
	"github.com/pkaminski/vocadrill/internal/platform/gemini"
	"github.com/pkaminski/vocadrill/internal/platform/postgres"
	"github.com/pkaminski/vocadrill/internal/service"
	"github.com/pkaminski/vocadrill/internal/service/auth"
	"github.com/pkaminski/vocadrill/internal/store"
	"github.com/pkaminski/vocadrill/internal/study"
	"github.com/pkaminski/vocadrill/internal/task"
	"github.com/pkaminski/vocadrill/internal/timeguard"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore    store.UserStore
	wordStore    store.WordStore
	groupStore   store.GroupStore
	sessionStore store.SessionStore
	recordStore  store.RecordStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	trustedClock     timeguard.TrustedClock
	gate             access.Gate
	srsService       srs.Service
	sessionService   study.SessionService
	userService      service.UserService

	// Background jobs
	maintenance *task.MaintenanceScheduler
	enricher    *task.Enricher
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	app.wordStore = postgres.NewPostgresWordStore(db, logger)
	app.groupStore = postgres.NewPostgresGroupStore(db, logger)
	app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
	app.recordStore = postgres.NewPostgresRecordStore(db, logger)
	unlockStore := postgres.NewPostgresUnlockStore(db, logger)
	dailyCountStore := postgres.NewPostgresDailyCountStore(db, logger)
	clockMarkStore := postgres.NewPostgresClockMarkStore(db, logger)

	// The trusted clock backs both the access gate and the scheduler, so
	// every component sees the same rollback-guarded time.
	app.trustedClock = timeguard.NewTrustedClock(clockMarkStore, logger)

	app.gate = access.NewGate(
		db,
		dailyCountStore,
		unlockStore,
		app.trustedClock,
		cfg.Study.DailyFreeQuota,
		time.Duration(cfg.Study.UnlockDurationHours)*time.Hour,
		logger,
	)

	app.srsService = srs.NewDefaultService()

	app.sessionService = study.NewSessionService(
		db,
		app.wordStore,
		app.groupStore,
		app.sessionStore,
		app.recordStore,
		app.gate,
		app.srsService,
		app.trustedClock,
		study.NewUserSettingsProvider(app.userStore),
		study.NewServerRewardedAds(),
		cfg.Study.SessionBatchSize,
		logger,
	)

	app.userService = service.NewUserService(app.userStore, db, logger)

	app.maintenance = task.NewMaintenanceScheduler(
		app.sessionStore,
		app.trustedClock,
		time.Duration(cfg.Study.StaleSessionHours)*time.Hour,
		logger,
	)

	if cfg.LLM.Enabled() {
		generator, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize example generator: %w", err)
		}
		app.enricher = task.NewEnricher(app.wordStore, generator, logger)
		logger.Info("example sentence enrichment enabled",
			"model", cfg.LLM.ModelName)
	} else {
		logger.Info("example sentence enrichment disabled: no API key configured")
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the background jobs and the HTTP server, handling lifecycle
// and cleanup. It blocks until the server shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.maintenance.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	if app.enricher != nil {
		if err := app.enricher.Start(); err != nil {
			return fmt.Errorf("failed to start example enricher: %w", err)
		}
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.enricher != nil {
		app.enricher.Stop()
	}
	if app.maintenance != nil {
		app.maintenance.Stop()
	}

	closeDatabase(app.db, app.logger)
	app.logger.Info("Application shutdown completed")
}
