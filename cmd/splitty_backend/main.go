package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/splittyhq/splitty_backend/internal/adapters/database/pgsql"
	"github.com/splittyhq/splitty_backend/internal/adapters/feed"
	"github.com/splittyhq/splitty_backend/internal/adapters/snapshot"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/core/services"
	"github.com/splittyhq/splitty_backend/internal/handlers"
	"github.com/splittyhq/splitty_backend/internal/middleware"
	"github.com/splittyhq/splitty_backend/internal/platform/config"
	"github.com/splittyhq/splitty_backend/internal/utils"
	"github.com/splittyhq/splitty_backend/pkg/database"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// @title Splitty Backend API
// @version 1.0
// @description Local sync daemon for the Splitty expense splitting app.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	// Each daemon process gets its own session identity so it can tell
	// its own change-feed echoes apart from writes made on other devices.
	sessionID := uuid.NewString()
	logger.Info("Sync session initialized", slog.String("session_id", sessionID))

	remote := pgsql.NewRemote(dbPool, sessionID)
	snap := snapshot.NewStore(cfg.SnapshotDir)
	store := services.NewStoreService(snap)

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	listener := feed.NewListener(dbPool, logger)
	notifier := services.NewLogNotifier(logger, posthogClient, cfg.OwnerUserID)
	syncSvc := services.NewSyncService(remote, listener, notifier, store, cfg.OwnerUserID, sessionID, logger)
	store.AttachSync(syncSvc)
	authSvc := services.NewAuthService(remote.ProfileRepository, cfg)

	// Cached snapshot first so the API is usable immediately, then the
	// authoritative remote state when it is reachable.
	if err := store.Hydrate(ctx); err != nil {
		logger.Error("Failed to hydrate local state", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := syncSvc.Refetch(ctx); err != nil {
		logger.Warn("Initial refetch failed, serving snapshot state", slog.String("error", err.Error()))
	}

	if err := syncSvc.Start(ctx); err != nil {
		logger.Error("Failed to start sync service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer syncSvc.Wait()

	if created, err := store.CheckRecurringExpenses(ctx); err != nil {
		logger.Warn("Recurring expense check failed", slog.String("error", err.Error()))
	} else if created > 0 {
		logger.Info("Materialized due recurring expenses", slog.Int("count", created))
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting, analytics)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConfig))

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	ipLimiter := limiter.New(limitermem.NewStore(), rate)
	r.Use(middleware.RateLimit(ipLimiter))

	r.Use(middleware.PosthogMiddleware(posthogClient))

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, &portssvc.ServiceContainer{
		Store: store,
		Sync:  syncSvc,
		Auth:  authSvc,
	})

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies pending schema migrations over a short-lived
// database/sql connection, separate from the pgx pool the app uses.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", upErr.Error()))
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
