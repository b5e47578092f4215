package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fxnow/fxnow/internal/clients/bok"
	"github.com/fxnow/fxnow/internal/core/services"
	"github.com/fxnow/fxnow/internal/handlers"
	"github.com/fxnow/fxnow/internal/middleware"
	"github.com/fxnow/fxnow/internal/providers"
	"github.com/fxnow/fxnow/internal/ratelimit"
	"github.com/fxnow/fxnow/internal/repositories/database/pgsql"
	"github.com/fxnow/fxnow/internal/scheduler"
	"github.com/fxnow/fxnow/pkg/config"
	"github.com/fxnow/fxnow/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		os.Exit(1)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		logger.Error("Failed to initialize Redis client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.CloseRedisClient(redisClient)

	// Resolution chain: cache -> persistence -> upstream, each tier
	// delegating misses to the next.
	upstreamLimiter := ratelimit.NewRedisSlidingWindow(redisClient, cfg.CachePrefix, ratelimit.Config{
		MaxCalls:    cfg.RateLimitMaxCalls,
		Window:      cfg.RateLimitWindow,
		MaxWait:     cfg.RateLimitMaxWait,
		MinInterval: cfg.RateLimitMinInterval,
		Block:       cfg.RateLimitBlock,
	})
	bokClient := bok.NewClient(cfg.BokBaseURL, cfg.BokAPIKey, cfg.BokStatCode, cfg.BokTimeout, upstreamLimiter)
	snapshotRepo := pgsql.NewRateSnapshotRepository(dbPool)
	dbProvider := providers.NewDatabaseRateProvider(bokClient, snapshotRepo)
	cachedProvider := providers.NewCachedRateProvider(dbProvider, redisClient, providers.CacheConfig{
		KeyPrefix: cfg.CachePrefix,
		BaseTTL:   cfg.CacheTTL,
		Jitter:    cfg.CacheJitter,
		StaleTTL:  cfg.CacheStaleTTL,
	})

	exchangeRateService := services.NewExchangeRateService(cachedProvider)

	// Pre-populate the cache before accepting traffic, then keep active
	// currencies fresh in the background.
	scheduler.WarmupCache(ctx, exchangeRateService, logger)
	tracker := scheduler.NewActiveCurrencyTracker()
	refresher := scheduler.NewRateRefresher(exchangeRateService, tracker, cfg.RefreshInterval, logger)
	go refresher.Start(ctx)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	if rate, rerr := limiter.NewRateFromFormatted(cfg.HTTPRateLimit); rerr != nil {
		logger.Error("Invalid HTTP rate limit format", slog.String("value", cfg.HTTPRateLimit), slog.String("error", rerr.Error()))
		os.Exit(1)
	} else {
		ipLimiter := limiter.New(memory.NewStore(), rate)
		r.Use(middleware.RateLimit(ipLimiter))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, exchangeRateService, upstreamLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Migrations use a standard sql.DB connection via the pgx stdlib driver.
	migrationDB, err := sql.Open("pgx", databaseURL)
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

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
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

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
