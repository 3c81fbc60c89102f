package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/config"
	"github.com/kendall-kelly/makanika-api/middleware"
	"github.com/kendall-kelly/makanika-api/router"
	"github.com/kendall-kelly/makanika-api/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting Makanika API",
		zap.String("env", cfg.GoEnv),
		zap.String("env_file", cfg.EnvFile),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	if err := config.SeedRoles(db); err != nil {
		logger.Fatal("failed to seed roles", zap.Error(err))
	}
	logger.Info("database migration completed successfully")

	deps, cleanup, err := buildDependencies(cfg, db, logger)
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// buildDependencies wires services for the router. The returned cleanup releases
// the rate-limit store connection, if any.
func buildDependencies(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (router.Dependencies, func(), error) {
	tokens, err := services.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		return router.Dependencies{}, nil, err
	}

	hasher := services.BcryptHasher{}
	jobs := services.NewJobService(db, hasher, logger, cfg.PhoneCountryCode)

	var images services.ImageService
	if cfg.PhotoStorageEnabled() {
		s3Service, err := services.NewS3Service(context.Background(), cfg, logger)
		if err != nil {
			return router.Dependencies{}, nil, err
		}
		images = services.NewImageService(s3Service)
	} else {
		logger.Warn("AWS_S3_BUCKET not set, job photos are disabled")
	}

	store, cleanup := rateLimitStore(cfg, logger)

	return router.Dependencies{
		DB:              db,
		Log:             logger,
		Tokens:          tokens,
		Identity:        services.NewIdentityService(db, hasher, logger),
		Jobs:            jobs,
		Inventory:       services.NewInventoryService(db, logger),
		Photos:          services.NewPhotoService(db, jobs, images, logger),
		Limiter:         middleware.NewRateLimiter(store, logger),
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
		CORSOrigins:     cfg.CORSOrigins,
	}, cleanup, nil
}

// rateLimitStore uses Redis when REDIS_URL is set and reachable, otherwise process memory
func rateLimitStore(cfg *config.Config, logger *zap.Logger) (middleware.RateLimitStore, func()) {
	noop := func() {}
	if cfg.RedisURL == "" {
		return middleware.NewMemoryStore(), noop
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, using in-memory rate limiting", zap.Error(err))
		return middleware.NewMemoryStore(), noop
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-memory rate limiting", zap.Error(err))
		_ = client.Close()
		return middleware.NewMemoryStore(), noop
	}

	logger.Info("rate limiting backed by redis", zap.String("addr", opts.Addr))
	return middleware.NewRedisStore(client), func() { _ = client.Close() }
}
