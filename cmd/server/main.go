package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/latticekit/api/internal/audit"
	"github.com/latticekit/api/internal/config"
	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/handler"
	"github.com/latticekit/api/internal/jobs"
	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/migrate"
	"github.com/latticekit/api/internal/repository"
	"github.com/latticekit/api/internal/repository/memory"
	"github.com/latticekit/api/internal/service"
	"github.com/latticekit/api/pkg/jwt"
)

// version is stamped at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	health := service.NewHealthService(version)

	// Select the store driver
	var (
		userRepo    service.UserRepository
		sessionRepo service.SessionRepository
		keyRepo     service.APIKeyRepository
		postRepo    service.PostRepository
	)

	switch cfg.Store.Driver {
	case config.StoreDriverSurrealDB:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := db.Connect(ctx); err != nil {
			slog.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		slog.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Database),
		)

		applied, err := migrate.New(db, logger).Up(ctx)
		if err != nil {
			slog.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if applied > 0 {
			slog.Info("applied migrations", slog.Int("count", applied))
		}

		userRepo = repository.NewUserRepository(db)
		sessionRepo = repository.NewSessionRepository(db)
		keyRepo = repository.NewAPIKeyRepository(db)
		postRepo = repository.NewPostRepository(db)
		health.Register("database", true, service.DatabaseCheck(db))

	case config.StoreDriverMemory:
		slog.Warn("using in-memory store; all data is lost on restart")
		userRepo = memory.NewUserRepository()
		sessionRepo = memory.NewSessionRepository()
		keyRepo = memory.NewAPIKeyRepository()
		postRepo = memory.NewPostRepository()
		health.Register("store", true, service.MemoryStoreCheck())

	default:
		slog.Error("unknown store driver", slog.String("driver", cfg.Store.Driver))
		os.Exit(1)
	}

	// Optional Redis cache; its probe is non-critical so a cache outage
	// does not take the API out of rotation
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		cache := redis.NewClient(opts)
		defer func() { _ = cache.Close() }()
		health.Register("redis", false, service.RedisCheck(cache))
	}

	if cfg.Health.ExternalURL != "" {
		health.Register("external", false, service.HTTPCheck(nil, cfg.Health.ExternalURL))
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize services
	auditLog := audit.New(logger)

	tokenService := service.NewTokenService(service.TokenServiceConfig{
		JWTService:  jwtService,
		SessionRepo: sessionRepo,
		SessionTTL:  cfg.Session.TTL,
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokenService,
		AuditLog:     auditLog,
	})
	userService := service.NewUserService(userRepo, auditLog)
	postService := service.NewPostService(postRepo)
	keyService := service.NewAPIKeyService(keyRepo, userRepo, auditLog)

	// Background session cleanup
	reaper := jobs.NewSessionReaper(sessionRepo, logger, time.Hour)
	reaper.Start()
	defer reaper.Stop()

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	// Initialize idempotency store
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     24 * time.Hour,
		Cleanup: time.Hour,
	})
	defer idempotencyStore.Stop()

	// Register routes and apply global middleware
	mux := handler.NewMux(handler.Services{
		Auth:   authService,
		Token:  tokenService,
		User:   userService,
		Post:   postService,
		APIKey: keyService,
		Health: health,
	})

	wrapped := middleware.Chain(
		mux,
		middleware.CorrelationID,
		middleware.Logger,
		middleware.Recovery,
		middleware.SecurityHeaders,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("store", cfg.Store.Driver),
			slog.String("version", version),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
