package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/config"
	"github.com/BradenHooton/authgate/internal/database"
	"github.com/BradenHooton/authgate/internal/handlers"
	"github.com/BradenHooton/authgate/internal/i18n"
	"github.com/BradenHooton/authgate/internal/metrics"
	middlewareCustom "github.com/BradenHooton/authgate/internal/middleware"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/repositories"
	"github.com/BradenHooton/authgate/internal/routes"
	"github.com/BradenHooton/authgate/internal/services"
	pkgauth "github.com/BradenHooton/authgate/pkg/auth"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
	pkglogger "github.com/BradenHooton/authgate/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(context.Background(), &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Refresh session store
	redisClient, err := database.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", slog.Any("error", err))
		}
	}()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewRefreshSessionRepository(
		redisClient,
		cfg.Redis.KeyPrefix,
		cfg.Auth.RefreshTokenTTL,
		cfg.Redis.OpTimeout,
		collector,
		logger,
	)

	// Token codecs, one secret and audience per purpose
	accessCodec := auth.NewCodec[models.AccessClaims](cfg.Auth.AccessTokenSecret, cfg.Auth.AccessTokenTTL, models.TokenPurposeAccess)
	refreshCodec := auth.NewCodec[models.RefreshClaims](cfg.Auth.RefreshTokenSecret, cfg.Auth.RefreshTokenTTL, models.TokenPurposeRefresh)
	activationCodec := auth.NewCodec[models.ActivationPayload](cfg.Auth.ActivationSecret, cfg.Auth.ActivationTTL, models.TokenPurposeActivation)
	issuer := auth.NewSessionIssuer(accessCodec, refreshCodec, sessionRepo)

	totpManager, err := auth.NewTOTPManager(cfg.Auth.TOTPEncryptionKey, cfg.Auth.TOTPIssuer)
	if err != nil {
		logger.Error("failed to initialize TOTP manager", slog.Any("error", err))
		os.Exit(1)
	}

	hashPool := pkgauth.NewHashPool(pkgauth.NewBcryptHasher(cfg.Auth.BcryptCost), cfg.Auth.HashWorkers)

	mailer, err := newMailDispatcher(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	authService := services.NewAuthService(services.AuthServiceDeps{
		Users:             userRepo,
		Sessions:          sessionRepo,
		Issuer:            issuer,
		Activation:        activationCodec,
		Hashes:            hashPool,
		TOTP:              totpManager,
		Mailer:            mailer,
		Audit:             pkglogger.NewAuditLogger(logger),
		Metrics:           collector,
		Logger:            logger,
		StoreRetryBackoff: cfg.Auth.StoreRetryBackoff,
		FailureDelay:      auth.NewFailureDelay(cfg.Auth.FailureDelay, cfg.Auth.FailureJitter),
	})

	// Initialize handlers
	translator, err := i18n.New()
	if err != nil {
		logger.Error("failed to load translations", slog.Any("error", err))
		os.Exit(1)
	}
	responder, err := handlers.NewResponder(translator, logger)
	if err != nil {
		logger.Error("failed to initialize request validation", slog.Any("error", err))
		os.Exit(1)
	}
	authHandler := handlers.NewAuthHandler(authService, responder)
	secondFactorHandler := handlers.NewSecondFactorHandler(authService, responder)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": db.HealthCheck,
		"redis":    sessionRepo.Ping,
	}, 2*time.Second, logger)

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.ClientIP(ipConfig))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, authHandler, secondFactorHandler, authService)
	router.Get("/health", healthHandler.Health)
	router.Handle("/metrics", metrics.Handler(registry))

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", slog.Any("error", err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped gracefully")
}

func newMailDispatcher(cfg *config.Config, logger *slog.Logger) (services.MailDispatcher, error) {
	if cfg.Email.Provider == "ses" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return services.NewSESMailDispatcher(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Email.AppURL, logger)
	}
	logger.Warn("activation email delivery disabled, mails are logged only", slog.String("provider", cfg.Email.Provider))
	return services.NewLogMailDispatcher(cfg.Email.AppURL, cfg.Server.Env, logger), nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
