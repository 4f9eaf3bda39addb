package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lokapasar/lokapasar/internal/app"
	"github.com/lokapasar/lokapasar/internal/audit"
	"github.com/lokapasar/lokapasar/internal/auth"
	"github.com/lokapasar/lokapasar/internal/moderation"
	"github.com/lokapasar/lokapasar/internal/observability"
	"github.com/lokapasar/lokapasar/internal/platform/cache"
	"github.com/lokapasar/lokapasar/internal/platform/db"
	"github.com/lokapasar/lokapasar/internal/rbac"
	"github.com/lokapasar/lokapasar/internal/shared"
	"github.com/lokapasar/lokapasar/internal/shops"
	"github.com/lokapasar/lokapasar/internal/users"
	"github.com/lokapasar/lokapasar/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, auditLogger, logger)
	if err := rbacService.EnsureSystemCatalog(ctx); err != nil {
		logger.Error("seed permission catalog", slog.Any("error", err))
		os.Exit(1)
	}
	rbacMiddleware := rbac.Middleware{Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, sessionManager)
	authResolver := auth.NewResolver(sessionManager, authRepo)
	authMiddleware := auth.Middleware{Resolver: authResolver, Sessions: sessionManager, Logger: logger, Metrics: metrics}
	authHandler := auth.NewHandler(logger, authService)

	moderationRepo := moderation.NewRepository(dbpool)
	moderationService := moderation.NewService(moderationRepo, logger, cfg.WarningThreshold, cfg.StrikeThreshold)
	moderationHandler := moderation.NewHandler(logger, moderationService, metrics)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	shopsRepo := shops.NewRepository(dbpool)
	shopsService := shops.NewService(shopsRepo)
	shopsHandler := shops.NewHandler(logger, shopsService)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect jobs queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthMiddleware:    authMiddleware,
		RBACMiddleware:    rbacMiddleware,
		AuthHandler:       authHandler,
		RBACHandler:       rbacHandler,
		ModerationHandler: moderationHandler,
		UsersHandler:      usersHandler,
		ShopsHandler:      shopsHandler,
		AuditHandler:      auditHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
