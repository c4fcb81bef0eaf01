package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/quiltfolk/quiltfolk/internal/app"
	"github.com/quiltfolk/quiltfolk/internal/auth"
	"github.com/quiltfolk/quiltfolk/internal/billing"
	"github.com/quiltfolk/quiltfolk/internal/blocks"
	"github.com/quiltfolk/quiltfolk/internal/forum"
	"github.com/quiltfolk/quiltfolk/internal/observability"
	"github.com/quiltfolk/quiltfolk/internal/patterns"
	"github.com/quiltfolk/quiltfolk/internal/projects"
	"github.com/quiltfolk/quiltfolk/internal/shared"
	"github.com/quiltfolk/quiltfolk/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "quiltfolk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)
	authMiddleware := auth.Middleware{Service: authService, SessionManager: sessionManager, Logger: logger}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, authMiddleware)

	billingHandler := billing.NewHandler(authMiddleware)

	patternsRepo := patterns.NewRepository(dbpool)
	patternsCache := patterns.NewCache(redisClient, 10*time.Minute)
	patternsService := patterns.NewService(patternsRepo, patternsCache)
	patternsHandler := patterns.NewHandler(logger, patternsService, authMiddleware)

	blocksRepo := blocks.NewRepository(dbpool)
	blocksService := blocks.NewService(blocksRepo)
	blocksHandler := blocks.NewHandler(logger, blocksService)

	projectsRepo := projects.NewRepository(dbpool)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService, authMiddleware)

	forumRepo := forum.NewRepository(dbpool)
	forumService := forum.NewService(forumRepo)
	forumHandler := forum.NewHandler(logger, forumService, authMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		BillingHandler:  billingHandler,
		PatternsHandler: patternsHandler,
		BlocksHandler:   blocksHandler,
		ProjectsHandler: projectsHandler,
		ForumHandler:    forumHandler,
		Metrics:         metrics,
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
