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
	"github.com/redis/go-redis/v9"

	"github.com/lectern-app/lectern/internal/app"
	"github.com/lectern-app/lectern/internal/audit"
	"github.com/lectern-app/lectern/internal/auth"
	"github.com/lectern-app/lectern/internal/authz"
	"github.com/lectern-app/lectern/internal/books"
	"github.com/lectern-app/lectern/internal/observability"
	"github.com/lectern-app/lectern/internal/platform/db"
	"github.com/lectern-app/lectern/internal/rbac"
	"github.com/lectern-app/lectern/internal/users"
	"github.com/lectern-app/lectern/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	engine := authz.NewEngine(authz.NewCatalog(pool), authz.NewAssignments(pool), logger, metrics)
	if err := engine.Initialize(ctx); err != nil {
		logger.Error("initialize permission catalog", slog.Any("error", err))
		os.Exit(1)
	}
	gate := authz.NewGate(engine)
	guard := &authz.Middleware{Gate: gate, Logger: logger}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	denylist := auth.NewDenylist(redisClient)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, denylist)
	authHandler := auth.NewHandler(logger, authService)
	authenticator := auth.Authenticator{Tokens: tokens, Denylist: denylist, Logger: logger}

	trail := audit.NewLogger(pool)

	booksRepo := books.NewRepository(pool)
	booksService := books.NewService(booksRepo, trail, logger)
	booksHandler := books.NewHandler(logger, booksService)

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, trail, engine, logger)
	rbacHandler := rbac.NewHandler(logger, rbacService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, trail, logger)
	usersHandler := users.NewHandler(logger, usersService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, cfg.AuditRetention, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Authenticator: authenticator,
		Guard:         guard,
		AuthHandler:   authHandler,
		BooksHandler:  booksHandler,
		RBACHandler:   rbacHandler,
		UsersHandler:  usersHandler,
		JobHandler:    jobHandler,
		Metrics:       metrics,
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
