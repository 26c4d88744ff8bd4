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

	"identity_service/internal/auth"
	"identity_service/internal/config"
	"identity_service/internal/http_server/handlers/health"
	"identity_service/internal/http_server/router"
	"identity_service/internal/lib/jwt"
	sl "identity_service/internal/lib/logger"
	"identity_service/internal/lib/validate"
	"identity_service/internal/models"
	"identity_service/internal/notifications"
	"identity_service/internal/operations"
	"identity_service/internal/rabbitmq"
	"identity_service/internal/session"
	"identity_service/internal/storage/postgres"
	"identity_service/internal/storage/redis"
	"identity_service/internal/users"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting identity service", slog.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	if cfg.Postgres.Migrate {
		if err := storage.EnsureSchema(ctx); err != nil {
			log.Error("failed to apply schema", sl.Err(err))
			os.Exit(1)
		}
	}

	redisRepo, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer redisRepo.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	if err := msgBroker.DeclareQueue(cfg.RabbitMQ.QueueName); err != nil {
		log.Error("failed to declare queue", sl.Err(err))
		os.Exit(1)
	}

	sessions := session.New(log, redisRepo)
	userService := users.New(log, storage, 0)

	issuer := jwt.New(
		jwt.Secret{Key: cfg.Auth.JWT.Access.Secret, TTL: cfg.Auth.JWT.Access.ExpiresIn},
		jwt.Secret{Key: cfg.Auth.JWT.Refresh.Secret, TTL: cfg.Auth.JWT.Refresh.ExpiresIn},
	)

	registry, err := operations.NewRegistry(
		log,
		operations.Deps{Operations: storage, Users: userService, Tx: storage},
		operations.Table(userService, sessions, map[models.OperationType]time.Duration{
			models.OperationSignUp:           cfg.UserOperations.SignUp.TTL,
			models.OperationPasswordRecovery: cfg.UserOperations.PasswordRecovery.TTL,
			models.OperationPasswordChange:   cfg.UserOperations.PasswordChange.TTL,
			models.OperationEmailChange:      cfg.UserOperations.EmailChange.TTL,
		}),
	)
	if err != nil {
		log.Error("failed to build operations", sl.Err(err))
		os.Exit(1)
	}

	dispatcher := notifications.NewDispatcher(
		log,
		notifications.NewEmailChannel(msgBroker, cfg.RabbitMQ.QueueName, cfg.Notifications.BaseURL),
	)

	authService := auth.New(
		log,
		userService,
		storage,
		sessions,
		issuer,
		auth.Engines{
			SignUp:           registry.MustEngine(models.OperationSignUp),
			PasswordRecovery: registry.MustEngine(models.OperationPasswordRecovery),
			PasswordChange:   registry.MustEngine(models.OperationPasswordChange),
			EmailChange:      registry.MustEngine(models.OperationEmailChange),
		},
		dispatcher,
	)

	handler := router.New(
		log,
		validate.New(),
		authService,
		health.Checks{
			Postgres: storage.Ping,
			Sessions: sessions.IsReady,
			Broker:   func() bool { return !msgBroker.IsClosed() },
		},
		cfg.RateLimit,
		cfg.CORS.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Identity service stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
