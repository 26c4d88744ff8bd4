package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"identity_service/internal/config"
	sl "identity_service/internal/lib/logger"
	"identity_service/internal/mailer"
	"identity_service/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadSender()
	log := setupLogger(cfg.Env)

	log.Info("Starting email_sender", slog.String("env", cfg.Env), slog.String("provider", cfg.Mailer.Provider))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("email_sender stopped with error", sl.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.SenderConfig, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	defer r.Close()

	templates, err := mailer.NewTemplates()
	if err != nil {
		return err
	}

	sender, err := mailer.NewSender(cfg.Mailer)
	if err != nil {
		return err
	}

	m := mailer.New(log, templates, sender)

	done := make(chan error, 1)

	go func() {
		done <- r.StartReading(ctx, cfg.RabbitMQ.QueueName, func(msg []byte) error {
			return m.Handle(ctx, msg)
		})
	}()

	log.Info("consumer successfully started", slog.String("queue", cfg.RabbitMQ.QueueName))

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")
	case err := <-done:
		if err != nil {
			return err
		}
		log.Info("consumer finished the work")
	}

	log.Info("service gracefully stopped")

	return nil
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
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
