package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ideb/interview-agenda/internal/app"
	"github.com/ideb/interview-agenda/internal/config"
	"github.com/ideb/interview-agenda/internal/controller"
	"github.com/ideb/interview-agenda/internal/model"
	"github.com/ideb/interview-agenda/internal/notification"
	"github.com/ideb/interview-agenda/internal/repository"
	"github.com/ideb/interview-agenda/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting interview agenda service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, "migrations")
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	directoryRepo := repository.NewDirectoryRepository(pool)
	windowRepo := repository.NewWindowRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)

	notifier := buildNotifier(cfg, logger)

	policy := model.DurationPolicy{
		High:   cfg.TierHighMinutes,
		Medium: cfg.TierMediumMinutes,
		Low:    cfg.TierLowMinutes,
	}

	allocation := service.NewAllocationService(directoryRepo, windowRepo, requestRepo, notifier, policy, logger)
	closer := service.NewCloserService(directoryRepo, windowRepo, requestRepo, notifier, policy, logger)

	scheduler, err := app.NewCloseScheduler(closer, cfg.CloseJobHour, cfg.CloseJobMinute, cfg.CloseJobTZ, logger)
	if err != nil {
		logger.Fatal("Failed to create close scheduler", zap.Error(err))
	}
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start close scheduler", zap.Error(err))
	}

	server := controller.NewServer(allocation, scheduler, cfg.CronSecret, cfg.Environment, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	scheduler.Stop()
	if err := server.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Interview agenda service stopped")
}

// buildNotifier assembles the configured channels. Email is preferred when
// both are configured; with neither, confirmations are logged and dropped.
func buildNotifier(cfg *config.Config, logger *zap.Logger) notification.Notifier {
	var email, telegram notification.Notifier

	if cfg.BrevoAPIKey != "" && cfg.EmailSender != "" {
		email = notification.NewEmailNotifier(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName, logger)
		logger.Info("Email notifications enabled", zap.String("sender", cfg.EmailSender))
	}

	if cfg.TelegramToken != "" {
		tg, err := notification.NewTelegramNotifier(cfg.TelegramToken, logger)
		if err != nil {
			logger.Error("Telegram notifier init failed, channel disabled", zap.Error(err))
		} else {
			telegram = tg
			logger.Info("Telegram notifications enabled")
		}
	}

	if email == nil && telegram == nil {
		logger.Warn("No notification channel configured, confirmations will be logged only")
		return notification.NewLogNotifier(logger)
	}

	return notification.NewFanout(email, telegram)
}
