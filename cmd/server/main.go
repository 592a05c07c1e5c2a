package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/5h444n/cams/internal/app"
	"github.com/5h444n/cams/internal/config"
	"github.com/5h444n/cams/internal/controller"
	"github.com/5h444n/cams/internal/notify"
	"github.com/5h444n/cams/internal/repository"
	"github.com/5h444n/cams/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting CAMS server", zap.String("env", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	version, err := migrator.Version(ctx)
	if err != nil {
		logger.Fatal("Failed to get migration version", zap.Error(err))
	}
	logger.Info("Migrations applied", zap.Int64("version", version))
	migrator.Close()

	// Репозитории
	txManager := repository.NewTxManager(pool)
	userRepo := repository.NewUserRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	apptRepo := repository.NewAppointmentRepository(pool)
	waitlistRepo := repository.NewWaitlistRepository(pool)
	minuteRepo := repository.NewMinuteRepository(pool)
	noticeRepo := repository.NewNoticeRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// Сервисы. WaitlistService реализует обработчик освобождения слота
	// для lifecycle и sweep.
	waitlistService := service.NewWaitlistService(txManager, waitlistRepo, slotRepo, apptRepo, userRepo, notificationRepo, logger)
	lifecycleService := service.NewLifecycleService(txManager, slotRepo, apptRepo, notificationRepo, waitlistService, logger)
	sweepService := service.NewSweepService(txManager, apptRepo, notificationRepo, waitlistService, cfg.StalePendingAfter, cfg.NoShowGrace, logger)
	advisorService := service.NewAdvisorService(txManager, slotRepo, apptRepo, minuteRepo, waitlistService, notificationRepo, logger)
	adminService := service.NewAdminService(txManager, userRepo, noticeRepo, notificationRepo, logger)
	studentService := service.NewStudentService(slotRepo, apptRepo)

	// Издатель уведомлений: без брокера в development работаем вхолостую
	var publisher notify.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = notify.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to message broker", zap.Error(err))
		}
	} else {
		if cfg.Environment == "production" {
			logger.Fatal("AMQP_URL is required in production")
		}
		logger.Warn("AMQP_URL not set, notifications will be dropped")
		publisher = notify.NewNoopPublisher(logger)
	}
	defer publisher.Close()

	// Фоновые задачи
	dispatcher := notify.NewDispatcher(notificationRepo, publisher, cfg.DispatchInterval, cfg.DispatchBatchSize, cfg.DispatchMaxAttempts, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	sweeper := app.NewSweeper(sweepService, cfg.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP
	studentHandler := controller.NewStudentHandler(studentService, lifecycleService, waitlistService)
	advisorHandler := controller.NewAdvisorHandler(advisorService, lifecycleService)
	adminHandler := controller.NewAdminHandler(adminService)

	router := controller.NewRouter(userRepo, studentHandler, advisorHandler, adminHandler, logger)

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := router.Listen(cfg.HTTPAddr); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Ожидаем сигнал завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	if err := router.Shutdown(); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
