package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/change-control/internal/api/http"
	"github.com/spec-kit/change-control/internal/api/http/handlers"
	"github.com/spec-kit/change-control/internal/auth"
	"github.com/spec-kit/change-control/internal/config"
	"github.com/spec-kit/change-control/internal/events"
	"github.com/spec-kit/change-control/internal/mail"
	"github.com/spec-kit/change-control/internal/mapper"
	"github.com/spec-kit/change-control/internal/observability"
	"github.com/spec-kit/change-control/internal/persistence"
	"github.com/spec-kit/change-control/internal/repository"
	"github.com/spec-kit/change-control/internal/service"
	"github.com/spec-kit/change-control/internal/storage"
	"github.com/spec-kit/change-control/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	statusRepo := repository.NewCachedDeploymentStatusRepository(
		repository.NewDeploymentStatusRepository(pool), redis.Client, cfg.Redis.StatusCacheTTL(), logger)
	historyRepo := repository.NewDeploymentHistoryRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	sqlInstanceRepo := repository.NewSqlInstanceRepository(pool)

	dispatcher := events.NewAsyncDispatcher(logger, cfg.Notification.Workers, cfg.Notification.QueueSize)
	var mailer mail.Mailer
	if cfg.Notification.Enabled() {
		mailer = mail.NewSMTPMailer(cfg.Notification)
	} else {
		logger.Warn("SMTP_HOST not provided; approver emails disabled")
	}
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		GroupRepo:  groupRepo,
		Mailer:     mailer,
		Logger:     logger,
		Config:     cfg.Notification,
		Storage:    cfg.Storage,
	})
	notificationWorker := worker.StartNotificationWorker(dispatcher, notificationService)

	validate := service.NewValidator()
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Mapper:     mapper.NewTicketMapper(),
		FileStore:  storage.NewLocalStore(cfg.Storage.UploadLocation, logger),
		Dispatcher: dispatcher,
		Validator:  validate,
		Storage:    cfg.Storage,
		Logger:     logger,
	})
	deploymentService := service.NewDeploymentService(service.DeploymentDependencies{
		StatusRepo:  statusRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Validator:   validate,
	})
	referenceService := service.NewReferenceService(groupRepo, sqlInstanceRepo)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitMB * 1024 * 1024,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Deployments:    handlers.NewDeploymentsHandler(deploymentService),
		Reference:      handlers.NewReferenceHandler(referenceService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	notificationWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
