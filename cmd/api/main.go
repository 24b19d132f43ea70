package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/inquiry-service/internal/api/http"
	"github.com/spec-kit/inquiry-service/internal/api/http/handlers"
	"github.com/spec-kit/inquiry-service/internal/auth"
	"github.com/spec-kit/inquiry-service/internal/config"
	"github.com/spec-kit/inquiry-service/internal/events"
	"github.com/spec-kit/inquiry-service/internal/identity"
	"github.com/spec-kit/inquiry-service/internal/observability"
	"github.com/spec-kit/inquiry-service/internal/persistence"
	"github.com/spec-kit/inquiry-service/internal/ratelimit"
	"github.com/spec-kit/inquiry-service/internal/repository"
	"github.com/spec-kit/inquiry-service/internal/risk"
	"github.com/spec-kit/inquiry-service/internal/service"
	"github.com/spec-kit/inquiry-service/internal/sms"
	"github.com/spec-kit/inquiry-service/internal/storage"
	"github.com/spec-kit/inquiry-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var limiter ratelimit.Limiter
	if cfg.RateLimit.UseRedis {
		limiter = ratelimit.NewRedis(redis.Client, cfg.RateLimit.Window())
	} else {
		limiter = ratelimit.NewInMemory(cfg.RateLimit.Window())
	}

	pool := pg.PoolHandle()
	inquiryRepo := repository.NewInquiryRepository(pool)
	counterRepo := repository.NewCounterRepository(pool)

	riskClient := risk.NewClient(cfg.Risk, logger)
	smsClient := sms.NewClient(cfg.SMS, logger)
	objectStore := storage.NewClient(cfg.Storage, logger)
	verifiers := identity.NewRegistry(cfg.Auth, logger)
	exchanger := identity.NewTokenExchanger(cfg.Auth, logger)
	policy := auth.NewPolicy(cfg.Auth.AllowedEmails, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	inquiryService := service.NewInquiryService(service.InquiryDependencies{
		InquiryRepo: inquiryRepo,
		CounterRepo: counterRepo,
		Limiter:     limiter,
		MaxRequests: cfg.RateLimit.MaxRequests,
		Assessor:    riskClient,
		ObjectStore: objectStore,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	confirmationService := service.NewConfirmationService(inquiryRepo, smsClient, dispatcher, logger)
	smsService := service.NewSMSService(smsClient, dispatcher, metrics, logger)

	authMiddleware := auth.NewMiddleware(verifiers, policy)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	uploadTTL := time.Duration(cfg.Storage.UploadURLTTLMinutes) * time.Minute
	downloadTTL := time.Duration(cfg.Storage.DownloadURLTTLMinutes) * time.Minute

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	publicHandler := handlers.NewPublicHandler(inquiryService, exchanger, policy, uploadTTL)
	inquiriesHandler := handlers.NewInquiriesHandler(inquiryService, confirmationService, downloadTTL)
	smsHandler := handlers.NewSMSHandler(smsService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Public:         publicHandler,
		Inquiries:      inquiriesHandler,
		SMS:            smsHandler,
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
