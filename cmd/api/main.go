package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/certilote/certify-engine/internal/config"
	"github.com/certilote/certify-engine/internal/handler"
	"github.com/certilote/certify-engine/internal/infra/postgresql"
	"github.com/certilote/certify-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/certilote/certify-engine/internal/infra/redis"
	"github.com/certilote/certify-engine/internal/observability"
	"github.com/certilote/certify-engine/internal/queue"
	"github.com/certilote/certify-engine/internal/repository"
	"github.com/certilote/certify-engine/internal/service"
	"github.com/certilote/certify-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}
	logCache := infraredis.NewLogCache(rdb)

	metrics := observability.NewMetrics()

	loteRepo := repository.NewGormLoteRepo(db)
	materiaRepo := repository.NewGormMateriaPrimaRepo(db)
	maquinaRepo := repository.NewGormMaquinaRepo(db)
	procesoRepo := repository.NewGormProcesoRepo(db)
	medicionRepo := repository.NewGormMedicionRepo(db)
	certificadoRepo := repository.NewGormCertificadoRepo(db)

	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)

	certificationSvc, err := service.NewCertificationService(
		loteRepo, procesoRepo, medicionRepo, certificadoRepo,
		publisher, rateLimiter, logCache, logger,
	)
	if err != nil {
		logger.Fatal("certification service init failed", zap.Error(err))
	}
	certificationSvc.SetMetrics(metrics)

	catalogSvc, err := service.NewCatalogService(materiaRepo, maquinaRepo, procesoRepo, logger)
	if err != nil {
		logger.Fatal("catalog service init failed", zap.Error(err))
	}

	worker, err := service.NewCertificateWorker(
		certificationSvc, loteRepo, certificadoRepo,
		consumer, cfg.WorkerConcurrency, logger,
	)
	if err != nil {
		logger.Fatal("certificate worker init failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	scanner, err := service.NewFinalizeScanner(loteRepo, publisher, 0, 0, logger)
	if err != nil {
		logger.Fatal("finalize scanner init failed", zap.Error(err))
	}
	scanner.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	tokens := transport.NewTokenRoles(cfg.AdminTokenList(), cfg.OperatorTokenList())
	api := app.Group("/api", transport.AuthMiddleware(tokens))

	if err := handler.RegisterLoteRoutes(api, certificationSvc); err != nil {
		logger.Fatal("lote route registration failed", zap.Error(err))
	}
	if err := handler.RegisterWorkflowRoutes(api, certificationSvc); err != nil {
		logger.Fatal("workflow route registration failed", zap.Error(err))
	}
	if err := handler.RegisterCatalogRoutes(api, catalogSvc); err != nil {
		logger.Fatal("catalog route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("certify-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		return worker.Start(groupCtx)
	})

	g.Go(func() error {
		return scanner.Start(groupCtx)
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", zap.Error(err))
	}
	logger.Info("certify-engine api stopped")
}
