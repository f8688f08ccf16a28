package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/sbhdesk/complaint-engine/internal/api/http"
	"github.com/sbhdesk/complaint-engine/internal/api/http/handlers"
	"github.com/sbhdesk/complaint-engine/internal/auth"
	"github.com/sbhdesk/complaint-engine/internal/config"
	"github.com/sbhdesk/complaint-engine/internal/events"
	"github.com/sbhdesk/complaint-engine/internal/gateway"
	"github.com/sbhdesk/complaint-engine/internal/observability"
	"github.com/sbhdesk/complaint-engine/internal/persistence"
	"github.com/sbhdesk/complaint-engine/internal/repository"
	"github.com/sbhdesk/complaint-engine/internal/rowstore"
	"github.com/sbhdesk/complaint-engine/internal/service"
	"github.com/sbhdesk/complaint-engine/internal/worker"
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

	store, err := rowstore.NewPostgresStore(ctx, rowstore.PoolConfig{
		DSN:            cfg.Postgres.DSN,
		MaxConns:       cfg.Postgres.MaxConns,
		MinConns:       cfg.Postgres.MinConns,
		ConnMaxIdleSec: cfg.Postgres.ConnMaxIdleSec,
		ConnMaxLifeSec: cfg.Postgres.ConnMaxLifeSec,
	}, repository.Schemas(), logger)
	if err != nil {
		logger.Fatal("failed to open row store", zap.Error(err))
	}
	defer store.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	ticketRepo := repository.NewTicketRepository(store, cfg.Tickets.IDPrefix)
	staffRepo := repository.NewStaffRepository(store)
	ledgerRepo := repository.NewLedgerRepository(store)
	perfRepo := repository.NewPerformanceRepository(store)

	dispatcher := events.NewInMemoryDispatcher(logger)
	smsGateway := gateway.NewGateway(cfg.Gateway, logger)

	ticketService := service.NewTicketService(ticketRepo, dispatcher, logger)
	transitionService := service.NewTransitionService(service.TransitionDependencies{
		TicketRepo: ticketRepo,
		StaffRepo:  staffRepo,
		LedgerRepo: ledgerRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	delayService := service.NewDelayService(ticketRepo, ledgerRepo, metrics, logger)
	notifyService := service.NewNotifyService(service.NotifyDependencies{
		StaffRepo:       staffRepo,
		LedgerRepo:      ledgerRepo,
		Gateway:         smsGateway,
		Metrics:         metrics,
		Logger:          logger,
		Pacing:          cfg.Gateway.Pacing(),
		EscalationName:  cfg.Sweep.EscalationContactName,
		EscalationPhone: cfg.Sweep.EscalationContactPhone,
	})
	performanceService := service.NewPerformanceService(ticketRepo, ledgerRepo, perfRepo, redis.Client, logger)
	syncService := service.NewSyncService(ledgerRepo, logger)

	// Subscription order fixes the side-effect order per event:
	// scoring before fan-out before ledger propagation.
	performanceService.Register(dispatcher)
	notifyService.Register(dispatcher)
	syncService.Register(dispatcher)

	sweepWorker := worker.NewSweepWorker(delayService, notifyService, cfg.Sweep.Cron, logger)
	if err := sweepWorker.Start(); err != nil {
		logger.Fatal("failed to start sweep worker", zap.Error(err))
	}
	defer sweepWorker.Stop()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokenManager, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redis),
		Auth:           handlers.NewAuthHandler(staffRepo, tokenManager),
		Tickets:        handlers.NewTicketsHandler(ticketService, transitionService),
		Performance:    handlers.NewPerformanceHandler(performanceService),
		Sweeps:         handlers.NewSweepHandler(delayService, notifyService),
		AuthMiddleware: authMiddleware,
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
