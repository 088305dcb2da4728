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

	"github.com/vitalis-health/vitalis/internal/app"
	"github.com/vitalis-health/vitalis/internal/cashbook"
	"github.com/vitalis-health/vitalis/internal/checks"
	"github.com/vitalis-health/vitalis/internal/dashboard"
	"github.com/vitalis-health/vitalis/internal/invoicing"
	"github.com/vitalis-health/vitalis/internal/observability"
	"github.com/vitalis-health/vitalis/internal/patients"
	"github.com/vitalis-health/vitalis/internal/platform/cache"
	"github.com/vitalis-health/vitalis/internal/platform/db"
	"github.com/vitalis-health/vitalis/internal/receivables"
	"github.com/vitalis-health/vitalis/internal/shared"
	"github.com/vitalis-health/vitalis/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	patientsRepo := patients.NewRepository(pool)
	patientsService := patients.NewService(patientsRepo)
	patientsHandler := patients.NewHandler(logger, patientsService)

	receivablesRepo := receivables.NewRepository(pool)
	receivablesService := receivables.NewService(receivablesRepo).
		WithAudit(auditLogger).
		WithCacheBumper(dashboardService)
	receivablesHandler := receivables.NewHandler(logger, receivablesService)

	checksRepo := checks.NewRepository(pool)
	checksService := checks.NewService(checksRepo)
	checksHandler := checks.NewHandler(logger, checksService)

	invoicingRepo := invoicing.NewRepository(pool)
	invoicingService := invoicing.NewService(invoicingRepo).WithEnqueuer(jobClient)
	invoicingHandler := invoicing.NewHandler(logger, invoicingService)

	cashbookRepo := cashbook.NewRepository(pool)
	cashbookService := cashbook.NewService(cashbookRepo)
	cashbookHandler := cashbook.NewHandler(logger, cashbookService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		PatientsHandler:    patientsHandler,
		ReceivablesHandler: receivablesHandler,
		ChecksHandler:      checksHandler,
		InvoicingHandler:   invoicingHandler,
		CashbookHandler:    cashbookHandler,
		DashboardHandler:   dashboardHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
