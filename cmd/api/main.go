package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/josh-kwaku/cashflow-ledger/internal/advisor"
	"github.com/josh-kwaku/cashflow-ledger/internal/aggregator"
	"github.com/josh-kwaku/cashflow-ledger/internal/config"
	"github.com/josh-kwaku/cashflow-ledger/internal/csvimport"
	"github.com/josh-kwaku/cashflow-ledger/internal/handler"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
	"github.com/josh-kwaku/cashflow-ledger/internal/parser"
	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
	"github.com/josh-kwaku/cashflow-ledger/internal/repository"
	"github.com/josh-kwaku/cashflow-ledger/internal/scenario"
	"github.com/josh-kwaku/cashflow-ledger/internal/service"
	"github.com/josh-kwaku/cashflow-ledger/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("cashflow-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ApplicationName:  "cashflow-api",
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheus("cashflow")
	if err := rec.Register(registry); err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	var persister store.Persister = repository.NewLedgerRepository(db)
	var cachePing handler.PingFunc
	if cfg.RedisAddr != "" {
		kv, err := repository.NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("ledger cache disabled", "error", err)
		} else {
			defer kv.Close()
			persister = repository.NewCachedLedgerRepository(persister, kv, cfg.LedgerCacheTTL, rec)
			cachePing = kv.Ping
			slog.Info("ledger cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.LedgerCacheTTL)
		}
	}

	scenarios := scenario.NewLoader(time.Now)
	storeOpts := []store.Option{store.WithMetrics(rec)}
	if cfg.SeedNewScopes {
		storeOpts = append(storeOpts, store.WithSeed(scenarios.Seed))
	}
	stores := store.NewRegistry(persister, storeOpts...)

	engine := reconcile.NewEngine()

	docParser, err := parser.NewGemini(ctx, parser.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.ParserTimeout,
	}, rec)
	if err != nil {
		slog.Error("failed to create document parser", "error", err)
		os.Exit(1)
	}
	coach, err := advisor.NewCoach(ctx, advisor.Config{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Currency: cfg.DisplayCurrency,
	})
	if err != nil {
		slog.Error("failed to create financial coach", "error", err)
		os.Exit(1)
	}
	if !docParser.Configured() {
		slog.Warn("GEMINI_API_KEY not set, document import and coaching are disabled")
	}

	queue := importer.NewQueue(docParser, service.NewSourceMerger(engine, service.SourceDocument, rec), rec)
	fetcher := newPortfolioFetcher(cfg)

	userRepo := repository.NewUserRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	ledgerSvc := service.NewLedgerService(stores, scenarios, coach)
	importSvc := service.NewImportService(stores, engine, csvimport.New(), queue, fetcher, rec, time.Now)
	userSvc := service.NewUserService(userRepo, stores, cfg.JWTSecret, cfg.JWTExpiry)

	var health *handler.HealthHandler
	if cachePing != nil {
		health = handler.NewHealthHandler(db, cachePing)
	} else {
		health = handler.NewHealthHandler(db, nil)
	}

	srvHandler := newRouter(routerDeps{
		cfg:         cfg,
		registry:    registry,
		metrics:     rec,
		idempotency: idempotencyRepo,
		health:      health,
		auth:        handler.NewAuthHandler(userSvc),
		users:       handler.NewUserHandler(userSvc),
		ledger:      handler.NewLedgerHandler(ledgerSvc),
		imports:     handler.NewImportHandler(importSvc, ledgerSvc, cfg.MaxUploadBytes),
	})

	sweeper := service.NewSweeper(stores, idempotencyRepo, logger.With("component", "sweeper"), cfg.SweepInterval, cfg.SessionIdleTTL)
	go sweeper.Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           srvHandler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.ParserTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

type portfolioFetcher interface {
	Fetch(ctx context.Context) (*importer.RawBatch, error)
}

func newPortfolioFetcher(cfg *config.Config) portfolioFetcher {
	if cfg.AggregatorURL == "" {
		slog.Info("using in-process aggregator mock", "latency", cfg.AggregatorLatency)
		return aggregator.NewMock(time.Now, cfg.AggregatorLatency)
	}
	slog.Info("using remote aggregator", "url", cfg.AggregatorURL)
	return aggregator.NewHTTPClient(cfg.AggregatorURL, 0)
}
