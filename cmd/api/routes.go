package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/josh-kwaku/cashflow-ledger/internal/config"
	"github.com/josh-kwaku/cashflow-ledger/internal/handler"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
	"github.com/josh-kwaku/cashflow-ledger/internal/middleware"
	"github.com/josh-kwaku/cashflow-ledger/internal/repository"
)

type routerDeps struct {
	cfg         *config.Config
	registry    *prometheus.Registry
	metrics     metrics.Recorder
	idempotency *repository.IdempotencyRepository
	health      *handler.HealthHandler
	auth        *handler.AuthHandler
	users       *handler.UserHandler
	ledger      *handler.LedgerHandler
	imports     *handler.ImportHandler
}

func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.Auth(d.cfg.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	idempotent := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.Idempotency(d.idempotency, d.cfg.IdempotencyTTL, d.cfg.MaxUploadBytes)(h))
	}

	mux.HandleFunc("GET /health", d.health.Liveness)
	mux.HandleFunc("GET /health/ready", d.health.Readiness)
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec())

	mux.HandleFunc("POST /api/v1/auth/register", d.auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", d.auth.Login)
	mux.Handle("POST /api/v1/auth/logout", protected(d.auth.Logout))

	mux.Handle("GET /api/v1/me", protected(d.users.Me))
	mux.Handle("PUT /api/v1/me", protected(d.users.UpdateMe))

	mux.Handle("GET /api/v1/ledger", protected(d.ledger.GetLedger))
	mux.Handle("PUT /api/v1/ledger", protected(d.ledger.Override))
	mux.Handle("GET /api/v1/ledger/snapshot", protected(d.ledger.GetSnapshot))
	mux.Handle("GET /api/v1/ledger/transactions", protected(d.ledger.ListTransactions))
	mux.Handle("POST /api/v1/ledger/transactions", protected(d.ledger.AddTransaction))
	mux.Handle("GET /api/v1/ledger/assets", protected(d.ledger.ListAssets))
	mux.Handle("POST /api/v1/ledger/assets", protected(d.ledger.AddAsset))
	mux.Handle("PUT /api/v1/ledger/assets/{id}", protected(d.ledger.UpdateAsset))
	mux.Handle("GET /api/v1/ledger/liabilities", protected(d.ledger.ListLiabilities))
	mux.Handle("POST /api/v1/ledger/liabilities", protected(d.ledger.AddLiability))
	mux.Handle("PUT /api/v1/ledger/liabilities/{id}", protected(d.ledger.UpdateLiability))
	mux.Handle("POST /api/v1/ledger/reset", protected(d.ledger.Reset))
	mux.HandleFunc("GET /api/v1/ledger/scenarios", d.ledger.ListScenarios)
	mux.Handle("POST /api/v1/ledger/scenarios/{name}", protected(d.ledger.LoadScenario))
	mux.Handle("GET /api/v1/ledger/advice", protected(d.ledger.Advice))

	mux.Handle("POST /api/v1/ledger/import", idempotent(d.imports.MergeBatch))
	mux.Handle("POST /api/v1/ledger/import/csv", idempotent(d.imports.ImportCSV))
	mux.Handle("POST /api/v1/ledger/import/documents", idempotent(d.imports.ImportDocuments))
	mux.Handle("POST /api/v1/ledger/import/aggregator", idempotent(d.imports.SyncAggregator))

	return middleware.Recovery(middleware.Tracing(middleware.Logging(d.metrics)(mux)))
}
