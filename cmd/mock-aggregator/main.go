package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"

	"github.com/josh-kwaku/cashflow-ledger/internal/aggregator"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

type config struct {
	Port     int           `env:"PORT" envDefault:"8081"`
	Latency  time.Duration `env:"AGGREGATOR_LATENCY" envDefault:"2s"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string        `env:"APP_ENV" envDefault:"production"`
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init("mock-aggregator", cfg.LogLevel, cfg.AppEnv)

	mock := aggregator.NewMock(time.Now, cfg.Latency)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET "+aggregator.PortfolioPath, func(w http.ResponseWriter, r *http.Request) {
		batch, err := mock.Fetch(r.Context())
		if err != nil {
			slog.Warn("portfolio request abandoned", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request cancelled"})
			return
		}
		writeJSON(w, http.StatusOK, batch)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("mock aggregator started", "addr", addr, "latency", cfg.Latency)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
