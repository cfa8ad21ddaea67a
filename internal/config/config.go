package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	// Empty RedisAddr runs without the ledger cache.
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	LedgerCacheTTL time.Duration `env:"LEDGER_CACHE_TTL" envDefault:"10m"`

	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	ParserTimeout   time.Duration `env:"PARSER_TIMEOUT" envDefault:"60s"`
	DisplayCurrency string        `env:"DISPLAY_CURRENCY" envDefault:"USD"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`

	// Empty AggregatorURL uses the in-process mock.
	AggregatorURL     string        `env:"AGGREGATOR_URL"`
	AggregatorLatency time.Duration `env:"AGGREGATOR_LATENCY" envDefault:"2s"`

	SeedNewScopes  bool          `env:"SEED_NEW_SCOPES" envDefault:"false"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
