package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/repository"
	"github.com/josh-kwaku/cashflow-ledger/internal/store"
)

// persisterFactory opens the ledger backend and returns a closer for it.
type persisterFactory func(ctx context.Context, databaseURL string) (store.Persister, func() error, error)

func openPostgres(ctx context.Context, databaseURL string) (store.Persister, func() error, error) {
	db, err := repository.NewPostgresDB(ctx, databaseURL, repository.PoolConfig{
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		ConnMaxLifetimeS: 60,
		ConnMaxIdleTimeS: 30,
		ApplicationName:  "ledgerctl",
	})
	if err != nil {
		return nil, nil, err
	}
	return repository.NewLedgerRepository(db), db.Close, nil
}

// cacheKV is the subset of the Redis client the ledger cache needs.
type cacheKV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// cacheFactory connects to the ledger cache the API reads through.
type cacheFactory func(ctx context.Context, addr, password string) (cacheKV, func(), error)

func openRedis(ctx context.Context, addr, password string) (cacheKV, func(), error) {
	kv, err := repository.NewRedisKV(ctx, addr, password)
	if err != nil {
		return nil, nil, err
	}
	return kv, kv.Close, nil
}

type app struct {
	out      io.Writer
	open      persisterFactory
	openCache cacheFactory
	now       func() time.Time
	dbURL    string
	scope    string
	currency string
	logLevel string

	redisAddr     string
	redisPassword string
	cacheTTL      time.Duration

	st    *store.Store
	close func() error
}

func newRootCmd(out io.Writer, open persisterFactory, openCache cacheFactory) *cobra.Command {
	a := &app{out: out, open: open, openCache: openCache, now: time.Now}

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Inspect and maintain cashflow ledgers",
		Long: styleTitle.Render("ledgerctl") + " - cashflow ledger operator tool\n\n" +
			"Reads and writes a user's ledger directly in Postgres. The scope is the\n" +
			"user ID the API assigns at registration.\n\n" +
			"When the API caches ledgers in Redis, pass the same --redis-addr so writes\n" +
			"replace the cached copy. Without it the API may serve the previous ledger\n" +
			"until LEDGER_CACHE_TTL expires.",
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.dbURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flags.StringVarP(&a.scope, "scope", "s", "", "ledger scope (user ID)")
	flags.StringVar(&a.currency, "currency", envOr("DISPLAY_CURRENCY", "USD"), "currency used to display amounts")
	flags.StringVar(&a.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level written to stderr")
	flags.StringVar(&a.redisAddr, "redis-addr", os.Getenv("REDIS_ADDR"), "Redis address of the API's ledger cache")
	flags.StringVar(&a.redisPassword, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	flags.DurationVar(&a.cacheTTL, "cache-ttl", envDuration("LEDGER_CACHE_TTL", 10*time.Minute), "TTL of cached ledgers")

	root.AddCommand(
		a.snapshotCmd(),
		a.importCSVCmd(),
		a.scenarioCmd(),
		a.resetCmd(),
		a.exportCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

// setup opens the scope before any command that needs one. Commands that
// only read static data are marked with the "noscope" annotation.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	logging.InitWriter(cmd.ErrOrStderr(), "ledgerctl", a.logLevel, "development")
	if cmd.Annotations["noscope"] == "true" {
		return nil
	}
	if a.scope == "" {
		return errors.New("--scope is required")
	}
	if a.dbURL == "" {
		return errors.New("--database-url or DATABASE_URL is required")
	}

	ctx := cmd.Context()
	p, closer, err := a.open(ctx, a.dbURL)
	if err != nil {
		return fmt.Errorf("open ledger storage: %w", err)
	}
	a.close = closer

	if a.redisAddr != "" {
		kv, closeKV, err := a.openCache(ctx, a.redisAddr, a.redisPassword)
		if err != nil {
			_ = a.teardown(cmd, nil)
			return fmt.Errorf("open ledger cache: %w", err)
		}
		closeDB := a.close
		a.close = func() error {
			closeKV()
			return closeDB()
		}
		p = repository.NewCachedLedgerRepository(p, kv, a.cacheTTL, nil)
	}

	a.st = store.New(p)
	if err := a.st.SwitchScope(ctx, a.scope); err != nil {
		return fmt.Errorf("load scope %s: %w", a.scope, err)
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
