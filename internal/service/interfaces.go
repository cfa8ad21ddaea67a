package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
	"github.com/josh-kwaku/cashflow-ledger/internal/scenario"
	"github.com/josh-kwaku/cashflow-ledger/internal/store"
)

// storeRegistry is satisfied by *store.Registry.
type storeRegistry interface {
	Get(ctx context.Context, scope string) (*store.Store, error)
	Drop(scope string)
}

type merger interface {
	Merge(ctx context.Context, s reconcile.Applier, b domain.Batch) (*reconcile.Result, error)
}

type scenarioLoader interface {
	Load(ctx context.Context, s scenario.LedgerStore, name string) error
}

type coach interface {
	Advise(ctx context.Context, snap domain.FinancialSnapshot, assets []domain.Asset, liabilities []domain.Liability) string
}

type csvImporter interface {
	Import(ctx context.Context, s reconcile.Applier, r io.Reader, today domain.Date) (int, error)
}

type documentQueue interface {
	Run(ctx context.Context, s importer.LedgerStore, mode importer.Mode, files []importer.File) (*importer.Report, error)
}

type portfolioFetcher interface {
	Fetch(ctx context.Context) (*importer.RawBatch, error)
}

type userRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, title string) (*domain.User, error)
}

type sessionEvicter interface {
	EvictIdle(maxIdle time.Duration) int
}

type idempotencyCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}
