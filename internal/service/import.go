package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
	"github.com/josh-kwaku/cashflow-ledger/internal/store"
)

// Merge sources, used as metric labels.
const (
	SourceBatch      = "batch"
	SourceDocument   = "document"
	SourceAggregator = "aggregator"
)

// SourceMerger tags every merge it runs with a source for metrics.
type SourceMerger struct {
	engine  merger
	source  string
	metrics metrics.Recorder
}

func NewSourceMerger(engine merger, source string, rec metrics.Recorder) *SourceMerger {
	if rec == nil {
		rec = metrics.NoOp{}
	}
	return &SourceMerger{engine: engine, source: source, metrics: rec}
}

func (m *SourceMerger) Merge(ctx context.Context, s reconcile.Applier, b domain.Batch) (*reconcile.Result, error) {
	start := time.Now()
	res, err := m.engine.Merge(ctx, s, b)
	if err != nil {
		return nil, err
	}
	m.metrics.RecordMerge(m.source, res.TransactionsInserted, res.DuplicatesDropped, time.Since(start))
	return res, nil
}

type ImportService struct {
	stores     storeRegistry
	engine     merger
	csv        csvImporter
	documents  documentQueue
	aggregator portfolioFetcher
	metrics    metrics.Recorder
	now        func() time.Time
}

func NewImportService(
	stores storeRegistry,
	engine merger,
	csv csvImporter,
	documents documentQueue,
	aggregator portfolioFetcher,
	rec metrics.Recorder,
	now func() time.Time,
) *ImportService {
	if rec == nil {
		rec = metrics.NoOp{}
	}
	if now == nil {
		now = time.Now
	}
	return &ImportService{
		stores:     stores,
		engine:     engine,
		csv:        csv,
		documents:  documents,
		aggregator: aggregator,
		metrics:    rec,
		now:        now,
	}
}

func (s *ImportService) store(ctx context.Context, scope string) (*store.Store, error) {
	if scope == "" {
		return nil, domain.ErrScopeNotInitialized
	}
	return s.stores.Get(ctx, scope)
}

// MergeBatch coerces a loose payload and merges it through the engine.
func (s *ImportService) MergeBatch(ctx context.Context, scope string, raw *importer.RawBatch) (*reconcile.Result, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("MergeBatch: %w", err)
	}
	res, err := NewSourceMerger(s.engine, SourceBatch, s.metrics).Merge(ctx, st, raw.Coerce())
	if err != nil {
		return nil, fmt.Errorf("MergeBatch: %w", err)
	}
	return res, nil
}

func (s *ImportService) ImportCSV(ctx context.Context, scope string, r io.Reader) (int, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("ImportCSV: %w", err)
	}
	n, err := s.csv.Import(ctx, st, r, domain.DateOf(s.now()))
	if err != nil {
		return 0, fmt.Errorf("ImportCSV: %w", err)
	}
	return n, nil
}

func (s *ImportService) ImportDocuments(ctx context.Context, scope string, mode importer.Mode, files []importer.File) (*importer.Report, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("ImportDocuments: no files: %w", domain.ErrInvalidRequest)
	}
	st, err := s.store(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("ImportDocuments: %w", err)
	}
	report, err := s.documents.Run(ctx, st, mode, files)
	if err != nil {
		return nil, fmt.Errorf("ImportDocuments: %w", err)
	}
	return report, nil
}

// SyncAggregator pulls the linked portfolio and merges it. Repeated syncs
// are absorbed by the engine's duplicate checks.
func (s *ImportService) SyncAggregator(ctx context.Context, scope string) (*reconcile.Result, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("SyncAggregator: %w", err)
	}

	raw, err := s.aggregator.Fetch(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAggregatorFailed) {
			return nil, fmt.Errorf("SyncAggregator: %w", err)
		}
		return nil, fmt.Errorf("SyncAggregator: %w: %w", domain.ErrAggregatorFailed, err)
	}
	txs, assets, _ := raw.Counts()
	logging.FromContext(ctx).Info("aggregator data fetched", "transactions", txs, "assets", assets)

	res, err := NewSourceMerger(s.engine, SourceAggregator, s.metrics).Merge(ctx, st, raw.Coerce())
	if err != nil {
		return nil, fmt.Errorf("SyncAggregator: %w", err)
	}
	return res, nil
}
