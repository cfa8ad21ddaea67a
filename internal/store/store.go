// Package store holds the in-memory ledger of one scope and flushes it to a
// Persister after every mutation.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
	"github.com/josh-kwaku/cashflow-ledger/internal/snapshot"
)

// Persister loads and saves all three collections of a scope together.
// Load returns an empty ledger for an unknown scope.
type Persister interface {
	Load(ctx context.Context, scope string) (domain.Ledger, error)
	Save(ctx context.Context, scope string, l domain.Ledger) error
}

type Option func(*Store)

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithSeed fills a scope that loads with no assets and no transactions.
func WithSeed(seed func() domain.Ledger) Option {
	return func(s *Store) { s.seed = seed }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Store) { s.metrics = m }
}

// Store is safe for concurrent use. Mutations are staged on a copy and only
// become visible once the flush succeeds, so memory never runs ahead of what
// was persisted.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	newID     func() string
	seed      func() domain.Ledger
	metrics   metrics.Recorder

	scope string
	ready bool
	data  domain.Ledger
}

func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		newID:     uuid.NewString,
		metrics:   metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SwitchScope(ctx context.Context, scope string) error {
	l, err := s.persister.Load(ctx, scope)
	if err != nil {
		return fmt.Errorf("SwitchScope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.scope = scope
	s.data = l.Clone()
	s.ready = true

	if s.seed != nil && len(l.Assets) == 0 && len(l.Transactions) == 0 {
		seeded := s.seed()
		if err := s.flush(ctx, seeded); err != nil {
			return fmt.Errorf("SwitchScope: seed: %w", err)
		}
		s.data = seeded
		logging.FromContext(ctx).Info("seeded empty scope", "scope", scope)
	}
	return nil
}

func (s *Store) Scope() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// NewID returns an ID from the store's generator.
func (s *Store) NewID() string {
	return s.newID()
}

// ListTransactions returns transactions most recent first. Equal dates keep
// insertion order.
func (s *Store) ListTransactions() ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, fmt.Errorf("ListTransactions: %w", domain.ErrScopeNotInitialized)
	}

	out := append([]domain.Transaction{}, s.data.Transactions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) ListAssets() ([]domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, fmt.Errorf("ListAssets: %w", domain.ErrScopeNotInitialized)
	}
	return append([]domain.Asset{}, s.data.Assets...), nil
}

func (s *Store) ListLiabilities() ([]domain.Liability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, fmt.Errorf("ListLiabilities: %w", domain.ErrScopeNotInitialized)
	}
	return append([]domain.Liability{}, s.data.Liabilities...), nil
}

// Ledger returns a copy of all three collections in stored order.
func (s *Store) Ledger() (domain.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return domain.Ledger{}, fmt.Errorf("Ledger: %w", domain.ErrScopeNotInitialized)
	}
	return s.data.Clone(), nil
}

func (s *Store) Snapshot() (domain.FinancialSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return domain.FinancialSnapshot{}, fmt.Errorf("Snapshot: %w", domain.ErrScopeNotInitialized)
	}
	return snapshot.Calculate(s.data), nil
}

func (s *Store) AddTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	if t.ID == "" {
		t.ID = s.newID()
	}
	err := s.Apply(ctx, func(l *domain.Ledger) error {
		l.Transactions = append(l.Transactions, t)
		return nil
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w", err)
	}
	return t, nil
}

func (s *Store) AddAsset(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	if a.ID == "" {
		a.ID = s.newID()
	}
	err := s.Apply(ctx, func(l *domain.Ledger) error {
		l.Assets = append(l.Assets, a)
		return nil
	})
	if err != nil {
		return domain.Asset{}, fmt.Errorf("AddAsset: %w", err)
	}
	return a, nil
}

func (s *Store) AddLiability(ctx context.Context, li domain.Liability) (domain.Liability, error) {
	if li.ID == "" {
		li.ID = s.newID()
	}
	err := s.Apply(ctx, func(l *domain.Ledger) error {
		l.Liabilities = append(l.Liabilities, li)
		return nil
	})
	if err != nil {
		return domain.Liability{}, fmt.Errorf("AddLiability: %w", err)
	}
	return li, nil
}

// UpdateAsset replaces the asset with a.ID. An unknown ID is ignored and
// reported as false without flushing.
func (s *Store) UpdateAsset(ctx context.Context, a domain.Asset) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return false, fmt.Errorf("UpdateAsset: %w", domain.ErrScopeNotInitialized)
	}

	idx := -1
	for i := range s.data.Assets {
		if s.data.Assets[i].ID == a.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	work := s.data.Clone()
	work.Assets[idx] = a
	if err := s.flush(ctx, work); err != nil {
		return false, fmt.Errorf("UpdateAsset: %w", err)
	}
	s.data = work
	return true, nil
}

// UpdateLiability follows the same lenient policy as UpdateAsset.
func (s *Store) UpdateLiability(ctx context.Context, li domain.Liability) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return false, fmt.Errorf("UpdateLiability: %w", domain.ErrScopeNotInitialized)
	}

	idx := -1
	for i := range s.data.Liabilities {
		if s.data.Liabilities[i].ID == li.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	work := s.data.Clone()
	work.Liabilities[idx] = li
	if err := s.flush(ctx, work); err != nil {
		return false, fmt.Errorf("UpdateLiability: %w", err)
	}
	s.data = work
	return true, nil
}

// ReplaceAll swaps in the given collections. Every record gets a fresh ID,
// including records that already had one, so nothing can collide with IDs
// previously issued in this scope. References between the new records
// (AssetID, LinkedAssetID) are not rewritten.
func (s *Store) ReplaceAll(ctx context.Context, assets []domain.Asset, liabilities []domain.Liability, transactions []domain.Transaction) error {
	next := domain.Ledger{
		Assets:       make([]domain.Asset, len(assets)),
		Liabilities:  make([]domain.Liability, len(liabilities)),
		Transactions: make([]domain.Transaction, len(transactions)),
	}
	for i, a := range assets {
		a.ID = s.newID()
		next.Assets[i] = a
	}
	for i, li := range liabilities {
		li.ID = s.newID()
		next.Liabilities[i] = li
	}
	for i, t := range transactions {
		t.ID = s.newID()
		next.Transactions[i] = t
	}

	err := s.Apply(ctx, func(l *domain.Ledger) error {
		*l = next
		return nil
	})
	if err != nil {
		return fmt.Errorf("ReplaceAll: %w", err)
	}
	return nil
}

// ResetScope empties the scope. It never reseeds.
func (s *Store) ResetScope(ctx context.Context) error {
	err := s.Apply(ctx, func(l *domain.Ledger) error {
		*l = domain.Ledger{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ResetScope: %w", err)
	}
	return nil
}

// Apply runs fn against a working copy of the ledger and flushes the result
// once. If fn or the flush fails, the in-memory ledger is left untouched.
func (s *Store) Apply(ctx context.Context, fn func(l *domain.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.ErrScopeNotInitialized
	}

	work := s.data.Clone()
	if err := fn(&work); err != nil {
		return err
	}
	if err := s.flush(ctx, work); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) flush(ctx context.Context, l domain.Ledger) error {
	start := time.Now()
	err := s.persister.Save(ctx, s.scope, l)
	s.metrics.RecordFlush(err == nil, time.Since(start))
	if err != nil {
		logging.FromContext(ctx).Error("ledger flush failed", "scope", s.scope, "error", err)
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
