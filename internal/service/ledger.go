package service

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/store"
)

// LedgerService runs manual ledger operations against the caller's scope.
// Every mutation returns the snapshot computed after it.
type LedgerService struct {
	stores    storeRegistry
	scenarios scenarioLoader
	coach     coach
}

func NewLedgerService(stores storeRegistry, scenarios scenarioLoader, c coach) *LedgerService {
	return &LedgerService{stores: stores, scenarios: scenarios, coach: c}
}

func (s *LedgerService) store(ctx context.Context, scope string) (*store.Store, error) {
	if scope == "" {
		return nil, domain.ErrScopeNotInitialized
	}
	return s.stores.Get(ctx, scope)
}

func (s *LedgerService) Snapshot(ctx context.Context, scope string) (domain.FinancialSnapshot, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return domain.FinancialSnapshot{}, fmt.Errorf("Snapshot: %w", err)
	}
	snap, err := st.Snapshot()
	if err != nil {
		return domain.FinancialSnapshot{}, fmt.Errorf("Snapshot: %w", err)
	}
	return snap, nil
}

// Ledger returns all three collections; transactions are most recent first.
func (s *LedgerService) Ledger(ctx context.Context, scope string) (domain.Ledger, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("Ledger: %w", err)
	}
	l, err := st.Ledger()
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("Ledger: %w", err)
	}
	txs, err := st.ListTransactions()
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("Ledger: %w", err)
	}
	l.Transactions = txs
	return l, nil
}

func (s *LedgerService) Transactions(ctx context.Context, scope string) ([]domain.Transaction, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	txs, err := st.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) Assets(ctx context.Context, scope string) ([]domain.Asset, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("Assets: %w", err)
	}
	assets, err := st.ListAssets()
	if err != nil {
		return nil, fmt.Errorf("Assets: %w", err)
	}
	return assets, nil
}

func (s *LedgerService) Liabilities(ctx context.Context, scope string) ([]domain.Liability, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("Liabilities: %w", err)
	}
	liabilities, err := st.ListLiabilities()
	if err != nil {
		return nil, fmt.Errorf("Liabilities: %w", err)
	}
	return liabilities, nil
}

func (s *LedgerService) AddTransaction(ctx context.Context, scope string, t domain.Transaction) (domain.Transaction, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w", err)
	}
	added, err := st.AddTransaction(ctx, t)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w", err)
	}
	logging.FromContext(ctx).Info("transaction added", "transaction_id", added.ID, "type", added.Type)
	return added, nil
}

func (s *LedgerService) AddAsset(ctx context.Context, scope string, a domain.Asset) (domain.Asset, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("AddAsset: %w", err)
	}
	added, err := st.AddAsset(ctx, a)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("AddAsset: %w", err)
	}
	logging.FromContext(ctx).Info("asset added", "asset_id", added.ID, "type", added.Type)
	return added, nil
}

func (s *LedgerService) AddLiability(ctx context.Context, scope string, li domain.Liability) (domain.Liability, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return domain.Liability{}, fmt.Errorf("AddLiability: %w", err)
	}
	added, err := st.AddLiability(ctx, li)
	if err != nil {
		return domain.Liability{}, fmt.Errorf("AddLiability: %w", err)
	}
	logging.FromContext(ctx).Info("liability added", "liability_id", added.ID, "type", added.Type)
	return added, nil
}

// UpdateAsset reports false when no asset has a.ID; that is not an error.
func (s *LedgerService) UpdateAsset(ctx context.Context, scope string, a domain.Asset) (bool, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("UpdateAsset: %w", err)
	}
	updated, err := st.UpdateAsset(ctx, a)
	if err != nil {
		return false, fmt.Errorf("UpdateAsset: %w", err)
	}
	if !updated {
		logging.FromContext(ctx).Debug("asset update ignored, unknown id", "asset_id", a.ID)
	}
	return updated, nil
}

func (s *LedgerService) UpdateLiability(ctx context.Context, scope string, li domain.Liability) (bool, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("UpdateLiability: %w", err)
	}
	updated, err := st.UpdateLiability(ctx, li)
	if err != nil {
		return false, fmt.Errorf("UpdateLiability: %w", err)
	}
	if !updated {
		logging.FromContext(ctx).Debug("liability update ignored, unknown id", "liability_id", li.ID)
	}
	return updated, nil
}

// Override replaces the whole ledger. Every record is given a new ID.
func (s *LedgerService) Override(ctx context.Context, scope string, l domain.Ledger) error {
	st, err := s.store(ctx, scope)
	if err != nil {
		return fmt.Errorf("Override: %w", err)
	}
	if err := st.ReplaceAll(ctx, l.Assets, l.Liabilities, l.Transactions); err != nil {
		return fmt.Errorf("Override: %w", err)
	}
	logging.FromContext(ctx).Info("ledger overridden",
		"assets", len(l.Assets),
		"liabilities", len(l.Liabilities),
		"transactions", len(l.Transactions),
	)
	return nil
}

func (s *LedgerService) Reset(ctx context.Context, scope string) error {
	st, err := s.store(ctx, scope)
	if err != nil {
		return fmt.Errorf("Reset: %w", err)
	}
	if err := st.ResetScope(ctx); err != nil {
		return fmt.Errorf("Reset: %w", err)
	}
	logging.FromContext(ctx).Info("ledger reset", "scope", scope)
	return nil
}

func (s *LedgerService) LoadScenario(ctx context.Context, scope, name string) error {
	st, err := s.store(ctx, scope)
	if err != nil {
		return fmt.Errorf("LoadScenario: %w", err)
	}
	if err := s.scenarios.Load(ctx, st, name); err != nil {
		return fmt.Errorf("LoadScenario: %w", err)
	}
	return nil
}

// Advice asks the coach about the current ledger. The coach never fails.
func (s *LedgerService) Advice(ctx context.Context, scope string) (string, error) {
	st, err := s.store(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("Advice: %w", err)
	}
	l, err := st.Ledger()
	if err != nil {
		return "", fmt.Errorf("Advice: %w", err)
	}
	snap, err := st.Snapshot()
	if err != nil {
		return "", fmt.Errorf("Advice: %w", err)
	}
	return s.coach.Advise(ctx, snap, l.Assets, l.Liabilities), nil
}
