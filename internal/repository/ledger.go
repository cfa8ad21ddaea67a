package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

const (
	assetColumns = `id, name, ticker, type, purchase_date, cost_basis, current_value,
	monthly_cashflow, description`
	liabilityColumns = `id, name, type, original_amount, outstanding_balance,
	monthly_payment, interest_rate, linked_asset_id`
	transactionColumns = `id, date, description, amount, category, type, asset_id`
)

// LedgerRepository persists a scope's three collections as one unit.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Load returns an empty ledger for a scope that was never saved.
func (r *LedgerRepository) Load(ctx context.Context, scope string) (domain.Ledger, error) {
	l := domain.Ledger{
		Assets:       []domain.Asset{},
		Liabilities:  []domain.Liability{},
		Transactions: []domain.Transaction{},
	}

	assets, err := r.loadAssets(ctx, scope)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("Load: %w", err)
	}
	l.Assets = append(l.Assets, assets...)

	liabilities, err := r.loadLiabilities(ctx, scope)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("Load: %w", err)
	}
	l.Liabilities = append(l.Liabilities, liabilities...)

	txs, err := r.loadTransactions(ctx, scope)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("Load: %w", err)
	}
	l.Transactions = append(l.Transactions, txs...)

	return l, nil
}

// Save replaces everything stored for scope inside one transaction.
func (r *LedgerRepository) Save(ctx context.Context, scope string, l domain.Ledger) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, table := range []string{"assets", "liabilities", "transactions"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE scope = $1`, scope); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		err := copyRows(ctx, tx, "assets", []string{
			"scope", "position", "id", "name", "ticker", "type", "purchase_date",
			"cost_basis", "current_value", "monthly_cashflow", "description",
		}, len(l.Assets), func(i int) []any {
			a := l.Assets[i]
			return []any{scope, i, a.ID, a.Name, a.Ticker, string(a.Type), a.PurchaseDate,
				a.CostBasis, a.CurrentValue, a.MonthlyCashflow, a.Description}
		})
		if err != nil {
			return err
		}

		err = copyRows(ctx, tx, "liabilities", []string{
			"scope", "position", "id", "name", "type", "original_amount",
			"outstanding_balance", "monthly_payment", "interest_rate", "linked_asset_id",
		}, len(l.Liabilities), func(i int) []any {
			li := l.Liabilities[i]
			return []any{scope, i, li.ID, li.Name, string(li.Type), li.OriginalAmount,
				li.OutstandingBalance, li.MonthlyPayment, li.InterestRate, li.LinkedAssetID}
		})
		if err != nil {
			return err
		}

		return copyRows(ctx, tx, "transactions", []string{
			"scope", "position", "id", "date", "description", "amount", "category", "type", "asset_id",
		}, len(l.Transactions), func(i int) []any {
			t := l.Transactions[i]
			return []any{scope, i, t.ID, t.Date, t.Description, t.Amount, t.Category, string(t.Type), t.AssetID}
		})
	})
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("copy %s: prepare: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("copy %s: row %d: %w", table, i, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("copy %s: flush: %w", table, err)
	}
	return nil
}

func (r *LedgerRepository) loadAssets(ctx context.Context, scope string) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE scope = $1 ORDER BY position`, scope,
	)
	if err != nil {
		return nil, fmt.Errorf("assets: %w", err)
	}
	defer rows.Close()

	var out []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("assets: scan: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assets: rows: %w", err)
	}
	return out, nil
}

func (r *LedgerRepository) loadLiabilities(ctx context.Context, scope string) ([]domain.Liability, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+liabilityColumns+` FROM liabilities WHERE scope = $1 ORDER BY position`, scope,
	)
	if err != nil {
		return nil, fmt.Errorf("liabilities: %w", err)
	}
	defer rows.Close()

	var out []domain.Liability
	for rows.Next() {
		li, err := scanLiability(rows)
		if err != nil {
			return nil, fmt.Errorf("liabilities: scan: %w", err)
		}
		out = append(out, *li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("liabilities: rows: %w", err)
	}
	return out, nil
}

func (r *LedgerRepository) loadTransactions(ctx context.Context, scope string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE scope = $1 ORDER BY position`, scope,
	)
	if err != nil {
		return nil, fmt.Errorf("transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("transactions: scan: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transactions: rows: %w", err)
	}
	return out, nil
}

func scanAsset(s scanner) (*domain.Asset, error) {
	var a domain.Asset
	err := s.Scan(
		&a.ID, &a.Name, &a.Ticker, &a.Type, &a.PurchaseDate,
		&a.CostBasis, &a.CurrentValue, &a.MonthlyCashflow, &a.Description,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanLiability(s scanner) (*domain.Liability, error) {
	var li domain.Liability
	err := s.Scan(
		&li.ID, &li.Name, &li.Type, &li.OriginalAmount, &li.OutstandingBalance,
		&li.MonthlyPayment, &li.InterestRate, &li.LinkedAssetID,
	)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.Date, &t.Description, &t.Amount, &t.Category, &t.Type, &t.AssetID,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
