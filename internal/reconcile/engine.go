// Package reconcile merges externally sourced batches into a scope's ledger
// without creating duplicates.
package reconcile

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

// Applier is the store surface a merge needs. *store.Store satisfies it.
type Applier interface {
	Apply(ctx context.Context, fn func(l *domain.Ledger) error) error
}

type Result struct {
	AssetsInserted       int      `json:"assetsInserted"`
	AssetsUpdated        int      `json:"assetsUpdated"`
	LiabilitiesInserted  int      `json:"liabilitiesInserted"`
	LiabilitiesUpdated   int      `json:"liabilitiesUpdated"`
	TransactionsInserted int      `json:"transactionsInserted"`
	DuplicatesDropped    int      `json:"duplicatesDropped"`
	DividendsLinked      int      `json:"dividendsLinked"`
	Warnings             []string `json:"warnings"`
}

type Engine struct {
	newID func() string
}

type Option func(*Engine)

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Merge folds b into the store in the order assets, liabilities,
// transactions, so that transaction linking can see assets from the same
// batch. The whole merge is flushed once; on a flush error nothing changes.
func (e *Engine) Merge(ctx context.Context, s Applier, b domain.Batch) (*Result, error) {
	log := logging.FromContext(ctx)
	var res *Result

	err := s.Apply(ctx, func(l *domain.Ledger) error {
		res = &Result{Warnings: []string{}}
		e.mergeAssets(l, b.Assets, res)
		e.mergeLiabilities(l, b.Liabilities, res)
		e.mergeTransactions(l, b.Transactions, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Merge: %w", err)
	}

	for _, w := range res.Warnings {
		log.Warn("dividend entitlement not confirmed", "detail", w)
	}
	log.Info("batch merged",
		"candidates", b.Len(),
		"assets_inserted", res.AssetsInserted,
		"assets_updated", res.AssetsUpdated,
		"liabilities_inserted", res.LiabilitiesInserted,
		"liabilities_updated", res.LiabilitiesUpdated,
		"transactions_inserted", res.TransactionsInserted,
		"duplicates_dropped", res.DuplicatesDropped,
		"dividends_linked", res.DividendsLinked,
	)
	return res, nil
}

func (e *Engine) mergeAssets(l *domain.Ledger, incoming []domain.Asset, res *Result) {
	for _, in := range incoming {
		if idx := findAsset(l.Assets, in); idx >= 0 {
			existing := &l.Assets[idx]
			existing.CurrentValue = in.CurrentValue
			if truthy(in.CostBasis) {
				existing.CostBasis = in.CostBasis
			}
			res.AssetsUpdated++
			continue
		}
		in.ID = e.assignID(in.ID, func(id string) bool { return hasAssetID(l.Assets, id) })
		l.Assets = append(l.Assets, in)
		res.AssetsInserted++
	}
}

func (e *Engine) mergeLiabilities(l *domain.Ledger, incoming []domain.Liability, res *Result) {
	for _, in := range incoming {
		if idx := findLiability(l.Liabilities, in.Name); idx >= 0 {
			l.Liabilities[idx].OutstandingBalance = in.OutstandingBalance
			res.LiabilitiesUpdated++
			continue
		}
		in.ID = e.assignID(in.ID, func(id string) bool { return hasLiabilityID(l.Liabilities, id) })
		l.Liabilities = append(l.Liabilities, in)
		res.LiabilitiesInserted++
	}
}

func (e *Engine) mergeTransactions(l *domain.Ledger, incoming []domain.Transaction, res *Result) {
	for _, in := range incoming {
		if isDividendCandidate(in) {
			if asset, ok := findDividendAsset(l.Assets, in.Description); ok {
				if entitled(asset, in) {
					in.AssetID = asset.ID
					res.DividendsLinked++
				} else {
					res.Warnings = append(res.Warnings, fmt.Sprintf(
						"dividend %q on %s matches %s, purchased %s; left unlinked",
						in.Description, in.Date, asset.Name, asset.PurchaseDate,
					))
				}
			}
		}

		if isDuplicate(l.Transactions, in) {
			res.DuplicatesDropped++
			continue
		}

		in.ID = e.assignID(in.ID, func(id string) bool { return hasTransactionID(l.Transactions, id) })
		l.Transactions = append(l.Transactions, in)
		res.TransactionsInserted++
	}
}

// assignID keeps a supplied ID unless it is empty or already taken in the
// collection. Aggregator batches reference their own asset IDs, so those
// must survive the merge.
func (e *Engine) assignID(id string, taken func(string) bool) string {
	if id != "" && !taken(id) {
		return id
	}
	return e.newID()
}

func findAsset(assets []domain.Asset, in domain.Asset) int {
	if in.Ticker != "" {
		for i, a := range assets {
			if a.Ticker != "" && a.Ticker == in.Ticker {
				return i
			}
		}
	}
	for i, a := range assets {
		if a.Name == in.Name {
			return i
		}
	}
	return -1
}

func findLiability(liabilities []domain.Liability, name string) int {
	for i, li := range liabilities {
		if li.Name == name {
			return i
		}
	}
	return -1
}

func hasAssetID(assets []domain.Asset, id string) bool {
	for _, a := range assets {
		if a.ID == id {
			return true
		}
	}
	return false
}

func hasLiabilityID(liabilities []domain.Liability, id string) bool {
	for _, li := range liabilities {
		if li.ID == id {
			return true
		}
	}
	return false
}

func hasTransactionID(txs []domain.Transaction, id string) bool {
	for _, t := range txs {
		if t.ID == id {
			return true
		}
	}
	return false
}

// truthy is false for zero and NaN.
func truthy(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}
