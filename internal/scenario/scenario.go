// Package scenario loads named demo ledgers into a scope.
package scenario

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

const (
	Default     = "default"
	UserExample = "user_example"
	Freedom     = "freedom"
	Deficit     = "deficit"
)

// today in a fixture date resolves to the loader's clock.
const today = "today"

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

var fixtures = mustLoadFixtures()

// LedgerStore is satisfied by *store.Store.
type LedgerStore interface {
	Apply(ctx context.Context, fn func(l *domain.Ledger) error) error
	NewID() string
}

type Loader struct {
	now func() time.Time
}

func NewLoader(now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{now: now}
}

// Names lists the available scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(fixtures))
	for name := range fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load clears the scope and writes the named scenario in one flush.
func (l *Loader) Load(ctx context.Context, s LedgerStore, name string) error {
	f, ok := fixtures[name]
	if !ok {
		return fmt.Errorf("Load %q: %w", name, domain.ErrUnknownScenario)
	}

	data, err := f.build(domain.DateOf(l.now()), s.NewID)
	if err != nil {
		return fmt.Errorf("Load %q: %w", name, err)
	}

	err = s.Apply(ctx, func(led *domain.Ledger) error {
		*led = data
		return nil
	})
	if err != nil {
		return fmt.Errorf("Load %q: %w", name, err)
	}

	logging.FromContext(ctx).Info("scenario loaded",
		"scenario", name,
		"assets", len(data.Assets),
		"liabilities", len(data.Liabilities),
		"transactions", len(data.Transactions),
	)
	return nil
}

// Seed returns the default ledger. It is handed to store.WithSeed, which has
// no ID generator, so it relies on the default fixture keeping its own IDs.
func (l *Loader) Seed() domain.Ledger {
	data, err := fixtures[Default].build(domain.DateOf(l.now()), nil)
	if err != nil {
		panic(fmt.Sprintf("scenario: default fixture: %v", err))
	}
	return data
}

type fixture struct {
	KeepIDs      bool                 `yaml:"keep_ids"`
	Assets       []fixtureAsset       `yaml:"assets"`
	Liabilities  []fixtureLiability   `yaml:"liabilities"`
	Transactions []fixtureTransaction `yaml:"transactions"`
}

type fixtureAsset struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Ticker          string  `yaml:"ticker"`
	Type            string  `yaml:"type"`
	PurchaseDate    string  `yaml:"purchase_date"`
	CostBasis       float64 `yaml:"cost_basis"`
	CurrentValue    float64 `yaml:"current_value"`
	MonthlyCashflow float64 `yaml:"monthly_cashflow"`
	Description     string  `yaml:"description"`
}

type fixtureLiability struct {
	ID                 string  `yaml:"id"`
	Name               string  `yaml:"name"`
	Type               string  `yaml:"type"`
	OriginalAmount     float64 `yaml:"original_amount"`
	OutstandingBalance float64 `yaml:"outstanding_balance"`
	MonthlyPayment     float64 `yaml:"monthly_payment"`
	InterestRate       float64 `yaml:"interest_rate"`
	LinkedAssetID      string  `yaml:"linked_asset_id"`
}

type fixtureTransaction struct {
	ID          string  `yaml:"id"`
	Date        string  `yaml:"date"`
	Description string  `yaml:"description"`
	Amount      float64 `yaml:"amount"`
	Category    string  `yaml:"category"`
	Type        string  `yaml:"type"`
	AssetID     string  `yaml:"asset_id"`
}

func (f fixture) build(now domain.Date, newID func() string) (domain.Ledger, error) {
	id := func(fixed string) (string, error) {
		if f.KeepIDs {
			return fixed, nil
		}
		if newID == nil {
			return "", fmt.Errorf("fixture needs an ID generator")
		}
		return newID(), nil
	}

	out := domain.Ledger{
		Assets:       make([]domain.Asset, 0, len(f.Assets)),
		Liabilities:  make([]domain.Liability, 0, len(f.Liabilities)),
		Transactions: make([]domain.Transaction, 0, len(f.Transactions)),
	}

	for _, a := range f.Assets {
		assetID, err := id(a.ID)
		if err != nil {
			return domain.Ledger{}, err
		}
		purchased, err := resolveDate(a.PurchaseDate, now)
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("asset %q: %w", a.Name, err)
		}
		out.Assets = append(out.Assets, domain.Asset{
			ID:              assetID,
			Name:            a.Name,
			Ticker:          a.Ticker,
			Type:            domain.AssetType(a.Type),
			PurchaseDate:    purchased,
			CostBasis:       a.CostBasis,
			CurrentValue:    a.CurrentValue,
			MonthlyCashflow: a.MonthlyCashflow,
			Description:     a.Description,
		})
	}

	for _, li := range f.Liabilities {
		liabilityID, err := id(li.ID)
		if err != nil {
			return domain.Ledger{}, err
		}
		out.Liabilities = append(out.Liabilities, domain.Liability{
			ID:                 liabilityID,
			Name:               li.Name,
			Type:               domain.LiabilityType(li.Type),
			OriginalAmount:     li.OriginalAmount,
			OutstandingBalance: li.OutstandingBalance,
			MonthlyPayment:     li.MonthlyPayment,
			InterestRate:       li.InterestRate,
			LinkedAssetID:      li.LinkedAssetID,
		})
	}

	for _, t := range f.Transactions {
		txID, err := id(t.ID)
		if err != nil {
			return domain.Ledger{}, err
		}
		date, err := resolveDate(t.Date, now)
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("transaction %q: %w", t.Description, err)
		}
		out.Transactions = append(out.Transactions, domain.Transaction{
			ID:          txID,
			Date:        date,
			Description: t.Description,
			Amount:      t.Amount,
			Category:    t.Category,
			Type:        domain.TransactionType(t.Type),
			AssetID:     t.AssetID,
		})
	}

	return out, nil
}

func resolveDate(s string, now domain.Date) (domain.Date, error) {
	switch strings.TrimSpace(s) {
	case "":
		return domain.Date{}, nil
	case today:
		return now, nil
	}
	return domain.ParseDate(s)
}

func mustLoadFixtures() map[string]fixture {
	entries, err := fixtureFS.ReadDir("fixtures")
	if err != nil {
		panic(fmt.Sprintf("scenario: read fixtures: %v", err))
	}

	out := make(map[string]fixture, len(entries))
	for _, e := range entries {
		raw, err := fixtureFS.ReadFile(path.Join("fixtures", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("scenario: read %s: %v", e.Name(), err))
		}
		var f fixture
		if err := yaml.Unmarshal(raw, &f); err != nil {
			panic(fmt.Sprintf("scenario: parse %s: %v", e.Name(), err))
		}
		out[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = f
	}
	return out
}
