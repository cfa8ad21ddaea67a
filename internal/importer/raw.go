// Package importer turns loosely typed external payloads into merge batches
// and runs multi-file document imports.
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

// RawBatch is the shape produced by the document parser and the aggregator.
// Nothing in it is trusted; Coerce makes it safe to merge.
type RawBatch struct {
	Transactions []RawTransaction `json:"transactions"`
	Assets       []RawAsset       `json:"assets"`
	Liabilities  []RawLiability   `json:"liabilities"`
}

type RawTransaction struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      Number `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	AssetID     string `json:"assetId"`
}

type RawAsset struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Ticker          string `json:"ticker"`
	Type            string `json:"type"`
	PurchaseDate    string `json:"purchaseDate"`
	CostBasis       Number `json:"costBasis"`
	CurrentValue    Number `json:"currentValue"`
	MonthlyCashflow Number `json:"monthlyCashflow"`
	Description     string `json:"description"`
}

type RawLiability struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	OriginalAmount     Number `json:"originalAmount"`
	OutstandingBalance Number `json:"outstandingBalance"`
	MonthlyPayment     Number `json:"monthlyPayment"`
	InterestRate       Number `json:"interestRate"`
	LinkedAssetID      string `json:"linkedAssetId"`
}

// Number accepts a JSON number, a numeric string ("1,200.50", "$15"), or
// null. Strings that are not numbers decode to NaN rather than failing the
// whole payload.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("Number.UnmarshalJSON: %w", err)
		}
		*n = Number(ParseAmount(s))
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		*n = Number(math.NaN())
		return nil
	}
	*n = Number(d.InexactFloat64())
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

var amountReplacer = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "₹", "", " ", "")

// ParseAmount reads a human-formatted amount. A blank string is 0 and
// anything unparseable is NaN.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(amountReplacer.Replace(s))
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006",
	"2006-01",
}

// ParseDate tries the layouts statements commonly use. Anything else is the
// zero Date.
func ParseDate(s string) domain.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t)
		}
	}
	return domain.Date{}
}

func normalizeEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// TransactionType falls back to the sign of amount when s is not a known
// type.
func TransactionType(s string, amount float64) domain.TransactionType {
	if t := domain.TransactionType(normalizeEnum(s)); t.IsValid() {
		return t
	}
	if amount > 0 {
		return domain.TransactionTypeIncome
	}
	return domain.TransactionTypeExpense
}

func assetType(s string) domain.AssetType {
	if t := domain.AssetType(normalizeEnum(s)); t.IsValid() {
		return t
	}
	return domain.AssetTypePaper
}

func liabilityType(s string) domain.LiabilityType {
	if t := domain.LiabilityType(normalizeEnum(s)); t.IsValid() {
		return t
	}
	return domain.LiabilityTypeConsumerDebt
}

// Coerce converts every record. It never drops one.
func (r *RawBatch) Coerce() domain.Batch {
	if r == nil {
		return domain.Batch{}
	}

	b := domain.Batch{
		Assets:       make([]domain.Asset, 0, len(r.Assets)),
		Liabilities:  make([]domain.Liability, 0, len(r.Liabilities)),
		Transactions: make([]domain.Transaction, 0, len(r.Transactions)),
	}

	for _, a := range r.Assets {
		b.Assets = append(b.Assets, domain.Asset{
			ID:              strings.TrimSpace(a.ID),
			Name:            strings.TrimSpace(a.Name),
			Ticker:          strings.TrimSpace(a.Ticker),
			Type:            assetType(a.Type),
			PurchaseDate:    ParseDate(a.PurchaseDate),
			CostBasis:       float64(a.CostBasis),
			CurrentValue:    float64(a.CurrentValue),
			MonthlyCashflow: float64(a.MonthlyCashflow),
			Description:     a.Description,
		})
	}

	for _, li := range r.Liabilities {
		b.Liabilities = append(b.Liabilities, domain.Liability{
			ID:                 strings.TrimSpace(li.ID),
			Name:               strings.TrimSpace(li.Name),
			Type:               liabilityType(li.Type),
			OriginalAmount:     float64(li.OriginalAmount),
			OutstandingBalance: float64(li.OutstandingBalance),
			MonthlyPayment:     float64(li.MonthlyPayment),
			InterestRate:       float64(li.InterestRate),
			LinkedAssetID:      strings.TrimSpace(li.LinkedAssetID),
		})
	}

	for _, t := range r.Transactions {
		amount := float64(t.Amount)
		b.Transactions = append(b.Transactions, domain.Transaction{
			ID:          strings.TrimSpace(t.ID),
			Date:        ParseDate(t.Date),
			Description: strings.TrimSpace(t.Description),
			Amount:      amount,
			Category:    strings.TrimSpace(t.Category),
			Type:        TransactionType(t.Type, amount),
			AssetID:     strings.TrimSpace(t.AssetID),
		})
	}

	return b
}

// Counts reports how many records of each kind the batch carries.
func (r *RawBatch) Counts() (transactions, assets, liabilities int) {
	if r == nil {
		return 0, 0, 0
	}
	return len(r.Transactions), len(r.Assets), len(r.Liabilities)
}
