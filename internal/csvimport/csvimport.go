// Package csvimport reads simple bank exports of the form
// date,description,amount,category.
package csvimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
)

const (
	defaultDescription = "Unknown"
	defaultCategory    = "Uncategorized"
)

type Importer struct {
	newID func() string
}

type Option func(*Importer)

func WithIDGenerator(fn func() string) Option {
	return func(i *Importer) { i.newID = fn }
}

func New(opts ...Option) *Importer {
	i := &Importer{newID: uuid.NewString}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import appends every usable row to the store in one flush and returns how
// many were inserted. Rows whose amount is not a number are skipped, as are
// rows that exactly repeat an existing date, amount and description. There
// is no fuzzy matching here; that belongs to reconcile.
func (i *Importer) Import(ctx context.Context, s reconcile.Applier, r io.Reader, today domain.Date) (int, error) {
	log := logging.FromContext(ctx)

	rows, err := i.readRows(ctx, r, today)
	if err != nil {
		return 0, fmt.Errorf("Import: %w", err)
	}

	inserted := 0
	err = s.Apply(ctx, func(l *domain.Ledger) error {
		inserted = 0
		for _, tx := range rows {
			if exactDuplicate(l.Transactions, tx) {
				continue
			}
			tx.ID = i.newID()
			l.Transactions = append(l.Transactions, tx)
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("Import: %w", err)
	}

	log.Info("csv imported", "rows", len(rows), "inserted", inserted)
	return inserted, nil
}

func (i *Importer) readRows(ctx context.Context, r io.Reader, today domain.Date) ([]domain.Transaction, error) {
	log := logging.FromContext(ctx)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows []domain.Transaction
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Warn("skipping malformed csv line", "line", perr.Line, "error", perr.Err)
			first = false
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		if first {
			first = false
			if strings.Contains(strings.ToLower(strings.Join(rec, ",")), "date") {
				continue
			}
		}

		tx, ok := parseRow(rec, today)
		if !ok {
			continue
		}
		rows = append(rows, tx)
	}
	return rows, nil
}

func parseRow(rec []string, today domain.Date) (domain.Transaction, bool) {
	field := func(n int) string {
		if n < len(rec) {
			return strings.TrimSpace(rec[n])
		}
		return ""
	}

	rawAmount := field(2)
	if rawAmount == "" {
		return domain.Transaction{}, false
	}
	amount := importer.ParseAmount(rawAmount)
	if math.IsNaN(amount) {
		return domain.Transaction{}, false
	}

	date := today
	if s := field(0); s != "" {
		date = importer.ParseDate(s)
	}

	description := field(1)
	tx := domain.Transaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Category:    field(3),
		Type:        classify(description, amount),
	}
	if tx.Description == "" {
		tx.Description = defaultDescription
	}
	if tx.Category == "" {
		tx.Category = defaultCategory
	}
	return tx, true
}

// classify checks keywords in priority order before falling back to the
// sign of the amount.
func classify(description string, amount float64) domain.TransactionType {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "mortgage") || strings.Contains(d, "loan"):
		return domain.TransactionTypeLiabilityPayment
	case strings.Contains(d, "dividend") || strings.Contains(d, "rent"):
		return domain.TransactionTypeIncome
	case strings.Contains(d, "investment") || strings.Contains(d, "brokerage"):
		return domain.TransactionTypeAssetPurchase
	case amount > 0:
		return domain.TransactionTypeIncome
	default:
		return domain.TransactionTypeExpense
	}
}

func exactDuplicate(existing []domain.Transaction, tx domain.Transaction) bool {
	for _, t := range existing {
		if t.Date.Equal(tx.Date) && t.Amount == tx.Amount && t.Description == tx.Description {
			return true
		}
	}
	return false
}
