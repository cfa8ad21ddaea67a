// Package snapshot derives aggregate figures from a ledger.
package snapshot

import (
	"math"
	"strings"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

// Calculate recomputes every figure from scratch. Income transactions that
// belong to an asset (linked, or described as rent or dividend) are left out
// of MonthlyIncome because the asset's MonthlyCashflow already counts them.
func Calculate(l domain.Ledger) domain.FinancialSnapshot {
	var s domain.FinancialSnapshot

	for _, a := range l.Assets {
		s.TotalAssets += a.CurrentValue
		s.PassiveIncome += a.MonthlyCashflow
	}
	for _, li := range l.Liabilities {
		s.TotalLiabilities += li.OutstandingBalance
	}
	s.NetWorth = s.TotalAssets - s.TotalLiabilities

	for _, t := range l.Transactions {
		switch t.Type {
		case domain.TransactionTypeIncome:
			if isLaborIncome(t) {
				s.MonthlyIncome += t.Amount
			}
		case domain.TransactionTypeExpense, domain.TransactionTypeLiabilityPayment:
			s.MonthlyExpenses += math.Abs(t.Amount)
		}
	}

	return s
}

func isLaborIncome(t domain.Transaction) bool {
	if t.AssetID != "" {
		return false
	}
	desc := strings.ToLower(t.Description)
	return !strings.Contains(desc, "rent") && !strings.Contains(desc, "dividend")
}
