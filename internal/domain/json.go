package domain

import (
	"encoding/json"
	"math"
)

// finite encodes NaN and ±Inf as null. Malformed imported amounts are kept
// as NaN, and encoding/json refuses to write them.
type finite float64

func (f finite) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Amount finite `json:"amount"`
	}{plain(t), finite(t.Amount)})
}

func (a Asset) MarshalJSON() ([]byte, error) {
	type plain Asset
	return json.Marshal(struct {
		plain
		CostBasis       finite `json:"costBasis"`
		CurrentValue    finite `json:"currentValue"`
		MonthlyCashflow finite `json:"monthlyCashflow"`
	}{plain(a), finite(a.CostBasis), finite(a.CurrentValue), finite(a.MonthlyCashflow)})
}

func (l Liability) MarshalJSON() ([]byte, error) {
	type plain Liability
	return json.Marshal(struct {
		plain
		OriginalAmount     finite `json:"originalAmount"`
		OutstandingBalance finite `json:"outstandingBalance"`
		MonthlyPayment     finite `json:"monthlyPayment"`
		InterestRate       finite `json:"interestRate"`
	}{plain(l), finite(l.OriginalAmount), finite(l.OutstandingBalance), finite(l.MonthlyPayment), finite(l.InterestRate)})
}

func (s FinancialSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		NetWorth         finite `json:"netWorth"`
		TotalAssets      finite `json:"totalAssets"`
		TotalLiabilities finite `json:"totalLiabilities"`
		MonthlyIncome    finite `json:"monthlyIncome"`
		MonthlyExpenses  finite `json:"monthlyExpenses"`
		PassiveIncome    finite `json:"passiveIncome"`
	}{
		finite(s.NetWorth), finite(s.TotalAssets), finite(s.TotalLiabilities),
		finite(s.MonthlyIncome), finite(s.MonthlyExpenses), finite(s.PassiveIncome),
	})
}

// HasNonFinite reports whether any amount in the ledger is NaN or ±Inf.
// Such a ledger does not survive a JSON round trip.
func (l Ledger) HasNonFinite() bool {
	bad := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
		return false
	}
	for _, t := range l.Transactions {
		if bad(t.Amount) {
			return true
		}
	}
	for _, a := range l.Assets {
		if bad(a.CostBasis, a.CurrentValue, a.MonthlyCashflow) {
			return true
		}
	}
	for _, li := range l.Liabilities {
		if bad(li.OriginalAmount, li.OutstandingBalance, li.MonthlyPayment, li.InterestRate) {
			return true
		}
	}
	return false
}
