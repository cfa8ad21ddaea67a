package importer

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantNaN bool
	}{
		{name: "number", input: `1200.5`, want: 1200.5},
		{name: "negative number", input: `-42`, want: -42},
		{name: "null", input: `null`, want: 0},
		{name: "numeric string", input: `"15.25"`, want: 15.25},
		{name: "thousands separators", input: `"1,20,000"`, want: 120000},
		{name: "currency symbol", input: `"$1,200.00"`, want: 1200},
		{name: "rupee symbol", input: `"₹ 3500"`, want: 3500},
		{name: "empty string", input: `""`, want: 0},
		{name: "garbage string", input: `"n/a"`, wantNaN: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tc.input), &n))
			if tc.wantNaN {
				assert.True(t, math.IsNaN(float64(n)))
				return
			}
			assert.InDelta(t, tc.want, float64(n), 1e-9)
		})
	}
}

func TestNumber_MarshalNaNAsNull(t *testing.T) {
	b, err := json.Marshal(Number(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "2024-01-10", want: "2024-01-10"},
		{input: "2024-01-10T09:30:00Z", want: "2024-01-10"},
		{input: "2024/01/10", want: "2024-01-10"},
		{input: "10-Jan-2024", want: "2024-01-10"},
		{input: "10 Jan 2024", want: "2024-01-10"},
		{input: "Jan 10, 2024", want: "2024-01-10"},
		{input: "01/10/2024", want: "2024-01-10"},
		{input: "2024-01", want: "2024-01-01"},
		{input: "", want: ""},
		{input: "last tuesday", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDate(tc.input).String())
		})
	}
}

func TestTransactionType(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		amount float64
		want   domain.TransactionType
	}{
		{name: "exact", input: "ASSET_PURCHASE", amount: -10, want: domain.TransactionTypeAssetPurchase},
		{name: "lower case with spaces", input: "liability payment", amount: -10, want: domain.TransactionTypeLiabilityPayment},
		{name: "hyphenated", input: "asset-purchase", amount: -10, want: domain.TransactionTypeAssetPurchase},
		{name: "unknown positive", input: "CREDIT", amount: 10, want: domain.TransactionTypeIncome},
		{name: "unknown negative", input: "DEBIT", amount: -10, want: domain.TransactionTypeExpense},
		{name: "unknown zero", input: "", amount: 0, want: domain.TransactionTypeExpense},
		{name: "unknown NaN", input: "", amount: math.NaN(), want: domain.TransactionTypeExpense},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TransactionType(tc.input, tc.amount))
		})
	}
}

func TestRawBatch_Coerce(t *testing.T) {
	payload := `{
		"transactions": [
			{"date": "2024-01-10", "description": " Dividend AAPL ", "amount": "15", "category": "Investment Income", "type": "income"},
			{"date": "garbled", "description": "Coffee", "amount": "abc", "type": "SOMETHING"}
		],
		"assets": [
			{"name": "SBI Nifty 50 ETF", "ticker": "SBINIFTY", "type": "paper", "purchaseDate": "2022-01-10", "currentValue": 145000, "costBasis": "1,20,000"},
			{"name": "Mystery", "type": "CRYPTO", "currentValue": null}
		],
		"liabilities": [
			{"name": "Home Loan", "type": "mortgage", "outstandingBalance": "2500000"},
			{"name": "Card", "type": "credit card", "outstandingBalance": 900}
		]
	}`

	var raw RawBatch
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	b := raw.Coerce()

	require.Len(t, b.Transactions, 2, "coercion never drops a record")
	assert.Equal(t, "Dividend AAPL", b.Transactions[0].Description)
	assert.Equal(t, 15.0, b.Transactions[0].Amount)
	assert.Equal(t, domain.TransactionTypeIncome, b.Transactions[0].Type)
	assert.Equal(t, "2024-01-10", b.Transactions[0].Date.String())
	assert.True(t, b.Transactions[1].Date.IsZero())
	assert.True(t, math.IsNaN(b.Transactions[1].Amount))
	assert.Equal(t, domain.TransactionTypeExpense, b.Transactions[1].Type)

	require.Len(t, b.Assets, 2)
	assert.Equal(t, domain.AssetTypePaper, b.Assets[0].Type)
	assert.Equal(t, 120000.0, b.Assets[0].CostBasis)
	assert.Equal(t, domain.AssetTypePaper, b.Assets[1].Type)
	assert.Equal(t, 0.0, b.Assets[1].CurrentValue)

	require.Len(t, b.Liabilities, 2)
	assert.Equal(t, domain.LiabilityTypeMortgage, b.Liabilities[0].Type)
	assert.Equal(t, 2500000.0, b.Liabilities[0].OutstandingBalance)
	assert.Equal(t, domain.LiabilityTypeConsumerDebt, b.Liabilities[1].Type)
}

func TestRawBatch_CoerceNil(t *testing.T) {
	var raw *RawBatch
	assert.Equal(t, 0, raw.Coerce().Len())
}
