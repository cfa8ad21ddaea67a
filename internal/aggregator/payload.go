// Package aggregator pulls mutual fund holdings and recent SIP entries from
// an account aggregator. Only the CAMS mock is implemented.
package aggregator

import (
	"fmt"
	"time"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
)

const folioNote = "Synced via CAMSFinServ (Folio: %s)"

// Portfolio is the fixed CAMS response. Transaction dates are relative to
// now so repeated syncs on the same day are recognised as duplicates.
func Portfolio(now time.Time) *importer.RawBatch {
	today := domain.DateOf(now)
	lastMonth := today.AddMonths(-1)

	return &importer.RawBatch{
		Assets: []importer.RawAsset{
			{
				ID:              "cams_1",
				Name:            "SBI Nifty 50 ETF",
				Ticker:          "SBINIFTY",
				Type:            string(domain.AssetTypePaper),
				PurchaseDate:    "2022-01-10",
				CostBasis:       120000,
				CurrentValue:    145000,
				MonthlyCashflow: 0,
				Description:     folio("123***89"),
			},
			{
				ID:              "cams_2",
				Name:            "HDFC Flexi Cap Fund",
				Ticker:          "HDFCFLEX",
				Type:            string(domain.AssetTypePaper),
				PurchaseDate:    "2021-05-15",
				CostBasis:       200000,
				CurrentValue:    280000,
				MonthlyCashflow: 0,
				Description:     folio("987***12"),
			},
			{
				ID:              "cams_3",
				Name:            "ICICI Pru Regular Savings",
				Ticker:          "ICICIPRU",
				Type:            string(domain.AssetTypePaper),
				PurchaseDate:    "2023-01-01",
				CostBasis:       500000,
				CurrentValue:    512000,
				MonthlyCashflow: 3500,
				Description:     folio("456***23"),
			},
		},
		Transactions: []importer.RawTransaction{
			{
				ID:          "tx_cams_1",
				Date:        today.String(),
				Description: "SIP Deduct - SBI Nifty",
				Amount:      -5000,
				Category:    "Investment",
				Type:        string(domain.TransactionTypeAssetPurchase),
				AssetID:     "cams_1",
			},
			{
				ID:          "tx_cams_2",
				Date:        today.String(),
				Description: "SIP Deduct - HDFC Flexi",
				Amount:      -10000,
				Category:    "Investment",
				Type:        string(domain.TransactionTypeAssetPurchase),
				AssetID:     "cams_2",
			},
			{
				ID:          "tx_cams_3",
				Date:        lastMonth.String(),
				Description: "Div Payout - ICICI Pru",
				Amount:      3500,
				Category:    "Investment Income",
				Type:        string(domain.TransactionTypeIncome),
				AssetID:     "cams_3",
			},
		},
	}
}

func folio(masked string) string {
	return fmt.Sprintf(folioNote, masked)
}
