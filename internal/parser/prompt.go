package parser

import (
	"google.golang.org/genai"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

const extractionPrompt = `Analyze the attached financial document (Bank Statement, CDSL Statement, Portfolio Report, or Bill).

Extract and Classify:
1. Transactions: List all visible transactions.
   - Classify 'type' as: INCOME, EXPENSE, ASSET_PURCHASE, LIABILITY_PAYMENT, or TRANSFER.
   - 'amount' should be a positive number.
2. Assets: Identify any holdings (Stocks, Mutual Funds, Properties).
   - Classify 'type' as: PAPER, REAL_ESTATE, BUSINESS, COMMODITY, or CASH.
   - Estimate 'monthlyCashflow' if dividend/rent is mentioned, else 0.
3. Liabilities: Identify any loans or debts mentioned.
   - Classify 'type' as: MORTGAGE, CONSUMER_DEBT, or LOAN.

Context:
- CDSL statements usually list Stocks (Paper Assets).
- Bank statements list Transactions.
- Loan statements list Liabilities.

Return valid JSON matching the schema.`

var (
	transactionTypes = []string{
		string(domain.TransactionTypeIncome),
		string(domain.TransactionTypeExpense),
		string(domain.TransactionTypeAssetPurchase),
		string(domain.TransactionTypeLiabilityPayment),
		string(domain.TransactionTypeTransfer),
	}
	assetTypes = []string{
		string(domain.AssetTypePaper),
		string(domain.AssetTypeRealEstate),
		string(domain.AssetTypeBusiness),
		string(domain.AssetTypeCommodity),
		string(domain.AssetTypeCash),
	}
	liabilityTypes = []string{
		string(domain.LiabilityTypeMortgage),
		string(domain.LiabilityTypeConsumerDebt),
		string(domain.LiabilityTypeLoan),
	}
)

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
func num() *genai.Schema { return &genai.Schema{Type: genai.TypeNumber} }

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"transactions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date":        {Type: genai.TypeString, Description: "ISO Date YYYY-MM-DD or closest approximation"},
					"description": str(),
					"amount":      num(),
					"category":    str(),
					"type":        {Type: genai.TypeString, Enum: transactionTypes},
				},
				Required: []string{"date", "description", "amount", "type"},
			},
		},
		"assets": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":            str(),
					"ticker":          str(),
					"type":            {Type: genai.TypeString, Enum: assetTypes},
					"currentValue":    num(),
					"costBasis":       num(),
					"monthlyCashflow": num(),
				},
				Required: []string{"name", "currentValue", "type"},
			},
		},
		"liabilities": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":               str(),
					"type":               {Type: genai.TypeString, Enum: liabilityTypes},
					"outstandingBalance": num(),
					"monthlyPayment":     num(),
				},
				Required: []string{"name", "outstandingBalance", "type"},
			},
		},
	},
}
