package domain

type TransactionType string

const (
	TransactionTypeIncome           TransactionType = "INCOME"
	TransactionTypeExpense          TransactionType = "EXPENSE"
	TransactionTypeAssetPurchase    TransactionType = "ASSET_PURCHASE"
	TransactionTypeLiabilityPayment TransactionType = "LIABILITY_PAYMENT"
	TransactionTypeTransfer         TransactionType = "TRANSFER"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeAssetPurchase,
		TransactionTypeLiabilityPayment, TransactionTypeTransfer:
		return true
	}
	return false
}

type AssetType string

const (
	AssetTypePaper      AssetType = "PAPER"
	AssetTypeRealEstate AssetType = "REAL_ESTATE"
	AssetTypeBusiness   AssetType = "BUSINESS"
	AssetTypeCommodity  AssetType = "COMMODITY"
	AssetTypeCash       AssetType = "CASH"
)

func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypePaper, AssetTypeRealEstate, AssetTypeBusiness, AssetTypeCommodity, AssetTypeCash:
		return true
	}
	return false
}

type LiabilityType string

const (
	LiabilityTypeMortgage     LiabilityType = "MORTGAGE"
	LiabilityTypeConsumerDebt LiabilityType = "CONSUMER_DEBT"
	LiabilityTypeLoan         LiabilityType = "LOAN"
)

func (t LiabilityType) IsValid() bool {
	switch t {
	case LiabilityTypeMortgage, LiabilityTypeConsumerDebt, LiabilityTypeLoan:
		return true
	}
	return false
}

// Transaction amounts are signed; the sign is not checked against Type.
// AssetID is a lookup-only reference and never cascades.
type Transaction struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	AssetID     string          `json:"assetId,omitempty"`
}

// PurchaseDate is fixed at creation and gates dividend linking.
type Asset struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Ticker          string    `json:"ticker,omitempty"`
	Type            AssetType `json:"type"`
	PurchaseDate    Date      `json:"purchaseDate"`
	CostBasis       float64   `json:"costBasis"`
	CurrentValue    float64   `json:"currentValue"`
	MonthlyCashflow float64   `json:"monthlyCashflow"`
	Description     string    `json:"description,omitempty"`
}

type Liability struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Type               LiabilityType `json:"type"`
	OriginalAmount     float64       `json:"originalAmount"`
	OutstandingBalance float64       `json:"outstandingBalance"`
	MonthlyPayment     float64       `json:"monthlyPayment"`
	InterestRate       float64       `json:"interestRate"`
	LinkedAssetID      string        `json:"linkedAssetId,omitempty"`
}

// Ledger is the full state of one scope and the unit of persistence.
type Ledger struct {
	Assets       []Asset       `json:"assets"`
	Liabilities  []Liability   `json:"liabilities"`
	Transactions []Transaction `json:"transactions"`
}

func (l Ledger) Clone() Ledger {
	return Ledger{
		Assets:       append([]Asset{}, l.Assets...),
		Liabilities:  append([]Liability{}, l.Liabilities...),
		Transactions: append([]Transaction{}, l.Transactions...),
	}
}

func (l Ledger) IsEmpty() bool {
	return len(l.Assets) == 0 && len(l.Liabilities) == 0 && len(l.Transactions) == 0
}

// Batch is a set of externally sourced candidate records awaiting a merge.
type Batch struct {
	Assets       []Asset       `json:"assets"`
	Liabilities  []Liability   `json:"liabilities"`
	Transactions []Transaction `json:"transactions"`
}

func (b Batch) Len() int {
	return len(b.Assets) + len(b.Liabilities) + len(b.Transactions)
}

type FinancialSnapshot struct {
	NetWorth         float64 `json:"netWorth"`
	TotalAssets      float64 `json:"totalAssets"`
	TotalLiabilities float64 `json:"totalLiabilities"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	MonthlyExpenses  float64 `json:"monthlyExpenses"`
	PassiveIncome    float64 `json:"passiveIncome"`
}
