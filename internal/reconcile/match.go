package reconcile

import (
	"math"
	"regexp"
	"strings"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

const (
	amountTolerance = 0.01
	dateWindowDays  = 3
)

var dividendPattern = regexp.MustCompile(`(?i)dividend|dist|interest`)

func isDividendCandidate(t domain.Transaction) bool {
	return t.Type == domain.TransactionTypeIncome && dividendPattern.MatchString(t.Description)
}

// findDividendAsset returns the first asset whose name appears in the
// description (case-insensitive) or whose ticker appears verbatim.
// Assets without a name are only matched by ticker.
func findDividendAsset(assets []domain.Asset, description string) (domain.Asset, bool) {
	lower := strings.ToLower(description)
	for _, a := range assets {
		if a.Name != "" && strings.Contains(lower, strings.ToLower(a.Name)) {
			return a, true
		}
		if a.Ticker != "" && strings.Contains(description, a.Ticker) {
			return a, true
		}
	}
	return domain.Asset{}, false
}

// entitled reports whether the asset was held on the payout date. Unknown
// dates never confirm entitlement.
func entitled(a domain.Asset, t domain.Transaction) bool {
	if a.PurchaseDate.IsZero() || t.Date.IsZero() {
		return false
	}
	return !a.PurchaseDate.After(t.Date)
}

// isDuplicate compares in against every existing transaction. A missing
// date on either side does not rule a pair out.
func isDuplicate(existing []domain.Transaction, in domain.Transaction) bool {
	inDesc := normalizeDescription(in.Description)
	for _, t := range existing {
		if !(math.Abs(t.Amount-in.Amount) <= amountTolerance) {
			continue
		}
		if !withinWindow(t.Date, in.Date) {
			continue
		}
		if descriptionsMatch(normalizeDescription(t.Description), inDesc) {
			return true
		}
	}
	return false
}

func withinWindow(a, b domain.Date) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}
	return domain.DaysBetween(a, b) <= dateWindowDays
}

// descriptionsMatch treats an empty description as contained in any other.
func descriptionsMatch(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// normalizeDescription lowercases s and keeps only ASCII letters and digits.
func normalizeDescription(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
