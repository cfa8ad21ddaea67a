package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

var (
	colorPositive = lipgloss.AdaptiveColor{Light: "2", Dark: "2"}
	colorNegative = lipgloss.AdaptiveColor{Light: "1", Dark: "1"}
	colorPrimary  = lipgloss.AdaptiveColor{Light: "5", Dark: "5"}
	colorMuted    = lipgloss.AdaptiveColor{Light: "8", Dark: "8"}

	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Underline(true)
	styleHeader   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleLabel    = lipgloss.NewStyle().Bold(true).Width(20)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	stylePositive = lipgloss.NewStyle().Foreground(colorPositive)
	styleNegative = lipgloss.NewStyle().Foreground(colorNegative)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorPositive).Bold(true)
	styleColumn   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			Width(38)
)

func formatSuccess(msg string) string {
	return styleSuccess.Render("✔") + " " + msg
}

// formatAmount renders v in the currency's minor units. NaN amounts, which
// a garbled import can leave behind, print as "n/a".
func formatAmount(v float64, currency string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if money.GetCurrency(strings.ToUpper(currency)) == nil {
		currency = money.USD
	}
	return money.NewFromFloat(v, strings.ToUpper(currency)).Display()
}

func signed(v float64, currency string) string {
	s := formatAmount(v, currency)
	switch {
	case v > 0:
		return stylePositive.Render(s)
	case v < 0:
		return styleNegative.Render(s)
	}
	return s
}

func renderSnapshot(scope string, snap domain.FinancialSnapshot, l domain.Ledger, currency string) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Ledger "+scope) + "\n\n")

	row := func(label, value string) {
		fmt.Fprintf(&b, "%s%s\n", styleLabel.Render(label), value)
	}
	row("Net worth", signed(snap.NetWorth, currency))
	row("Monthly income", formatAmount(snap.MonthlyIncome, currency))
	row("Passive income", formatAmount(snap.PassiveIncome, currency))
	row("Monthly expenses", formatAmount(snap.MonthlyExpenses, currency))
	row("Monthly cashflow", signed(snap.MonthlyIncome-snap.MonthlyExpenses, currency))
	b.WriteString("\n")

	assets := []string{styleHeader.Render("Assets") + "  " + styleMuted.Render(formatAmount(snap.TotalAssets, currency))}
	for _, a := range l.Assets {
		assets = append(assets, fmt.Sprintf("%s %s", a.Name, styleMuted.Render(formatAmount(a.CurrentValue, currency))))
	}
	if len(l.Assets) == 0 {
		assets = append(assets, styleMuted.Render("none"))
	}

	liabilities := []string{styleHeader.Render("Liabilities") + "  " + styleMuted.Render(formatAmount(snap.TotalLiabilities, currency))}
	for _, li := range l.Liabilities {
		liabilities = append(liabilities, fmt.Sprintf("%s %s", li.Name, styleMuted.Render(formatAmount(li.OutstandingBalance, currency))))
	}
	if len(l.Liabilities) == 0 {
		liabilities = append(liabilities, styleMuted.Render("none"))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styleColumn.Render(strings.Join(assets, "\n")),
		styleColumn.Render(strings.Join(liabilities, "\n")),
	))
	b.WriteString("\n")
	return b.String()
}
