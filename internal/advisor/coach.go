// Package advisor writes a short coaching note about a ledger's cashflow.
package advisor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"google.golang.org/genai"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultCurrency = money.USD

	MessageNotConfigured = "Gemini API Key is missing. Configure GEMINI_API_KEY to enable the Financial Coach."
	MessageEmptyReply    = "Focus on your Asset Column."
	MessageUnavailable   = "Unable to analyze capital flow at this moment."
)

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey   string
	Model    string
	Currency string
	Timeout  time.Duration
}

type Coach struct {
	gen      generator
	model    string
	currency string
	timeout  time.Duration
}

func NewCoach(ctx context.Context, cfg Config) (*Coach, error) {
	if cfg.APIKey == "" {
		return newCoach(nil, cfg), nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewCoach: %w", err)
	}
	return newCoach(client.Models, cfg), nil
}

func newCoach(gen generator, cfg Config) *Coach {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Currency == "" || money.GetCurrency(strings.ToUpper(cfg.Currency)) == nil {
		cfg.Currency = DefaultCurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Coach{gen: gen, model: cfg.Model, currency: strings.ToUpper(cfg.Currency), timeout: cfg.Timeout}
}

// Advise never fails; problems reaching the model become a fixed message.
func (c *Coach) Advise(ctx context.Context, snap domain.FinancialSnapshot, assets []domain.Asset, liabilities []domain.Liability) string {
	if c.gen == nil {
		return MessageNotConfigured
	}

	log := logging.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.gen.GenerateContent(ctx, c.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: c.Prompt(snap, assets, liabilities)}}},
	}, nil)
	if err != nil {
		log.Error("coach request failed", "error", err)
		return MessageUnavailable
	}

	var text string
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		return MessageEmptyReply
	}
	return text
}

func (c *Coach) Prompt(snap domain.FinancialSnapshot, assets []domain.Asset, liabilities []domain.Liability) string {
	assetCol := make([]string, 0, len(assets))
	for _, a := range assets {
		assetCol = append(assetCol, fmt.Sprintf("%s (%s/mo)", a.Name, c.format(a.MonthlyCashflow)))
	}
	liabilityCol := make([]string, 0, len(liabilities))
	for _, l := range liabilities {
		liabilityCol = append(liabilityCol, fmt.Sprintf("%s (-%s/mo)", l.Name, c.format(l.MonthlyPayment)))
	}

	var b strings.Builder
	b.WriteString("You are a strategic capital allocation coach. Analyze the following ledger.\n\n")
	b.WriteString("Core Philosophy to apply:\n")
	b.WriteString("1. True Assets are only things that put money IN the pocket (positive cashflow). Everything else is a liability or an expense.\n")
	b.WriteString("2. Wealth is measured in time, not money. (How long can they survive without working?)\n")
	b.WriteString("3. The goal is to escape the \"Labor-for-Money\" cycle by building the Asset Column until Passive Income > Expenses.\n\n")
	b.WriteString("Financial Data:\n")
	fmt.Fprintf(&b, "- Net Worth: %s\n", c.format(snap.NetWorth))
	fmt.Fprintf(&b, "- Passive Income: %s/month\n", c.format(snap.PassiveIncome))
	fmt.Fprintf(&b, "- Living Expenses: %s/month\n", c.format(snap.MonthlyExpenses))
	fmt.Fprintf(&b, "- Asset Column: %s\n", strings.Join(assetCol, ", "))
	fmt.Fprintf(&b, "- Liability Column: %s\n\n", strings.Join(liabilityCol, ", "))
	b.WriteString("Provide a short, handwritten-style note (max 2 sentences).\n")
	b.WriteString("Be direct. Do not use trademarked terms like \"Rich Dad\" or \"Cashflow Quadrant\".\n")
	b.WriteString("Use terms like \"Asset Column\", \"Cashflow Velocity\", and \"Buying Freedom\".\n")
	b.WriteString("If they have no assets, tell them to stop buying liabilities.\n")
	return b.String()
}

func (c *Coach) format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return money.NewFromFloat(v, c.currency).Display()
}
