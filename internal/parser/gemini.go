// Package parser extracts transactions, assets and liabilities from
// financial documents using Gemini.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 60 * time.Second

	breakerName = "gemini_parser"
)

var (
	ErrNotConfigured = fmt.Errorf("%w: no Gemini API key configured", domain.ErrParserUnavailable)
	ErrEmptyDocument = errors.New("empty document")
)

// generator is the slice of *genai.Models the parser uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Gemini struct {
	gen     generator
	model   string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	metrics metrics.Recorder
}

// NewGemini builds a parser. Without an API key it still returns a parser,
// one whose Parse always fails with ErrNotConfigured.
func NewGemini(ctx context.Context, cfg Config, rec metrics.Recorder) (*Gemini, error) {
	if cfg.APIKey == "" {
		return newGemini(nil, cfg, rec), nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: %w", err)
	}
	return newGemini(client.Models, cfg, rec), nil
}

func newGemini(gen generator, cfg Config, rec metrics.Recorder) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if rec == nil {
		rec = metrics.NoOp{}
	}

	g := &Gemini{gen: gen, model: cfg.Model, timeout: cfg.Timeout, metrics: rec}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Default().Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			g.metrics.RecordCircuitState(name, circuitState(to))
		},
	})
	return g
}

func circuitState(s gobreaker.State) metrics.CircuitState {
	switch s {
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	default:
		return metrics.CircuitClosed
	}
}

// Configured reports whether Parse can reach Gemini.
func (g *Gemini) Configured() bool {
	return g.gen != nil
}

// Parse sends the document to Gemini and decodes the structured reply.
// Text formats go in as a text part; everything else as inline bytes.
func (g *Gemini) Parse(ctx context.Context, data []byte, mimeType string) (*importer.RawBatch, error) {
	if g.gen == nil {
		return nil, ErrNotConfigured
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("Parse: %w", ErrEmptyDocument)
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.gen.GenerateContent(ctx, g.model, buildContents(data, mimeType), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
		})
	})
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.metrics.RecordParse(metrics.ParseCircuitOpen, duration)
			log.Warn("document parser circuit open", "error", err)
			return nil, fmt.Errorf("Parse: %w: %w", domain.ErrParserUnavailable, err)
		}
		g.metrics.RecordParse(metrics.ParseError, duration)
		log.Error("document parser call failed", "error", err, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("Parse: %w", err)
	}

	var text string
	if resp, ok := out.(*genai.GenerateContentResponse); ok && resp != nil {
		text = resp.Text()
	}
	raw, err := decodeReply(text)
	if err != nil {
		g.metrics.RecordParse(metrics.ParseError, duration)
		log.Warn("document parser returned unusable reply", "error", err)
		return nil, fmt.Errorf("Parse: %w", err)
	}

	g.metrics.RecordParse(metrics.ParseOK, duration)
	txs, assets, liabilities := raw.Counts()
	log.Info("document parsed",
		"mime_type", mimeType,
		"transactions", txs,
		"assets", assets,
		"liabilities", liabilities,
		"duration_ms", duration.Milliseconds(),
	)
	return raw, nil
}

func isTextMIME(mimeType string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	return base == "text/csv" || base == "text/plain"
}

func buildContents(data []byte, mimeType string) []*genai.Content {
	var parts []*genai.Part
	if isTextMIME(mimeType) {
		parts = []*genai.Part{
			{Text: "Here is the content of the financial file (CSV/Text format):"},
			{Text: string(data)},
			{Text: extractionPrompt},
		}
	} else {
		parts = []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: extractionPrompt},
		}
	}
	return []*genai.Content{{Role: "user", Parts: parts}}
}

// decodeReply tolerates a reply wrapped in a markdown code fence.
func decodeReply(text string) (*importer.RawBatch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty reply")
	}
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var raw importer.RawBatch
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &raw, nil
}
