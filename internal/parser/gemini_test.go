package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
)

type fakeGenerator struct {
	reply string
	err   error

	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	deadline bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.reply}}}},
		},
	}, nil
}

type parseRecorder struct {
	metrics.NoOp
	outcomes []string
	states   []metrics.CircuitState
}

func (r *parseRecorder) RecordParse(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func (r *parseRecorder) RecordCircuitState(_ string, s metrics.CircuitState) {
	r.states = append(r.states, s)
}

const statementReply = `{
	"transactions": [
		{"date": "2024-01-10", "description": "Dividend AAPL", "amount": 15, "category": "Investment Income", "type": "INCOME"}
	],
	"assets": [
		{"name": "AAPL Stock", "ticker": "AAPL", "type": "PAPER", "currentValue": 7600}
	],
	"liabilities": []
}`

func TestParse_Success(t *testing.T) {
	gen := &fakeGenerator{reply: statementReply}
	rec := &parseRecorder{}
	g := newGemini(gen, Config{}, rec)

	raw, err := g.Parse(context.Background(), []byte("%PDF-1.7"), "application/pdf")
	require.NoError(t, err)

	require.Len(t, raw.Transactions, 1)
	assert.Equal(t, "Dividend AAPL", raw.Transactions[0].Description)
	require.Len(t, raw.Assets, 1)
	assert.Equal(t, "AAPL", raw.Assets[0].Ticker)

	assert.Equal(t, DefaultModel, gen.model)
	assert.True(t, gen.deadline, "calls run under a timeout")
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Equal(t, []string{metrics.ParseOK}, rec.outcomes)
}

func TestParse_ContentLayout(t *testing.T) {
	tests := []struct {
		name      string
		mimeType  string
		wantParts int
		wantBlob  bool
	}{
		{name: "pdf goes inline", mimeType: "application/pdf", wantParts: 2, wantBlob: true},
		{name: "image goes inline", mimeType: "image/png", wantParts: 2, wantBlob: true},
		{name: "csv goes as text", mimeType: "text/csv", wantParts: 3},
		{name: "plain text with charset goes as text", mimeType: "text/plain; charset=utf-8", wantParts: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: `{}`}
			_, err := newGemini(gen, Config{}, nil).Parse(context.Background(), []byte("date,amount\n2024-01-01,5"), tc.mimeType)
			require.NoError(t, err)

			require.Len(t, gen.contents, 1)
			parts := gen.contents[0].Parts
			require.Len(t, parts, tc.wantParts)
			if tc.wantBlob {
				require.NotNil(t, parts[0].InlineData)
				assert.Equal(t, tc.mimeType, parts[0].InlineData.MIMEType)
			} else {
				assert.Nil(t, parts[0].InlineData)
				assert.Equal(t, "date,amount\n2024-01-01,5", parts[1].Text)
			}
			assert.Equal(t, extractionPrompt, parts[len(parts)-1].Text)
		})
	}
}

func TestParse_NotConfigured(t *testing.T) {
	g, err := NewGemini(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.False(t, g.Configured())

	_, err = g.Parse(context.Background(), []byte("x"), "text/plain")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, domain.ErrParserUnavailable)
}

func TestParse_EmptyDocument(t *testing.T) {
	gen := &fakeGenerator{reply: `{}`}
	_, err := newGemini(gen, Config{}, nil).Parse(context.Background(), nil, "application/pdf")
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Equal(t, 0, gen.calls)
}

func TestParse_Replies(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
		wantTxs int
	}{
		{name: "fenced json", reply: "```json\n" + statementReply + "\n```", wantTxs: 1},
		{name: "bare fence", reply: "```\n{\"transactions\": []}\n```", wantTxs: 0},
		{name: "empty", reply: "  ", wantErr: true},
		{name: "prose", reply: "I could not read this document.", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &parseRecorder{}
			raw, err := newGemini(&fakeGenerator{reply: tc.reply}, Config{}, rec).Parse(context.Background(), []byte("x"), "image/png")
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, []string{metrics.ParseError}, rec.outcomes)
				return
			}
			require.NoError(t, err)
			assert.Len(t, raw.Transactions, tc.wantTxs)
		})
	}
}

func TestParse_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503 service unavailable")}
	rec := &parseRecorder{}
	g := newGemini(gen, Config{}, rec)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := g.Parse(ctx, []byte("x"), "image/png")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrParserUnavailable)
	}

	_, err := g.Parse(ctx, []byte("x"), "image/png")
	assert.ErrorIs(t, err, domain.ErrParserUnavailable)
	assert.Equal(t, 5, gen.calls, "an open circuit does not reach Gemini")
	assert.Equal(t, metrics.ParseCircuitOpen, rec.outcomes[len(rec.outcomes)-1])
	assert.Equal(t, []metrics.CircuitState{metrics.CircuitOpen}, rec.states)
}

func TestParse_BadReplyDoesNotTripCircuit(t *testing.T) {
	gen := &fakeGenerator{reply: "not json"}
	g := newGemini(gen, Config{}, nil)

	for i := 0; i < 7; i++ {
		_, _ = g.Parse(context.Background(), []byte("x"), "image/png")
	}
	assert.Equal(t, 7, gen.calls)
}
