package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

const PortfolioPath = "/v1/portfolio"

// HTTPClient fetches the portfolio from a remote aggregator endpoint, such
// as cmd/mock-aggregator.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) Fetch(ctx context.Context) (*importer.RawBatch, error) {
	log := logging.FromContext(ctx)

	url := c.baseURL + PortfolioPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPClient.Fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	log.Info("aggregator request sent", "provider", "cams_http", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPClient.Fetch: send: %w: %w", domain.ErrAggregatorFailed, err)
	}
	defer resp.Body.Close()

	log.Info("aggregator response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTPClient.Fetch: unexpected status %d: %s: %w", resp.StatusCode, string(body), domain.ErrAggregatorFailed)
	}

	var batch importer.RawBatch
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("HTTPClient.Fetch: decode: %w: %w", domain.ErrAggregatorFailed, err)
	}
	return &batch, nil
}
