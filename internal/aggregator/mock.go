package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

const DefaultLatency = 2 * time.Second

// Mock stands in for the consent and fetch round trip of a real aggregator.
type Mock struct {
	now     func() time.Time
	latency time.Duration
}

func NewMock(now func() time.Time, latency time.Duration) *Mock {
	if now == nil {
		now = time.Now
	}
	if latency < 0 {
		latency = 0
	}
	return &Mock{now: now, latency: latency}
}

// Fetch waits out the simulated latency, or returns early with the
// context's error.
func (m *Mock) Fetch(ctx context.Context) (*importer.RawBatch, error) {
	log := logging.FromContext(ctx)
	log.Info("aggregator request sent", "provider", "cams_mock")

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("Mock.Fetch: %w", ctx.Err())
		case <-timer.C:
		}
	}

	batch := Portfolio(m.now())
	log.Info("aggregator response received",
		"provider", "cams_mock",
		"assets", len(batch.Assets),
		"transactions", len(batch.Transactions),
	)
	return batch, nil
}
