package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/metrics"
	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
)

type Mode string

const (
	ModeAppend   Mode = "append"
	ModeOverride Mode = "override"
)

// ParseMode treats an empty string as append.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeOverride:
		return ModeOverride, nil
	}
	return "", fmt.Errorf("ParseMode %q: %w", s, domain.ErrInvalidImportMode)
}

type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

type documentParser interface {
	Parse(ctx context.Context, data []byte, mimeType string) (*RawBatch, error)
}

type merger interface {
	Merge(ctx context.Context, s reconcile.Applier, b domain.Batch) (*reconcile.Result, error)
}

// LedgerStore is satisfied by *store.Store.
type LedgerStore interface {
	reconcile.Applier
	ReplaceAll(ctx context.Context, assets []domain.Asset, liabilities []domain.Liability, transactions []domain.Transaction) error
}

type FileStatus struct {
	Name    string            `json:"name"`
	Success bool              `json:"success"`
	Status  string            `json:"status"`
	Result  *reconcile.Result `json:"result,omitempty"`
}

type Report struct {
	Mode    Mode         `json:"mode"`
	Files   []FileStatus `json:"files"`
	Summary string       `json:"summary"`
}

// Queue imports documents one after another. A file that fails to parse or
// merge is reported and the queue moves on.
type Queue struct {
	parser  documentParser
	merger  merger
	metrics metrics.Recorder
}

func NewQueue(p documentParser, m merger, rec metrics.Recorder) *Queue {
	if rec == nil {
		rec = metrics.NoOp{}
	}
	return &Queue{parser: p, merger: m, metrics: rec}
}

// Run processes files in order. In override mode the ledger is cleared once
// before the first file; a failure to clear aborts the run since nothing has
// been imported yet.
func (q *Queue) Run(ctx context.Context, s LedgerStore, mode Mode, files []File) (*Report, error) {
	log := logging.FromContext(ctx)

	if mode == ModeOverride {
		if err := s.ReplaceAll(ctx, nil, nil, nil); err != nil {
			return nil, fmt.Errorf("Queue.Run: clear ledger: %w", err)
		}
		log.Info("ledger cleared for override import", "files", len(files))
	}

	report := &Report{Mode: mode, Files: make([]FileStatus, 0, len(files))}
	succeeded := 0

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			report.Files = append(report.Files, FileStatus{Name: f.Name, Status: "Skipped: " + err.Error()})
			q.metrics.RecordImportFile(string(mode), false)
			continue
		}

		status := q.processFile(ctx, s, f)
		if status.Success {
			succeeded++
		}
		q.metrics.RecordImportFile(string(mode), status.Success)
		report.Files = append(report.Files, status)
	}

	report.Summary = fmt.Sprintf("Processed %d of %d files.", succeeded, len(files))
	log.Info("document import finished", "mode", mode, "files", len(files), "succeeded", succeeded)
	return report, nil
}

func (q *Queue) processFile(ctx context.Context, s LedgerStore, f File) FileStatus {
	log := logging.FromContext(ctx).With("file", f.Name, "mime_type", f.MIMEType)
	start := time.Now()

	raw, err := q.parser.Parse(ctx, f.Data, f.MIMEType)
	if err != nil {
		log.Warn("document analysis failed", "error", err)
		return FileStatus{Name: f.Name, Status: "Analysis Failed: " + err.Error()}
	}

	txCount, assetCount, _ := raw.Counts()
	res, err := q.merger.Merge(ctx, s, raw.Coerce())
	if err != nil {
		log.Error("document merge failed", "error", err)
		return FileStatus{Name: f.Name, Status: "Analysis Failed: " + err.Error()}
	}

	log.Info("document imported", "duration_ms", time.Since(start).Milliseconds())
	return FileStatus{
		Name:    f.Name,
		Success: true,
		Status:  fmt.Sprintf("Processed: %d Txns, %d Assets found.", txCount, assetCount),
		Result:  res,
	}
}
