package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
)

type mockImportService struct {
	err      error
	batch    *importer.RawBatch
	csv      string
	mode     importer.Mode
	files    []importer.File
	syncs    int
	inserted int
}

func (m *mockImportService) MergeBatch(_ context.Context, _ string, raw *importer.RawBatch) (*reconcile.Result, error) {
	m.batch = raw
	if m.err != nil {
		return nil, m.err
	}
	return &reconcile.Result{TransactionsInserted: len(raw.Transactions)}, nil
}

func (m *mockImportService) ImportCSV(_ context.Context, _ string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("ImportCSV: %w", err)
	}
	m.csv = string(data)
	return m.inserted, m.err
}

func (m *mockImportService) ImportDocuments(_ context.Context, _ string, mode importer.Mode, files []importer.File) (*importer.Report, error) {
	m.mode = mode
	m.files = files
	if m.err != nil {
		return nil, m.err
	}
	return &importer.Report{Mode: mode, Summary: fmt.Sprintf("Processed %d of %d files.", len(files), len(files))}, nil
}

func (m *mockImportService) SyncAggregator(_ context.Context, _ string) (*reconcile.Result, error) {
	m.syncs++
	if m.err != nil {
		return nil, m.err
	}
	return &reconcile.Result{AssetsInserted: 3}, nil
}

type fixedSnapshot domain.FinancialSnapshot

func (f fixedSnapshot) Snapshot(context.Context, string) (domain.FinancialSnapshot, error) {
	return domain.FinancialSnapshot(f), nil
}

func TestImportHandler_MergeBatch(t *testing.T) {
	svc := &mockImportService{}
	h := NewImportHandler(svc, fixedSnapshot{NetWorth: 1200}, 1<<20)

	body := `{"transactions":[{"date":"10/01/2023","description":"Salary","amount":"$5,000","type":"income"}]}`
	rec := serve("POST /imports/batch", h.MergeBatch, authedRequest(http.MethodPost, "/imports/batch", jsonBody(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.batch)
	require.Len(t, svc.batch.Transactions, 1)
	var resp struct {
		Result   reconcile.Result         `json:"result"`
		Snapshot domain.FinancialSnapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, 1, resp.Result.TransactionsInserted)
	assert.Equal(t, 1200.0, resp.Snapshot.NetWorth)
}

func TestImportHandler_MergeBatchTooLarge(t *testing.T) {
	h := NewImportHandler(&mockImportService{}, fixedSnapshot{}, 16)

	body := `{"transactions":[{"description":"a very long description that overflows"}]}`
	rec := serve("POST /imports/batch", h.MergeBatch, authedRequest(http.MethodPost, "/imports/batch", jsonBody(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeEnvelope(t, rec).Error.Code)
}

func TestImportHandler_ImportCSV(t *testing.T) {
	svc := &mockImportService{inserted: 2}
	h := NewImportHandler(svc, fixedSnapshot{}, 1<<20)

	csv := "Date,Description,Amount\n2024-03-01,Coffee,-4.50\n,Salary,5000\n"
	rec := serve("POST /imports/csv", h.ImportCSV, authedRequest(http.MethodPost, "/imports/csv", bytes.NewBufferString(csv)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csv, svc.csv)
	var resp struct {
		Inserted int `json:"inserted"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, 2, resp.Inserted)
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, contentType := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, documentsField, name))
		if contentType != "" {
			hdr.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 statement"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportHandler_ImportDocuments(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		files      map[string]string
		wantStatus int
		wantMode   importer.Mode
		wantMIME   string
		wantCode   string
	}{
		{
			name:       "append by default",
			files:      map[string]string{"statement.pdf": "application/pdf"},
			wantStatus: http.StatusOK,
			wantMode:   importer.ModeAppend,
			wantMIME:   "application/pdf",
		},
		{
			name:       "override",
			query:      "?mode=OVERRIDE",
			files:      map[string]string{"statement.pdf": "application/pdf"},
			wantStatus: http.StatusOK,
			wantMode:   importer.ModeOverride,
			wantMIME:   "application/pdf",
		},
		{
			name:       "type from extension",
			files:      map[string]string{"statement.pdf": "application/octet-stream"},
			wantStatus: http.StatusOK,
			wantMode:   importer.ModeAppend,
			wantMIME:   "application/pdf",
		},
		{
			name:       "unknown mode",
			query:      "?mode=merge",
			files:      map[string]string{"statement.pdf": "application/pdf"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_IMPORT_MODE",
		},
		{
			name:       "no files",
			files:      map[string]string{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockImportService{}
			h := NewImportHandler(svc, fixedSnapshot{}, 1<<20)

			body, contentType := multipartBody(t, tc.files)
			req := authedRequest(http.MethodPost, "/imports/documents"+tc.query, body)
			req.Header.Set("Content-Type", contentType)
			rec := serve("POST /imports/documents", h.ImportDocuments, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, decodeEnvelope(t, rec).Error.Code)
				return
			}
			assert.Equal(t, tc.wantMode, svc.mode)
			require.Len(t, svc.files, 1)
			assert.Equal(t, "statement.pdf", svc.files[0].Name)
			assert.Equal(t, tc.wantMIME, svc.files[0].MIMEType)
		})
	}
}

func TestImportHandler_SyncAggregator(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "aggregator down", err: fmt.Errorf("SyncAggregator: %w", domain.ErrAggregatorFailed), wantStatus: http.StatusBadGateway},
		{name: "no session", err: fmt.Errorf("SyncAggregator: %w", domain.ErrScopeNotInitialized), wantStatus: http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockImportService{err: tc.err}
			h := NewImportHandler(svc, fixedSnapshot{}, 1<<20)

			rec := serve("POST /imports/aggregator", h.SyncAggregator, authedRequest(http.MethodPost, "/imports/aggregator", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, 1, svc.syncs)
		})
	}
}
