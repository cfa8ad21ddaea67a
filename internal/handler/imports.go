package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/importer"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/reconcile"
)

const documentsField = "files"

type importService interface {
	MergeBatch(ctx context.Context, scope string, raw *importer.RawBatch) (*reconcile.Result, error)
	ImportCSV(ctx context.Context, scope string, r io.Reader) (int, error)
	ImportDocuments(ctx context.Context, scope string, mode importer.Mode, files []importer.File) (*importer.Report, error)
	SyncAggregator(ctx context.Context, scope string) (*reconcile.Result, error)
}

type snapshotReader interface {
	Snapshot(ctx context.Context, scope string) (domain.FinancialSnapshot, error)
}

type ImportHandler struct {
	imports   importService
	snapshots snapshotReader
	maxUpload int64
}

func NewImportHandler(imports importService, snapshots snapshotReader, maxUpload int64) *ImportHandler {
	return &ImportHandler{imports: imports, snapshots: snapshots, maxUpload: maxUpload}
}

type mergeResponse struct {
	Result   *reconcile.Result        `json:"result"`
	Snapshot domain.FinancialSnapshot `json:"snapshot"`
}

type csvResponse struct {
	Inserted int                      `json:"inserted"`
	Snapshot domain.FinancialSnapshot `json:"snapshot"`
}

type documentsResponse struct {
	*importer.Report
	Snapshot domain.FinancialSnapshot `json:"snapshot"`
}

func (h *ImportHandler) snapshot(w http.ResponseWriter, r *http.Request, scope string) (domain.FinancialSnapshot, bool) {
	snap, err := h.snapshots.Snapshot(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return domain.FinancialSnapshot{}, false
	}
	return snap, true
}

// MergeBatch accepts a loose JSON batch: amounts may be strings, enums any
// case, dates in several layouts.
func (h *ImportHandler) MergeBatch(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var raw importer.RawBatch
	if err := decodeJSON(r, &raw); err != nil {
		respondBodyError(w, err)
		return
	}

	res, err := h.imports.MergeBatch(r.Context(), scope, &raw)
	if err != nil {
		logging.FromContext(r.Context()).Error("batch merge failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	snap, ok := h.snapshot(w, r, scope)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, mergeResponse{Result: res, Snapshot: snap})
}

func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	body := http.MaxBytesReader(w, r.Body, h.maxUpload)

	n, err := h.imports.ImportCSV(r.Context(), scope, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondAppError(w, ErrPayloadTooLarge, nil)
			return
		}
		logging.FromContext(r.Context()).Error("csv import failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	snap, ok := h.snapshot(w, r, scope)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, csvResponse{Inserted: n, Snapshot: snap})
}

// ImportDocuments reads every part named "files" from a multipart upload and
// runs them through the document queue in upload order.
func (h *ImportHandler) ImportDocuments(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	mode, err := importer.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondBodyError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[documentsField]
	if len(headers) == 0 {
		RespondValidationError(w, []FieldError{{Field: documentsField, Message: "at least one file is required"}})
		return
	}

	files := make([]importer.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh)
		if err != nil {
			logging.FromContext(r.Context()).Warn("unreadable upload", "file", fh.Filename, "error", err)
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
		files = append(files, f)
	}

	report, err := h.imports.ImportDocuments(r.Context(), scope, mode, files)
	if err != nil {
		logging.FromContext(r.Context()).Error("document import failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	snap, ok := h.snapshot(w, r, scope)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, documentsResponse{Report: report, Snapshot: snap})
}

func (h *ImportHandler) SyncAggregator(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	res, err := h.imports.SyncAggregator(r.Context(), scope)
	if err != nil {
		logging.FromContext(r.Context()).Error("aggregator sync failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	snap, ok := h.snapshot(w, r, scope)
	if !ok {
		return
	}
	RespondSuccess(w, http.StatusOK, mergeResponse{Result: res, Snapshot: snap})
}

func readUpload(fh *multipart.FileHeader) (importer.File, error) {
	f, err := fh.Open()
	if err != nil {
		return importer.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return importer.File{}, err
	}
	return importer.File{Name: fh.Filename, MIMEType: uploadMIMEType(fh, data), Data: data}, nil
}

// uploadMIMEType prefers the part's declared type, then the extension, then
// sniffing the content.
func uploadMIMEType(fh *multipart.FileHeader, data []byte) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func respondBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondAppError(w, ErrPayloadTooLarge, nil)
		return
	}
	RespondAppError(w, ErrInvalidRequest, nil)
}
