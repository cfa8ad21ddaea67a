package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/scenario"
)

type ledgerService interface {
	Snapshot(ctx context.Context, scope string) (domain.FinancialSnapshot, error)
	Ledger(ctx context.Context, scope string) (domain.Ledger, error)
	Transactions(ctx context.Context, scope string) ([]domain.Transaction, error)
	Assets(ctx context.Context, scope string) ([]domain.Asset, error)
	Liabilities(ctx context.Context, scope string) ([]domain.Liability, error)
	AddTransaction(ctx context.Context, scope string, t domain.Transaction) (domain.Transaction, error)
	AddAsset(ctx context.Context, scope string, a domain.Asset) (domain.Asset, error)
	AddLiability(ctx context.Context, scope string, li domain.Liability) (domain.Liability, error)
	UpdateAsset(ctx context.Context, scope string, a domain.Asset) (bool, error)
	UpdateLiability(ctx context.Context, scope string, li domain.Liability) (bool, error)
	Override(ctx context.Context, scope string, l domain.Ledger) error
	Reset(ctx context.Context, scope string) error
	LoadScenario(ctx context.Context, scope, name string) error
	Advice(ctx context.Context, scope string) (string, error)
}

type LedgerHandler struct {
	ledger ledgerService
}

func NewLedgerHandler(ledger ledgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// mutationResponse carries the snapshot recomputed after a write.
type mutationResponse struct {
	Record   any                      `json:"record,omitempty"`
	Updated  *bool                    `json:"updated,omitempty"`
	Snapshot domain.FinancialSnapshot `json:"snapshot"`
}

type ledgerResponse struct {
	domain.Ledger
	Snapshot domain.FinancialSnapshot `json:"snapshot"`
}

func (h *LedgerHandler) respondMutation(w http.ResponseWriter, r *http.Request, scope string, status int, resp mutationResponse) {
	snap, err := h.ledger.Snapshot(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	resp.Snapshot = snap
	RespondSuccess(w, status, resp)
}

func (h *LedgerHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	snap, err := h.ledger.Snapshot(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, snap)
}

func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	l, err := h.ledger.Ledger(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	snap, err := h.ledger.Snapshot(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, ledgerResponse{Ledger: l, Snapshot: snap})
}

func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	txs, err := h.ledger.Transactions(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, txs)
}

func (h *LedgerHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	assets, err := h.ledger.Assets(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, assets)
}

func (h *LedgerHandler) ListLiabilities(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	liabilities, err := h.ledger.Liabilities(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, liabilities)
}

func validateTransaction(t domain.Transaction) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(t.Description) == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	if !t.Type.IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be one of INCOME, EXPENSE, ASSET_PURCHASE, LIABILITY_PAYMENT, TRANSFER"})
	}
	return errs
}

func validateAsset(a domain.Asset) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !a.Type.IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be one of PAPER, REAL_ESTATE, BUSINESS, COMMODITY, CASH"})
	}
	return errs
}

func validateLiability(li domain.Liability) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(li.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !li.Type.IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be one of MORTGAGE, CONSUMER_DEBT, LOAN"})
	}
	return errs
}

func (h *LedgerHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var t domain.Transaction
	if err := decodeJSON(r, &t); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateTransaction(t); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	added, err := h.ledger.AddTransaction(r.Context(), scope, t)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to add transaction", "error", err)
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusCreated, mutationResponse{Record: added})
}

func (h *LedgerHandler) AddAsset(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var a domain.Asset
	if err := decodeJSON(r, &a); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateAsset(a); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	added, err := h.ledger.AddAsset(r.Context(), scope, a)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to add asset", "error", err)
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusCreated, mutationResponse{Record: added})
}

func (h *LedgerHandler) AddLiability(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var li domain.Liability
	if err := decodeJSON(r, &li); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateLiability(li); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	added, err := h.ledger.AddLiability(r.Context(), scope, li)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to add liability", "error", err)
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusCreated, mutationResponse{Record: added})
}

// UpdateAsset answers 200 even when the ID is unknown; "updated" tells the
// caller whether anything changed.
func (h *LedgerHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var a domain.Asset
	if err := decodeJSON(r, &a); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	a.ID = r.PathValue("id")
	if fields := validateAsset(a); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	updated, err := h.ledger.UpdateAsset(r.Context(), scope, a)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update asset", "error", err)
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusOK, mutationResponse{Record: a, Updated: &updated})
}

func (h *LedgerHandler) UpdateLiability(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var li domain.Liability
	if err := decodeJSON(r, &li); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	li.ID = r.PathValue("id")
	if fields := validateLiability(li); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	updated, err := h.ledger.UpdateLiability(r.Context(), scope, li)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update liability", "error", err)
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusOK, mutationResponse{Record: li, Updated: &updated})
}

// Override replaces the whole ledger with the request body. Records are
// re-identified, so IDs in the body are not preserved.
func (h *LedgerHandler) Override(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	var l domain.Ledger
	if err := decodeJSON(r, &l); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.ledger.Override(r.Context(), scope, l); err != nil {
		logging.FromContext(r.Context()).Error("failed to override ledger", "error", err)
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusOK, mutationResponse{})
}

func (h *LedgerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if err := h.ledger.Reset(r.Context(), scope); err != nil {
		logging.FromContext(r.Context()).Error("failed to reset ledger", "error", err)
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusOK, mutationResponse{})
}

func (h *LedgerHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, scenario.Names())
}

func (h *LedgerHandler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	if err := h.ledger.LoadScenario(r.Context(), scope, r.PathValue("name")); err != nil {
		RespondDomainError(w, err)
		return
	}
	h.respondMutation(w, r, scope, http.StatusOK, mutationResponse{})
}

func (h *LedgerHandler) Advice(w http.ResponseWriter, r *http.Request) {
	scope, appErr := scopeFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	note, err := h.ledger.Advice(r.Context(), scope)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]string{"advice": note})
}
