package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// internalErrorBody is written when a payload cannot be encoded.
var internalErrorBody = []byte(`{"success":false,"data":null,"error":{"code":"INTERNAL_ERROR","message":"An unexpected error occurred"}}` + "\n")

// RespondJSON encodes before writing the status so an encoding failure
// becomes a 500 rather than an empty success.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(internalErrorBody)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		appErr = ErrInvalidRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		appErr = ErrInvalidCredentials
	case errors.Is(err, domain.ErrUserExists):
		appErr = ErrUserExists
	case errors.Is(err, domain.ErrScopeNotInitialized):
		appErr = ErrScopeNotInitialized
	case errors.Is(err, domain.ErrUnknownScenario):
		appErr = ErrUnknownScenario
	case errors.Is(err, domain.ErrInvalidImportMode):
		appErr = ErrInvalidImportMode
	case errors.Is(err, domain.ErrParserUnavailable):
		appErr = ErrParserUnavailable
	case errors.Is(err, domain.ErrAggregatorFailed):
		appErr = ErrAggregatorFailed
	case errors.Is(err, domain.ErrIdempotencyConflict):
		appErr = ErrIdempotencyConflict
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, nil)
}

// decodeJSON rejects bodies that are not a single JSON value.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}
