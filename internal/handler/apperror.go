package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrPayloadTooLarge    = &AppError{http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Upload exceeds the size limit"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrUserExists          = &AppError{http.StatusConflict, "USER_ALREADY_EXISTS", "An account with this email already exists"}
	ErrScopeNotInitialized = &AppError{http.StatusConflict, "SCOPE_NOT_INITIALIZED", "No ledger is active for this session"}
	ErrUnknownScenario     = &AppError{http.StatusNotFound, "UNKNOWN_SCENARIO", "Unknown scenario"}
	ErrInvalidImportMode   = &AppError{http.StatusBadRequest, "INVALID_IMPORT_MODE", "Import mode must be append or override"}
	ErrParserUnavailable   = &AppError{http.StatusServiceUnavailable, "PARSER_UNAVAILABLE", "Document analysis is unavailable"}
	ErrAggregatorFailed    = &AppError{http.StatusBadGateway, "AGGREGATOR_FAILED", "Account aggregator sync failed"}
	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
