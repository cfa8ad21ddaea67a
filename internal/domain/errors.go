package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrScopeNotInitialized = errors.New("store scope not initialized")
	ErrUnknownScenario     = errors.New("unknown scenario")
	ErrInvalidImportMode   = errors.New("invalid import mode")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrParserUnavailable   = errors.New("document parser unavailable")
	ErrAggregatorFailed    = errors.New("account aggregator sync failed")
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
)
