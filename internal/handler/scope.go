package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/cashflow-ledger/internal/auth"
)

// scopeFromRequest resolves the ledger scope of the authenticated caller.
// A user can only ever reach their own ledger.
func scopeFromRequest(r *http.Request) (string, *AppError) {
	scope, ok := auth.ScopeFromContext(r.Context())
	if !ok {
		return "", ErrMissingToken
	}
	return scope, nil
}

func userFromRequest(r *http.Request) (uuid.UUID, *AppError) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrMissingToken
	}
	return id, nil
}
