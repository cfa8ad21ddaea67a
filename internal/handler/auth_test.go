package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/service"
)

type mockAuthService struct {
	err        error
	loggedOut  uuid.UUID
	registered string
}

func (m *mockAuthService) session(email string) *service.Session {
	return &service.Session{
		Token: "signed-token",
		User:  &domain.User{ID: testUserID, Email: email, Name: "Robert", Title: domain.DefaultUserTitle, CreatedAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
}

func (m *mockAuthService) Register(_ context.Context, email, _, _ string) (*service.Session, error) {
	m.registered = email
	if m.err != nil {
		return nil, m.err
	}
	return m.session(email), nil
}

func (m *mockAuthService) Login(_ context.Context, email, _ string) (*service.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session(email), nil
}

func (m *mockAuthService) Logout(_ context.Context, userID uuid.UUID) {
	m.loggedOut = userID
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"email":"rk@example.com","name":"Robert","password":"richdad123"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "short password",
			body:       `{"email":"rk@example.com","name":"Robert","password":"short"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "duplicate email",
			body:       `{"email":"rk@example.com","name":"Robert","password":"richdad123"}`,
			svcErr:     fmt.Errorf("Register: %w", domain.ErrUserExists),
			wantStatus: http.StatusConflict,
			wantCode:   "USER_ALREADY_EXISTS",
		},
		{
			name:       "trailing data",
			body:       `{"email":"rk@example.com"} {}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{err: tc.svcErr})
			rec := serve("POST /auth/register", h.Register, httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(tc.body)))

			assert.Equal(t, tc.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, env.Error.Code)
				return
			}
			var resp sessionResponse
			require.NoError(t, json.Unmarshal(env.Data, &resp))
			assert.Equal(t, "signed-token", resp.Token)
			assert.Equal(t, "rk@example.com", resp.User.Email)
			assert.Equal(t, testUserID, resp.User.ID)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{name: "ok", body: `{"email":"rk@example.com","password":"richdad123"}`, wantStatus: http.StatusOK},
		{name: "bad credentials", body: `{"email":"rk@example.com","password":"nope"}`, svcErr: domain.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: `{"email":"rk@example.com"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{err: tc.svcErr})
			rec := serve("POST /auth/login", h.Login, httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(tc.body)))
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandler(svc)

	rec := serve("POST /auth/logout", h.Logout, authedRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testUserID, svc.loggedOut)
}
