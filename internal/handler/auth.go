package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
	"github.com/josh-kwaku/cashflow-ledger/internal/service"
)

type authService interface {
	Register(ctx context.Context, email, name, password string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Logout(ctx context.Context, userID uuid.UUID)
}

type AuthHandler struct {
	users authService
}

func NewAuthHandler(users authService) *AuthHandler {
	return &AuthHandler{users: users}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if len(r.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	return errs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type sessionResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Title:     u.Title,
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	sess, err := h.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		logging.FromContext(r.Context()).Warn("registration failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, sessionResponse{Token: sess.Token, User: toUserDTO(sess.User)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	sess, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, sessionResponse{Token: sess.Token, User: toUserDTO(sess.User)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, appErr := userFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	h.users.Logout(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}
