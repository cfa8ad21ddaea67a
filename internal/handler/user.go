package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

type profileService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name, title string) (*domain.User, error)
}

type UserHandler struct {
	users profileService
}

func NewUserHandler(users profileService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, appErr := userFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get user", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, appErr := userFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, req.Name, req.Title)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update profile", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}
