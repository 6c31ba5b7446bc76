package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/api/apierror"
	"github.com/neweragit/newera-server/internal/api/middleware"
	"github.com/neweragit/newera-server/internal/domain/users"
	"github.com/neweragit/newera-server/internal/storage"
)

type ProfileService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (storage.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input users.UpdateProfileInput) (storage.User, error)
}

type ProfileHandler struct {
	service ProfileService
}

func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.CurrentUserID(r.Context())

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			apierror.Write(w, r, http.StatusNotFound, "User not found", err)
			return
		}
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.CurrentUserID(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, users.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrValidation):
			apierror.Write(w, r, http.StatusBadRequest, "Validation failed", err, apierror.WithDetails(err.Error()))
		case errors.Is(err, users.ErrEmailTaken):
			apierror.Write(w, r, http.StatusConflict, "Email already registered", err)
		case errors.Is(err, users.ErrUserNotFound):
			apierror.Write(w, r, http.StatusNotFound, "User not found", err)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
