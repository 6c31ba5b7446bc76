package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neweragit/newera-server/internal/api/apierror"
	"github.com/neweragit/newera-server/internal/domain/users"
	"github.com/neweragit/newera-server/internal/storage"
)

// AuthService is the slice of the users service the auth endpoints need.
type AuthService interface {
	Register(ctx context.Context, input users.RegisterInput) (storage.User, error)
	VerifyOTP(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (string, storage.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
}

type AuthHandler struct {
	service AuthService
}

func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func toUserResponse(u storage.User) userResponse {
	return userResponse{
		ID:       u.ID.String(),
		FullName: u.FullName,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}

// Register creates an inactive account and triggers the OTP email.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.service.Register(r.Context(), users.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrValidation):
			apierror.Write(w, r, http.StatusBadRequest, "Validation failed", err, apierror.WithDetails(err.Error()))
		case errors.Is(err, users.ErrEmailTaken):
			apierror.Write(w, r, http.StatusConflict, "Email already registered", err)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    toUserResponse(user),
		"message": "Verification code sent. Check your email to activate your account.",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyOTP activates the account when the emailed code matches.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Email == "" || req.Code == "" {
		apierror.Write(w, r, http.StatusBadRequest, "Email and code are required", nil)
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, users.ErrInvalidCode) {
			apierror.Write(w, r, http.StatusBadRequest, "Invalid or expired code", err)
			return
		}
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account activated"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			apierror.Write(w, r, http.StatusUnauthorized, "Invalid email or password", err)
		case errors.Is(err, users.ErrNotActivated):
			apierror.Write(w, r, http.StatusForbidden, "Account not activated. Verify your email first.", err)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserResponse(user)})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset always answers 202 so callers cannot probe for
// registered addresses.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Email == "" {
		apierror.Write(w, r, http.StatusBadRequest, "Email is required", nil)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "If that email is registered, a reset code has been sent.",
	})
}

type confirmResetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req confirmResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.service.ConfirmPasswordReset(r.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrValidation):
			apierror.Write(w, r, http.StatusBadRequest, "Validation failed", err, apierror.WithDetails(err.Error()))
		case errors.Is(err, users.ErrInvalidCode):
			apierror.Write(w, r, http.StatusBadRequest, "Invalid or expired code", err)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
