package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/domain/users"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthService struct {
	registerUser storage.User
	registerErr  error
	verifyErr    error
	loginToken   string
	loginUser    storage.User
	loginErr     error
	resetErr     error
	confirmErr   error
}

func (f *fakeAuthService) Register(_ context.Context, input users.RegisterInput) (storage.User, error) {
	if f.registerErr != nil {
		return storage.User{}, f.registerErr
	}
	return f.registerUser, nil
}

func (f *fakeAuthService) VerifyOTP(_ context.Context, _, _ string) error { return f.verifyErr }

func (f *fakeAuthService) Login(_ context.Context, _, _ string) (string, storage.User, error) {
	if f.loginErr != nil {
		return "", storage.User{}, f.loginErr
	}
	return f.loginToken, f.loginUser, nil
}

func (f *fakeAuthService) RequestPasswordReset(_ context.Context, _ string) error { return f.resetErr }

func (f *fakeAuthService) ConfirmPasswordReset(_ context.Context, _, _, _ string) error {
	return f.confirmErr
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegisterHandler_Created(t *testing.T) {
	svc := &fakeAuthService{registerUser: storage.User{
		ID:       uuid.New(),
		FullName: "Jane O'Brien",
		Email:    "jane@example.com",
	}}
	h := NewAuthHandler(svc)

	rec := postJSON(t, h.Register, `{"full_name":"Jane O'Brien","email":"jane@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User    userResponse `json:"user"`
		Message string       `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.False(t, resp.User.IsActive)
	assert.Contains(t, resp.Message, "Verification code")
}

func TestRegisterHandler_Errors(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{registerErr: users.ErrEmailTaken})
	rec := postJSON(t, h.Register, `{"full_name":"Jane","email":"jane@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	h = NewAuthHandler(&fakeAuthService{registerErr: users.ErrValidation})
	rec = postJSON(t, h.Register, `{"email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewAuthHandler(&fakeAuthService{})
	rec = postJSON(t, h.Register, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTPHandler(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})
	rec := postJSON(t, h.VerifyOTP, `{"email":"jane@example.com","code":"123456"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.VerifyOTP, `{"email":"jane@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewAuthHandler(&fakeAuthService{verifyErr: users.ErrInvalidCode})
	rec = postJSON(t, h.VerifyOTP, `{"email":"jane@example.com","code":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired code", errorBody(t, rec)["error"])
}

func TestLoginHandler(t *testing.T) {
	user := storage.User{ID: uuid.New(), Email: "jane@example.com", IsActive: true}
	h := NewAuthHandler(&fakeAuthService{loginToken: "signed.jwt.token", loginUser: user})

	rec := postJSON(t, h.Login, `{"email":"jane@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "signed.jwt.token", resp.Token)
	assert.Equal(t, user.ID.String(), resp.User.ID)

	h = NewAuthHandler(&fakeAuthService{loginErr: users.ErrInvalidCredentials})
	rec = postJSON(t, h.Login, `{"email":"jane@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h = NewAuthHandler(&fakeAuthService{loginErr: users.ErrNotActivated})
	rec = postJSON(t, h.Login, `{"email":"jane@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPasswordResetHandlers(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})

	// Request always answers 202, registered or not.
	rec := postJSON(t, h.RequestPasswordReset, `{"email":"anyone@example.com"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = postJSON(t, h.RequestPasswordReset, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.ConfirmPasswordReset, `{"email":"jane@example.com","code":"123456","new_password":"new-password-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewAuthHandler(&fakeAuthService{confirmErr: users.ErrInvalidCode})
	rec = postJSON(t, h.ConfirmPasswordReset, `{"email":"jane@example.com","code":"000000","new_password":"new-password-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
