// Package users implements the membership lifecycle: registration with email
// verification, login, password reset, and profile management. Accounts stay
// inactive until the signup code is verified; one-time codes are stored
// hashed and consumed exactly once.
package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/config"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("account not activated")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("validation failed")
)

// Mailer is the slice of the email service the auth flows need.
type Mailer interface {
	SendOTP(ctx context.Context, to, fullName, code string, expiry time.Duration) error
	SendPasswordReset(ctx context.Context, to, fullName, code string, expiry time.Duration) error
}

type Service struct {
	users     storage.UserRepository
	codes     storage.OneTimeCodeRepository
	mailer    Mailer
	cfg       config.AuthConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(users storage.UserRepository, codes storage.OneTimeCodeRepository, mailer Mailer, cfg config.AuthConfig, logger zerolog.Logger) *Service {
	return &Service{
		users:     users,
		codes:     codes,
		mailer:    mailer,
		cfg:       cfg,
		validator: validator.New(),
		logger:    logger.With().Str("component", "users").Logger(),
		now:       time.Now,
	}
}

type RegisterInput struct {
	FullName string `validate:"required,min=2,max=200"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=128"`
}

// Register creates an inactive account and emails a six-digit verification
// code. The account cannot log in until VerifyOTP succeeds.
func (s *Service) Register(ctx context.Context, input RegisterInput) (storage.User, error) {
	if err := s.validator.Struct(input); err != nil {
		return storage.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	_, err := s.users.GetByEmail(ctx, input.Email)
	if err == nil {
		return storage.User{}, ErrEmailTaken
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, storage.CreateUserParams{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.issueCode(ctx, user, storage.PurposeSignupOTP); err != nil {
		// The account exists; the member can request a fresh code.
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue signup code")
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered, pending verification")
	return user, nil
}

// VerifyOTP activates the account if the code matches an unconsumed,
// unexpired signup code. Failures are indistinguishable to the caller.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	otc, err := s.consumeCode(ctx, user.ID, code, storage.PurposeSignupOTP)
	if err != nil {
		return err
	}
	if err := s.users.Activate(ctx, user.ID); err != nil {
		return fmt.Errorf("activate user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("code_id", otc.ID.String()).
		Msg("account activated")
	return nil
}

// Login checks credentials and returns a signed session token. Unknown
// email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, storage.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Burn a comparison so the two paths take similar time.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$000000000000000000000uGJDeTOE4yLYBjDzW/sPqX6sh9a3mG2e"), []byte(password))
			return "", storage.User{}, ErrInvalidCredentials
		}
		return "", storage.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", storage.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", storage.User{}, ErrNotActivated
	}

	token, err := IssueToken(s.cfg, user.ID, s.now())
	if err != nil {
		return "", storage.User{}, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

// RequestPasswordReset issues a reset code. It succeeds outwardly whether or
// not the email is registered, to avoid account enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Info().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.issueCode(ctx, user, storage.PurposePasswordReset); err != nil {
		return fmt.Errorf("issue reset code: %w", err)
	}
	return nil
}

// ConfirmPasswordReset consumes a reset code and sets the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if _, err := s.consumeCode(ctx, user.ID, code, storage.PurposePasswordReset); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset completed")
	return nil
}

// GetProfile returns the member record, or ErrUserNotFound.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (storage.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, ErrUserNotFound
		}
		return storage.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

type UpdateProfileInput struct {
	FullName string `validate:"required,min=2,max=200"`
	Email    string `validate:"required,email"`
}

// UpdateProfile changes name and email for the member.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (storage.User, error) {
	if err := s.validator.Struct(input); err != nil {
		return storage.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if existing, err := s.users.GetByEmail(ctx, input.Email); err == nil && existing.ID != id {
		return storage.User{}, ErrEmailTaken
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, fmt.Errorf("check existing email: %w", err)
	}

	user, err := s.users.UpdateProfile(ctx, storage.UpdateProfileParams{
		ID:       id,
		FullName: input.FullName,
		Email:    input.Email,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, ErrUserNotFound
		}
		return storage.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// issueCode generates, stores, and mails a one-time code for the purpose.
func (s *Service) issueCode(ctx context.Context, user storage.User, purpose storage.CodePurpose) error {
	code, err := generateNumericCode(6)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	_, err = s.codes.Insert(ctx, storage.OneTimeCode{
		UserID:    user.ID,
		CodeHash:  hashCode(code),
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.cfg.OTPExpiry),
	})
	if err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	switch purpose {
	case storage.PurposeSignupOTP:
		err = s.mailer.SendOTP(ctx, user.Email, user.FullName, code, s.cfg.OTPExpiry)
	case storage.PurposePasswordReset:
		err = s.mailer.SendPasswordReset(ctx, user.Email, user.FullName, code, s.cfg.OTPExpiry)
	}
	if err != nil {
		return fmt.Errorf("send code email: %w", err)
	}
	return nil
}

// consumeCode looks up and marks the matching code in one pass. Any failure
// maps to ErrInvalidCode except store errors, which are wrapped.
func (s *Service) consumeCode(ctx context.Context, userID uuid.UUID, code string, purpose storage.CodePurpose) (storage.OneTimeCode, error) {
	otc, err := s.codes.FindValid(ctx, userID, hashCode(code), purpose, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.OneTimeCode{}, ErrInvalidCode
		}
		return storage.OneTimeCode{}, fmt.Errorf("find code: %w", err)
	}
	if err := s.codes.MarkConsumed(ctx, otc.ID, s.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Lost the race to a concurrent verification attempt.
			return storage.OneTimeCode{}, ErrInvalidCode
		}
		return storage.OneTimeCode{}, fmt.Errorf("consume code: %w", err)
	}
	return otc, nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// generateNumericCode returns n crypto-random decimal digits.
func generateNumericCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}
