// Package storage defines the repository contracts and the records they
// exchange. Implementations live in subpackages (postgres).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is the normal negative for single-row lookups. Any other error
// returned by a repository is a store failure; callers that gate access
// decisions must treat the two differently (a store failure always denies).
var ErrNotFound = errors.New("not found")

type User struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Magazine struct {
	ID          uuid.UUID
	Title       string
	Description string
	PDFURL      string
	IsPaid      bool
	PublishedAt time.Time
	CreatedAt   time.Time
}

type AccessGrant struct {
	UserID     uuid.UUID
	MagazineID uuid.UUID
	GrantedAt  time.Time
}

// DownloadLog is append-only: one row per successful watermarked download,
// never updated or deleted by this service.
type DownloadLog struct {
	ID          string // ULID
	UserID      uuid.UUID
	MagazineID  uuid.UUID
	UserAgent   string
	RemoteAddr  string
	ContentHash string // SHA-256 of the streamed buffer, hex
	CreatedAt   time.Time
}

type Event struct {
	ID          uuid.UUID
	Title       string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
	CreatedAt   time.Time
}

type Ticket struct {
	Code     string // ULID
	EventID  uuid.UUID
	UserID   uuid.UUID
	IssuedAt time.Time
}

// CodePurpose distinguishes the two one-time-code flows sharing a table.
type CodePurpose string

const (
	PurposeSignupOTP     CodePurpose = "signup_otp"
	PurposePasswordReset CodePurpose = "password_reset"
)

type OneTimeCode struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CodeHash   string // SHA-256 of the plaintext code, hex
	Purpose    CodePurpose
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

type CreateUserParams struct {
	FullName     string
	Email        string
	PasswordHash string
}

type UpdateProfileParams struct {
	ID       uuid.UUID
	FullName string
	Email    string
}

type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error)
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Activate(ctx context.Context, id uuid.UUID) error
}

type MagazineRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Magazine, error)
	List(ctx context.Context, limit, offset int32) ([]Magazine, error)
}

type AccessRepository interface {
	// GetGrant returns ErrNotFound when no grant exists for the pair.
	GetGrant(ctx context.Context, userID, magazineID uuid.UUID) (AccessGrant, error)
	Grant(ctx context.Context, userID, magazineID uuid.UUID) error
}

type DownloadLogRepository interface {
	Insert(ctx context.Context, entry DownloadLog) error
	CountForMagazine(ctx context.Context, magazineID uuid.UUID) (int64, error)
}

type EventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Event, error)
	List(ctx context.Context, limit, offset int32) ([]Event, error)
}

type TicketRepository interface {
	Insert(ctx context.Context, ticket Ticket) error
	GetByCode(ctx context.Context, code string) (Ticket, error)
	GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (Ticket, error)
	CountForEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
}

type OneTimeCodeRepository interface {
	Insert(ctx context.Context, code OneTimeCode) (OneTimeCode, error)
	// FindValid returns the newest unconsumed, unexpired code matching the
	// hash, or ErrNotFound.
	FindValid(ctx context.Context, userID uuid.UUID, codeHash string, purpose CodePurpose, now time.Time) (OneTimeCode, error)
	MarkConsumed(ctx context.Context, id uuid.UUID, consumedAt time.Time) error
}

// Repository bundles all stores behind one constructor-injected handle.
type Repository interface {
	Users() UserRepository
	Magazines() MagazineRepository
	Access() AccessRepository
	DownloadLogs() DownloadLogRepository
	Events() EventRepository
	Tickets() TicketRepository
	Codes() OneTimeCodeRepository
}
