// Package downloads orchestrates the watermarked magazine download: resolve
// the member, check access, resolve the magazine, fetch the source PDF,
// watermark it, record the audit row, hand the buffer back for streaming.
package downloads

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/metrics"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/neweragit/newera-server/internal/watermark"
	"github.com/rs/zerolog"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrMagazineNotFound = errors.New("magazine or pdf not found")
)

type Verifier interface {
	Verify(ctx context.Context, userID, magazineID uuid.UUID) bool
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Compositor interface {
	Apply(document []byte, licensee watermark.Licensee) ([]byte, error)
}

type Auditor interface {
	RecordDownload(ctx context.Context, entry storage.DownloadLog)
}

// RequestMeta carries requester details into the audit trail.
type RequestMeta struct {
	UserAgent  string
	RemoteAddr string
}

// Result is the watermarked document ready to stream. It exists only for the
// duration of one request; nothing is cached or persisted.
type Result struct {
	Filename string
	Content  []byte
}

type Service struct {
	users      storage.UserRepository
	magazines  storage.MagazineRepository
	verifier   Verifier
	fetcher    Fetcher
	compositor Compositor
	auditor    Auditor
	logger     zerolog.Logger
}

func NewService(
	users storage.UserRepository,
	magazines storage.MagazineRepository,
	verifier Verifier,
	fetcher Fetcher,
	compositor Compositor,
	auditor Auditor,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:      users,
		magazines:  magazines,
		verifier:   verifier,
		fetcher:    fetcher,
		compositor: compositor,
		auditor:    auditor,
		logger:     logger.With().Str("component", "downloads").Logger(),
	}
}

// Download runs the full pipeline. Steps run strictly in order; the first
// failure wins and nothing partial is ever returned.
func (s *Service) Download(ctx context.Context, userID, magazineID uuid.UUID, meta RequestMeta) (*Result, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if !s.verifier.Verify(ctx, userID, magazineID) {
		metrics.DownloadsDenied.Inc()
		return nil, ErrAccessDenied
	}

	magazine, err := s.magazines.GetByID(ctx, magazineID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMagazineNotFound
		}
		return nil, fmt.Errorf("resolve magazine: %w", err)
	}
	if magazine.PDFURL == "" {
		return nil, ErrMagazineNotFound
	}

	source, err := s.fetcher.Fetch(ctx, magazine.PDFURL)
	if err != nil {
		return nil, err
	}

	markStart := time.Now()
	marked, err := s.compositor.Apply(source, watermark.Licensee{
		ID:       user.ID.String(),
		FullName: user.FullName,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}
	metrics.WatermarkDuration.Observe(time.Since(markStart).Seconds())

	hash := sha256.Sum256(marked)
	s.auditor.RecordDownload(ctx, storage.DownloadLog{
		UserID:      userID,
		MagazineID:  magazineID,
		UserAgent:   meta.UserAgent,
		RemoteAddr:  meta.RemoteAddr,
		ContentHash: hex.EncodeToString(hash[:]),
	})

	metrics.DownloadsServed.Inc()
	s.logger.Info().
		Str("user_id", userID.String()).
		Str("magazine_id", magazineID.String()).
		Int("bytes", len(marked)).
		Msg("magazine download served")

	return &Result{
		Filename: DeriveFilename(magazine.Title, user.FullName),
		Content:  marked,
	}, nil
}
