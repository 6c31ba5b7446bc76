// Package audit appends the download trail. Recording is best-effort: an
// audit failure is an operator problem, never a member-facing one.
package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/rs/zerolog"
)

type Recorder struct {
	logs   storage.DownloadLogRepository
	logger zerolog.Logger
}

func NewRecorder(logs storage.DownloadLogRepository, logger zerolog.Logger) *Recorder {
	return &Recorder{
		logs:   logs,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// RecordDownload appends one log row. Insert failures are swallowed after
// logging so the enclosing download is never aborted by its own audit trail.
func (r *Recorder) RecordDownload(ctx context.Context, entry storage.DownloadLog) {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := r.logs.Insert(ctx, entry); err != nil {
		r.logger.Error().Err(err).
			Str("user_id", entry.UserID.String()).
			Str("magazine_id", entry.MagazineID.String()).
			Msg("download log insert failed")
		return
	}

	r.logger.Info().
		Str("entry_id", entry.ID).
		Str("user_id", entry.UserID.String()).
		Str("magazine_id", entry.MagazineID.String()).
		Str("content_hash", entry.ContentHash).
		Msg("download recorded")
}

// ExtractClientIP resolves the requester address behind reverse proxies.
// X-Forwarded-For accumulates one hop per proxy; the first entry is the
// originating client.
func ExtractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
