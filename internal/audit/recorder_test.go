package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogs struct {
	entries []storage.DownloadLog
	err     error
}

func (f *fakeLogs) Insert(_ context.Context, entry storage.DownloadLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogs) CountForMagazine(context.Context, uuid.UUID) (int64, error) {
	return int64(len(f.entries)), nil
}

func TestRecordDownloadFillsDefaults(t *testing.T) {
	logs := &fakeLogs{}
	rec := NewRecorder(logs, zerolog.Nop())

	rec.RecordDownload(context.Background(), storage.DownloadLog{
		UserID:     uuid.New(),
		MagazineID: uuid.New(),
		UserAgent:  "test-agent",
	})

	require.Len(t, logs.entries, 1)
	assert.NotEmpty(t, logs.entries[0].ID)
	assert.False(t, logs.entries[0].CreatedAt.IsZero())
}

func TestRecordDownloadSwallowsInsertFailure(t *testing.T) {
	logs := &fakeLogs{err: errors.New("table is on fire")}
	rec := NewRecorder(logs, zerolog.Nop())

	// Must not panic and must not propagate anything.
	rec.RecordDownload(context.Background(), storage.DownloadLog{
		UserID:     uuid.New(),
		MagazineID: uuid.New(),
	})
	assert.Empty(t, logs.entries)
}

func TestExtractClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", ExtractClientIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ExtractClientIP(r))

	// Multi-hop forwarding chain: record the originating client only.
	r.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	assert.Equal(t, "198.51.100.4", ExtractClientIP(r))

	r.Header.Set("X-Forwarded-For", " 198.51.100.7 ")
	assert.Equal(t, "198.51.100.7", ExtractClientIP(r))
}
