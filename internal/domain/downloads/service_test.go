package downloads

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/objectstore"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/neweragit/newera-server/internal/watermark"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[uuid.UUID]storage.User
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (storage.User, error) {
	if f.err != nil {
		return storage.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(context.Context, storage.CreateUserParams) (storage.User, error) {
	return storage.User{}, nil
}
func (f *fakeUsers) GetByEmail(context.Context, string) (storage.User, error) {
	return storage.User{}, storage.ErrNotFound
}
func (f *fakeUsers) UpdateProfile(context.Context, storage.UpdateProfileParams) (storage.User, error) {
	return storage.User{}, nil
}
func (f *fakeUsers) SetPassword(context.Context, uuid.UUID, string) error { return nil }
func (f *fakeUsers) Activate(context.Context, uuid.UUID) error            { return nil }

type fakeMagazines struct {
	magazines map[uuid.UUID]storage.Magazine
}

func (f *fakeMagazines) GetByID(_ context.Context, id uuid.UUID) (storage.Magazine, error) {
	m, ok := f.magazines[id]
	if !ok {
		return storage.Magazine{}, storage.ErrNotFound
	}
	return m, nil
}

func (f *fakeMagazines) List(context.Context, int32, int32) ([]storage.Magazine, error) {
	return nil, nil
}

type fakeVerifier struct{ allow bool }

func (f *fakeVerifier) Verify(context.Context, uuid.UUID, uuid.UUID) bool { return f.allow }

type fakeFetcher struct {
	body []byte
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, string) ([]byte, error) {
	return f.body, f.err
}

type fakeCompositor struct {
	out []byte
	err error
}

func (f *fakeCompositor) Apply(_ []byte, licensee watermark.Licensee) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeAuditor struct {
	entries []storage.DownloadLog
}

func (f *fakeAuditor) RecordDownload(_ context.Context, entry storage.DownloadLog) {
	f.entries = append(f.entries, entry)
}

type fixture struct {
	userID     uuid.UUID
	magazineID uuid.UUID
	users      *fakeUsers
	magazines  *fakeMagazines
	verifier   *fakeVerifier
	fetcher    *fakeFetcher
	compositor *fakeCompositor
	auditor    *fakeAuditor
}

func newFixture() *fixture {
	userID := uuid.New()
	magazineID := uuid.New()
	return &fixture{
		userID:     userID,
		magazineID: magazineID,
		users: &fakeUsers{users: map[uuid.UUID]storage.User{
			userID: {ID: userID, FullName: "Jane O'Brien", Email: "jane@example.com"},
		}},
		magazines: &fakeMagazines{magazines: map[uuid.UUID]storage.Magazine{
			magazineID: {ID: magazineID, Title: "New Era: Vol. 1!", PDFURL: "https://cdn.example.com/vol1.pdf", IsPaid: false},
		}},
		verifier:   &fakeVerifier{allow: true},
		fetcher:    &fakeFetcher{body: []byte("%PDF source")},
		compositor: &fakeCompositor{out: []byte("%PDF watermarked")},
		auditor:    &fakeAuditor{},
	}
}

func (f *fixture) service() *Service {
	return NewService(f.users, f.magazines, f.verifier, f.fetcher, f.compositor, f.auditor, zerolog.Nop())
}

func TestDownloadSuccess(t *testing.T) {
	f := newFixture()

	result, err := f.service().Download(context.Background(), f.userID, f.magazineID, RequestMeta{
		UserAgent:  "test-agent",
		RemoteAddr: "203.0.113.9",
	})
	require.NoError(t, err)

	assert.Equal(t, "New_Era_Vol_1_Jane_OBrien.pdf", result.Filename)
	assert.Equal(t, []byte("%PDF watermarked"), result.Content)

	require.Len(t, f.auditor.entries, 1, "exactly one audit row per download")
	entry := f.auditor.entries[0]
	assert.Equal(t, f.userID, entry.UserID)
	assert.Equal(t, f.magazineID, entry.MagazineID)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.Equal(t, "203.0.113.9", entry.RemoteAddr)
	assert.Len(t, entry.ContentHash, 64, "sha-256 hex digest of the output buffer")
}

func TestDownloadUnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.service().Download(context.Background(), uuid.New(), f.magazineID, RequestMeta{})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.auditor.entries)
}

func TestDownloadAccessDenied(t *testing.T) {
	f := newFixture()
	f.verifier.allow = false

	_, err := f.service().Download(context.Background(), f.userID, f.magazineID, RequestMeta{})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, f.auditor.entries)
}

func TestDownloadUnknownMagazine(t *testing.T) {
	f := newFixture()

	_, err := f.service().Download(context.Background(), f.userID, uuid.New(), RequestMeta{})
	assert.ErrorIs(t, err, ErrMagazineNotFound)
}

func TestDownloadMagazineWithoutPDFURL(t *testing.T) {
	f := newFixture()
	m := f.magazines.magazines[f.magazineID]
	m.PDFURL = ""
	f.magazines.magazines[f.magazineID] = m

	_, err := f.service().Download(context.Background(), f.userID, f.magazineID, RequestMeta{})
	assert.ErrorIs(t, err, ErrMagazineNotFound)
}

func TestDownloadFetchFailurePropagates(t *testing.T) {
	f := newFixture()
	f.fetcher.body = nil
	f.fetcher.err = &objectstore.FetchError{URL: "https://cdn.example.com/vol1.pdf", Status: 502}

	_, err := f.service().Download(context.Background(), f.userID, f.magazineID, RequestMeta{})
	require.Error(t, err)

	var fetchErr *objectstore.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Empty(t, f.auditor.entries, "no audit row on failure")
}

func TestDownloadWatermarkFailurePropagates(t *testing.T) {
	f := newFixture()
	f.compositor.err = watermark.ErrDocumentProcessing

	_, err := f.service().Download(context.Background(), f.userID, f.magazineID, RequestMeta{})
	assert.ErrorIs(t, err, watermark.ErrDocumentProcessing)
	assert.Empty(t, f.auditor.entries)
}

func TestDownloadUserStoreErrorIsNotNotFound(t *testing.T) {
	f := newFixture()
	f.users.err = errors.New("connection reset")

	_, err := f.service().Download(context.Background(), f.userID, f.magazineID, RequestMeta{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
