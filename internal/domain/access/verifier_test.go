package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeMagazines struct {
	magazines map[uuid.UUID]storage.Magazine
	err       error
}

func (f *fakeMagazines) GetByID(_ context.Context, id uuid.UUID) (storage.Magazine, error) {
	if f.err != nil {
		return storage.Magazine{}, f.err
	}
	m, ok := f.magazines[id]
	if !ok {
		return storage.Magazine{}, storage.ErrNotFound
	}
	return m, nil
}

func (f *fakeMagazines) List(context.Context, int32, int32) ([]storage.Magazine, error) {
	return nil, nil
}

type fakeAccess struct {
	grants map[[2]uuid.UUID]bool
	err    error
}

func (f *fakeAccess) GetGrant(_ context.Context, userID, magazineID uuid.UUID) (storage.AccessGrant, error) {
	if f.err != nil {
		return storage.AccessGrant{}, f.err
	}
	if f.grants[[2]uuid.UUID{userID, magazineID}] {
		return storage.AccessGrant{UserID: userID, MagazineID: magazineID, GrantedAt: time.Now()}, nil
	}
	return storage.AccessGrant{}, storage.ErrNotFound
}

func (f *fakeAccess) Grant(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func TestVerifyFreeMagazineAllowsAnyone(t *testing.T) {
	magazineID := uuid.New()
	magazines := &fakeMagazines{magazines: map[uuid.UUID]storage.Magazine{
		magazineID: {ID: magazineID, Title: "Vol. 1", IsPaid: false},
	}}
	v := NewVerifier(magazines, &fakeAccess{}, zerolog.Nop())

	assert.True(t, v.Verify(context.Background(), uuid.New(), magazineID))
}

func TestVerifyPaidMagazineWithoutGrantDenies(t *testing.T) {
	magazineID := uuid.New()
	magazines := &fakeMagazines{magazines: map[uuid.UUID]storage.Magazine{
		magazineID: {ID: magazineID, Title: "Vol. 2", IsPaid: true},
	}}
	v := NewVerifier(magazines, &fakeAccess{}, zerolog.Nop())

	assert.False(t, v.Verify(context.Background(), uuid.New(), magazineID))
}

func TestVerifyPaidMagazineWithGrantAllows(t *testing.T) {
	magazineID := uuid.New()
	userID := uuid.New()
	magazines := &fakeMagazines{magazines: map[uuid.UUID]storage.Magazine{
		magazineID: {ID: magazineID, Title: "Vol. 2", IsPaid: true},
	}}
	grants := &fakeAccess{grants: map[[2]uuid.UUID]bool{
		{userID, magazineID}: true,
	}}
	v := NewVerifier(magazines, grants, zerolog.Nop())

	assert.True(t, v.Verify(context.Background(), userID, magazineID))
}

func TestVerifyUnknownMagazineDenies(t *testing.T) {
	v := NewVerifier(&fakeMagazines{}, &fakeAccess{}, zerolog.Nop())
	assert.False(t, v.Verify(context.Background(), uuid.New(), uuid.New()))
}

func TestVerifyFailsClosedOnStoreErrors(t *testing.T) {
	magazineID := uuid.New()
	storeErr := errors.New("connection refused")

	// Magazine lookup failure denies even for what would be a free issue.
	v := NewVerifier(&fakeMagazines{err: storeErr}, &fakeAccess{}, zerolog.Nop())
	assert.False(t, v.Verify(context.Background(), uuid.New(), magazineID))

	// Grant lookup failure denies a paid issue.
	magazines := &fakeMagazines{magazines: map[uuid.UUID]storage.Magazine{
		magazineID: {ID: magazineID, IsPaid: true},
	}}
	v = NewVerifier(magazines, &fakeAccess{err: storeErr}, zerolog.Nop())
	assert.False(t, v.Verify(context.Background(), uuid.New(), magazineID))
}
