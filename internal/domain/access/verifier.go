// Package access decides whether a member may download a magazine.
package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/rs/zerolog"
)

// Verifier answers the single question "may this user download this
// magazine". It never returns an error: every lookup failure denies, so a
// flaky record store can only ever under-grant, never over-grant.
type Verifier struct {
	magazines storage.MagazineRepository
	access    storage.AccessRepository
	logger    zerolog.Logger
}

func NewVerifier(magazines storage.MagazineRepository, access storage.AccessRepository, logger zerolog.Logger) *Verifier {
	return &Verifier{
		magazines: magazines,
		access:    access,
		logger:    logger.With().Str("component", "access").Logger(),
	}
}

// Verify re-queries the store on every call; authorization is always fresh.
func (v *Verifier) Verify(ctx context.Context, userID, magazineID uuid.UUID) bool {
	magazine, err := v.magazines.GetByID(ctx, magazineID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			v.logger.Error().Err(err).
				Str("magazine_id", magazineID.String()).
				Msg("magazine lookup failed, denying")
		}
		return false
	}

	if !magazine.IsPaid {
		return true
	}

	if _, err := v.access.GetGrant(ctx, userID, magazineID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			v.logger.Error().Err(err).
				Str("user_id", userID.String()).
				Str("magazine_id", magazineID.String()).
				Msg("access grant lookup failed, denying")
		}
		return false
	}
	return true
}
