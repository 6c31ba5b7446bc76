package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neweragit/newera-server/internal/storage"
)

type AccessRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *AccessRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *AccessRepository) GetGrant(ctx context.Context, userID, magazineID uuid.UUID) (storage.AccessGrant, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT user_id, magazine_id, granted_at
  FROM magazine_access
 WHERE user_id = $1 AND magazine_id = $2
 LIMIT 1`, userID, magazineID)

	var grant storage.AccessGrant
	if err := row.Scan(&grant.UserID, &grant.MagazineID, &grant.GrantedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.AccessGrant{}, storage.ErrNotFound
		}
		return storage.AccessGrant{}, fmt.Errorf("get access grant: %w", err)
	}
	return grant, nil
}

func (r *AccessRepository) Grant(ctx context.Context, userID, magazineID uuid.UUID) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO magazine_access (user_id, magazine_id, granted_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id, magazine_id) DO NOTHING`, userID, magazineID)
	if err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	return nil
}
