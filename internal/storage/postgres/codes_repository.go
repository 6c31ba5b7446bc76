package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neweragit/newera-server/internal/storage"
)

type OneTimeCodeRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *OneTimeCodeRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const codeColumns = `id, user_id, code_hash, purpose, expires_at, consumed_at, created_at`

func scanCode(row pgx.Row) (storage.OneTimeCode, error) {
	var c storage.OneTimeCode
	err := row.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.Purpose, &c.ExpiresAt, &c.ConsumedAt, &c.CreatedAt)
	return c, err
}

func (r *OneTimeCodeRepository) Insert(ctx context.Context, code storage.OneTimeCode) (storage.OneTimeCode, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO one_time_codes (id, user_id, code_hash, purpose, expires_at, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, now())
RETURNING `+codeColumns,
		code.UserID, code.CodeHash, code.Purpose, code.ExpiresAt)

	created, err := scanCode(row)
	if err != nil {
		return storage.OneTimeCode{}, fmt.Errorf("insert one-time code: %w", err)
	}
	return created, nil
}

func (r *OneTimeCodeRepository) FindValid(ctx context.Context, userID uuid.UUID, codeHash string, purpose storage.CodePurpose, now time.Time) (storage.OneTimeCode, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+codeColumns+`
  FROM one_time_codes
 WHERE user_id = $1
   AND code_hash = $2
   AND purpose = $3
   AND consumed_at IS NULL
   AND expires_at > $4
 ORDER BY created_at DESC
 LIMIT 1`, userID, codeHash, purpose, now)

	code, err := scanCode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.OneTimeCode{}, storage.ErrNotFound
		}
		return storage.OneTimeCode{}, fmt.Errorf("find one-time code: %w", err)
	}
	return code, nil
}

func (r *OneTimeCodeRepository) MarkConsumed(ctx context.Context, id uuid.UUID, consumedAt time.Time) error {
	tag, err := r.queryer().Exec(ctx,
		`UPDATE one_time_codes SET consumed_at = $2 WHERE id = $1 AND consumed_at IS NULL`, id, consumedAt)
	if err != nil {
		return fmt.Errorf("consume one-time code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
