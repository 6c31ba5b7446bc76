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

type MagazineRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *MagazineRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const magazineColumns = `id, title, description, pdf_url, is_paid, published_at, created_at`

func scanMagazine(row pgx.Row) (storage.Magazine, error) {
	var m storage.Magazine
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.PDFURL, &m.IsPaid, &m.PublishedAt, &m.CreatedAt)
	return m, err
}

func (r *MagazineRepository) GetByID(ctx context.Context, id uuid.UUID) (storage.Magazine, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+magazineColumns+` FROM magazines WHERE id = $1`, id)
	magazine, err := scanMagazine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Magazine{}, storage.ErrNotFound
		}
		return storage.Magazine{}, fmt.Errorf("get magazine: %w", err)
	}
	return magazine, nil
}

func (r *MagazineRepository) List(ctx context.Context, limit, offset int32) ([]storage.Magazine, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+magazineColumns+`
  FROM magazines
 ORDER BY published_at DESC
 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list magazines: %w", err)
	}
	defer rows.Close()

	var magazines []storage.Magazine
	for rows.Next() {
		m, err := scanMagazine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan magazine: %w", err)
		}
		magazines = append(magazines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list magazines: %w", err)
	}
	return magazines, nil
}
