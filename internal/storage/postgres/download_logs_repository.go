package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neweragit/newera-server/internal/storage"
)

type DownloadLogRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *DownloadLogRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *DownloadLogRepository) Insert(ctx context.Context, entry storage.DownloadLog) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO download_logs (id, user_id, magazine_id, user_agent, remote_addr, content_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.MagazineID, entry.UserAgent, entry.RemoteAddr, entry.ContentHash, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert download log: %w", err)
	}
	return nil
}

func (r *DownloadLogRepository) CountForMagazine(ctx context.Context, magazineID uuid.UUID) (int64, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT count(*) FROM download_logs WHERE magazine_id = $1`, magazineID)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count download logs: %w", err)
	}
	return count, nil
}
