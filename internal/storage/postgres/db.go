package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neweragit/newera-server/internal/storage"
)

// Repository implements storage.Repository with a PostgreSQL backend.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx

	users        *UserRepository
	magazines    *MagazineRepository
	access       *AccessRepository
	downloadLogs *DownloadLogRepository
	events       *EventRepository
	tickets      *TicketRepository
	codes        *OneTimeCodeRepository
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{
		pool:         pool,
		users:        &UserRepository{pool: pool},
		magazines:    &MagazineRepository{pool: pool},
		access:       &AccessRepository{pool: pool},
		downloadLogs: &DownloadLogRepository{pool: pool},
		events:       &EventRepository{pool: pool},
		tickets:      &TicketRepository{pool: pool},
		codes:        &OneTimeCodeRepository{pool: pool},
	}, nil
}

func (r *Repository) Users() storage.UserRepository {
	if r.tx != nil {
		return &UserRepository{pool: r.pool, tx: r.tx}
	}
	return r.users
}

func (r *Repository) Magazines() storage.MagazineRepository {
	if r.tx != nil {
		return &MagazineRepository{pool: r.pool, tx: r.tx}
	}
	return r.magazines
}

func (r *Repository) Access() storage.AccessRepository {
	if r.tx != nil {
		return &AccessRepository{pool: r.pool, tx: r.tx}
	}
	return r.access
}

func (r *Repository) DownloadLogs() storage.DownloadLogRepository {
	if r.tx != nil {
		return &DownloadLogRepository{pool: r.pool, tx: r.tx}
	}
	return r.downloadLogs
}

func (r *Repository) Events() storage.EventRepository {
	if r.tx != nil {
		return &EventRepository{pool: r.pool, tx: r.tx}
	}
	return r.events
}

func (r *Repository) Tickets() storage.TicketRepository {
	if r.tx != nil {
		return &TicketRepository{pool: r.pool, tx: r.tx}
	}
	return r.tickets
}

func (r *Repository) Codes() storage.OneTimeCodeRepository {
	if r.tx != nil {
		return &OneTimeCodeRepository{pool: r.pool, tx: r.tx}
	}
	return r.codes
}

// WithTx executes fn within a single database transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{
		pool:         r.pool,
		tx:           tx,
		users:        &UserRepository{pool: r.pool, tx: tx},
		magazines:    &MagazineRepository{pool: r.pool, tx: tx},
		access:       &AccessRepository{pool: r.pool, tx: tx},
		downloadLogs: &DownloadLogRepository{pool: r.pool, tx: tx},
		events:       &EventRepository{pool: r.pool, tx: tx},
		tickets:      &TicketRepository{pool: r.pool, tx: tx},
		codes:        &OneTimeCodeRepository{pool: r.pool, tx: tx},
	}
	if err := fn(ctx, wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// queryer abstracts pool-vs-transaction execution for repositories.
type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
