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

type TicketRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *TicketRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func scanTicket(row pgx.Row) (storage.Ticket, error) {
	var t storage.Ticket
	err := row.Scan(&t.Code, &t.EventID, &t.UserID, &t.IssuedAt)
	return t, err
}

func (r *TicketRepository) Insert(ctx context.Context, ticket storage.Ticket) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO tickets (code, event_id, user_id, issued_at)
VALUES ($1, $2, $3, $4)`,
		ticket.Code, ticket.EventID, ticket.UserID, ticket.IssuedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) GetByCode(ctx context.Context, code string) (storage.Ticket, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT code, event_id, user_id, issued_at FROM tickets WHERE code = $1`, code)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Ticket{}, storage.ErrNotFound
		}
		return storage.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

func (r *TicketRepository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (storage.Ticket, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT code, event_id, user_id, issued_at
  FROM tickets
 WHERE event_id = $1 AND user_id = $2
 LIMIT 1`, eventID, userID)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Ticket{}, storage.ErrNotFound
		}
		return storage.Ticket{}, fmt.Errorf("get ticket by event and user: %w", err)
	}
	return ticket, nil
}

func (r *TicketRepository) CountForEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT count(*) FROM tickets WHERE event_id = $1`, eventID)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return count, nil
}
