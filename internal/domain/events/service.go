// Package events covers the club's event calendar and ticketing. Members
// hold at most one ticket per event; tickets carry a ULID code rendered as a
// QR on the ticket PDF.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/metrics"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventFull         = errors.New("event is at capacity")
	ErrAlreadyRegistered = errors.New("already registered for event")
	ErrTicketNotFound    = errors.New("ticket not found")
)

// Mailer is the slice of the email service ticketing needs. Confirmation
// mail is best effort; registration never fails on a mail error.
type Mailer interface {
	SendTicketConfirmation(ctx context.Context, to string, data TicketEmail) error
}

// TicketEmail mirrors email.TicketData without importing the email package.
type TicketEmail struct {
	FullName   string
	EventTitle string
	EventVenue string
	EventStart string
	TicketCode string
}

type Service struct {
	events  storage.EventRepository
	tickets storage.TicketRepository
	users   storage.UserRepository
	mailer  Mailer
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(events storage.EventRepository, tickets storage.TicketRepository, users storage.UserRepository, mailer Mailer, logger zerolog.Logger) *Service {
	return &Service{
		events:  events,
		tickets: tickets,
		users:   users,
		mailer:  mailer,
		logger:  logger.With().Str("component", "events").Logger(),
		now:     time.Now,
	}
}

// List returns upcoming and past events, newest first.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]storage.Event, error) {
	events, err := s.events.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Get returns one event, or ErrEventNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (storage.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Event{}, ErrEventNotFound
		}
		return storage.Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// Register issues a ticket for the member. At most one ticket per member
// per event; a capacity of zero means unlimited.
func (s *Service) Register(ctx context.Context, eventID, userID uuid.UUID) (storage.Ticket, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return storage.Ticket{}, err
	}

	if _, err := s.tickets.GetByEventAndUser(ctx, eventID, userID); err == nil {
		return storage.Ticket{}, ErrAlreadyRegistered
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.Ticket{}, fmt.Errorf("check existing ticket: %w", err)
	}

	if event.Capacity > 0 {
		issued, err := s.tickets.CountForEvent(ctx, eventID)
		if err != nil {
			return storage.Ticket{}, fmt.Errorf("count tickets: %w", err)
		}
		if issued >= int64(event.Capacity) {
			return storage.Ticket{}, ErrEventFull
		}
	}

	ticket := storage.Ticket{
		Code:     ulid.Make().String(),
		EventID:  eventID,
		UserID:   userID,
		IssuedAt: s.now(),
	}
	if err := s.tickets.Insert(ctx, ticket); err != nil {
		return storage.Ticket{}, fmt.Errorf("insert ticket: %w", err)
	}
	metrics.TicketsIssued.Inc()

	s.sendConfirmation(ctx, event, ticket)

	s.logger.Info().
		Str("event_id", eventID.String()).
		Str("user_id", userID.String()).
		Str("ticket_code", ticket.Code).
		Msg("ticket issued")
	return ticket, nil
}

// TicketForRender returns the ticket plus the records the PDF needs. Only
// the ticket holder may fetch it.
func (s *Service) TicketForRender(ctx context.Context, code string, requesterID uuid.UUID) (storage.Ticket, storage.Event, storage.User, error) {
	ticket, err := s.tickets.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Ticket{}, storage.Event{}, storage.User{}, ErrTicketNotFound
		}
		return storage.Ticket{}, storage.Event{}, storage.User{}, fmt.Errorf("get ticket: %w", err)
	}
	if ticket.UserID != requesterID {
		// Do not reveal that the code exists.
		return storage.Ticket{}, storage.Event{}, storage.User{}, ErrTicketNotFound
	}

	event, err := s.Get(ctx, ticket.EventID)
	if err != nil {
		return storage.Ticket{}, storage.Event{}, storage.User{}, err
	}
	user, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		return storage.Ticket{}, storage.Event{}, storage.User{}, fmt.Errorf("get ticket holder: %w", err)
	}
	return ticket, event, user, nil
}

func (s *Service) sendConfirmation(ctx context.Context, event storage.Event, ticket storage.Ticket) {
	user, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", ticket.UserID.String()).Msg("skipping ticket confirmation email")
		return
	}
	err = s.mailer.SendTicketConfirmation(ctx, user.Email, TicketEmail{
		FullName:   user.FullName,
		EventTitle: event.Title,
		EventVenue: event.Venue,
		EventStart: event.StartsAt.UTC().Format("2006-01-02 15:04 UTC"),
		TicketCode: ticket.Code,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("ticket_code", ticket.Code).Msg("ticket confirmation email failed")
	}
}
