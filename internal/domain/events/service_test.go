package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	events map[uuid.UUID]storage.Event
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (storage.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return storage.Event{}, storage.ErrNotFound
	}
	return e, nil
}

func (f *fakeEvents) List(_ context.Context, _, _ int32) ([]storage.Event, error) {
	out := make([]storage.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

type fakeTickets struct {
	tickets []storage.Ticket
}

func (f *fakeTickets) Insert(_ context.Context, t storage.Ticket) error {
	f.tickets = append(f.tickets, t)
	return nil
}

func (f *fakeTickets) GetByCode(_ context.Context, code string) (storage.Ticket, error) {
	for _, t := range f.tickets {
		if t.Code == code {
			return t, nil
		}
	}
	return storage.Ticket{}, storage.ErrNotFound
}

func (f *fakeTickets) GetByEventAndUser(_ context.Context, eventID, userID uuid.UUID) (storage.Ticket, error) {
	for _, t := range f.tickets {
		if t.EventID == eventID && t.UserID == userID {
			return t, nil
		}
	}
	return storage.Ticket{}, storage.ErrNotFound
}

func (f *fakeTickets) CountForEvent(_ context.Context, eventID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range f.tickets {
		if t.EventID == eventID {
			n++
		}
	}
	return n, nil
}

type fakeHolderStore struct {
	users map[uuid.UUID]storage.User
}

func (f *fakeHolderStore) Create(context.Context, storage.CreateUserParams) (storage.User, error) {
	panic("not used")
}
func (f *fakeHolderStore) GetByEmail(context.Context, string) (storage.User, error) {
	panic("not used")
}
func (f *fakeHolderStore) UpdateProfile(context.Context, storage.UpdateProfileParams) (storage.User, error) {
	panic("not used")
}
func (f *fakeHolderStore) SetPassword(context.Context, uuid.UUID, string) error { panic("not used") }
func (f *fakeHolderStore) Activate(context.Context, uuid.UUID) error            { panic("not used") }

func (f *fakeHolderStore) GetByID(_ context.Context, id uuid.UUID) (storage.User, error) {
	u, ok := f.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

type fakeTicketMailer struct {
	sent []TicketEmail
	err  error
}

func (f *fakeTicketMailer) SendTicketConfirmation(_ context.Context, _ string, data TicketEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

type fixture struct {
	svc     *Service
	events  *fakeEvents
	tickets *fakeTickets
	users   *fakeHolderStore
	mailer  *fakeTicketMailer
	event   storage.Event
	user    storage.User
}

func newFixture(capacity int) *fixture {
	event := storage.Event{
		ID:       uuid.New(),
		Title:    "Summer Gala",
		Venue:    "Grand Hall",
		StartsAt: time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC),
		Capacity: capacity,
	}
	user := storage.User{
		ID:       uuid.New(),
		FullName: "Jane O'Brien",
		Email:    "jane@example.com",
		IsActive: true,
	}
	f := &fixture{
		events:  &fakeEvents{events: map[uuid.UUID]storage.Event{event.ID: event}},
		tickets: &fakeTickets{},
		users:   &fakeHolderStore{users: map[uuid.UUID]storage.User{user.ID: user}},
		mailer:  &fakeTicketMailer{},
		event:   event,
		user:    user,
	}
	f.svc = NewService(f.events, f.tickets, f.users, f.mailer, zerolog.Nop())
	return f
}

func TestRegister_IssuesTicketAndMailsConfirmation(t *testing.T) {
	f := newFixture(100)

	ticket, err := f.svc.Register(context.Background(), f.event.ID, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, ticket.Code, 26) // ULID
	assert.Equal(t, f.event.ID, ticket.EventID)
	assert.Equal(t, f.user.ID, ticket.UserID)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Summer Gala", f.mailer.sent[0].EventTitle)
	assert.Equal(t, ticket.Code, f.mailer.sent[0].TicketCode)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	f := newFixture(100)

	_, err := f.svc.Register(context.Background(), f.event.ID, f.user.ID)
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), f.event.ID, f.user.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Len(t, f.tickets.tickets, 1)
}

func TestRegister_CapacityEnforced(t *testing.T) {
	f := newFixture(1)

	_, err := f.svc.Register(context.Background(), f.event.ID, f.user.ID)
	require.NoError(t, err)

	second := storage.User{ID: uuid.New(), FullName: "Sam", Email: "sam@example.com"}
	f.users.users[second.ID] = second
	_, err = f.svc.Register(context.Background(), f.event.ID, second.ID)
	assert.ErrorIs(t, err, ErrEventFull)
}

func TestRegister_ZeroCapacityIsUnlimited(t *testing.T) {
	f := newFixture(0)

	for i := 0; i < 3; i++ {
		u := storage.User{ID: uuid.New(), FullName: "Member", Email: "m@example.com"}
		f.users.users[u.ID] = u
		_, err := f.svc.Register(context.Background(), f.event.ID, u.ID)
		require.NoError(t, err)
	}
	assert.Len(t, f.tickets.tickets, 3)
}

func TestRegister_UnknownEvent(t *testing.T) {
	f := newFixture(100)
	_, err := f.svc.Register(context.Background(), uuid.New(), f.user.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegister_MailFailureDoesNotBlock(t *testing.T) {
	f := newFixture(100)
	f.mailer.err = assert.AnError

	_, err := f.svc.Register(context.Background(), f.event.ID, f.user.ID)
	assert.NoError(t, err)
	assert.Len(t, f.tickets.tickets, 1)
}

func TestTicketForRender_OwnershipRequired(t *testing.T) {
	f := newFixture(100)
	ticket, err := f.svc.Register(context.Background(), f.event.ID, f.user.ID)
	require.NoError(t, err)

	gotTicket, gotEvent, gotUser, err := f.svc.TicketForRender(context.Background(), ticket.Code, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.Code, gotTicket.Code)
	assert.Equal(t, f.event.ID, gotEvent.ID)
	assert.Equal(t, f.user.ID, gotUser.ID)

	// A different member must see the same error as a bogus code.
	_, _, _, err = f.svc.TicketForRender(context.Background(), ticket.Code, uuid.New())
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, _, _, err = f.svc.TicketForRender(context.Background(), "01J8NONEXISTENTCODE0000000", f.user.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
