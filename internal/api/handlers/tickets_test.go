package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/domain/events"
	"github.com/neweragit/newera-server/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicketService struct {
	ticket storage.Ticket
	event  storage.Event
	user   storage.User
	err    error
}

func (f *fakeTicketService) TicketForRender(context.Context, string, uuid.UUID) (storage.Ticket, storage.Event, storage.User, error) {
	if f.err != nil {
		return storage.Ticket{}, storage.Event{}, storage.User{}, f.err
	}
	return f.ticket, f.event, f.user, nil
}

func ticketsRequest(svc TicketService, code string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/tickets/{code}/pdf", http.HandlerFunc(NewTicketsHandler(svc).DownloadPDF))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tickets/"+code+"/pdf", nil))
	return rec
}

func TestTicketDownload_StreamsPDF(t *testing.T) {
	svc := &fakeTicketService{
		ticket: storage.Ticket{Code: "01J8TESTTICKETCODE00000000", EventID: uuid.New(), UserID: uuid.New()},
		event:  storage.Event{Title: "Summer Gala", Venue: "Grand Hall", StartsAt: time.Now().UTC()},
		user:   storage.User{FullName: "Jane O'Brien"},
	}
	rec := ticketsRequest(svc, svc.ticket.Code)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), svc.ticket.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Length"))
}

func TestTicketDownload_NotFound(t *testing.T) {
	rec := ticketsRequest(&fakeTicketService{err: events.ErrTicketNotFound}, "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Ticket not found", errorBody(t, rec)["error"])
}
