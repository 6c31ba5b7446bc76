package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/api/apierror"
	"github.com/neweragit/newera-server/internal/api/middleware"
	"github.com/neweragit/newera-server/internal/domain/events"
	"github.com/neweragit/newera-server/internal/storage"
)

type EventsService interface {
	List(ctx context.Context, limit, offset int32) ([]storage.Event, error)
	Get(ctx context.Context, id uuid.UUID) (storage.Event, error)
	Register(ctx context.Context, eventID, userID uuid.UUID) (storage.Ticket, error)
}

type EventsHandler struct {
	service EventsService
}

func NewEventsHandler(service EventsService) *EventsHandler {
	return &EventsHandler{service: service}
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
}

func toEventResponse(e storage.Event) eventResponse {
	return eventResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Capacity:    e.Capacity,
	}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	list, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	items := make([]eventResponse, 0, len(list))
	for _, e := range list {
		items = append(items, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err)
		return
	}

	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			apierror.Write(w, r, http.StatusNotFound, "Event not found", err)
			return
		}
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

type ticketResponse struct {
	Code     string    `json:"code"`
	EventID  string    `json:"event_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// Register issues a ticket for the authenticated member.
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid event id", err)
		return
	}
	userID := middleware.CurrentUserID(r.Context())

	ticket, err := h.service.Register(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrEventNotFound):
			apierror.Write(w, r, http.StatusNotFound, "Event not found", err)
		case errors.Is(err, events.ErrAlreadyRegistered):
			apierror.Write(w, r, http.StatusConflict, "Already registered for this event", err)
		case errors.Is(err, events.ErrEventFull):
			apierror.Write(w, r, http.StatusConflict, "Event is at capacity", err)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, ticketResponse{
		Code:     ticket.Code,
		EventID:  ticket.EventID.String(),
		IssuedAt: ticket.IssuedAt,
	})
}
