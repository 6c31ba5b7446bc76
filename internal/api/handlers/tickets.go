package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/api/apierror"
	"github.com/neweragit/newera-server/internal/api/middleware"
	"github.com/neweragit/newera-server/internal/domain/events"
	"github.com/neweragit/newera-server/internal/storage"
)

type TicketService interface {
	TicketForRender(ctx context.Context, code string, requesterID uuid.UUID) (storage.Ticket, storage.Event, storage.User, error)
}

type TicketsHandler struct {
	service TicketService
}

func NewTicketsHandler(service TicketService) *TicketsHandler {
	return &TicketsHandler{service: service}
}

// DownloadPDF streams the ticket as a PDF (or a raw QR PNG when PDF
// assembly fails). Only the ticket holder can fetch it.
func (h *TicketsHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	userID := middleware.CurrentUserID(r.Context())

	ticket, event, user, err := h.service.TicketForRender(r.Context(), code, userID)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrTicketNotFound), errors.Is(err, events.ErrEventNotFound):
			apierror.Write(w, r, http.StatusNotFound, "Ticket not found", err)
		default:
			apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	rendered, err := events.RenderTicket(ticket, event, user)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to render ticket", err)
		return
	}

	w.Header().Set("Content-Type", rendered.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(rendered.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rendered.Content)
}
