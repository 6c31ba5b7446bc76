package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/api/apierror"
	"github.com/neweragit/newera-server/internal/storage"
)

type MagazinesHandler struct {
	magazines storage.MagazineRepository
}

func NewMagazinesHandler(magazines storage.MagazineRepository) *MagazinesHandler {
	return &MagazinesHandler{magazines: magazines}
}

// magazineResponse deliberately omits pdf_url: the source location is never
// exposed, downloads go through the watermarking endpoint.
type magazineResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsPaid      bool      `json:"is_paid"`
	PublishedAt time.Time `json:"published_at"`
}

func toMagazineResponse(m storage.Magazine) magazineResponse {
	return magazineResponse{
		ID:          m.ID.String(),
		Title:       m.Title,
		Description: m.Description,
		IsPaid:      m.IsPaid,
		PublishedAt: m.PublishedAt,
	}
}

func (h *MagazinesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r, 50)

	magazines, err := h.magazines.List(r.Context(), limit, offset)
	if err != nil {
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	items := make([]magazineResponse, 0, len(magazines))
	for _, m := range magazines {
		items = append(items, toMagazineResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *MagazinesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Invalid magazine id", err)
		return
	}

	magazine, err := h.magazines.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apierror.Write(w, r, http.StatusNotFound, "Magazine or PDF not found", err)
			return
		}
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	writeJSON(w, http.StatusOK, toMagazineResponse(magazine))
}

func paginationParams(r *http.Request, defaultLimit int32) (limit, offset int32) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = int32(v)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = int32(v)
		}
	}
	return limit, offset
}
