package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/api/apierror"
	"github.com/neweragit/newera-server/internal/audit"
	"github.com/neweragit/newera-server/internal/domain/downloads"
	"github.com/neweragit/newera-server/internal/objectstore"
	"github.com/neweragit/newera-server/internal/watermark"
)

// DownloadService is the slice of the downloads orchestrator this handler
// needs.
type DownloadService interface {
	Download(ctx context.Context, userID, magazineID uuid.UUID, meta downloads.RequestMeta) (*downloads.Result, error)
}

type DownloadHandler struct {
	service DownloadService
}

func NewDownloadHandler(service DownloadService) *DownloadHandler {
	return &DownloadHandler{service: service}
}

// Download serves GET /download-pdf/{magazineId}?userId=. The error bodies
// and statuses here are a published contract; change them deliberately.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	magazineRaw := r.PathValue("magazineId")
	userRaw := r.URL.Query().Get("userId")
	if magazineRaw == "" || userRaw == "" {
		apierror.Write(w, r, http.StatusBadRequest, "Missing required parameters: userId and magazineId", nil)
		return
	}

	magazineID, err := uuid.Parse(magazineRaw)
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Missing required parameters: userId and magazineId", err)
		return
	}
	userID, err := uuid.Parse(userRaw)
	if err != nil {
		apierror.Write(w, r, http.StatusBadRequest, "Missing required parameters: userId and magazineId", err)
		return
	}

	result, err := h.service.Download(r.Context(), userID, magazineID, downloads.RequestMeta{
		UserAgent:  r.UserAgent(),
		RemoteAddr: audit.ExtractClientIP(r),
	})
	if err != nil {
		h.writeDownloadError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Content)
}

func (h *DownloadHandler) writeDownloadError(w http.ResponseWriter, r *http.Request, err error) {
	var fetchErr *objectstore.FetchError
	switch {
	case errors.Is(err, downloads.ErrUserNotFound):
		apierror.Write(w, r, http.StatusNotFound, "User not found", err)
	case errors.Is(err, downloads.ErrAccessDenied):
		// No reason detail: denial must not leak paywall internals.
		apierror.Write(w, r, http.StatusForbidden, "Access denied. You do not have access to this magazine.", nil)
	case errors.Is(err, downloads.ErrMagazineNotFound):
		apierror.Write(w, r, http.StatusNotFound, "Magazine or PDF not found", err)
	case errors.As(err, &fetchErr):
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to download PDF", err,
			apierror.WithDetails(fetchErr.Error()))
	case errors.Is(err, watermark.ErrDocumentProcessing):
		// Cause stays in the server log.
		apierror.Write(w, r, http.StatusInternalServerError, "Failed to add watermark to PDF", err)
	default:
		apierror.Write(w, r, http.StatusInternalServerError, "Internal server error", err,
			apierror.WithDetails(err.Error()))
	}
}
