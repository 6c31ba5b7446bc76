package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/neweragit/newera-server/internal/api/apierror"
	"github.com/neweragit/newera-server/internal/config"
	"github.com/neweragit/newera-server/internal/domain/users"
)

type contextKeyAuth string

const currentUserKey contextKeyAuth = "currentUserID"

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user ID in the request context.
func RequireAuth(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				apierror.Write(w, r, http.StatusUnauthorized, "Authentication required", nil)
				return
			}

			userID, err := users.ParseToken(cfg, token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				apierror.Write(w, r, http.StatusUnauthorized, "Invalid or expired token", err)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUserID returns the authenticated user, or uuid.Nil outside
// RequireAuth-wrapped handlers.
func CurrentUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(currentUserKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
