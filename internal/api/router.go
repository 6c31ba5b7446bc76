// Package api assembles the HTTP surface: routes, middleware chain, and the
// server construction.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/neweragit/newera-server/internal/api/handlers"
	"github.com/neweragit/newera-server/internal/api/middleware"
	"github.com/neweragit/newera-server/internal/config"
	"github.com/neweragit/newera-server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps carries the constructed handlers and config into the router.
type Deps struct {
	Config    config.Config
	Logger    zerolog.Logger
	Health    *handlers.HealthHandler
	Download  *handlers.DownloadHandler
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	Magazines *handlers.MagazinesHandler
	Events    *handlers.EventsHandler
	Tickets   *handlers.TicketsHandler
}

// NewRouter wires routes and the middleware chain. Order, outermost first:
// correlation, request logging, metrics, security headers; rate limiting is
// applied per route so each endpoint charges the right tier.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(deps.Config.Auth)
	rateLimit := middleware.RateLimit(deps.Config.RateLimit)

	// Tier must be in the context before the limiter reads it, so the tier
	// marker wraps the limiter, which wraps the handler.
	public := func(h http.Handler) http.Handler {
		return rateLimit(h)
	}
	loginTier := func(h http.Handler) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierLogin)(rateLimit(h))
	}
	memberTier := func(h http.Handler) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierMember)(rateLimit(h))
	}

	mux.Handle("/health", http.HandlerFunc(deps.Health.Health))
	mux.Handle("/readyz", http.HandlerFunc(deps.Health.Ready))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Published download contract: member identity comes from the query
	// parameter, not a session.
	mux.Handle("/download-pdf/{magazineId}", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(deps.Download.Download)),
	}))

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(http.HandlerFunc(deps.Auth.Register)),
	}))
	mux.Handle("/api/v1/auth/verify-otp", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(http.HandlerFunc(deps.Auth.VerifyOTP)),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(http.HandlerFunc(deps.Auth.Login)),
	}))
	mux.Handle("/api/v1/auth/password-reset", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(http.HandlerFunc(deps.Auth.RequestPasswordReset)),
	}))
	mux.Handle("/api/v1/auth/password-reset/confirm", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(http.HandlerFunc(deps.Auth.ConfirmPasswordReset)),
	}))

	mux.Handle("/api/v1/profile", methodMux(map[string]http.Handler{
		http.MethodGet: memberTier(requireAuth(http.HandlerFunc(deps.Profile.Get))),
		http.MethodPut: memberTier(requireAuth(http.HandlerFunc(deps.Profile.Update))),
	}))

	mux.Handle("/api/v1/magazines", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(deps.Magazines.List)),
	}))
	mux.Handle("/api/v1/magazines/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(deps.Magazines.Get)),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(deps.Events.List)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(deps.Events.Get)),
	}))
	mux.Handle("/api/v1/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost: memberTier(requireAuth(http.HandlerFunc(deps.Events.Register))),
	}))

	mux.Handle("/api/v1/tickets/{code}/pdf", methodMux(map[string]http.Handler{
		http.MethodGet: memberTier(requireAuth(http.HandlerFunc(deps.Tickets.DownloadPDF))),
	}))

	var handler http.Handler = mux
	handler = middleware.SecurityHeaders(deps.Config.Environment == "production")(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

func methodMux(byMethod map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := byMethod[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(byMethod))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(byMethod map[string]http.Handler) string {
	methods := make([]string, 0, len(byMethod))
	for method := range byMethod {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
