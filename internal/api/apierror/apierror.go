// Package apierror writes the service's JSON error envelope and logs the
// underlying cause at the right level. The envelope is part of the public
// contract: {"error": "...", "details": "..."} with details optional.
package apierror

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type Body struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type Option func(*Body)

// WithDetails attaches a human-readable hint, always shown to the client.
func WithDetails(details string) Option {
	return func(b *Body) {
		b.Details = details
	}
}

// Write sends the error envelope and logs err. Client errors (4xx) log at
// warn, server errors (5xx) at error. err may be nil for purely
// client-driven failures like malformed input.
func Write(w http.ResponseWriter, r *http.Request, status int, message string, err error, opts ...Option) {
	body := Body{Error: message}
	for _, opt := range opts {
		opt(&body)
	}

	if err != nil {
		logger := zerolog.Ctx(r.Context())
		ev := logger.Warn()
		if status >= 500 {
			ev = logger.Error()
		}
		ev.Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
