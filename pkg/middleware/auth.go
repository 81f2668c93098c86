package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/observability"
)

// PrincipalLookup resolves a bearer token to a principal.
// auth.SessionStore is the production implementation.
type PrincipalLookup interface {
	Lookup(ctx context.Context, token string) (*auth.Principal, error)
}

// AuthMiddleware attaches the principal for the request's bearer token
type AuthMiddleware struct {
	sessions PrincipalLookup
	optional bool // If true, requests without a header pass through anonymously
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(sessions PrincipalLookup, optional bool, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		optional: optional,
		metrics:  metrics,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			m.unauthorized(w)
			return
		}

		token, ok := httputil.BearerToken(r)
		if !ok {
			m.metrics.RecordPrincipalLookup("invalid")
			m.unauthorized(w)
			return
		}

		principal, err := m.sessions.Lookup(r.Context(), token)
		switch {
		case errors.Is(err, auth.ErrSessionNotFound):
			m.metrics.RecordPrincipalLookup("missing")
			m.unauthorized(w)
			return
		case errors.Is(err, auth.ErrInvalidPrincipal):
			m.metrics.RecordPrincipalLookup("invalid")
			observability.FromContext(r.Context()).WithError(err).Warn("Rejected stored session")
			m.unauthorized(w)
			return
		case err != nil:
			m.metrics.RecordPrincipalLookup("error")
			observability.FromContext(r.Context()).WithError(err).Error("Session lookup failed")
			httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "Session store unavailable")
			return
		}

		m.metrics.RecordPrincipalLookup("found")
		ctx := auth.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) unauthorized(w http.ResponseWriter) {
	d := ErrUnauthenticated()
	_ = httputil.WriteJSON(w, d.Status(), d.Body())
}

// GetPrincipal returns the principal attached to the request, or nil
func GetPrincipal(r *http.Request) *auth.Principal {
	return auth.PrincipalFromContext(r.Context())
}
