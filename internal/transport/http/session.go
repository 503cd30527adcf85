package http

import (
	"context"
	"net/http"
	"strings"
)

const (
	sessionHeader     = "X-Session-ID"
	idempotencyHeader = "Idempotency-Key"
)

type sessionKey struct{}

// RequireSession rejects requests without an X-Session-ID header and stores
// the id on the request context. The identity collaborator in front of this
// service is trusted to have set it.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(sessionHeader))
		if id == "" {
			writeError(w, http.StatusBadRequest, codeSessionRequired, "X-Session-ID header is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

// sessionID returns the session set by RequireSession, falling back to the
// optional header on routes that do not require one.
func sessionID(r *http.Request) string {
	if id, ok := r.Context().Value(sessionKey{}).(string); ok {
		return id
	}
	return strings.TrimSpace(r.Header.Get(sessionHeader))
}
