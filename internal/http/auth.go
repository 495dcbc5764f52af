package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// UserIDHeader carries the caller's external user ID.
const UserIDHeader = "X-Faqclaw-User-Id"

// extractBearerToken extracts a bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// tokenMatch performs a constant-time comparison of a provided token against the expected token.
// Returns true if expected is empty (no auth configured) or if tokens match.
func tokenMatch(provided, expected string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// extractUserID extracts the external user ID from the request header.
// Returns "" if no user ID is provided or it exceeds MaxUserIDLength.
func extractUserID(r *http.Request) string {
	id := r.Header.Get(UserIDHeader)
	if id == "" {
		return ""
	}
	if err := store.ValidateUserID(id); err != nil {
		slog.Warn("security.user_id_too_long", "length", len(id), "max", store.MaxUserIDLength)
		return ""
	}
	return id
}

// rateLimitKey prefers the bearer token so clients behind one proxy do not
// share a bucket.
func rateLimitKey(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return "token:" + token
	}
	return "ip:" + r.RemoteAddr
}

// guard wraps a handler with auth, rate limiting and user ID propagation.
type guard struct {
	token       string
	rateLimiter func(string) bool // nil = no limit
}

func (g guard) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !tokenMatch(extractBearerToken(r), g.token) {
			slog.Warn("security.unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "invalid_request_error", "Invalid authentication")
			return
		}
		if g.rateLimiter != nil && !g.rateLimiter(rateLimitKey(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limit_error", "Rate limit exceeded")
			return
		}

		ctx := store.WithChannel(r.Context(), "http")
		if userID := extractUserID(r); userID != "" {
			ctx = store.WithUserID(ctx, userID)
		}
		next(w, r.WithContext(ctx))
	}
}
