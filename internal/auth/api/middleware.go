package authapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/HeoSeonJin0504/qureka-server/internal/auth/session"
)

type ctxKey int

const identityKey ctxKey = iota

// IdentityFrom returns the authenticated identity placed on the request
// context by RequireAuth.
func IdentityFrom(ctx context.Context) (session.Identity, bool) {
	id, ok := ctx.Value(identityKey).(session.Identity)
	return id, ok
}

// RequireAuth guards a handler with the stateless access-token check.
//
// The three failure classes get distinct responses so clients know what to
// do next: a missing token is a plain 401, an expired-but-well-signed token
// is a 401 with "expired": true (try /auth/refresh), and a token that fails
// verification for any other reason is a 403.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r, "", h.cfg.AccessCookieName)

		id, err := h.sessions.Authorize(token)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		case errors.Is(err, session.ErrTokenMissing):
			writeError(w, http.StatusUnauthorized, "token_missing", "access token required")
		case errors.Is(err, session.ErrTokenExpired):
			writeExpired(w)
		default:
			writeError(w, http.StatusForbidden, "token_invalid", "access token rejected")
		}
	})
}
