package authapi

import (
	"net/http"
	"strings"
	"time"
)

// Cookie transport for browser clients. The access and refresh cookies are
// HttpOnly; the remember flag is client-readable so the login form can
// pre-check its box. Non-browser clients ignore all three and use the JSON
// body plus the Authorization header.

func (h *Handler) setSessionCookies(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration, rememberMe bool) {
	h.setAccessCookie(w, access, accessTTL)

	if refresh != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.RefreshCookieName,
			Value:    refresh,
			Path:     h.cfg.CookiePath,
			Domain:   h.cfg.CookieDomain,
			MaxAge:   int(refreshTTL / time.Second),
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
		})

		remember := "false"
		if rememberMe {
			remember = "true"
		}
		http.SetCookie(w, &http.Cookie{
			Name:   h.cfg.RememberCookieName,
			Value:  remember,
			Path:   h.cfg.CookiePath,
			Domain: h.cfg.CookieDomain,
			MaxAge: int(refreshTTL / time.Second),
			Secure: h.cfg.CookieSecure,
		})
	}
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, access string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.AccessCookieName,
		Value:    access,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.AccessCookieSameSite,
	})
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, c := range []struct {
		name     string
		httpOnly bool
	}{
		{h.cfg.AccessCookieName, true},
		{h.cfg.RefreshCookieName, true},
		{h.cfg.RememberCookieName, false},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     h.cfg.CookiePath,
			Domain:   h.cfg.CookieDomain,
			MaxAge:   -1,
			HttpOnly: c.httpOnly,
			Secure:   h.cfg.CookieSecure,
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <t>" header,
// or "" when absent or malformed.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(raw) <= len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(raw[len(prefix):])
}

func cookieToken(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// tokenFromRequest resolves a token by fixed priority: Authorization header,
// then an explicit body value, then the transport cookie.
func tokenFromRequest(r *http.Request, bodyValue, cookieName string) string {
	if t := bearerToken(r); t != "" {
		return t
	}
	if bodyValue != "" {
		return bodyValue
	}
	return cookieToken(r, cookieName)
}
