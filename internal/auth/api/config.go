package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and cookie transport defaults.
type Config struct {
	MaxBodyBytes int64

	AccessCookieName   string
	RefreshCookieName  string
	RememberCookieName string

	CookiePath   string
	CookieDomain string
	// CookieSecure should be true in production; cookies are HttpOnly either
	// way (except the remember flag, which the client reads).
	CookieSecure bool
	// AccessCookieSameSite restricts the access cookie; the refresh cookie
	// stays on the browser default (Lax) so top-level navigations can still
	// reach /auth/refresh.
	AccessCookieSameSite http.SameSite

	// LockWindow bounds how long a registration holds its identity key.
	LockWindow time.Duration
}

// LoadConfigFromEnv loads auth API config from environment variables with
// safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:       envInt64("QUREKA_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		AccessCookieName:   envString("QUREKA_AUTH_ACCESS_COOKIE", "access_token"),
		RefreshCookieName:  envString("QUREKA_AUTH_REFRESH_COOKIE", "refresh_token"),
		RememberCookieName: envString("QUREKA_AUTH_REMEMBER_COOKIE", "remember_me"),
		CookiePath:         envString("QUREKA_AUTH_COOKIE_PATH", "/"),
		CookieDomain:       envString("QUREKA_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:       envBool("QUREKA_AUTH_COOKIE_SECURE", false),
		LockWindow:         envDuration("QUREKA_AUTH_REG_LOCK_WINDOW", 5*time.Second),

		AccessCookieSameSite: envSameSite("QUREKA_AUTH_ACCESS_COOKIE_SAMESITE", http.SameSiteStrictMode),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envSameSite(key string, def http.SameSite) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return def
	}
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
