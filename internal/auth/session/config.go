package session

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls the secrets and TTLs of both token kinds, the issuer claim,
// and the bcrypt cost used when hashing refresh tokens for storage.
//
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of issued tokens.
	Issuer string

	// AccessSecret signs short-lived access tokens.
	AccessSecret []byte

	// RefreshSecret signs long-lived refresh tokens. Must differ from
	// AccessSecret so one kind can never stand in for the other.
	RefreshSecret []byte

	// AccessTTL defines the lifetime of access tokens. rememberMe does not
	// affect it.
	AccessTTL time.Duration

	// Refresh token TTL policy: base, and extended when rememberMe is set.
	RefreshTTL         time.Duration
	RefreshTTLRemember time.Duration

	// BcryptCost is the work factor for refresh-token hashes.
	BcryptCost int
}

// DefaultConfig returns a default configuration suitable for development.
// Secrets are intentionally empty; issuance fails until they are set.
func DefaultConfig() Config {
	return Config{
		Issuer:             "qureka",
		AccessTTL:          time.Hour,
		RefreshTTL:         7 * 24 * time.Hour,
		RefreshTTLRemember: 30 * 24 * time.Hour,
		BcryptCost:         bcrypt.DefaultCost,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - QUREKA_ACCESS_TOKEN_SECRET
//   - QUREKA_REFRESH_TOKEN_SECRET
//
// Optional (durations must be valid Go duration strings):
//   - QUREKA_AUTH_ISSUER
//   - QUREKA_AUTH_ACCESS_TTL
//   - QUREKA_AUTH_REFRESH_TTL
//   - QUREKA_AUTH_REFRESH_TTL_REMEMBER
//   - QUREKA_AUTH_BCRYPT_COST
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("QUREKA_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("QUREKA_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTTL = d
	}

	if v := os.Getenv("QUREKA_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTL = d
	}

	if v := os.Getenv("QUREKA_AUTH_REFRESH_TTL_REMEMBER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTLRemember = d
	}

	if v := os.Getenv("QUREKA_AUTH_BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, ErrConfig
		}
		cfg.BcryptCost = n
	}

	cfg.AccessSecret = []byte(os.Getenv("QUREKA_ACCESS_TOKEN_SECRET"))
	cfg.RefreshSecret = []byte(os.Getenv("QUREKA_REFRESH_TOKEN_SECRET"))
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return Config{}, ErrConfig
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return Config{}, ErrConfig
	}

	// Invariant: the remembered TTL must not undercut the base TTL.
	if cfg.RefreshTTLRemember < cfg.RefreshTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}

// RefreshTTLFor returns the refresh-token lifetime for the rememberMe flag.
// The same value drives the refresh cookie TTL.
func (c Config) RefreshTTLFor(rememberMe bool) time.Duration {
	if rememberMe {
		return c.RefreshTTLRemember
	}
	return c.RefreshTTL
}
