package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the claim bundle embedded in both token kinds.
// A new bundle is built per login/refresh and never mutated in place.
type Identity struct {
	UserID      string
	LoginName   string
	DisplayName string
	RememberMe  bool
}

// Kind selects which secret and TTL a codec operation uses. The payload
// shape is identical for both kinds; only key material and lifetime differ.
type Kind int

const (
	// KindAccess is the short-lived, stateless token kind.
	KindAccess Kind = iota
	// KindRefresh is the long-lived token kind whose hash is persisted.
	KindRefresh
)

type tokenClaims struct {
	LoginName   string `json:"login"`
	DisplayName string `json:"name"`
	RememberMe  bool   `json:"remember,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies expiring claim bundles. It is a pure transform:
// no storage, no side effects beyond the returned values.
type Codec struct {
	cfg Config
}

// NewCodec constructs a Codec. TTLs must be positive; secrets may be left
// empty, in which case issuance and verification fail with ErrSigningKey.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.RefreshTTLRemember <= 0 {
		return nil, ErrConfig
	}
	return &Codec{cfg: cfg}, nil
}

// IssueAccess signs a short-lived access token carrying id.
func (c *Codec) IssueAccess(id Identity, now time.Time) (string, error) {
	return c.issue(id, now, KindAccess, c.cfg.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token carrying id. rememberMe on
// the bundle extends the TTL; the payload shape is unchanged.
func (c *Codec) IssueRefresh(id Identity, now time.Time) (string, error) {
	return c.issue(id, now, KindRefresh, c.cfg.RefreshTTLFor(id.RememberMe))
}

func (c *Codec) issue(id Identity, now time.Time, kind Kind, ttl time.Duration) (string, error) {
	secret := c.secretFor(kind)
	if len(secret) == 0 {
		return "", ErrSigningKey
	}

	claims := tokenClaims{
		LoginName:   id.LoginName,
		DisplayName: id.DisplayName,
		RememberMe:  id.RememberMe,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses a signed token of the given kind and returns its claim
// bundle. It returns ErrTokenExpired when the signature is valid but the
// lifetime has passed, and ErrTokenInvalid for every other failure.
func (c *Codec) Verify(token string, kind Kind) (Identity, error) {
	secret := c.secretFor(kind)
	if len(secret) == 0 {
		return Identity{}, ErrSigningKey
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.cfg.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{
		UserID:      claims.Subject,
		LoginName:   claims.LoginName,
		DisplayName: claims.DisplayName,
		RememberMe:  claims.RememberMe,
	}, nil
}

func (c *Codec) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return c.cfg.RefreshSecret
	}
	return c.cfg.AccessSecret
}
