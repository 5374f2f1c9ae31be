package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Service implements the high-level session operations for Qureka.
//
// It orchestrates login (issue + persist), refresh (verify + reissue), and
// logout (revoke) over a Codec and a Store. It holds no mutable state of its
// own and is safe for concurrent use.
type Service struct {
	log   *slog.Logger
	cfg   Config
	codec *Codec
	store Store
}

// Issued is the result of a login or refresh. RefreshToken and RefreshTTL
// are empty on refresh: this design deliberately does not rotate the refresh
// token on every refresh.
type Issued struct {
	Identity Identity

	AccessToken string
	AccessTTL   time.Duration

	RefreshToken string
	RefreshTTL   time.Duration
}

// NewService constructs a Service with the provided configuration, codec,
// and store.
func NewService(log *slog.Logger, cfg Config, codec *Codec, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{log: log, cfg: cfg, codec: codec, store: store}
}

// Login issues an access/refresh token pair for an already-authenticated
// identity and persists the refresh token, replacing any prior row for the
// user (a login on a second device invalidates the first device's token).
//
// If persistence fails after both tokens were issued, Login returns the
// issued pair together with an error wrapping ErrPersistDegraded: the
// credentials were valid and callers should report a degraded success
// rather than roll back the login.
func (s *Service) Login(ctx context.Context, now time.Time, id Identity) (Issued, error) {
	access, err := s.codec.IssueAccess(id, now)
	if err != nil {
		return Issued{}, err
	}
	refresh, err := s.codec.IssueRefresh(id, now)
	if err != nil {
		return Issued{}, err
	}

	refreshTTL := s.cfg.RefreshTTLFor(id.RememberMe)
	issued := Issued{
		Identity:     id,
		AccessToken:  access,
		AccessTTL:    s.cfg.AccessTTL,
		RefreshToken: refresh,
		RefreshTTL:   refreshTTL,
	}

	if err := s.store.Save(ctx, now, id.UserID, refresh, now.Add(refreshTTL)); err != nil {
		s.log.Warn("session.login.persist.fail", "user_id", id.UserID, "err", err)
		return issued, fmt.Errorf("%w: %v", ErrPersistDegraded, err)
	}

	s.log.Info("session.login", "user_id", id.UserID, "remember_me", id.RememberMe)
	return issued, nil
}

// Refresh verifies a presented refresh token and issues a new access token.
//
// The persisted row is authoritative over the token-embedded expiry: when
// the stored ExpiresAt has passed, the row is deleted and Refresh fails with
// ErrTokenExpired even if the signature would still parse.
func (s *Service) Refresh(ctx context.Context, now time.Time, presented string) (Issued, error) {
	if presented == "" {
		return Issued{}, ErrTokenMissing
	}

	id, err := s.codec.Verify(presented, KindRefresh)
	if err != nil {
		return Issued{}, err
	}

	row, err := s.store.FindByPlaintext(ctx, presented)
	if err != nil {
		return Issued{}, err
	}

	if !row.ExpiresAt.After(now) {
		if delErr := s.store.DeleteByUser(ctx, row.UserID); delErr != nil {
			s.log.Warn("session.refresh.expire_cleanup.fail", "user_id", row.UserID, "err", delErr)
		}
		return Issued{}, ErrTokenExpired
	}

	access, err := s.codec.IssueAccess(id, now)
	if err != nil {
		return Issued{}, err
	}

	s.log.Info("session.refresh", "user_id", id.UserID)
	return Issued{
		Identity:    id,
		AccessToken: access,
		AccessTTL:   s.cfg.AccessTTL,
	}, nil
}

// Logout revokes the persisted refresh row: by value when a token was
// presented, else by user id as a fallback for requests that carried no
// valid token. Logout is best-effort and never fails the caller-visible
// operation; callers clear transport cookies regardless.
func (s *Service) Logout(ctx context.Context, presented, fallbackUserID string) {
	switch {
	case presented != "":
		if err := s.store.DeleteByValue(ctx, presented); err != nil {
			s.log.Warn("session.logout.delete_by_value.fail", "err", err)
			return
		}
	case fallbackUserID != "":
		if err := s.store.DeleteByUser(ctx, fallbackUserID); err != nil {
			s.log.Warn("session.logout.delete_by_user.fail", "user_id", fallbackUserID, "err", err)
			return
		}
	default:
		return
	}
	s.log.Info("session.logout")
}

// SweepExpired removes every refresh row past its expiry. It is run
// periodically by the app runtime.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("session.sweep_expired", "removed", n)
	}
	return n, nil
}

// Authorize verifies a presented access token and returns the resolved
// identity. It is stateless and never touches the Store. The error
// distinguishes ErrTokenExpired from ErrTokenInvalid so callers can decide
// to attempt a refresh versus reject outright; an empty token yields
// ErrTokenMissing.
func (s *Service) Authorize(presented string) (Identity, error) {
	if presented == "" {
		return Identity{}, ErrTokenMissing
	}
	id, err := s.codec.Verify(presented, KindAccess)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	return id, nil
}
