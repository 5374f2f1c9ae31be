package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *InMemoryStore) {
	t.Helper()

	cfg := testConfig()
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	st := NewInMemoryStore(bcrypt.MinCost)
	return NewService(nil, cfg, codec, st), st
}

func TestService_LoginRefreshLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	id := testIdentity()

	issued, err := svc.Login(ctx, now, id)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if issued.AccessToken == "" || issued.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if issued.RefreshTTL != testConfig().RefreshTTLRemember {
		t.Fatalf("rememberMe should extend refresh TTL: got %v", issued.RefreshTTL)
	}

	got, err := svc.Authorize(issued.AccessToken)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if got != id {
		t.Fatalf("identity mismatch: got %+v", got)
	}

	refreshed, err := svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatalf("expected a new access token")
	}
	if refreshed.RefreshToken != "" {
		t.Fatalf("refresh must not rotate the refresh token")
	}

	svc.Logout(ctx, issued.RefreshToken, "")
	if _, err := svc.Refresh(ctx, now.Add(2*time.Minute), issued.RefreshToken); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound after logout, got %v", err)
	}
}

func TestService_SecondLoginInvalidatesFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	id := testIdentity()

	first, err := svc.Login(ctx, now, id)
	if err != nil {
		t.Fatalf("Login first: %v", err)
	}
	second, err := svc.Login(ctx, now.Add(time.Second), id)
	if err != nil {
		t.Fatalf("Login second: %v", err)
	}

	if _, err := svc.Refresh(ctx, now.Add(time.Minute), first.RefreshToken); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("first session should be dead, got %v", err)
	}
	if _, err := svc.Refresh(ctx, now.Add(time.Minute), second.RefreshToken); err != nil {
		t.Fatalf("second session should refresh: %v", err)
	}
}

func TestService_PersistedExpiryIsAuthoritative(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	id := testIdentity()

	issued, err := svc.Login(ctx, now, id)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Overwrite the row with an already-passed expiry while the token's own
	// embedded expiry remains far in the future.
	if err := st.Save(ctx, now, id.UserID, issued.RefreshToken, now.Add(-time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := svc.Refresh(ctx, now, issued.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	// The dead row is removed as a side effect.
	if _, err := st.FindByPlaintext(ctx, issued.RefreshToken); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("expired row should be deleted, got %v", err)
	}
}

// failingStore rejects every write to exercise the degraded-login path.
type failingStore struct {
	Store
}

func (failingStore) Save(context.Context, time.Time, string, string, time.Time) error {
	return StoreError{Op: "session.Save", Err: errors.New("connection refused")}
}

func TestService_LoginDegradedOnPersistFailure(t *testing.T) {
	cfg := testConfig()
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	svc := NewService(nil, cfg, codec, failingStore{})

	issued, err := svc.Login(context.Background(), time.Now().UTC(), testIdentity())
	if !errors.Is(err, ErrPersistDegraded) {
		t.Fatalf("expected ErrPersistDegraded, got %v", err)
	}
	// Degraded, not failed: the issued pair still comes back.
	if issued.AccessToken == "" || issued.RefreshToken == "" {
		t.Fatalf("degraded login must still return the issued tokens")
	}
}

func TestService_LogoutNeverFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Nothing to revoke: garbage token, unknown user, empty everything.
	svc.Logout(ctx, "not-a-token", "")
	svc.Logout(ctx, "", "no-such-user")
	svc.Logout(ctx, "", "")
}

func TestService_LogoutByUserIDFallback(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	id := testIdentity()

	issued, err := svc.Login(ctx, now, id)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.Logout(ctx, "", id.UserID)
	if _, err := st.FindByPlaintext(ctx, issued.RefreshToken); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("fallback logout should revoke the row, got %v", err)
	}
}

func TestService_Authorize(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Authorize(""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if _, err := svc.Authorize("garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	cfg := testConfig()
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	stale, err := codec.IssueAccess(testIdentity(), time.Now().UTC().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := svc.Authorize(stale); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestService_SweepExpired(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.Save(ctx, now, "user-dead", "token-dead", now.Add(-time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save(ctx, now, "user-live", "token-live", now.Add(time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	n, err := svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept: got %d want 1", n)
	}
}
