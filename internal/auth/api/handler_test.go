package authapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/HeoSeonJin0504/qureka-server/internal/auth/reglock"
	"github.com/HeoSeonJin0504/qureka-server/internal/auth/session"
	"github.com/HeoSeonJin0504/qureka-server/internal/identity"
)

type testEnv struct {
	mux   *http.ServeMux
	lock  *reglock.Lock
	codec *session.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sessCfg := session.DefaultConfig()
	sessCfg.AccessSecret = []byte("access-secret-for-tests")
	sessCfg.RefreshSecret = []byte("refresh-secret-for-tests")
	sessCfg.BcryptCost = bcrypt.MinCost

	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	sessions := session.NewService(nil, sessCfg, codec, session.NewInMemoryStore(bcrypt.MinCost))

	cfg := Config{
		MaxBodyBytes:         1 << 20,
		AccessCookieName:     "access_token",
		RefreshCookieName:    "refresh_token",
		RememberCookieName:   "remember_me",
		CookiePath:           "/",
		LockWindow:           time.Minute,
		AccessCookieSameSite: http.SameSiteStrictMode,
	}
	lock := reglock.New(cfg.LockWindow)
	h := NewHandler(nil, cfg, identity.NewInMemoryStore(), sessions, lock, nil)

	mux := http.NewServeMux()
	h.Register(mux)

	return &testEnv{mux: mux, lock: lock, codec: codec}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, mod func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mod != nil {
		mod(req)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, userid, password, name string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", map[string]any{
		"userid": userid, "password": password, "name": name,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
}

func (e *testEnv) login(t *testing.T, userid, password string, rememberMe bool) (loginResponse, *httptest.ResponseRecorder) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", map[string]any{
		"userid": userid, "password": password, "rememberMe": rememberMe,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp, rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "hong", "secret-password", "홍길동")

	// A duplicate (case-insensitively) is a hard conflict.
	rec := e.do(t, http.MethodPost, "/auth/register", map[string]any{
		"userid": "HONG", "password": "secret-password", "name": "다른사람",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/auth/register", map[string]any{
		"userid": "kim", "password": "short", "name": "김철수",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: status %d", rec.Code)
	}
}

func TestRegister_InFlightLockYields429(t *testing.T) {
	e := newTestEnv(t)

	// Simulate another request holding the key.
	if !e.lock.Acquire("hong") {
		t.Fatalf("test setup: could not take the lock")
	}
	defer e.lock.Release("hong")

	rec := e.do(t, http.MethodPost, "/auth/register", map[string]any{
		"userid": "Hong", "password": "secret-password", "name": "홍길동",
	}, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("locked register: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")

	resp, rec := e.login(t, "hong", "secret-password", false)
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected both tokens in the body")
	}
	if resp.User.UserID != "hong" || resp.User.Name != "홍길동" {
		t.Fatalf("user payload: %+v", resp.User)
	}
	if resp.Warning != "" {
		t.Fatalf("unexpected warning %q", resp.Warning)
	}

	access := findCookie(t, rec, "access_token")
	if !access.HttpOnly || access.MaxAge != int(time.Hour/time.Second) {
		t.Fatalf("access cookie: HttpOnly=%v MaxAge=%d", access.HttpOnly, access.MaxAge)
	}
	if access.SameSite != http.SameSiteStrictMode {
		t.Fatalf("access cookie SameSite: got %v", access.SameSite)
	}
	refresh := findCookie(t, rec, "refresh_token")
	if !refresh.HttpOnly || refresh.MaxAge != int(7*24*time.Hour/time.Second) {
		t.Fatalf("refresh cookie: HttpOnly=%v MaxAge=%d", refresh.HttpOnly, refresh.MaxAge)
	}
	remember := findCookie(t, rec, "remember_me")
	if remember.HttpOnly || remember.Value != "false" {
		t.Fatalf("remember cookie: HttpOnly=%v Value=%q", remember.HttpOnly, remember.Value)
	}
}

func TestLogin_RememberMeExtendsCookies(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")

	_, rec := e.login(t, "hong", "secret-password", true)

	refresh := findCookie(t, rec, "refresh_token")
	if refresh.MaxAge != int(30*24*time.Hour/time.Second) {
		t.Fatalf("remembered refresh cookie MaxAge=%d", refresh.MaxAge)
	}
	remember := findCookie(t, rec, "remember_me")
	if remember.Value != "true" {
		t.Fatalf("remember cookie value=%q", remember.Value)
	}
}

func TestLogin_Rejections(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")

	// Wrong password and unknown user are indistinguishable to the client.
	for _, body := range []map[string]any{
		{"userid": "hong", "password": "wrong-password"},
		{"userid": "nobody", "password": "secret-password"},
	} {
		rec := e.do(t, http.MethodPost, "/auth/login", body, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login %v: status %d", body, rec.Code)
		}
	}
}

func TestRefresh(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")
	resp, _ := e.login(t, "hong", "secret-password", false)

	// Via cookie.
	rec := e.do(t, http.MethodPost, "/auth/refresh", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refresh_token", Value: resp.RefreshToken})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh via cookie: status %d body %s", rec.Code, rec.Body.String())
	}
	var rr refreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &rr); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if rr.AccessToken == "" {
		t.Fatalf("expected a new access token")
	}
	findCookie(t, rec, "access_token")

	// Via body.
	rec = e.do(t, http.MethodPost, "/auth/refresh", map[string]any{"refreshToken": resp.RefreshToken}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh via body: status %d body %s", rec.Code, rec.Body.String())
	}

	// Missing and garbage tokens are both 401-class.
	rec = e.do(t, http.MethodPost, "/auth/refresh", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh without token: status %d", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/auth/refresh", map[string]any{"refreshToken": "garbage"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with garbage: status %d", rec.Code)
	}
}

func TestRefresh_RevokedSession(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")
	first, _ := e.login(t, "hong", "secret-password", false)
	_, _ = e.login(t, "hong", "secret-password", false) // replaces the row

	rec := e.do(t, http.MethodPost, "/auth/refresh", map[string]any{"refreshToken": first.RefreshToken}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with replaced token: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestVerify(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")
	resp, _ := e.login(t, "hong", "secret-password", false)

	// Bearer header wins.
	rec := e.do(t, http.MethodGet, "/auth/verify", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d body %s", rec.Code, rec.Body.String())
	}
	var vr verifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &vr); err != nil {
		t.Fatalf("decode verify response: %v", err)
	}
	if vr.User.UserID != "hong" {
		t.Fatalf("verify user: %+v", vr.User)
	}

	// Cookie works too.
	rec = e.do(t, http.MethodGet, "/auth/verify", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: resp.AccessToken})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify via cookie: status %d", rec.Code)
	}
}

func TestVerify_FailureClasses(t *testing.T) {
	e := newTestEnv(t)

	// Absent token: bare 401 without the expired flag.
	rec := e.do(t, http.MethodGet, "/auth/verify", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d", rec.Code)
	}
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Error.Expired {
		t.Fatalf("missing token must not set expired")
	}

	// Expired but well-signed: 401 with expired=true.
	stale, err := e.codec.IssueAccess(session.Identity{UserID: "u1", LoginName: "hong"}, time.Now().UTC().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	rec = e.do(t, http.MethodGet, "/auth/verify", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+stale)
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: status %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if !er.Error.Expired {
		t.Fatalf("expired token must set expired=true, body %s", rec.Body.String())
	}

	// Anything else wrong with the token: 403.
	rec = e.do(t, http.MethodGet, "/auth/verify", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("invalid token: status %d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")
	resp, _ := e.login(t, "hong", "secret-password", false)

	rec := e.do(t, http.MethodPost, "/auth/logout", map[string]any{"refreshToken": resp.RefreshToken}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d body %s", rec.Code, rec.Body.String())
	}
	for _, name := range []string{"access_token", "refresh_token", "remember_me"} {
		c := findCookie(t, rec, name)
		if c.MaxAge != -1 {
			t.Fatalf("cookie %q not cleared: MaxAge=%d", name, c.MaxAge)
		}
	}

	// The revoked token can no longer refresh.
	rec = e.do(t, http.MethodPost, "/auth/refresh", map[string]any{"refreshToken": resp.RefreshToken}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: status %d", rec.Code)
	}

	// Logging out again, or with nothing at all, still succeeds.
	rec = e.do(t, http.MethodPost, "/auth/logout", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty logout: status %d", rec.Code)
	}
}

func TestLogout_UserIDFallback(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "hong", "secret-password", "홍길동")
	resp, _ := e.login(t, "hong", "secret-password", false)

	rec := e.do(t, http.MethodPost, "/auth/logout", map[string]any{"userid": "hong"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback logout: status %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/auth/refresh", map[string]any{"refreshToken": resp.RefreshToken}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after fallback logout: status %d", rec.Code)
	}
}
