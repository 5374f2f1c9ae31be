package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/HeoSeonJin0504/qureka-server/internal/auth/reglock"
	"github.com/HeoSeonJin0504/qureka-server/internal/auth/session"
	"github.com/HeoSeonJin0504/qureka-server/internal/identity"
)

// Handler serves the auth HTTP surface.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	users    identity.Store
	sessions *session.Service
	lock     reglock.Locker
	metrics  *Metrics

	now func() time.Time

	// dummyHash is verified against when a login name does not resolve, so
	// the response time does not leak which logins exist.
	dummyHash string
}

// NewHandler constructs the auth handler. metrics may be nil in tests.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, sessions *session.Service, lock reglock.Locker, metrics *Metrics) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if lock == nil {
		lock = reglock.New(cfg.LockWindow)
	}
	return &Handler{
		log:       log,
		cfg:       cfg,
		users:     users,
		sessions:  sessions,
		lock:      lock,
		metrics:   metrics,
		now:       time.Now,
		dummyHash: identity.DummyHash(),
	}
}

// Register mounts the auth routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.Handle("GET /auth/verify", h.RequireAuth(http.HandlerFunc(h.handleVerify)))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_input", msg)
		return
	}

	// One in-flight registration per normalized login. A concurrent attempt
	// for the same name gets a transient 429, not a 409: nothing is taken
	// yet, the client may simply retry.
	key := identity.NormalizeLogin(req.UserID)
	if !h.lock.Acquire(key) {
		h.metrics.register("locked")
		writeError(w, http.StatusTooManyRequests, "registration_in_flight", "a registration for this userid is already in progress")
		return
	}
	defer h.lock.Release(key)

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		if identity.IsInvalidInput(err) {
			writeError(w, http.StatusBadRequest, "invalid_input", "password must be 8-72 bytes")
			return
		}
		h.log.Error("auth.register.hash.fail", "err", err)
		h.metrics.register("error")
		writeError(w, http.StatusInternalServerError, "internal", "registration failed")
		return
	}

	u, err := h.users.CreateUser(r.Context(), identity.CreateUserInput{
		LoginName:    req.UserID,
		DisplayName:  req.Name,
		PasswordHash: hash,
		Now:          h.now().UTC(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			h.metrics.register("conflict")
			writeError(w, http.StatusConflict, "userid_taken", "userid is already registered")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_input", "invalid registration input")
		default:
			h.log.Error("auth.register.create.fail", "err", err)
			h.metrics.register("error")
			writeError(w, http.StatusInternalServerError, "internal", "registration failed")
		}
		return
	}

	h.log.Info("auth.register", "user_id", u.ID)
	h.metrics.register("ok")
	writeJSON(w, http.StatusCreated, registerResponse{User: userFromRecord(u)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_input", msg)
		return
	}

	u, err := h.users.GetByLogin(r.Context(), req.UserID)
	if err != nil && !identity.IsNotFound(err) {
		h.log.Error("auth.login.lookup.fail", "err", err)
		h.metrics.login("error")
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	hash := u.PasswordHash
	if identity.IsNotFound(err) {
		hash = h.dummyHash
	}
	ok, verr := identity.VerifyPassword(req.Password, hash)
	if verr != nil {
		h.log.Error("auth.login.verify.fail", "err", verr)
		h.metrics.login("error")
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}
	if !ok || identity.IsNotFound(err) {
		h.metrics.login("rejected")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "userid or password is incorrect")
		return
	}

	issued, err := h.sessions.Login(r.Context(), h.now().UTC(), session.Identity{
		UserID:      u.ID,
		LoginName:   u.LoginName,
		DisplayName: u.DisplayName,
		RememberMe:  req.RememberMe,
	})
	if err != nil && !errors.Is(err, session.ErrPersistDegraded) {
		h.log.Error("auth.login.issue.fail", "err", err)
		h.metrics.login("error")
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	resp := loginResponse{
		User:         userFromIdentity(issued.Identity),
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
		RememberMe:   req.RememberMe,
	}
	if errors.Is(err, session.ErrPersistDegraded) {
		// Credentials were valid; the session just won't survive the access
		// TTL. Report a degraded success rather than failing the login.
		resp.Warning = "session_not_persisted"
		h.metrics.login("degraded")
	} else {
		h.metrics.login("ok")
	}

	h.setSessionCookies(w, issued.AccessToken, issued.RefreshToken, issued.AccessTTL, issued.RefreshTTL, req.RememberMe)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = decodeJSON(w, r, h.cfg.MaxBodyBytes, &req) // body is optional here

	token := tokenFromRequest(r, req.RefreshToken, h.cfg.RefreshCookieName)

	issued, err := h.sessions.Refresh(r.Context(), h.now().UTC(), token)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenMissing):
			h.metrics.refresh("rejected")
			writeError(w, http.StatusUnauthorized, "token_missing", "refresh token required")
		case errors.Is(err, session.ErrTokenExpired):
			h.metrics.refresh("rejected")
			writeExpired(w)
		case errors.Is(err, session.ErrTokenInvalid), errors.Is(err, session.ErrRowNotFound):
			// A verified signature without a live row means the session was
			// revoked or replaced by a later login.
			h.metrics.refresh("rejected")
			writeError(w, http.StatusUnauthorized, "session_not_active", "refresh token is not active")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			h.metrics.refresh("error")
			writeError(w, http.StatusInternalServerError, "internal", "refresh failed")
		}
		return
	}

	h.metrics.refresh("ok")
	h.setAccessCookie(w, issued.AccessToken, issued.AccessTTL)
	writeJSON(w, http.StatusOK, refreshResponse{
		User:        userFromIdentity(issued.Identity),
		AccessToken: issued.AccessToken,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	_ = decodeJSON(w, r, h.cfg.MaxBodyBytes, &req) // body is optional here

	token := tokenFromRequest(r, req.RefreshToken, h.cfg.RefreshCookieName)

	// The body's userid is a login name; the session store keys on the
	// internal id, so resolve it before using the fallback path.
	var fallbackID string
	if token == "" && req.UserID != "" {
		if u, err := h.users.GetByLogin(r.Context(), req.UserID); err == nil {
			fallbackID = u.ID
		}
	}

	// Best-effort revoke: logout always succeeds from the client's point of
	// view, and the cookies are cleared regardless.
	h.sessions.Logout(r.Context(), token, fallbackID)
	h.metrics.logout()

	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "token_missing", "access token required")
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{User: userFromIdentity(id)})
}
