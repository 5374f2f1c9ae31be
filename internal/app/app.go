// Package app wires the Qureka server runtime: config, logging, persistence,
// HTTP routes, and the periodic sweepers.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	authapi "github.com/HeoSeonJin0504/qureka-server/internal/auth/api"
	"github.com/HeoSeonJin0504/qureka-server/internal/auth/reglock"
	"github.com/HeoSeonJin0504/qureka-server/internal/auth/session"
	"github.com/HeoSeonJin0504/qureka-server/internal/identity"
	"github.com/HeoSeonJin0504/qureka-server/internal/records"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// App is the Qureka server runtime.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	sessions *session.Service
	lock     *reglock.Lock

	auth    *authapi.Handler
	records *records.Handler

	metrics *HTTPMetrics
	sweeper *cron.Cron
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		return nil, err
	}

	st, dbPool, dbEnabled, stores, err := newStores(context.Background(), cfg, sessCfg, log)
	if err != nil {
		return nil, err
	}

	sessions := session.NewService(log, sessCfg, codec, stores.sessions)

	authCfg := authapi.LoadConfigFromEnv()
	lock := reglock.New(authCfg.LockWindow)

	var httpMetrics *HTTPMetrics
	var authMetrics *authapi.Metrics
	if cfg.MetricsEnabled {
		httpMetrics = NewHTTPMetrics()
		authMetrics = authapi.NewMetrics(httpMetrics.Registry())
	}

	auth := authapi.NewHandler(log, authCfg, stores.users, sessions, lock, authMetrics)
	recs := records.NewHandler(log, stores.records, authCfg.MaxBodyBytes)

	sweeper, err := newSweeper(log, cfg.SweepInterval, sessions, lock)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		sessions:  sessions,
		lock:      lock,
		auth:      auth,
		records:   recs,
		metrics:   httpMetrics,
		sweeper:   sweeper,
	}, nil
}

// Run starts the HTTP server and the sweepers, and blocks until context
// cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.records, a.metrics)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log, a.metrics),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.sweeper.Start()
	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		<-a.sweeper.Stop().Done()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-a.sweeper.Stop().Done()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// stores groups the persistence boundaries the handlers consume.
type stores struct {
	users    identity.Store
	sessions session.Store
	records  records.Store
}

// newStores decides between Postgres-backed persistence and the in-memory
// dev stores.
func newStores(ctx context.Context, cfg Config, sessCfg session.Config, log Logger) (Store, *pgxpool.Pool, bool, stores, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return nopStore{}, nil, false, stores{
			users:    identity.NewInMemoryStore(),
			sessions: session.NewInMemoryStore(sessCfg.BcryptCost),
			records:  records.NewInMemoryStore(),
		}, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, stores{}, err
	}

	log.Info("db.enabled.postgres_store")

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, stores{}, err
	}
	recs, err := records.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, stores{}, err
	}

	return dbStore{pool: pool}, pool, true, stores{
		users:    users,
		sessions: session.NewPostgresStore(pool, sessCfg.BcryptCost),
		records:  recs,
	}, nil
}
