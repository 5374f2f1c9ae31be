package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	// SweepInterval is how often expired refresh rows and stale registration
	// locks are reaped.
	SweepInterval time.Duration

	MetricsEnabled bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("QUREKA_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("QUREKA_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("QUREKA_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("QUREKA_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("QUREKA_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("QUREKA_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("QUREKA_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("QUREKA_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("QUREKA_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("QUREKA_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("QUREKA_READINESS_REQUIRE_DB", false),

		SweepInterval: EnvDuration("QUREKA_SWEEP_INTERVAL", time.Minute),

		MetricsEnabled: EnvBool("QUREKA_METRICS_ENABLED", true),
	}
}
