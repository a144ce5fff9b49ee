// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Export   ExportConfig
	Redis    RedisConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, exports stream)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m).
	// Immediate imports run inside the request, so this bounds them too.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies the embedded schema on startup (default: true)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// ImportConfig holds tabular import settings.
type ImportConfig struct {
	// SyncThreshold is the largest payload (bytes) processed inside the request.
	// Anything larger is queued for a background worker (default: 1 MiB).
	SyncThreshold int64 `env:"IMPORT_SYNC_THRESHOLD" default:"1048576"`

	// MaxFileSize is the maximum accepted upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"52428800"`

	// Fields is the ordered list of column identifiers read on import.
	Fields []string `env:"IMPORT_FIELDS" default:"name,category,supplier,description"`

	// MaxConcurrent is the maximum number of immediate imports running at once (default: 5)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long an immediate import waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Workers is the number of background workers for deferred imports (default: 2)
	Workers int `env:"IMPORT_WORKERS" default:"2"`

	// QueueSize is how many deferred imports may wait for a worker (default: 32)
	QueueSize int `env:"IMPORT_QUEUE_SIZE" default:"32"`

	// RowConcurrency is how many rows of one batch are processed in parallel (default: 1)
	RowConcurrency int `env:"IMPORT_ROW_CONCURRENCY" default:"1"`

	// JobRetention is how long finished jobs remain queryable (default: 24h)
	JobRetention time.Duration `env:"IMPORT_JOB_RETENTION" default:"24h"`

	// SweepInterval is how often finished jobs are swept (default: 10m)
	SweepInterval time.Duration `env:"IMPORT_SWEEP_INTERVAL" default:"10m"`
}

// ExportConfig holds tabular export settings.
type ExportConfig struct {
	// Fields is the default ordered list of columns when a request names none.
	Fields []string `env:"EXPORT_FIELDS" default:"name,category,supplier,description"`

	// Placeholder is written when a related entity or timestamp is absent (default: N/A)
	Placeholder string `env:"EXPORT_PLACEHOLDER" default:"N/A"`

	// TimeFormat is the Go layout used for timestamp columns.
	TimeFormat string `env:"EXPORT_TIME_FORMAT" default:"2006-01-02 15:04:05"`

	// Format is the default download format: xlsx or csv (default: xlsx)
	Format string `env:"EXPORT_FORMAT" default:"xlsx"`
}

// RedisConfig holds settings for the optional Redis job-status store.
// When Addr is empty, job status is kept in process memory.
type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" default:"0"`
	KeyPrefix string        `env:"REDIS_KEY_PREFIX" default:"materials:import-job:"`
	JobTTL    time.Duration `env:"REDIS_JOB_TTL" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for the import endpoint (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
