// Package config defines process configuration for the scout server and
// field client, and loads it from defaults, an optional YAML file and env.
package config

import (
	"time"
)

// Config contains process configuration shared by scoutd and scout.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text, json or auto.
	LogFormat string `koanf:"log_format"`
	// LogFile, when set, mirrors logs into a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address of scoutd, e.g. ":3001".
	Addr string `koanf:"addr"`
	// DBPath is the server SQLite database file.
	DBPath string `koanf:"db_path"`
	// CORSOrigins lists allowed browser origins; empty allows any.
	CORSOrigins []string `koanf:"cors_origins"`
	// MaxBodyBytes caps request bodies on write endpoints.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	// MetricsLabels are constant labels on every exported series, e.g.
	// event=2026mil. From env they are written as k=v pairs, comma separated.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// LocalDBPath is the client's SQLite file holding cache, outbox and settings.
	LocalDBPath string `koanf:"local_db_path"`
	// ServerURL is the API base the client talks to, including the /api prefix.
	ServerURL string `koanf:"server_url"`
	// PollIntervalMS is the fixed delay between sync cycles.
	PollIntervalMS int `koanf:"poll_interval_ms"`
	// HealthTimeoutMS bounds the reachability probe.
	HealthTimeoutMS int `koanf:"health_timeout_ms"`
	// RequestTimeoutMS bounds every other client request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
	// QRMaxBytes caps a single share-all QR payload before it is split.
	QRMaxBytes int `koanf:"qr_max_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "auto",
		Addr:             ":3001",
		DBPath:           "data/scout.db",
		MaxBodyBytes:     5 << 20,
		LocalDBPath:      "data/scout-local.db",
		ServerURL:        "http://localhost:3001/api",
		PollIntervalMS:   5000,
		HealthTimeoutMS:  2000,
		RequestTimeoutMS: 10000,
		QRMaxBytes:       2900,
	}
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// HealthTimeout returns HealthTimeoutMS as a duration.
func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
