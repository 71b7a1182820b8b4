package api

import (
	"time"

	"github.com/okian/scoutsync/pkg/logger"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 5 << 20

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	now          func() time.Time
	log          logger.Logger
	corsOrigins  []string
	maxBodyBytes int64
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		now:          time.Now,
		log:          logger.GetOrNop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
}

// WithClock sets the time source for health timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *serverConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCORSOrigins restricts browser origins. Empty allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(c *serverConfig) {
		c.corsOrigins = origins
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}
