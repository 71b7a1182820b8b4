package repository

import (
	"time"

	"github.com/okian/scoutsync/pkg/logger"
)

// Option configures a SQLiteStore or LocalStore.
type Option func(*storeConfig)

type storeConfig struct {
	now                   func() time.Time
	log                   logger.Logger
	metricsUpdateInterval time.Duration
}

func defaultConfig() storeConfig {
	return storeConfig{
		now:                   time.Now,
		log:                   logger.GetOrNop(),
		metricsUpdateInterval: 5 * time.Second,
	}
}

// WithClock sets the time source used to stamp records that arrive without
// a timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background record-count
// metrics.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(c *storeConfig) {
		if interval > 0 {
			c.metricsUpdateInterval = interval
		}
	}
}
