package syncer

import (
	"time"

	"github.com/okian/scoutsync/pkg/logger"
)

// Defaults for a new Engine.
const (
	DefaultPollInterval  = 5 * time.Second
	DefaultHealthTimeout = 2 * time.Second
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock driving the poll wait and timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithPollInterval sets the fixed delay between cycles.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithHealthTimeout bounds the reachability probe.
func WithHealthTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.healthTimeout = d
		}
	}
}

// WithObserver sets the observer notified of connectivity, drains and
// refreshes.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEventHook receives every Event the engine emits.
func WithEventHook(fn func(Event)) Option {
	return func(e *Engine) {
		e.hook = fn
	}
}
