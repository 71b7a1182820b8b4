package queue

import (
	"time"

	"github.com/okian/scoutsync/pkg/logger"
)

// Option applies a configuration option to the Outbox.
type Option func(*Outbox)

// WithClock sets the time source stamping new entries.
func WithClock(now func() time.Time) Option {
	return func(q *Outbox) {
		if now != nil {
			q.now = now
		}
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l logger.Logger) Option {
	return func(q *Outbox) {
		if l != nil {
			q.log = l
		}
	}
}
