package service

import (
	"time"

	"github.com/okian/scoutsync/internal/app/syncer"
	"github.com/okian/scoutsync/internal/domain/codec"
	"github.com/okian/scoutsync/internal/domain/dedupe"
	"github.com/okian/scoutsync/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClock sets the time source used to stamp saved records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPollInterval sets the delay between sync cycles.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithHealthTimeout bounds the reachability probe.
func WithHealthTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.healthTimeout = d
		}
	}
}

// WithQRMaxBytes sets the byte budget of one share-all QR payload.
func WithQRMaxBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.qrMaxBytes = n
		}
	}
}

// WithDedupeSize bounds how many payloads one scan session remembers.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithSyncOptions passes extra options to the sync engine, e.g. an observer
// or an event hook.
func WithSyncOptions(opts ...syncer.Option) Option {
	return func(s *Service) {
		s.syncOpts = append(s.syncOpts, opts...)
	}
}

func defaults(s *Service) {
	s.now = time.Now
	s.pollInterval = syncer.DefaultPollInterval
	s.healthTimeout = syncer.DefaultHealthTimeout
	s.qrMaxBytes = codec.DefaultMaxBytes
	s.dedupeSize = dedupe.DefaultMaxSize
}
