// Package service is the field client: it owns the local cache, the durable
// outbox and the sync engine, and exposes the operations a scout performs.
//
// Saves are optimistic. The record lands in the cache first, then one direct
// attempt is made to reach the server. If that attempt fails the write goes to
// the outbox and the sync loop delivers it later.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/scoutsync/internal/adapters/http/client"
	"github.com/okian/scoutsync/internal/adapters/mq/queue"
	"github.com/okian/scoutsync/internal/app/state"
	"github.com/okian/scoutsync/internal/app/syncer"
	"github.com/okian/scoutsync/internal/domain/codec"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/okian/scoutsync/pkg/metrics"
)

// LocalStore is the device database: cache, outbox and settings.
type LocalStore interface {
	state.CacheStore
	queue.Backend
	DeviceID(ctx context.Context) (string, error)
}

// Remote is the server as seen by the client.
type Remote interface {
	syncer.Remote
	SavePit(ctx context.Context, rec model.PitRecord) error
	SaveMatch(ctx context.Context, rec model.MatchRecord) error
}

// Status is what the client knows about its connection to the server.
type Status struct {
	DeviceID    string
	Connected   bool
	Running     bool
	Pending     int
	LastRefresh time.Time
}

// Service implements the client operations.
type Service struct {
	mu      sync.Mutex
	started bool
	closed  bool

	remote   Remote
	cache    *state.Cache
	outbox   *queue.Outbox
	engine   *syncer.Engine
	deviceID string

	now           func() time.Time
	logger        logger.Logger
	pollInterval  time.Duration
	healthTimeout time.Duration
	qrMaxBytes    int
	dedupeSize    int
	syncOpts      []syncer.Option
}

// Open loads the persisted cache and outbox from store and wires the sync
// engine to remote. The caller keeps ownership of store.
func Open(ctx context.Context, store LocalStore, remote Remote, opts ...Option) (*Service, error) {
	s := &Service{remote: remote}
	defaults(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.GetOrNop().Named("service")
	}

	id, err := store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("device id: %w", err)
	}
	s.deviceID = id

	s.cache, err = state.Open(ctx, store)
	if err != nil {
		return nil, err
	}
	s.outbox, err = queue.NewOutbox(ctx, store, queue.WithClock(s.now), queue.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	engineOpts := append([]syncer.Option{
		syncer.WithPollInterval(s.pollInterval),
		syncer.WithHealthTimeout(s.healthTimeout),
		syncer.WithLogger(s.logger),
	}, s.syncOpts...)
	s.engine = syncer.New(remote, s.outbox, s.cache, engineOpts...)

	s.logger.Info(ctx, "client service opened",
		logger.String("device_id", id),
		logger.Int("pending", s.outbox.Len(ctx)),
		logger.Duration("poll_interval", s.pollInterval))
	return s, nil
}

// SavePit stamps rec, applies it locally and publishes it. Network failures
// are absorbed by the outbox; the returned error is local only.
func (s *Service) SavePit(ctx context.Context, rec model.PitRecord) (model.PitRecord, error) {
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	rec.Touch(s.now())

	if _, err := s.cache.PutPit(ctx, rec); err != nil {
		return rec, err
	}
	return rec, s.publish(ctx, model.PitItem(rec), func(ctx context.Context) error {
		return s.remote.SavePit(ctx, rec)
	})
}

// SaveMatch assigns an id when rec has none, stamps it and publishes it the
// same way as SavePit.
func (s *Service) SaveMatch(ctx context.Context, rec model.MatchRecord) (model.MatchRecord, error) {
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	rec.Timestamp = model.Millis(s.now())

	if _, err := s.cache.PutMatch(ctx, rec); err != nil {
		return rec, err
	}
	return rec, s.publishMatch(ctx, rec)
}

func (s *Service) publishMatch(ctx context.Context, rec model.MatchRecord) error {
	return s.publish(ctx, model.MatchItem(rec), func(ctx context.Context) error {
		return s.remote.SaveMatch(ctx, rec)
	})
}

// publish tries send once and falls back to the outbox. A 4xx answer is not
// queued: the server would refuse the item again and block the batch.
func (s *Service) publish(ctx context.Context, item model.SyncItem, send func(context.Context) error) error {
	err := send(ctx)
	if err == nil {
		return nil
	}
	var se *client.StatusError
	if errors.As(err, &se) && se.Code >= http.StatusBadRequest && se.Code < http.StatusInternalServerError {
		metrics.RecordErrorByComponent("service", "rejected")
		return fmt.Errorf("server rejected %s: %w", item.Kind, err)
	}

	s.logger.Debug(ctx, "direct save failed, queued", logger.String("kind", string(item.Kind)), logger.Error(err))
	if err := s.outbox.Enqueue(ctx, item); err != nil {
		return err
	}
	return nil
}

// Enqueue appends item to the outbox without a direct attempt. Items the
// server would refuse are rejected here: one of them would fail every batch.
func (s *Service) Enqueue(ctx context.Context, item model.SyncItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return s.outbox.Enqueue(ctx, item)
}

// ShareAll returns the held matches as bulk QR payloads, each within the
// configured byte budget.
func (s *Service) ShareAll() []string {
	return codec.ChunkBulk(s.cache.Matches(), s.qrMaxBytes)
}

// ResetLocal drops the cached records and every pending write.
func (s *Service) ResetLocal(ctx context.Context) error {
	if err := s.outbox.Clear(ctx); err != nil {
		return err
	}
	return s.cache.Reset(ctx)
}

// Start launches the background sync loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.started {
		return nil
	}
	if err := s.engine.Start(ctx); err != nil {
		return err
	}
	s.started = true
	s.logger.Info(ctx, "sync loop started", logger.String("device_id", s.deviceID))
	return nil
}

// Stop halts the sync loop and waits for an in-flight cycle.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.engine.Stop()
	s.started = false
}

// SyncOnce runs one cycle in the caller's goroutine.
func (s *Service) SyncOnce(ctx context.Context) syncer.CycleResult {
	return s.engine.RunOnce(ctx)
}

// Status reports connectivity, the outbox length and the last refresh.
func (s *Service) Status(ctx context.Context) Status {
	es := s.engine.Status()
	return Status{
		DeviceID:    s.deviceID,
		Connected:   es.Connected,
		Running:     es.Running,
		Pending:     s.outbox.Len(ctx),
		LastRefresh: es.LastRefresh,
	}
}

// Pending returns the queued writes, oldest first.
func (s *Service) Pending(ctx context.Context) []queue.Entry {
	return s.outbox.PeekAll(ctx)
}

// DeviceID returns the id sent with every write.
func (s *Service) DeviceID() string { return s.deviceID }

// Cache exposes the read side of the local records.
func (s *Service) Cache() *state.Cache { return s.cache }

// Close stops the loop and closes the cache and outbox. The store passed to
// Open stays open.
func (s *Service) Close() error {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.outbox.Close(), s.cache.Close())
}
