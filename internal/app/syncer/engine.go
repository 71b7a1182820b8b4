// Package syncer runs the client's sync loop: probe the server, push the
// outbox as one batch, then pull the full record set into the cache.
//
// Transient failures never reach the caller. Each one is reported as an Event
// through the hook, the logger and metrics, and the next cycle retries.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/scoutsync/internal/adapters/mq/queue"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/okian/scoutsync/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyRunning is returned by Start while a loop is active.
var ErrAlreadyRunning = errors.New("sync engine already running")

// Remote is the server as seen by the engine.
type Remote interface {
	Health(ctx context.Context) bool
	Sync(ctx context.Context, items []model.SyncItem) (int, error)
	FetchPit(ctx context.Context) (map[int]model.PitRecord, error)
	FetchMatches(ctx context.Context) ([]model.MatchRecord, error)
}

// Outbox is the pending-write queue as seen by the engine.
type Outbox interface {
	PeekAll(ctx context.Context) []queue.Entry
	RemoveThrough(ctx context.Context, seq int64) error
	Len(ctx context.Context) int
}

// Cache receives server snapshots. pending holds the items still in the
// outbox; the cache lays them over the snapshot.
type Cache interface {
	ApplySnapshot(ctx context.Context, pit map[int]model.PitRecord, matches []model.MatchRecord, pending []model.SyncItem) error
}

// CycleResult summarises one cycle.
type CycleResult struct {
	Connected bool
	// Sent is the number of outbox items the server accepted.
	Sent      int
	Remaining int
	Refreshed bool
	Failed    bool
	Duration  time.Duration
}

// Status is a snapshot of what the engine last observed.
type Status struct {
	Connected   bool
	LastRefresh time.Time
	Running     bool
}

// Engine drives sync cycles. Only one cycle runs at a time.
type Engine struct {
	remote Remote
	outbox Outbox
	cache  Cache

	clock         Clock
	pollInterval  time.Duration
	healthTimeout time.Duration
	observer      Observer
	log           logger.Logger
	hook          func(Event)

	cycleMu sync.Mutex

	mu          sync.Mutex
	running     bool
	stop        chan struct{}
	done        chan struct{}
	connected   bool
	lastRefresh time.Time
}

// New creates an Engine. It does nothing until Start or RunOnce.
func New(remote Remote, outbox Outbox, cache Cache, opts ...Option) *Engine {
	e := &Engine{
		remote:        remote,
		outbox:        outbox,
		cache:         cache,
		clock:         realClock{},
		pollInterval:  DefaultPollInterval,
		healthTimeout: DefaultHealthTimeout,
		observer:      ObserverFuncs{},
		log:           logger.GetOrNop().Named("syncer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the loop. The first cycle runs immediately.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrAlreadyRunning
	}
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.run(ctx, e.stop, e.done)
	e.log.Info(ctx, "sync loop started", logger.Duration("interval", e.pollInterval))
	return nil
}

// Stop ends the loop at its next wait and blocks until it has exited. An
// in-flight cycle is allowed to finish. Stop must not be called from an
// Observer or event hook.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	close(e.stop)
	e.running = false
	done := e.done
	e.mu.Unlock()
	<-done
}

// Running reports whether a loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Status returns the last observed connectivity and refresh time.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Connected: e.connected, LastRefresh: e.lastRefresh, Running: e.running}
}

func (e *Engine) run(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		e.mu.Lock()
		if e.done == done {
			e.running = false
		}
		e.mu.Unlock()
		close(done)
	}()

	for {
		e.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-e.clock.After(e.pollInterval):
		}
	}
}

// RunOnce executes one cycle synchronously: probe, drain, refresh.
func (e *Engine) RunOnce(ctx context.Context) CycleResult {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	start := e.clock.Now()
	var res CycleResult

	hctx, cancel := context.WithTimeout(ctx, e.healthTimeout)
	res.Connected = e.remote.Health(hctx)
	cancel()
	e.setConnected(res.Connected)
	e.observer.OnConnectionChange(res.Connected)

	if !res.Connected {
		e.emit(ctx, Event{Kind: EventHealthFailed})
		res.Remaining = e.outbox.Len(ctx)
		return e.finish(ctx, start, res, metrics.OutcomeOffline)
	}

	if err := e.drain(ctx, &res); err != nil {
		res.Failed = true
		e.emit(ctx, Event{Kind: EventSyncFailed, Err: err})
	}
	if err := e.refresh(ctx); err != nil {
		res.Failed = true
		e.emit(ctx, Event{Kind: EventFetchFailed, Err: err})
	} else {
		res.Refreshed = true
	}
	res.Remaining = e.outbox.Len(ctx)

	outcome := metrics.OutcomeOK
	if res.Failed {
		outcome = metrics.OutcomeFailed
	}
	return e.finish(ctx, start, res, outcome)
}

// drain sends the outbox snapshot and removes exactly that snapshot once the
// server accepted it.
func (e *Engine) drain(ctx context.Context, res *CycleResult) error {
	entries := e.outbox.PeekAll(ctx)
	if len(entries) == 0 {
		return nil
	}
	// An item the server refuses fails the whole batch, so it never leaves
	// the device. It is still removed with the snapshot.
	items := make([]model.SyncItem, 0, len(entries))
	for _, entry := range entries {
		if err := entry.Item.Validate(); err != nil {
			e.emit(ctx, Event{Kind: EventDropped, Err: err})
			continue
		}
		items = append(items, entry.Item)
	}
	n := 0
	if len(items) > 0 {
		var err error
		if n, err = e.remote.Sync(ctx, items); err != nil {
			return err
		}
	}
	if err := e.outbox.RemoveThrough(ctx, queue.LastSeq(entries)); err != nil {
		return err
	}
	res.Sent = n
	remaining := e.outbox.Len(ctx)
	e.observer.OnQueueDrained(remaining)
	e.emit(ctx, Event{Kind: EventDrained, Count: n})
	return nil
}

// refresh fetches pit and match data concurrently and hands the snapshot to
// the cache only when both succeed. Writes still waiting in the outbox go
// along so a pending local edit stays visible.
func (e *Engine) refresh(ctx context.Context) error {
	var (
		pit     map[int]model.PitRecord
		matches []model.MatchRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pit, err = e.remote.FetchPit(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = e.remote.FetchMatches(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	pending := queue.Items(e.outbox.PeekAll(ctx))
	if err := e.cache.ApplySnapshot(ctx, pit, matches, pending); err != nil {
		return err
	}
	now := e.clock.Now()
	e.mu.Lock()
	e.lastRefresh = now
	e.mu.Unlock()
	metrics.UpdateLastSuccess(now)
	e.observer.OnDataRefresh()
	e.emit(ctx, Event{Kind: EventRefreshed})
	return nil
}

func (e *Engine) finish(ctx context.Context, start time.Time, res CycleResult, outcome string) CycleResult {
	res.Duration = e.clock.Now().Sub(start)
	metrics.RecordSyncCycle(outcome, res.Duration)
	e.emit(ctx, Event{Kind: EventCycle, Count: res.Sent})
	return res
}

func (e *Engine) setConnected(connected bool) {
	e.mu.Lock()
	e.connected = connected
	e.mu.Unlock()
	metrics.UpdateConnected(connected)
}

func (e *Engine) emit(ctx context.Context, ev Event) {
	ev.At = e.clock.Now()
	switch {
	case ev.Err != nil:
		metrics.RecordErrorByComponent("syncer", string(ev.Kind))
		e.log.Warn(ctx, "sync step failed", logger.String("kind", string(ev.Kind)), logger.Error(ev.Err))
	case ev.Kind == EventHealthFailed:
		metrics.RecordErrorByComponent("syncer", string(ev.Kind))
		e.log.Debug(ctx, "server unreachable")
	case ev.Kind == EventDrained:
		e.log.Info(ctx, "outbox drained", logger.Int("items", ev.Count))
	default:
		e.log.Debug(ctx, "sync event", logger.String("kind", string(ev.Kind)))
	}
	if e.hook != nil {
		e.hook(ev)
	}
}
