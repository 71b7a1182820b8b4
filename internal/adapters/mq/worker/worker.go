// Package worker delivers sync batches to the server from a pool of
// goroutines. It backs the load tool, where many simulated devices push their
// outboxes at once.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/okian/scoutsync/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Job is one batch written by one device.
type Job struct {
	Device string           `json:"device"`
	Items  []model.SyncItem `json:"items"`
}

// Result reports how a Job went.
type Result struct {
	Job     Job
	Sent    int
	Err     error
	Latency time.Duration
}

// Sender transmits a batch on behalf of its device.
type Sender interface {
	Send(ctx context.Context, job Job) (int, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Jobs is a Queue backed by a channel. Closing it drains the pool.
type Jobs chan Job

// Dequeue returns the channel itself.
func (j Jobs) Dequeue(context.Context) <-chan Job { return j }

// Worker processes jobs until its queue closes or it is shut down.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	sender Sender
	name   string
	onDone func(Result)

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sender Sender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		sender:   sender,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.GetOrNop().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			res := w.process(ctx, job)
			if w.onDone != nil {
				w.onDone(res)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) Result {
	start := time.Now()
	n, err := w.sender.Send(ctx, job)
	res := Result{Job: job, Sent: n, Err: err, Latency: time.Since(start)}
	if err != nil {
		metrics.RecordErrorByComponent("worker", "send_failed")
		w.logger.Debug(ctx, "batch failed",
			logger.String("device", job.Device),
			logger.Int("items", len(job.Items)),
			logger.Error(err))
	}
	return res
}

// Pool manages multiple workers reading one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A non-positive count picks
// one based on the CPU count. onDone, when set, sees every Result.
func NewPool(workerCount int, queue Queue, sender Sender, onDone func(Result)) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.GetOrNop().Named("worker-pool"),
	}
	hook := func(res Result) {
		p.processed.Add(1)
		if res.Err != nil {
			p.failed.Add(1)
		}
		if onDone != nil {
			onDone(res)
		}
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(queue, sender,
			WithName("worker-"+strconv.Itoa(i)),
			WithResultHook(hook),
		)
	}
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, which happens once the queue
// is closed and drained or ctx ends.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Processed returns the number of jobs handled so far and how many failed.
func (p *Pool) Processed() (total, failed int64) {
	return p.processed.Load(), p.failed.Load()
}

// Shutdown stops every worker, waiting up to poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, w := range p.workers {
		close(w.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
