package loadtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/scoutsync/internal/adapters/http/client"
	"github.com/okian/scoutsync/internal/adapters/mq/worker"
	"github.com/okian/scoutsync/pkg/logger"
)

// deviceSender sends each job with the client of its device so the server
// sees the right device header.
type deviceSender struct {
	clients map[string]*client.Client
}

func newDeviceSender(cfg *Config) (*deviceSender, error) {
	s := &deviceSender{clients: make(map[string]*client.Client, cfg.Devices)}
	for d := 0; d < cfg.Devices; d++ {
		name := DeviceName(d)
		c, err := client.New(cfg.BaseURL, client.WithDeviceID(name), client.WithRequestTimeout(cfg.Timeout))
		if err != nil {
			return nil, err
		}
		s.clients[name] = c
	}
	return s, nil
}

func (s *deviceSender) Send(ctx context.Context, job worker.Job) (int, error) {
	c, ok := s.clients[job.Device]
	if !ok {
		return 0, fmt.Errorf("unknown device %q", job.Device)
	}
	return c.Sync(ctx, job.Items)
}

// submit pushes every job through a worker pool and waits for all of them.
func submit(ctx context.Context, cfg *Config, plan *Plan, sender worker.Sender, stats *Stats, log logger.Logger) error {
	log.Info(ctx, "submitting batches",
		logger.Int("batches", len(plan.Jobs)),
		logger.Int("workers", cfg.Workers))

	var mu sync.Mutex
	jobs := make(worker.Jobs, cfg.Workers*2)
	pool := worker.NewPool(cfg.Workers, jobs, sender, func(res worker.Result) {
		mu.Lock()
		defer mu.Unlock()
		stats.Batches++
		if res.Err != nil {
			stats.BatchesFailed++
			log.Warn(ctx, "batch failed", logger.String("device", res.Job.Device), logger.Error(res.Err))
			return
		}
		stats.ItemsSent += res.Sent
		if cfg.Verbose {
			log.Debug(ctx, "batch sent",
				logger.String("device", res.Job.Device),
				logger.Int("items", res.Sent),
				logger.Duration("latency", res.Latency))
		}
	})
	pool.Start(ctx)

	go func() {
		defer close(jobs)
		for _, j := range plan.Jobs {
			select {
			case <-ctx.Done():
				return
			case jobs <- j:
			}
		}
	}()

	if err := pool.Wait(ctx); err != nil {
		_ = pool.Shutdown(context.Background())
		return fmt.Errorf("submission interrupted: %w", err)
	}
	return nil
}
