package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/scoutsync/internal/adapters/http/client"
	"github.com/okian/scoutsync/pkg/logger"
)

const directoryPermission = 0o750

// Run executes one load test against cfg.BaseURL and returns its statistics.
// A run whose writes did not converge returns ErrDiverged.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg.normalize()
	log := cfg.Logger
	if log == nil {
		log = logger.GetOrNop()
	}
	log = log.Named("loadtest")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("devices", cfg.Devices),
		logger.Int("teams", cfg.Teams),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed))

	probe, err := client.New(cfg.BaseURL, client.WithHealthTimeout(cfg.Timeout))
	if err != nil {
		return stats, err
	}
	if !probe.Health(ctx) {
		return stats, fmt.Errorf("server %s is not healthy", cfg.BaseURL)
	}

	plan := generate(&cfg, stats.StartTime)
	stats.ItemsPlanned = plan.Items()
	stats.Resent = plan.Resent

	if cfg.Output != "" {
		if err := savePlan(cfg.Output, plan); err != nil {
			log.Warn(ctx, "failed to save plan", logger.Error(err))
		}
	}

	sender, err := newDeviceSender(&cfg)
	if err != nil {
		return stats, err
	}
	if err := submit(ctx, &cfg, plan, sender, stats, log); err != nil {
		return stats, err
	}

	verr := verify(ctx, probe, plan, stats, log)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	if verr != nil {
		return stats, verr
	}
	if stats.BatchesFailed > 0 {
		return stats, fmt.Errorf("%d of %d batches failed", stats.BatchesFailed, stats.Batches)
	}
	return stats, nil
}

func savePlan(path string, plan *Plan) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan.Jobs); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode plan: %w", err)
	}
	return f.Close()
}

func displayFinalStats(ctx context.Context, log logger.Logger, s *Stats) {
	rate := 0.0
	if s.Duration > 0 {
		rate = float64(s.ItemsSent) / s.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.String("items_planned", humanize.Comma(int64(s.ItemsPlanned))),
		logger.String("items_sent", humanize.Comma(int64(s.ItemsSent))),
		logger.Int("resent", s.Resent),
		logger.Int("batches", s.Batches),
		logger.Int("batches_failed", s.BatchesFailed),
		logger.Int("pit_checked", s.PitChecked),
		logger.Int("pit_mismatched", s.PitMismatched),
		logger.Int("matches_found", s.MatchesFound),
		logger.Int("matches_missing", s.MatchesMissing),
		logger.Int("match_duplicates", s.MatchDuplicates),
		logger.String("duration", s.Duration.Round(time.Millisecond).String()),
		logger.String("items_per_second", humanize.FormatFloat("#,###.#", rate)))
}
