// Package loadtest drives a scout server with many simulated devices writing
// at once, then checks that the server converged: the newest pit record per
// team won and every match record is held exactly once.
package loadtest

import (
	"errors"
	"runtime"
	"time"

	"github.com/okian/scoutsync/pkg/logger"
)

// Defaults applied by Config.normalize.
const (
	DefaultDevices   = 8
	DefaultTeams     = 12
	DefaultPitWrites = 20
	DefaultMatches   = 30
	DefaultBatchSize = 10
	DefaultTimeout   = 10 * time.Second
	// Every resendEvery-th match is queued a second time in a later batch.
	resendEvery = 5
)

// ErrDiverged is returned when the server state disagrees with the writes.
var ErrDiverged = errors.New("server state diverged")

// Config holds configuration for one run.
type Config struct {
	BaseURL   string        // API root, e.g. http://localhost:3001/api
	Devices   int           // simulated devices
	Teams     int           // distinct teams pit writes are spread over
	PitWrites int           // pit writes per device
	Matches   int           // match records per device
	BatchSize int           // items per sync request
	Workers   int           // concurrent senders
	Seed      uint64        // plan seed; equal seeds give equal plans
	Timeout   time.Duration // per-request timeout
	Output    string        // optional JSON dump of the plan
	Verbose   bool
	// Logger receives progress; the global logger is used when nil.
	Logger logger.Logger
}

func (c *Config) normalize() {
	if c.Devices <= 0 {
		c.Devices = DefaultDevices
	}
	if c.Teams <= 0 {
		c.Teams = DefaultTeams
	}
	if c.PitWrites < 0 {
		c.PitWrites = DefaultPitWrites
	}
	if c.Matches < 0 {
		c.Matches = DefaultMatches
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Stats holds run statistics.
type Stats struct {
	ItemsPlanned  int
	Resent        int
	Batches       int
	BatchesFailed int
	ItemsSent     int

	PitChecked      int
	PitMismatched   int
	MatchesFound    int
	MatchesMissing  int
	MatchDuplicates int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
