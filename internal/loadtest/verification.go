package loadtest

import (
	"context"
	"fmt"

	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/okian/scoutsync/pkg/logger"
)

// Reader is the read side of the server.
type Reader interface {
	FetchPit(ctx context.Context) (map[int]model.PitRecord, error)
	FetchMatches(ctx context.Context) ([]model.MatchRecord, error)
}

// verify compares the server state with the plan. Records the plan did not
// write are ignored, so a server with earlier data can be tested.
func verify(ctx context.Context, r Reader, plan *Plan, stats *Stats, log logger.Logger) error {
	pit, err := r.FetchPit(ctx)
	if err != nil {
		return fmt.Errorf("fetch pit: %w", err)
	}
	for team, want := range plan.WantPit {
		stats.PitChecked++
		got, ok := pit[team]
		if !ok || got.LastUpdated != want.LastUpdated || got.Comments != want.Comments {
			stats.PitMismatched++
			log.Warn(ctx, "pit winner mismatch",
				logger.Int("team", team),
				logger.Int64("want_last_updated", want.LastUpdated),
				logger.Int64("got_last_updated", got.LastUpdated),
				logger.String("want_writer", want.Comments),
				logger.String("got_writer", got.Comments))
		}
	}

	matches, err := r.FetchMatches(ctx)
	if err != nil {
		return fmt.Errorf("fetch matches: %w", err)
	}
	seen := make(map[string]int, len(plan.MatchIDs))
	for _, m := range matches {
		if _, ok := plan.MatchIDs[m.ID]; ok {
			seen[m.ID]++
		}
	}
	for id := range plan.MatchIDs {
		switch n := seen[id]; {
		case n == 0:
			stats.MatchesMissing++
		case n > 1:
			stats.MatchDuplicates++
			stats.MatchesFound++
		default:
			stats.MatchesFound++
		}
	}

	if stats.PitMismatched > 0 || stats.MatchesMissing > 0 || stats.MatchDuplicates > 0 {
		return fmt.Errorf("%w: %d pit mismatches, %d matches missing, %d duplicated",
			ErrDiverged, stats.PitMismatched, stats.MatchesMissing, stats.MatchDuplicates)
	}
	return nil
}
