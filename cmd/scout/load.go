package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/scoutsync/internal/loadtest"
	"github.com/okian/scoutsync/pkg/logger"
	"github.com/spf13/cobra"
)

func newLoadCmd(flags *globalFlags) *cobra.Command {
	var cfg loadtest.Config
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Drive the server with many simulated devices and check it converges",
		Long: `Load generates a reproducible plan of pit and match writes for a number of
simulated devices, sends their batches concurrently, then reads the server
back: the newest pit record of every team must have won and every match
record must be held exactly once. Run it against a test server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := flags.config(cmd)
			if err != nil {
				return err
			}
			cfg.BaseURL = c.ServerURL
			cfg.Logger = logger.New(cmd.ErrOrStderr())

			stats, err := loadtest.Run(cmd.Context(), cfg)
			if stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s items in %s batches (%d failed) in %s; pit %d/%d, matches %d found, %d missing, %d duplicated\n",
					humanize.Comma(int64(stats.ItemsPlanned)), humanize.Comma(int64(stats.Batches)), stats.BatchesFailed,
					stats.Duration.Round(time.Millisecond),
					stats.PitChecked-stats.PitMismatched, stats.PitChecked,
					stats.MatchesFound, stats.MatchesMissing, stats.MatchDuplicates)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "converged")
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Devices, "devices", loadtest.DefaultDevices, "simulated devices")
	f.IntVar(&cfg.Teams, "teams", loadtest.DefaultTeams, "teams pit writes are spread over")
	f.IntVar(&cfg.PitWrites, "pit-writes", loadtest.DefaultPitWrites, "pit writes per device")
	f.IntVar(&cfg.Matches, "matches", loadtest.DefaultMatches, "match records per device")
	f.IntVar(&cfg.BatchSize, "batch", loadtest.DefaultBatchSize, "items per sync request")
	f.IntVar(&cfg.Workers, "workers", 0, "concurrent senders (default CPU count)")
	f.Uint64Var(&cfg.Seed, "seed", 1, "plan seed")
	f.DurationVar(&cfg.Timeout, "timeout", loadtest.DefaultTimeout, "per-request timeout")
	f.StringVar(&cfg.Output, "output", "", "write the plan as JSON to this file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every batch")
	return cmd
}
