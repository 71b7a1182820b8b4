package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/spf13/cobra"
)

func newPitCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pit",
		Short: "Save and inspect pit records",
	}
	cmd.AddCommand(newPitSaveCmd(flags), newPitShowCmd(flags), newPitListCmd(flags))
	return cmd
}

func newPitSaveCmd(flags *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a pit record read as JSON",
		Long: `Save reads one pit record as JSON from --file or stdin, stamps it with
the current time and publishes it. When the server cannot be reached the
write is queued and delivered by the next sync.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rec model.PitRecord
			if err := decodeJSONInput(cmd, file, &rec); err != nil {
				return err
			}

			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			before := s.svc.Status(ctx).Pending
			saved, err := s.svc.SavePit(ctx, rec)
			if err != nil {
				return err
			}
			reportSave(cmd, "pit record for team "+strconv.Itoa(saved.TeamNumber), before, s.svc.Status(ctx).Pending)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file to read (default stdin)")
	return cmd
}

func newPitShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <team>",
		Short: "Print the local pit record of a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid team number %q", args[0])
			}
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			rec, ok := s.svc.Cache().Pit(team)
			if !ok {
				return fmt.Errorf("no pit record for team %d", team)
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newPitListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local pit records by team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			pit := s.svc.Cache().PitAll()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEAM\tNAME\tUPDATED")
			for _, team := range slices.Sorted(maps.Keys(pit)) {
				rec := pit[team]
				name := ""
				if t, ok := model.LookupTeam(team); ok {
					name = t.Name
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", team, name, humanize.Time(time.UnixMilli(rec.LastUpdated)))
			}
			return tw.Flush()
		},
	}
}

func newMatchCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Save and inspect match records",
	}
	cmd.AddCommand(newMatchSaveCmd(flags), newMatchListCmd(flags))
	return cmd
}

func newMatchSaveCmd(flags *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a match record read as JSON",
		Long: `Save reads one match record as JSON from --file or stdin. A record without
an id gets a fresh one; the timestamp is always set to now.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rec model.MatchRecord
			if err := decodeJSONInput(cmd, file, &rec); err != nil {
				return err
			}

			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ctx := cmd.Context()
			before := s.svc.Status(ctx).Pending
			saved, err := s.svc.SaveMatch(ctx, rec)
			if err != nil {
				return err
			}
			what := fmt.Sprintf("match %d team %d as %s", saved.MatchNumber, saved.TeamNumber, saved.ID)
			reportSave(cmd, what, before, s.svc.Status(ctx).Pending)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file to read (default stdin)")
	return cmd
}

func newMatchListCmd(flags *globalFlags) *cobra.Command {
	var team int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local match records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			recs := s.svc.Cache().Matches()
			if team > 0 {
				recs = s.svc.Cache().MatchesForTeam(team)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMATCH\tTEAM\tAUTO\tTELEOP\tCLIMB\tSCOUTED")
			for _, m := range recs {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%d\t%s\n",
					m.ID, m.MatchNumber, m.TeamNumber, m.AutoRole, m.TeleopRole, m.ClimbLevel,
					humanize.Time(time.UnixMilli(m.Timestamp)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&team, "team", 0, "only records for this team")
	return cmd
}

func reportSave(cmd *cobra.Command, what string, before, after int) {
	out := cmd.OutOrStdout()
	if after > before {
		fmt.Fprintf(out, "saved %s (queued, %d pending)\n", what, after)
		return
	}
	fmt.Fprintf(out, "saved %s\n", what)
}
