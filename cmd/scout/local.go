package main

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/okian/scoutsync/internal/domain/export"
	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/spf13/cobra"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export <pit|matches>",
		Short:     "Write the local records as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"pit", "matches"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			cache := s.svc.Cache()
			switch args[0] {
			case "pit":
				return export.WritePit(w, slices.Collect(maps.Values(cache.PitAll())))
			case "matches":
				return export.WriteMatches(w, cache.Matches())
			default:
				return fmt.Errorf("unknown export %q, want pit or matches", args[0])
			}
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write (default stdout)")
	return cmd
}

func newResetCmd(flags *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the local records and every pending write",
		Long: `Reset empties the local copy and the outbox. Writes that were never
delivered are lost. The device id is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset discards undelivered writes; pass --yes to confirm")
			}
			s, err := openSession(cmd, flags)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			dropped := s.svc.Status(cmd.Context()).Pending
			if err := s.svc.ResetLocal(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "local data cleared, %d pending writes dropped\n", dropped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func newTeamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List the teams attending the event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEAM\tNAME\tLOCATION")
			for _, t := range model.Teams() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", t.Number, t.Name, t.Location)
			}
			return tw.Flush()
		},
	}
}
