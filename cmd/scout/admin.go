package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/okian/scoutsync/internal/domain/model"
	"github.com/spf13/cobra"
)

const envAdminPin = "SCOUT_ADMIN_PIN"

// adminFlags are shared by the PIN-protected subcommands.
type adminFlags struct {
	pin string
}

func (a *adminFlags) value() (string, error) {
	if a.pin != "" {
		return a.pin, nil
	}
	if v := os.Getenv(envAdminPin); v != "" {
		return v, nil
	}
	return "", errors.New("admin PIN required: pass --pin or set " + envAdminPin)
}

func newAdminCmd(flags *globalFlags) *cobra.Command {
	af := &adminFlags{}
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Correct or remove records on the server",
		Long: `Admin commands act on the server directly and require the admin PIN.
The local copy picks the change up on the next refresh.`,
	}
	cmd.PersistentFlags().StringVar(&af.pin, "pin", "", "admin PIN (or "+envAdminPin+")")

	cmd.AddCommand(
		newPinCmd(flags),
		newAdminUpdateCmd(flags, af),
		newAdminDeleteCmd(flags, af),
		newAdminClearAllCmd(flags, af),
	)
	return cmd
}

func newPinCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Set up or check the admin PIN",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Report whether a PIN has been set",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := openRemote(cmd, flags)
				if err != nil {
					return err
				}
				set, err := c.PinStatus(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pin set: %s\n", yesNo(set))
				return nil
			},
		},
		&cobra.Command{
			Use:   "setup <pin>",
			Short: "Set the PIN; only allowed once",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := openRemote(cmd, flags)
				if err != nil {
					return err
				}
				if err := c.PinSetup(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "pin set")
				return nil
			},
		},
		&cobra.Command{
			Use:   "verify <pin>",
			Short: "Check a PIN",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := openRemote(cmd, flags)
				if err != nil {
					return err
				}
				ok, err := c.PinVerify(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("pin rejected")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "pin accepted")
				return nil
			},
		},
	)
	return cmd
}

func newAdminUpdateCmd(flags *globalFlags, af *adminFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:       "update <pit|match>",
		Short:     "Overwrite a server record with JSON from --file or stdin",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"pit", "match"},
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := af.value()
			if err != nil {
				return err
			}
			c, err := openRemote(cmd, flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch args[0] {
			case "pit":
				var rec model.PitRecord
				if err := decodeJSONInput(cmd, file, &rec); err != nil {
					return err
				}
				if err := c.AdminUpdatePit(ctx, pin, rec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated pit record for team %d\n", rec.TeamNumber)
			case "match":
				var rec model.MatchRecord
				if err := decodeJSONInput(cmd, file, &rec); err != nil {
					return err
				}
				if rec.ID == "" {
					return errors.New("match record needs an id")
				}
				if err := c.AdminUpdateMatch(ctx, pin, rec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated match record %s\n", rec.ID)
			default:
				return fmt.Errorf("unknown record kind %q, want pit or match", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file to read (default stdin)")
	return cmd
}

func newAdminDeleteCmd(flags *globalFlags, af *adminFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pit|match> <team|id>",
		Short: "Delete a pit record by team or a match record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := af.value()
			if err != nil {
				return err
			}
			c, err := openRemote(cmd, flags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch args[0] {
			case "pit":
				team, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid team number %q", args[1])
				}
				if err := c.AdminDeletePit(ctx, pin, team); err != nil {
					return err
				}
			case "match":
				if err := c.AdminDeleteMatch(ctx, pin, args[1]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown record kind %q, want pit or match", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}

func newAdminClearAllCmd(flags *globalFlags, af *adminFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Delete every record on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("clear-all deletes every record on the server; pass --yes to confirm")
			}
			pin, err := af.value()
			if err != nil {
				return err
			}
			c, err := openRemote(cmd, flags)
			if err != nil {
				return err
			}
			if err := c.AdminClearAll(cmd.Context(), pin); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "server data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}
