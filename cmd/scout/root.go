package main

import "github.com/spf13/cobra"

// newRootCmd creates the root cobra command for the scout CLI.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "scout",
		Short: "Offline-first scouting client",
		Long: `scout keeps a local copy of the event's scouting records. Writes are
applied locally first and queued while the server is unreachable; the sync
loop delivers them once it is back.

Settings come from the YAML file named by SCOUT_CONFIG and from SCOUT_*
environment variables. The global flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.server, "server", "", "API base URL, e.g. http://host:3001/api")
	pf.StringVar(&flags.db, "db", "", "local database file")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(
		newRunCmd(flags),
		newSyncCmd(flags),
		newStatusCmd(flags),
		newPitCmd(flags),
		newMatchCmd(flags),
		newQRCmd(flags),
		newExportCmd(flags),
		newResetCmd(flags),
		newTeamsCmd(),
		newAdminCmd(flags),
		newLoadCmd(flags),
	)
	return cmd
}
