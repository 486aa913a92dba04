package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/entrypoint"
)

// NewRootCommand builds the librarydesk command tree. Running it without a
// subcommand starts the HTTP server.
func NewRootCommand(version string) *cobra.Command {
	serve := func(cmd *cobra.Command, args []string) {
		entrypoint.Run(config.NewConfig(), version)
	}

	root := &cobra.Command{
		Use:           "librarydesk",
		Short:         "Small-library catalogue, membership and circulation desk",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run:           serve,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default if no command given)",
			Args:  cobra.NoArgs,
			Run:   serve,
		},
		newImportBooksCommand(),
		newSeedCommand(),
		newOverdueCommand(),
		newEnrichCommand(),
	)
	return root
}

// dbFlag lets a command point at another SQLite file than DATABASE_PATH.
func dbFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "db", "", "Path to the SQLite database (defaults to DATABASE_PATH)")
}

func loadConfig(dbPath string) *config.Config {
	cfg := config.NewConfig()
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg
}
