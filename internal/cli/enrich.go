package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/librarydesk/internal/entrypoint"
	"github.com/mrlokans/librarydesk/internal/metadata"
)

func newEnrichCommand() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill missing book descriptions from OpenLibrary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(dbPath)
			db, err := entrypoint.OpenDatabase(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			svc := entrypoint.NewServices(db, cfg)
			defer svc.Audit.Wait()

			client := metadata.NewOpenLibraryClient(cfg.Metadata.OpenLibraryURL, cfg.Metadata.RequestGap)
			enricher := metadata.NewEnricher(client, db.Repositories(context.Background()).Books)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Looking up books without a description on %s...\n", cfg.Metadata.OpenLibraryURL)

			result, err := enricher.EnrichAllMissing(cmd.Context())
			if result != nil {
				svc.Audit.LogMaintenance("enrich_all_books",
					fmt.Sprintf("Enriched %d of %d books from the command line", result.Enriched, result.TotalBooks),
					map[string]any{"enriched": result.Enriched, "failed": result.Failed, "skipped": result.Skipped}, err)

				fmt.Fprintf(out, "Enriched: %d, skipped: %d, failed: %d (of %d)\n",
					result.Enriched, result.Skipped, result.Failed, result.TotalBooks)
				for _, msg := range result.Errors {
					fmt.Fprintf(out, "  [ERROR] %s\n", msg)
				}
			}
			return err
		},
	}
	dbFlag(cmd, &dbPath)
	return cmd
}
