package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/metadata"
)

// EnrichAllBooksTask fills descriptions for every book that lacks one.
type EnrichAllBooksTask struct{}

// Config returns the queue configuration for bulk enrichment tasks.
func (t EnrichAllBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_all_books",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     60 * time.Minute, // one rate-limited request per book
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichAllBooksProcessor creates a processor function for EnrichAllBooksTask.
func EnrichAllBooksProcessor(enricher *metadata.Enricher, logger MaintenanceLogger) backlite.QueueProcessor[EnrichAllBooksTask] {
	return func(ctx context.Context, _ EnrichAllBooksTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}

		result, err := enricher.EnrichAllMissing(ctx)
		if err != nil {
			return fmt.Errorf("enrich all books: %w", err)
		}

		log.Printf("[TASK] Enrichment complete: %d total, %d enriched, %d skipped, %d failed",
			result.TotalBooks, result.Enriched, result.Skipped, result.Failed)
		if logger != nil {
			logger.LogMaintenance("enrich_all_books",
				fmt.Sprintf("Filled %d of %d missing descriptions", result.Enriched, result.TotalBooks),
				map[string]any{"enriched": result.Enriched, "skipped": result.Skipped, "failed": result.Failed},
				nil)
		}
		return nil
	}
}

// NewEnrichAllBooksQueue creates a backlite queue for bulk enrichment tasks.
func NewEnrichAllBooksQueue(enricher *metadata.Enricher, logger MaintenanceLogger) backlite.Queue {
	return backlite.NewQueue(EnrichAllBooksProcessor(enricher, logger))
}
