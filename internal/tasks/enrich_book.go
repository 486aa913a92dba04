package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/metadata"
)

// EnrichBookTask fills a newly added book's description from OpenLibrary.
type EnrichBookTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for book enrichment tasks.
func (t EnrichBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichBookProcessor creates a processor function for EnrichBookTask.
// A book OpenLibrary does not know is not retried.
func EnrichBookProcessor(enricher *metadata.Enricher) backlite.QueueProcessor[EnrichBookTask] {
	return func(ctx context.Context, task EnrichBookTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}

		result, err := enricher.EnrichBook(ctx, task.BookID)
		if errors.Is(err, metadata.ErrNotFound) {
			log.Printf("[TASK] Book %d: no OpenLibrary record", task.BookID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("enrich book %d: %w", task.BookID, err)
		}

		if len(result.FieldsUpdated) > 0 {
			log.Printf("[TASK] Enriched book %d (%s): updated %v", task.BookID, result.Book.Title, result.FieldsUpdated)
		} else {
			log.Printf("[TASK] Book %d (%s): no metadata updates needed", task.BookID, result.Book.Title)
		}
		return nil
	}
}

// NewEnrichBookQueue creates a backlite queue for book enrichment tasks.
func NewEnrichBookQueue(enricher *metadata.Enricher) backlite.Queue {
	return backlite.NewQueue(EnrichBookProcessor(enricher))
}
