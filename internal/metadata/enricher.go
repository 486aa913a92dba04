package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// ISBNLookup fetches catalogue metadata for an ISBN.
type ISBNLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error)
}

// BookUpdater is the slice of the books repository the enricher needs.
type BookUpdater interface {
	GetByID(id uint) (*entities.Book, error)
	FillDescription(id uint, description string, at time.Time) (bool, error)
	ListMissingDescription() ([]entities.Book, error)
}

// EnrichmentResult contains the result of an enrichment operation.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
	Source        string         `json:"source"`
}

// Enricher fills blank catalogue fields from OpenLibrary. It only ever adds
// information: fields a librarian has filled in are left alone.
type Enricher struct {
	provider ISBNLookup
	books    BookUpdater
}

func NewEnricher(provider ISBNLookup, books BookUpdater) *Enricher {
	return &Enricher{
		provider: provider,
		books:    books,
	}
}

// EnrichBook looks the book up by ISBN and fills its description if empty.
func (e *Enricher) EnrichBook(ctx context.Context, bookID uint) (*EnrichmentResult, error) {
	book, err := e.books.GetByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	result := &EnrichmentResult{Book: book, Source: "openlibrary"}
	if book.Description != "" {
		return result, nil
	}

	metadata, err := e.provider.LookupISBN(ctx, book.ISBN)
	if err != nil {
		return nil, fmt.Errorf("lookup isbn %s: %w", book.ISBN, err)
	}
	if metadata.Description == "" {
		return result, nil
	}

	filled, err := e.books.FillDescription(book.ID, metadata.Description, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update book description: %w", err)
	}
	if filled {
		book.Description = metadata.Description
		result.FieldsUpdated = append(result.FieldsUpdated, "description")
	}

	return result, nil
}

// BulkEnrichmentResult contains the summary of a bulk enrichment operation.
type BulkEnrichmentResult struct {
	TotalBooks int      `json:"total_books"`
	Enriched   int      `json:"enriched"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// EnrichAllMissing enriches every book that has no description yet.
func (e *Enricher) EnrichAllMissing(ctx context.Context) (*BulkEnrichmentResult, error) {
	books, err := e.books.ListMissingDescription()
	if err != nil {
		return nil, fmt.Errorf("list books missing description: %w", err)
	}

	result := &BulkEnrichmentResult{TotalBooks: len(books)}

	for _, book := range books {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "operation cancelled")
			return result, err
		}

		enriched, err := e.EnrichBook(ctx, book.ID)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", book.Title, err))
			continue
		}

		if len(enriched.FieldsUpdated) > 0 {
			result.Enriched++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}
