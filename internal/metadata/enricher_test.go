package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mrlokans/librarydesk/internal/entities"
)

type mockLookup struct {
	result *BookMetadata
	err    error
	calls  int
}

func (m *mockLookup) LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	m.calls++
	return m.result, m.err
}

type mockBookUpdater struct {
	books        map[uint]*entities.Book
	getBookError error
	updateError  error
}

func (m *mockBookUpdater) GetByID(id uint) (*entities.Book, error) {
	if m.getBookError != nil {
		return nil, m.getBookError
	}
	book, ok := m.books[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *book
	return &copied, nil
}

func (m *mockBookUpdater) FillDescription(id uint, description string, at time.Time) (bool, error) {
	if m.updateError != nil {
		return false, m.updateError
	}
	book := m.books[id]
	if book.Description != "" {
		return false, nil
	}
	book.Description = description
	return true, nil
}

func (m *mockBookUpdater) ListMissingDescription() ([]entities.Book, error) {
	var missing []entities.Book
	for id := uint(1); id <= uint(len(m.books)); id++ {
		if book, ok := m.books[id]; ok && book.Description == "" {
			missing = append(missing, *book)
		}
	}
	return missing, nil
}

func duneMetadata() *BookMetadata {
	return &BookMetadata{Title: "Dune", Description: "Set on the desert planet Arrakis."}
}

func TestEnrichBook_FillsEmptyDescription(t *testing.T) {
	updater := &mockBookUpdater{books: map[uint]*entities.Book{
		1: {ID: 1, Title: "Dune", ISBN: "9780441172719"},
	}}
	enricher := NewEnricher(&mockLookup{result: duneMetadata()}, updater)

	result, err := enricher.EnrichBook(context.Background(), 1)
	if err != nil {
		t.Fatalf("EnrichBook failed: %v", err)
	}

	if len(result.FieldsUpdated) != 1 || result.FieldsUpdated[0] != "description" {
		t.Errorf("expected description to be updated, got %v", result.FieldsUpdated)
	}
	if updater.books[1].Description != "Set on the desert planet Arrakis." {
		t.Errorf("description not stored, got %q", updater.books[1].Description)
	}
}

func TestEnrichBook_KeepsLibrarianDescription(t *testing.T) {
	updater := &mockBookUpdater{books: map[uint]*entities.Book{
		1: {ID: 1, Title: "Dune", ISBN: "9780441172719", Description: "Staff pick"},
	}}
	lookup := &mockLookup{result: duneMetadata()}
	enricher := NewEnricher(lookup, updater)

	result, err := enricher.EnrichBook(context.Background(), 1)
	if err != nil {
		t.Fatalf("EnrichBook failed: %v", err)
	}
	if len(result.FieldsUpdated) != 0 {
		t.Errorf("expected no updates, got %v", result.FieldsUpdated)
	}
	if lookup.calls != 0 {
		t.Errorf("expected no lookup for a described book, got %d", lookup.calls)
	}
}

func TestEnrichBook_Errors(t *testing.T) {
	t.Run("book not found", func(t *testing.T) {
		updater := &mockBookUpdater{getBookError: errors.New("record not found")}
		enricher := NewEnricher(&mockLookup{}, updater)

		if _, err := enricher.EnrichBook(context.Background(), 999); err == nil {
			t.Error("expected error when book not found")
		}
	})

	t.Run("lookup failed", func(t *testing.T) {
		updater := &mockBookUpdater{books: map[uint]*entities.Book{1: {ID: 1, ISBN: "0000000000"}}}
		enricher := NewEnricher(&mockLookup{err: ErrNotFound}, updater)

		_, err := enricher.EnrichBook(context.Background(), 1)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEnrichAllMissing(t *testing.T) {
	updater := &mockBookUpdater{books: map[uint]*entities.Book{
		1: {ID: 1, Title: "Dune", ISBN: "9780441172719"},
		2: {ID: 2, Title: "Emma", ISBN: "9780141439587", Description: "Staff pick"},
		3: {ID: 3, Title: "Hyperion", ISBN: "9780553283686"},
	}}
	enricher := NewEnricher(&mockLookup{result: duneMetadata()}, updater)

	result, err := enricher.EnrichAllMissing(context.Background())
	if err != nil {
		t.Fatalf("EnrichAllMissing failed: %v", err)
	}
	if result.TotalBooks != 2 {
		t.Errorf("expected 2 books to process, got %d", result.TotalBooks)
	}
	if result.Enriched != 2 {
		t.Errorf("expected 2 enriched, got %d", result.Enriched)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	updater.books[4] = &entities.Book{ID: 4, Title: "Emma", ISBN: "1"}
	if _, err := enricher.EnrichAllMissing(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
