package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// CatalogService manages the book inventory.
type CatalogService struct {
	db      *database.Database
	clock   Clock
	auditor Auditor
}

func NewCatalogService(db *database.Database, clock Clock, auditor Auditor) *CatalogService {
	return &CatalogService{
		db:      db,
		clock:   clockOrSystem(clock),
		auditor: auditorOrNoop(auditor),
	}
}

// ListBooks returns every book when query is empty, otherwise the books whose
// title, author or ISBN contains query.
func (s *CatalogService) ListBooks(ctx context.Context, query string) ([]entities.Book, error) {
	repo := s.db.Repositories(ctx).Books
	if query == "" {
		return repo.List()
	}
	return repo.Search(query)
}

// ListAvailableBooks returns books that can currently be issued.
func (s *CatalogService) ListAvailableBooks(ctx context.Context) ([]entities.Book, error) {
	return s.db.Repositories(ctx).Books.ListAvailable()
}

func (s *CatalogService) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.db.Repositories(ctx).Books.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, "book", id)
	}
	return book, nil
}

// CreateBook adds a title with every copy on the shelf.
func (s *CatalogService) CreateBook(ctx context.Context, in BookInput) (*entities.Book, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	book := &entities.Book{
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Category:        in.Category,
		Quantity:        in.Quantity,
		AvailableCopies: in.Quantity,
		Description:     in.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		if err := ensureISBNFree(uow, in.ISBN, 0); err != nil {
			return err
		}
		return duplicateOr(uow.Books.Create(book), isbnTaken(in.ISBN))
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogChange("book_create", "book", book.ID, fmt.Sprintf("Added book %q (%d copies)", book.Title, book.Quantity))
	return book, nil
}

// UpdateBook overwrites the editable fields. Copies on loan stay on loan:
// available_copies is recomputed as quantity minus active loans, and a
// quantity below the number on loan is rejected.
func (s *CatalogService) UpdateBook(ctx context.Context, id uint, in BookInput) (*entities.Book, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var book *entities.Book
	err := s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		var err error
		book, err = uow.Books.GetByIDForUpdate(id)
		if err != nil {
			return notFoundOr(err, "book", id)
		}

		if err := ensureISBNFree(uow, in.ISBN, id); err != nil {
			return err
		}

		onLoan, err := uow.Borrowings.CountActiveForBook(id)
		if err != nil {
			return err
		}
		if int64(in.Quantity) < onLoan {
			return NewValidationError("quantity cannot be less than the %d copies currently on loan", onLoan)
		}

		book.Title = in.Title
		book.Author = in.Author
		book.ISBN = in.ISBN
		book.Category = in.Category
		book.Quantity = in.Quantity
		book.AvailableCopies = in.Quantity - int(onLoan)
		book.Description = in.Description
		book.UpdatedAt = s.clock.Now()

		return duplicateOr(uow.Books.Save(book), isbnTaken(in.ISBN))
	})
	if err != nil {
		return nil, err
	}

	s.auditor.LogChange("book_update", "book", book.ID, fmt.Sprintf("Updated book %q", book.Title))
	return book, nil
}

// DeleteBook removes a book together with its returned loan history.
// Books with copies still on loan cannot be deleted.
func (s *CatalogService) DeleteBook(ctx context.Context, id uint) (*entities.Book, error) {
	var book *entities.Book
	err := s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		var err error
		book, err = uow.Books.GetByID(id)
		if err != nil {
			return notFoundOr(err, "book", id)
		}

		active, err := uow.Borrowings.CountActiveForBook(id)
		if err != nil {
			return err
		}
		if active > 0 {
			return NewPreconditionError("cannot delete %q: %d copies are still on loan", book.Title, active)
		}

		if _, err := uow.Borrowings.DeleteForBook(id); err != nil {
			return err
		}
		return uow.Books.Delete(id)
	})
	if err != nil {
		if IsPrecondition(err) {
			s.auditor.LogFailure("book_delete", "book", id, err)
		}
		return nil, err
	}

	s.auditor.LogChange("book_delete", "book", book.ID, fmt.Sprintf("Deleted book %q", book.Title))
	return book, nil
}

func ensureISBNFree(uow *database.UnitOfWork, isbn string, selfID uint) error {
	existing, err := uow.Books.GetByISBN(isbn)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return NewValidationError("%s", isbnTaken(isbn))
	}
	return nil
}

func isbnTaken(isbn string) string {
	return fmt.Sprintf("a book with ISBN %s already exists", isbn)
}
