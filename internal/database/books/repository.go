// Package books provides database operations for the book inventory.
//
// Copy counters are only moved through DecrementAvailable and
// IncrementAvailable, which update the row conditionally in a single
// statement so concurrent loans cannot drive available_copies below zero.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(123)
package books

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarydesk/internal/database/textsearch"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a book by its ID.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByIDForUpdate retrieves a book and locks its row until the surrounding
// transaction ends. SQLite has no row locks; there the IMMEDIATE transaction
// already holds the database write lock.
func (r *Repository) GetByIDForUpdate(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN retrieves a book by its ISBN.
func (r *Repository) GetByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List retrieves all books in storage order.
func (r *Repository) List() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("id ASC").Find(&books).Error
	return books, err
}

// Search returns books whose title, author or ISBN contains query (case-sensitive).
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	err := textsearch.Contains(r.db, query, "title", "author", "isbn").
		Order("id ASC").
		Find(&books).Error
	return books, err
}

// ListAvailable returns books with at least one copy on the shelf.
func (r *Repository) ListAvailable() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("available_copies > 0").Order("title ASC").Find(&books).Error
	return books, err
}

// Create inserts a new book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Omit(clause.Associations).Create(book).Error
}

// Save overwrites every column of an existing book.
func (r *Repository) Save(book *entities.Book) error {
	return r.db.Omit(clause.Associations).Save(book).Error
}

// Delete hard-deletes a book. Returns gorm.ErrRecordNotFound if nothing was removed.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementAvailable takes one copy off the shelf if any is left.
// Returns false when the book is missing or has no available copies.
func (r *Repository) DecrementAvailable(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND available_copies > 0", id).
		Updates(map[string]any{
			"available_copies": gorm.Expr("available_copies - 1"),
			"updated_at":       at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IncrementAvailable puts one copy back on the shelf, never above quantity.
// Returns false when the book is missing or already fully shelved.
func (r *Repository) IncrementAvailable(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND available_copies < quantity", id).
		Updates(map[string]any{
			"available_copies": gorm.Expr("available_copies + 1"),
			"updated_at":       at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FillDescription sets the description only if the book has none, so text
// entered by a librarian is never replaced. Returns whether the row changed.
func (r *Repository) FillDescription(id uint, description string, at time.Time) (bool, error) {
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND (description IS NULL OR description = '')", id).
		Updates(map[string]any{
			"description": description,
			"updated_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListMissingDescription returns books without a description.
func (r *Repository) ListMissingDescription() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("description IS NULL OR description = ''").Order("id ASC").Find(&books).Error
	return books, err
}

// Count returns the total number of book titles.
func (r *Repository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entities.Book{}).Count(&total).Error
	return total, err
}

// CountCopies returns the total and available copies across the inventory.
func (r *Repository) CountCopies() (total int64, available int64, err error) {
	var row struct {
		Total     int64
		Available int64
	}
	err = r.db.Model(&entities.Book{}).
		Select("COALESCE(SUM(quantity), 0) AS total, COALESCE(SUM(available_copies), 0) AS available").
		Scan(&row).Error
	return row.Total, row.Available, err
}
