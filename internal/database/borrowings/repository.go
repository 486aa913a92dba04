// Package borrowings provides database operations for loan records.
//
// A borrowing moves from "borrowed" to "returned" exactly once; MarkReturned
// guards the transition in its WHERE clause so a second call changes nothing.
package borrowings

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// Repository handles loan record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new borrowings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withRelations() *gorm.DB {
	return r.db.Preload("Book").Preload("Member")
}

// Create inserts a new borrowing. Book and Member are referenced by ID only.
func (r *Repository) Create(borrowing *entities.Borrowing) error {
	return r.db.Omit(clause.Associations).Create(borrowing).Error
}

// GetByID retrieves a borrowing with its book and member.
func (r *Repository) GetByID(id uint) (*entities.Borrowing, error) {
	var borrowing entities.Borrowing
	err := r.withRelations().First(&borrowing, id).Error
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// List returns borrowings matching filter. The overdue filter compares due
// dates against now, so a loan becomes overdue purely by the passage of time.
func (r *Repository) List(filter entities.BorrowingFilter, now time.Time) ([]entities.Borrowing, error) {
	query := r.withRelations()

	switch filter {
	case entities.BorrowingFilterBorrowed:
		query = query.Where("status = ?", entities.BorrowingStatusBorrowed)
	case entities.BorrowingFilterReturned:
		query = query.Where("status = ?", entities.BorrowingStatusReturned)
	case entities.BorrowingFilterOverdue:
		query = query.Where("status = ? AND due_date < ?", entities.BorrowingStatusBorrowed, now)
	}

	var borrowings []entities.Borrowing
	err := query.Order("id ASC").Find(&borrowings).Error
	return borrowings, err
}

// ListOverdue returns active loans past their due date, oldest due date first.
func (r *Repository) ListOverdue(now time.Time) ([]entities.Borrowing, error) {
	var borrowings []entities.Borrowing
	err := r.withRelations().
		Where("status = ? AND due_date < ?", entities.BorrowingStatusBorrowed, now).
		Order("due_date ASC").
		Find(&borrowings).Error
	return borrowings, err
}

// ListForMember returns a member's loan history, most recent first.
func (r *Repository) ListForMember(memberID uint) ([]entities.Borrowing, error) {
	var borrowings []entities.Borrowing
	err := r.withRelations().
		Where("member_id = ?", memberID).
		Order("borrow_date DESC, id DESC").
		Find(&borrowings).Error
	return borrowings, err
}

// Recent returns the most recently issued loans.
func (r *Repository) Recent(limit int) ([]entities.Borrowing, error) {
	if limit <= 0 {
		limit = 5
	}
	var borrowings []entities.Borrowing
	err := r.withRelations().
		Order("borrow_date DESC, id DESC").
		Limit(limit).
		Find(&borrowings).Error
	return borrowings, err
}

// MarkReturned flips a borrowed loan to returned and stamps the return date.
// Returns false if the loan does not exist or was already returned.
func (r *Repository) MarkReturned(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&entities.Borrowing{}).
		Where("id = ? AND status = ?", id, entities.BorrowingStatusBorrowed).
		Updates(map[string]any{
			"status":      entities.BorrowingStatusReturned,
			"return_date": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountActiveForBook counts loans of the book that are still out.
func (r *Repository) CountActiveForBook(bookID uint) (int64, error) {
	return r.countActive("book_id = ?", bookID)
}

// CountActiveForMember counts loans held by the member that are still out.
func (r *Repository) CountActiveForMember(memberID uint) (int64, error) {
	return r.countActive("member_id = ?", memberID)
}

func (r *Repository) countActive(condition string, id uint) (int64, error) {
	var total int64
	err := r.db.Model(&entities.Borrowing{}).
		Where(condition, id).
		Where("status = ?", entities.BorrowingStatusBorrowed).
		Count(&total).Error
	return total, err
}

// DeleteForBook removes the loan history of a book. Returns the number of rows deleted.
func (r *Repository) DeleteForBook(bookID uint) (int64, error) {
	result := r.db.Where("book_id = ?", bookID).Delete(&entities.Borrowing{})
	return result.RowsAffected, result.Error
}

// DeleteForMember removes the loan history of a member. Returns the number of rows deleted.
func (r *Repository) DeleteForMember(memberID uint) (int64, error) {
	result := r.db.Where("member_id = ?", memberID).Delete(&entities.Borrowing{})
	return result.RowsAffected, result.Error
}

// CountByStatus returns the number of loans in the given state.
func (r *Repository) CountByStatus(status entities.BorrowingStatus) (int64, error) {
	var total int64
	err := r.db.Model(&entities.Borrowing{}).Where("status = ?", status).Count(&total).Error
	return total, err
}

// CountOverdue returns the number of active loans past their due date.
func (r *Repository) CountOverdue(now time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&entities.Borrowing{}).
		Where("status = ? AND due_date < ?", entities.BorrowingStatusBorrowed, now).
		Count(&total).Error
	return total, err
}
