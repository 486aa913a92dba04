package entities

import (
	"time"
)

type BorrowingStatus string

const (
	BorrowingStatusBorrowed BorrowingStatus = "borrowed"
	BorrowingStatusReturned BorrowingStatus = "returned"
)

// BorrowingFilter selects a subset of borrowings for listing.
// "overdue" is not a stored status: it is evaluated against the clock at query time.
type BorrowingFilter string

const (
	BorrowingFilterAll      BorrowingFilter = "all"
	BorrowingFilterBorrowed BorrowingFilter = "borrowed"
	BorrowingFilterReturned BorrowingFilter = "returned"
	BorrowingFilterOverdue  BorrowingFilter = "overdue"
)

// ParseBorrowingFilter maps a query value to a filter. Unknown values fall back to "all".
func ParseBorrowingFilter(value string) BorrowingFilter {
	switch BorrowingFilter(value) {
	case BorrowingFilterBorrowed, BorrowingFilterReturned, BorrowingFilterOverdue:
		return BorrowingFilter(value)
	default:
		return BorrowingFilterAll
	}
}

type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Author          string    `gorm:"size:200;not null" json:"author"`
	ISBN            string    `gorm:"uniqueIndex;size:20;not null" json:"isbn"`
	Category        string    `gorm:"index;size:50;not null" json:"category"`
	Quantity        int       `gorm:"not null" json:"quantity"`         // forms default to 1
	AvailableCopies int       `gorm:"not null" json:"available_copies"` // 0 <= available <= quantity
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OnLoan is the number of copies currently out, derived from the two counters.
func (b *Book) OnLoan() int {
	return b.Quantity - b.AvailableCopies
}

func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}

type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone     string    `gorm:"size:20;not null" json:"phone"`
	Address   string    `gorm:"type:text" json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Borrowing struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Reference  string          `gorm:"uniqueIndex;size:26" json:"reference"` // ULID printed on loan slips
	BookID     uint            `gorm:"index;not null" json:"book_id"`
	MemberID   uint            `gorm:"index;not null" json:"member_id"`
	BorrowDate time.Time       `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time       `gorm:"index;not null" json:"due_date"`
	ReturnDate *time.Time      `json:"return_date,omitempty"`
	Status     BorrowingStatus `gorm:"index;size:20;not null;default:'borrowed'" json:"status"`
	Book       Book            `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"-"`
	Member     Member          `gorm:"foreignKey:MemberID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

// IsOverdue reports whether the loan is still out and now is strictly after the due date.
// A returned loan is never overdue, whatever its dates.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	if b.Status != BorrowingStatusBorrowed {
		return false
	}
	return now.After(b.DueDate)
}

// DaysOverdue returns the number of whole days past the due date, or 0 when not overdue.
func (b *Borrowing) DaysOverdue(now time.Time) int {
	if !b.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(b.DueDate) / (24 * time.Hour))
}

func (Book) TableName() string {
	return "books"
}

func (Member) TableName() string {
	return "members"
}

func (Borrowing) TableName() string {
	return "borrowings"
}
