package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

const day = 24 * time.Hour

// Loan is a borrowing as seen at a particular instant: the overdue fields
// are derived from the clock on every read and never stored.
type Loan struct {
	entities.Borrowing
	BookTitle   string `json:"book_title"`
	MemberName  string `json:"member_name"`
	IsOverdue   bool   `json:"is_overdue"`
	DaysOverdue int    `json:"days_overdue"`
}

func toLoan(b entities.Borrowing, now time.Time) Loan {
	return Loan{
		Borrowing:   b,
		BookTitle:   b.Book.Title,
		MemberName:  b.Member.Name,
		IsOverdue:   b.IsOverdue(now),
		DaysOverdue: b.DaysOverdue(now),
	}
}

func toLoans(borrowings []entities.Borrowing, now time.Time) []Loan {
	loans := make([]Loan, 0, len(borrowings))
	for _, b := range borrowings {
		loans = append(loans, toLoan(b, now))
	}
	return loans
}

// CirculationService issues and returns books.
type CirculationService struct {
	db      *database.Database
	clock   Clock
	ids     IDGenerator
	auditor Auditor
	policy  LoanPolicy
}

func NewCirculationService(db *database.Database, clock Clock, ids IDGenerator, auditor Auditor, policy LoanPolicy) *CirculationService {
	if ids == nil {
		ids = ULIDGenerator()
	}
	return &CirculationService{
		db:      db,
		clock:   clockOrSystem(clock),
		ids:     ids,
		auditor: auditorOrNoop(auditor),
		policy:  policy.withDefaults(),
	}
}

// Policy returns the loan period bounds in effect.
func (s *CirculationService) Policy() LoanPolicy {
	return s.policy
}

// ListBorrowings returns loans matching filter. "overdue" is evaluated
// against the current time.
func (s *CirculationService) ListBorrowings(ctx context.Context, filter entities.BorrowingFilter) ([]Loan, error) {
	now := s.clock.Now()
	borrowings, err := s.db.Repositories(ctx).Borrowings.List(filter, now)
	if err != nil {
		return nil, err
	}
	return toLoans(borrowings, now), nil
}

func (s *CirculationService) GetBorrowing(ctx context.Context, id uint) (*Loan, error) {
	borrowing, err := s.db.Repositories(ctx).Borrowings.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, "borrowing", id)
	}
	loan := toLoan(*borrowing, s.clock.Now())
	return &loan, nil
}

// Overdue returns active loans past their due date, oldest first.
func (s *CirculationService) Overdue(ctx context.Context) ([]Loan, error) {
	now := s.clock.Now()
	borrowings, err := s.db.Repositories(ctx).Borrowings.ListOverdue(now)
	if err != nil {
		return nil, err
	}
	return toLoans(borrowings, now), nil
}

// Issue lends one copy of a book to a member. The copy is taken with a
// conditional decrement, so when the last copy is contended exactly one
// caller succeeds and the others get a PreconditionFailure with nothing written.
func (s *CirculationService) Issue(ctx context.Context, in IssueInput) (*entities.Borrowing, error) {
	if in.Days == 0 {
		in.Days = s.policy.DefaultDays
	}
	if err := in.Validate(s.policy.MaxDays); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	reference, err := s.ids.New(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate loan reference: %w", err)
	}

	borrowing := &entities.Borrowing{
		Reference:  reference,
		BookID:     in.BookID,
		MemberID:   in.MemberID,
		BorrowDate: now,
		DueDate:    now.Add(time.Duration(in.Days) * day),
		Status:     entities.BorrowingStatusBorrowed,
		CreatedAt:  now,
	}

	err = s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		book, err := uow.Books.GetByIDForUpdate(in.BookID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewPreconditionError("book %d does not exist", in.BookID)
		}
		if err != nil {
			return err
		}

		member, err := uow.Members.GetByID(in.MemberID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewPreconditionError("member %d does not exist", in.MemberID)
		}
		if err != nil {
			return err
		}

		taken, err := uow.Books.DecrementAvailable(book.ID, now)
		if err != nil {
			return err
		}
		if !taken {
			return NewPreconditionError("no copies of %q are available", book.Title)
		}

		if err := uow.Borrowings.Create(borrowing); err != nil {
			return err
		}

		book.AvailableCopies--
		borrowing.Book = *book
		borrowing.Member = *member
		return nil
	})
	if err != nil {
		if IsPrecondition(err) {
			s.auditor.LogFailure("loan_issue", "book", in.BookID, err)
		}
		return nil, err
	}

	s.auditor.LogChange("loan_issue", "borrowing", borrowing.ID,
		fmt.Sprintf("Issued %q to %s until %s (ref %s)",
			borrowing.Book.Title, borrowing.Member.Name, borrowing.DueDate.Format("2006-01-02"), borrowing.Reference))
	return borrowing, nil
}

// Return closes a loan and puts the copy back on the shelf. Returning a loan
// that is already closed changes nothing and reports returned=false.
func (s *CirculationService) Return(ctx context.Context, id uint) (*entities.Borrowing, bool, error) {
	now := s.clock.Now()

	var borrowing *entities.Borrowing
	var returned bool
	err := s.db.Transaction(ctx, func(uow *database.UnitOfWork) error {
		var err error
		borrowing, err = uow.Borrowings.GetByID(id)
		if err != nil {
			return notFoundOr(err, "borrowing", id)
		}
		if borrowing.Status == entities.BorrowingStatusReturned {
			return nil
		}

		returned, err = uow.Borrowings.MarkReturned(id, now)
		if err != nil {
			return err
		}
		if !returned {
			// closed by a concurrent request since it was read
			return nil
		}

		restocked, err := uow.Books.IncrementAvailable(borrowing.BookID, now)
		if err != nil {
			return err
		}
		if !restocked {
			log.Printf("Book %d already fully shelved while returning borrowing %d", borrowing.BookID, id)
		} else {
			borrowing.Book.AvailableCopies++
		}

		borrowing.Status = entities.BorrowingStatusReturned
		borrowing.ReturnDate = &now
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if returned {
		s.auditor.LogChange("loan_return", "borrowing", borrowing.ID,
			fmt.Sprintf("%s returned %q", borrowing.Member.Name, borrowing.Book.Title))
	}
	return borrowing, returned, nil
}
