package services

import (
	"context"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

const recentLoansLimit = 5

// Stats summarises the library for the dashboard.
type Stats struct {
	TotalBooks      int64  `json:"total_books"`
	TotalCopies     int64  `json:"total_copies"`
	AvailableCopies int64  `json:"available_copies"`
	TotalMembers    int64  `json:"total_members"`
	BorrowedBooks   int64  `json:"borrowed_books"`
	OverdueBooks    int64  `json:"overdue_books"`
	ReturnedBooks   int64  `json:"returned_books"`
	RecentLoans     []Loan `json:"recent_loans"`
}

type DashboardService struct {
	db    *database.Database
	clock Clock
}

func NewDashboardService(db *database.Database, clock Clock) *DashboardService {
	return &DashboardService{db: db, clock: clockOrSystem(clock)}
}

func (s *DashboardService) Stats(ctx context.Context) (*Stats, error) {
	repos := s.db.Repositories(ctx)
	now := s.clock.Now()
	stats := &Stats{}

	var err error
	if stats.TotalBooks, err = repos.Books.Count(); err != nil {
		return nil, err
	}
	if stats.TotalCopies, stats.AvailableCopies, err = repos.Books.CountCopies(); err != nil {
		return nil, err
	}
	if stats.TotalMembers, err = repos.Members.Count(); err != nil {
		return nil, err
	}
	if stats.BorrowedBooks, err = repos.Borrowings.CountByStatus(entities.BorrowingStatusBorrowed); err != nil {
		return nil, err
	}
	if stats.ReturnedBooks, err = repos.Borrowings.CountByStatus(entities.BorrowingStatusReturned); err != nil {
		return nil, err
	}
	if stats.OverdueBooks, err = repos.Borrowings.CountOverdue(now); err != nil {
		return nil, err
	}

	recent, err := repos.Borrowings.Recent(recentLoansLimit)
	if err != nil {
		return nil, err
	}
	stats.RecentLoans = toLoans(recent, now)

	return stats, nil
}
