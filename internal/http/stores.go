package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
)

// Each controller depends only on the operations it calls. The services
// package provides the production implementations.

// BookCatalog is the book half of the operation layer.
type BookCatalog interface {
	ListBooks(ctx context.Context, query string) ([]entities.Book, error)
	ListAvailableBooks(ctx context.Context) ([]entities.Book, error)
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	CreateBook(ctx context.Context, in services.BookInput) (*entities.Book, error)
	UpdateBook(ctx context.Context, id uint, in services.BookInput) (*entities.Book, error)
	DeleteBook(ctx context.Context, id uint) (*entities.Book, error)
}

// MemberDirectory is the member half of the operation layer.
type MemberDirectory interface {
	ListMembers(ctx context.Context, query string) ([]entities.Member, error)
	GetMember(ctx context.Context, id uint) (*entities.Member, error)
	MemberLoans(ctx context.Context, id uint) (*entities.Member, []services.Loan, error)
	CreateMember(ctx context.Context, in services.MemberInput) (*entities.Member, error)
	UpdateMember(ctx context.Context, id uint, in services.MemberInput) (*entities.Member, error)
	DeleteMember(ctx context.Context, id uint) (*entities.Member, error)
}

// Circulation issues and returns loans.
type Circulation interface {
	Policy() services.LoanPolicy
	ListBorrowings(ctx context.Context, filter entities.BorrowingFilter) ([]services.Loan, error)
	GetBorrowing(ctx context.Context, id uint) (*services.Loan, error)
	Issue(ctx context.Context, in services.IssueInput) (*entities.Borrowing, error)
	Return(ctx context.Context, id uint) (*entities.Borrowing, bool, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) (*services.SearchResults, error)
}

type StatsProvider interface {
	Stats(ctx context.Context) (*services.Stats, error)
}

// AuditReader lists recorded audit events.
type AuditReader interface {
	GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	History(entityType string, entityID uint) ([]entities.AuditEvent, error)
	Since(since time.Time) ([]entities.AuditEvent, error)
	Event(id uint) (*entities.AuditEvent, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// TaskEnqueuer adds a job to the background queue.
type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// JobRunner exposes the periodic maintenance jobs.
type JobRunner interface {
	NextRuns() map[string]time.Time
	RunNow(name string) error
}
