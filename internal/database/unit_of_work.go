package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database/audit"
	"github.com/mrlokans/librarydesk/internal/database/books"
	"github.com/mrlokans/librarydesk/internal/database/borrowings"
	"github.com/mrlokans/librarydesk/internal/database/members"
)

// UnitOfWork groups the table repositories bound to a single *gorm.DB handle.
// Inside Transaction the handle is the open transaction, so every write made
// through the repositories commits or rolls back together.
type UnitOfWork struct {
	Books      *books.Repository
	Members    *members.Repository
	Borrowings *borrowings.Repository
}

func newUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		Books:      books.NewRepository(db),
		Members:    members.NewRepository(db),
		Borrowings: borrowings.NewRepository(db),
	}
}

// Repositories returns repositories bound to the base connection, for reads
// that do not need a transaction.
func (d *Database) Repositories(ctx context.Context) *UnitOfWork {
	return newUnitOfWork(d.DB.WithContext(ctx))
}

// Transaction runs fn inside a database transaction. A nil return commits,
// an error (or panic) rolls back and is returned unchanged.
func (d *Database) Transaction(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newUnitOfWork(tx))
	})
}

// Audit returns the audit event repository.
func (d *Database) Audit() *audit.Repository {
	return audit.NewRepository(d.DB)
}
