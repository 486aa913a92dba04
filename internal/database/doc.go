// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into table-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite, mysql, postgres) and migrations
//	├── unit_of_work.go  # Transaction boundary shared by the operation layer
//	├── textsearch/      # Case-sensitive substring filters per dialect
//	├── books/           # Book inventory and copy counters
//	├── members/         # Member roster
//	├── borrowings/      # Loan records and the borrowed -> returned transition
//	└── audit/           # Audit trail
//
// # Unit of Work
//
// Operations that write more than one row go through Transaction, which hands
// the callback a UnitOfWork whose repositories all share the transaction:
//
//	err := db.Transaction(ctx, func(uow *database.UnitOfWork) error {
//		ok, err := uow.Books.DecrementAvailable(bookID, now)
//		if err != nil || !ok {
//			return err
//		}
//		return uow.Borrowings.Create(loan)
//	})
//
// Reads use Repositories(ctx), which binds the same repositories to the base
// connection.
//
// # Adding a New Table
//
//  1. Create a new sub-package: internal/database/<name>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in NewDatabase's AutoMigrate call
//  5. Expose the repository on UnitOfWork if operations need it transactionally
package database
