package books

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&entities.Book{})
	require.NoError(t, err)

	return db
}

func createBook(t *testing.T, repo *Repository, title, isbn string, quantity, available int) *entities.Book {
	book := &entities.Book{
		Title:           title,
		Author:          "Frank Herbert",
		ISBN:            isbn,
		Category:        "Fiction",
		Quantity:        quantity,
		AvailableCopies: available,
	}
	require.NoError(t, repo.Create(book))
	return book
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	book := createBook(t, repo, "Dune", "9780441013593", 3, 3)
	assert.NotZero(t, book.ID)

	t.Run("by id", func(t *testing.T) {
		found, err := repo.GetByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", found.Title)
		assert.Equal(t, 3, found.AvailableCopies)
	})

	t.Run("by isbn", func(t *testing.T) {
		found, err := repo.GetByISBN("9780441013593")
		require.NoError(t, err)
		assert.Equal(t, book.ID, found.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetByID(999)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("for update inside a transaction", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			found, err := NewRepository(tx).GetByIDForUpdate(book.ID)
			require.NoError(t, err)
			assert.Equal(t, "Dune", found.Title)

			_, err = NewRepository(tx).GetByIDForUpdate(999)
			assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestRepository_DuplicateISBN(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	createBook(t, repo, "Dune", "111", 1, 1)
	err := repo.Create(&entities.Book{Title: "Other", Author: "X", ISBN: "111", Category: "Y", Quantity: 1, AvailableCopies: 1})
	assert.Error(t, err)
}

func TestRepository_ListAndSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	createBook(t, repo, "Dune", "111", 1, 1)
	createBook(t, repo, "Children of Dune", "222", 1, 0)
	createBook(t, repo, "Neuromancer", "333", 2, 2)

	t.Run("list in storage order", func(t *testing.T) {
		books, err := repo.List()
		require.NoError(t, err)
		require.Len(t, books, 3)
		assert.Equal(t, "Dune", books[0].Title)
		assert.Equal(t, "Neuromancer", books[2].Title)
	})

	t.Run("search is case sensitive", func(t *testing.T) {
		books, err := repo.Search("Dune")
		require.NoError(t, err)
		assert.Len(t, books, 2)

		books, err = repo.Search("dune")
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("search matches isbn", func(t *testing.T) {
		books, err := repo.Search("33")
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Neuromancer", books[0].Title)
	})

	t.Run("available only", func(t *testing.T) {
		books, err := repo.ListAvailable()
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, "Dune", books[0].Title)
		assert.Equal(t, "Neuromancer", books[1].Title)
	})
}

func TestRepository_CopyCounters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	now := time.Now()

	book := createBook(t, repo, "Dune", "111", 2, 2)

	t.Run("decrement until empty", func(t *testing.T) {
		ok, err := repo.DecrementAvailable(book.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.DecrementAvailable(book.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.DecrementAvailable(book.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := repo.GetByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, found.AvailableCopies)
	})

	t.Run("increment never exceeds quantity", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			ok, err := repo.IncrementAvailable(book.ID, now)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		ok, err := repo.IncrementAvailable(book.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)

		found, err := repo.GetByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.AvailableCopies)
	})

	t.Run("missing book", func(t *testing.T) {
		ok, err := repo.DecrementAvailable(999, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRepository_SaveDeleteCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	book := createBook(t, repo, "Dune", "111", 3, 1)
	createBook(t, repo, "Emma", "222", 2, 2)

	total, available, err := repo.CountCopies()
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, int64(3), available)

	book.Title = "Dune Messiah"
	require.NoError(t, repo.Save(book))
	found, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", found.Title)

	require.NoError(t, repo.Delete(book.ID))
	assert.ErrorIs(t, repo.Delete(book.ID), gorm.ErrRecordNotFound)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_CountCopiesEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	total, available, err := repo.CountCopies()
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, available)
}

func TestRepository_FillDescription(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	now := time.Now()

	blank := createBook(t, repo, "Dune", "111", 1, 1)
	described := &entities.Book{Title: "Emma", Author: "Jane Austen", ISBN: "222", Category: "Classic",
		Quantity: 1, AvailableCopies: 1, Description: "Written by the librarian"}
	require.NoError(t, repo.Create(described))

	missing, err := repo.ListMissingDescription()
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, blank.ID, missing[0].ID)

	ok, err := repo.FillDescription(blank.ID, "Desert planet", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.FillDescription(described.ID, "Fetched text", now)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetByID(described.ID)
	require.NoError(t, err)
	assert.Equal(t, "Written by the librarian", found.Description)
}
