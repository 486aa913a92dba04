package members

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Member{})
	require.NoError(t, err)

	return db
}

func TestRepository_Members(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	alice := &entities.Member{Name: "Alice", Email: "a@x.org", Phone: "555-0100"}
	bob := &entities.Member{Name: "Bob", Email: "bob@example.com", Phone: "555-0199"}
	require.NoError(t, repo.Create(alice))
	require.NoError(t, repo.Create(bob))

	t.Run("get by id and email", func(t *testing.T) {
		found, err := repo.GetByID(alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", found.Name)

		found, err = repo.GetByEmail("bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, found.ID)

		_, err = repo.GetByEmail("nobody@example.com")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := repo.Create(&entities.Member{Name: "Other", Email: "a@x.org", Phone: "1"})
		assert.Error(t, err)
	})

	t.Run("search name email phone", func(t *testing.T) {
		found, err := repo.Search("Bob")
		require.NoError(t, err)
		assert.Len(t, found, 1)

		found, err = repo.Search("555-01")
		require.NoError(t, err)
		assert.Len(t, found, 2)

		found, err = repo.Search("alice")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("save", func(t *testing.T) {
		alice.Phone = "555-0101"
		require.NoError(t, repo.Save(alice))
		found, err := repo.GetByID(alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "555-0101", found.Phone)
	})

	t.Run("list and delete", func(t *testing.T) {
		list, err := repo.List()
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, alice.ID, list[0].ID)

		require.NoError(t, repo.Delete(bob.ID))
		assert.ErrorIs(t, repo.Delete(bob.ID), gorm.ErrRecordNotFound)

		count, err := repo.Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
