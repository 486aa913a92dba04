package entrypoint

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/services"
)

func TestCSRFSecret(t *testing.T) {
	t.Run("generated", func(t *testing.T) {
		a, err := CSRFSecret("")
		require.NoError(t, err)
		b, err := CSRFSecret("")
		require.NoError(t, err)
		assert.Len(t, a, 32)
		assert.NotEqual(t, a, b)
	})

	t.Run("hex", func(t *testing.T) {
		raw := strings.Repeat("ab", 32)
		secret, err := CSRFSecret(raw)
		require.NoError(t, err)
		expected, _ := hex.DecodeString(raw)
		assert.Equal(t, expected, secret)
	})

	t.Run("raw bytes", func(t *testing.T) {
		secret, err := CSRFSecret("a-long-passphrase-used-as-the-csrf-key!")
		require.NoError(t, err)
		assert.Equal(t, []byte("a-long-passphrase-used-as-the-cs"), secret)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := CSRFSecret("short")
		assert.Error(t, err)
	})
}

func TestNewServices(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "library.db")
	cfg.Database.LogLevel = "silent"
	cfg.Loans.DefaultDays = 21

	db, err := OpenDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	svc := NewServices(db, cfg)
	defer svc.Audit.Wait()

	assert.Equal(t, services.LoanPolicy{DefaultDays: 21, MaxDays: 90}, svc.Circulation.Policy())

	ctx := context.Background()
	book, err := svc.Catalog.CreateBook(ctx, services.BookInput{
		Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Category: "Fiction", Quantity: 1,
	})
	require.NoError(t, err)

	results, err := svc.Search.Search(ctx, "Dune")
	require.NoError(t, err)
	require.Len(t, results.Books, 1)
	assert.Equal(t, book.ID, results.Books[0].ID)
}

func TestNewSessionManager_SQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "library.db")
	cfg.Database.LogLevel = "silent"

	db, err := OpenDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	manager, err := newSessionManager(db, cfg)
	require.NoError(t, err)
	assert.NotNil(t, manager)
}
