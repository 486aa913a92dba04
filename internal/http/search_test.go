package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchController(t *testing.T) {
	app := setupTestApp(t)
	app.book("Dune", "111", 1)
	app.book("Neuromancer", "222", 1)
	app.member("Alice", "alice@example.com")

	t.Run("empty query finds nothing", func(t *testing.T) {
		rr := app.do(http.MethodGet, "/search?q=", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Books (0)")
		assert.Contains(t, body, "Members (0)")
		assert.NotContains(t, body, "Dune")
		assert.NotContains(t, body, "Alice")
	})

	t.Run("empty book search lists everything", func(t *testing.T) {
		rr := app.do(http.MethodGet, "/books?search=", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Dune")
		assert.Contains(t, rr.Body.String(), "Neuromancer")
	})

	t.Run("matches books and members", func(t *testing.T) {
		rr := app.do(http.MethodGet, "/search?q=Alice", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Books (0)")
		assert.Contains(t, body, "Members (1)")
		assert.Contains(t, body, `href="/members/`)

		rr = app.do(http.MethodGet, "/search?q=Dune", nil)
		assert.Contains(t, rr.Body.String(), "Books (1)")
		assert.NotContains(t, rr.Body.String(), "Neuromancer")
	})
}
