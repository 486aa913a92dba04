package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/database"
)

func TestHealthController_Status(t *testing.T) {
	serve := func(controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
		router := gin.New()
		router.GET("/health", controller.Status)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		var response HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w, response
	}

	t.Run("returns healthy when database is connected", func(t *testing.T) {
		db, err := database.NewDatabase(database.Options{Path: ":memory:", LogLevel: "silent"})
		require.NoError(t, err)
		defer db.Close()

		w, response := serve(NewHealthController(db, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("reports not configured when database is nil", func(t *testing.T) {
		w, response := serve(NewHealthController(nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db, err := database.NewDatabase(database.Options{Path: ":memory:", LogLevel: "silent"})
		require.NoError(t, err)
		require.NoError(t, db.Close())

		w, response := serve(NewHealthController(db, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})
}
