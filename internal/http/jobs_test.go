package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/scheduler"
)

type stubJobs struct {
	next map[string]time.Time
	ran  []string
	err  error
}

func (s *stubJobs) NextRuns() map[string]time.Time { return s.next }

func (s *stubJobs) RunNow(name string) error {
	if _, ok := jobLabels[name]; !ok {
		return fmt.Errorf("%w %q", scheduler.ErrUnknownJob, name)
	}
	if s.err != nil {
		return s.err
	}
	s.ran = append(s.ran, name)
	return nil
}

func TestJobsController(t *testing.T) {
	jobs := &stubJobs{next: map[string]time.Time{
		"overdue_scan": time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
	}}
	app := setupTestApp(t, func(cfg *RouterConfig) {
		cfg.Jobs = jobs
	})

	t.Run("dashboard lists jobs", func(t *testing.T) {
		rr := app.do(http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Overdue scan")
		assert.Contains(t, body, "2024-03-02 08:00 UTC")
		assert.Contains(t, body, "disabled")
	})

	t.Run("api lists jobs", func(t *testing.T) {
		rr := app.do(http.MethodGet, "/api/jobs", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Jobs []jobInfo `json:"jobs"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Jobs, 2)
		assert.Equal(t, "cleanup_audit_events", body.Jobs[0].Name)
		assert.True(t, body.Jobs[0].NextRun.IsZero())
		assert.Equal(t, "overdue_scan", body.Jobs[1].Name)
	})

	t.Run("run now", func(t *testing.T) {
		rr := app.do(http.MethodPost, "/jobs/run/overdue_scan", nil)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, []string{"overdue_scan"}, jobs.ran)

		rr = app.do(http.MethodGet, "/", nil)
		assert.Contains(t, rr.Body.String(), "Overdue scan queued.")
	})

	t.Run("unknown job", func(t *testing.T) {
		rr := app.do(http.MethodPost, "/jobs/run/reindex", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("queue failure", func(t *testing.T) {
		jobs.err = errors.New("queue closed")
		defer func() { jobs.err = nil }()

		rr := app.do(http.MethodPost, "/jobs/run/cleanup_audit_events", nil)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		rr = app.do(http.MethodGet, "/", nil)
		assert.Contains(t, rr.Body.String(), "Could not queue job: queue closed")
	})
}

func TestDashboard_NoJobsSection(t *testing.T) {
	app := setupTestApp(t)
	rr := app.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Maintenance jobs")
}
