package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
)

func TestTasksDBPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"library.db", "library-tasks.db"},
		{"/var/lib/librarydesk/library.db", "/var/lib/librarydesk/library-tasks.db"},
		{"data/library", "data/library-tasks"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TasksDBPath(tt.in), tt.in)
	}
}

func TestNewClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library-tasks.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(path, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(path)
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "tasks.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	// Stop before Start is a no-op.
	assert.True(t, client.Stop(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

type echoTask struct {
	Value string `json:"value"`
}

func (t echoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "echo",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestClientEnqueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "tasks.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	executed := make(chan string, 1)
	client.Register(backlite.NewQueue(func(ctx context.Context, task echoTask) error {
		executed <- task.Value
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(echoTask{Value: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestTaskConfigs(t *testing.T) {
	tests := []struct {
		task        backlite.Task
		name        string
		maxAttempts int
	}{
		{EnrichBookTask{BookID: 1}, "enrich_book", 3},
		{EnrichAllBooksTask{}, "enrich_all_books", 1},
		{OverdueScanTask{}, "overdue_scan", 3},
		{CleanupAuditEventsTask{RetentionDays: 30}, "cleanup_audit_events", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.task.Config()
			assert.Equal(t, tt.name, cfg.Name)
			assert.Equal(t, tt.maxAttempts, cfg.MaxAttempts)
			assert.NotNil(t, cfg.Retention)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 90, cfg.AuditRetentionDays)
}

type maintenanceEntry struct {
	action   string
	metadata map[string]any
	err      error
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []maintenanceEntry
}

func (l *recordingLogger) LogMaintenance(action, _ string, metadata map[string]any, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, maintenanceEntry{action: action, metadata: metadata, err: err})
}

type stubOverdue struct {
	loans []services.Loan
	err   error
}

func (s stubOverdue) Overdue(context.Context) ([]services.Loan, error) {
	return s.loans, s.err
}

func TestOverdueScanProcessor(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	loans := []services.Loan{
		{Borrowing: entities.Borrowing{Reference: "A", DueDate: due}, BookTitle: "Dune", MemberName: "Alice", IsOverdue: true, DaysOverdue: 4},
		{Borrowing: entities.Borrowing{Reference: "B", DueDate: due}, BookTitle: "Emma", MemberName: "Bob", IsOverdue: true, DaysOverdue: 9},
	}

	t.Run("summarises overdue loans", func(t *testing.T) {
		logger := &recordingLogger{}
		err := OverdueScanProcessor(stubOverdue{loans: loans}, logger)(context.Background(), OverdueScanTask{})
		require.NoError(t, err)

		require.Len(t, logger.entries, 1)
		assert.Equal(t, "overdue_scan", logger.entries[0].action)
		assert.Equal(t, 2, logger.entries[0].metadata["overdue"])
		assert.Equal(t, 9, logger.entries[0].metadata["max_days_overdue"])
	})

	t.Run("listing failure", func(t *testing.T) {
		logger := &recordingLogger{}
		boom := errors.New("boom")
		err := OverdueScanProcessor(stubOverdue{err: boom}, logger)(context.Background(), OverdueScanTask{})
		assert.ErrorIs(t, err, boom)
		require.Len(t, logger.entries, 1)
		assert.ErrorIs(t, logger.entries[0].err, boom)
	})

	t.Run("not configured", func(t *testing.T) {
		err := OverdueScanProcessor(nil, nil)(context.Background(), OverdueScanTask{})
		assert.Error(t, err)
	})
}

type stubCleaner struct {
	retention time.Duration
	deleted   int64
}

func (s *stubCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	s.retention = retention
	return s.deleted, nil
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("explicit retention", func(t *testing.T) {
		cleaner := &stubCleaner{deleted: 3}
		logger := &recordingLogger{}
		err := CleanupAuditEventsProcessor(cleaner, logger)(context.Background(), CleanupAuditEventsTask{RetentionDays: 30})
		require.NoError(t, err)
		assert.Equal(t, 30*24*time.Hour, cleaner.retention)
		require.Len(t, logger.entries, 1)
		assert.Equal(t, int64(3), logger.entries[0].metadata["deleted"])
	})

	t.Run("default retention and nothing deleted", func(t *testing.T) {
		cleaner := &stubCleaner{}
		logger := &recordingLogger{}
		err := CleanupAuditEventsProcessor(cleaner, logger)(context.Background(), CleanupAuditEventsTask{})
		require.NoError(t, err)
		assert.Equal(t, 90*24*time.Hour, cleaner.retention)
		assert.Empty(t, logger.entries)
	})
}
