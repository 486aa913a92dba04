package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditRepo "github.com/mrlokans/librarydesk/internal/database/audit"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
)

var _ services.Auditor = (*Service)(nil)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// background writes must see the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventBook,
		Action:      "book_create",
		Description: "Added book Dune",
		Status:      entities.AuditStatusSuccess,
	}

	err := svc.Log(event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "book_create", saved.Action)
}

func TestService_LogChange(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogChange("loan_issue", "borrowing", 42, `Issued "Dune" to Alice`)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "loan_issue").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventCirculation, event.EventType)
	assert.Equal(t, entities.AuditStatusSuccess, event.Status)
	assert.Equal(t, "borrowing", event.EntityType)
	require.NotNil(t, event.EntityID)
	assert.Equal(t, uint(42), *event.EntityID)
}

func TestService_LogFailure(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogFailure("book_delete", "book", 7, errors.New("cannot delete: 1 copies are still on loan"))
	svc.LogFailure("member_delete", "member", 0, nil)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "book_delete").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventBook, event.EventType)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Contains(t, event.ErrorMsg, "still on loan")

	var anonymous entities.AuditEvent
	err = db.Where("action = ?", "member_delete").First(&anonymous).Error
	require.NoError(t, err)
	assert.Nil(t, anonymous.EntityID)
	assert.Empty(t, anonymous.ErrorMsg)
}

func TestService_LogImport(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful import", func(t *testing.T) {
		svc.LogImport("csv", "Imported 5 books", 5, 1, nil)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "csv_import").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "Imported 5 books", event.Description)
		assert.Contains(t, event.Metadata, `"imported":5`)
		assert.Contains(t, event.Metadata, `"failed":1`)
	})

	t.Run("failed import", func(t *testing.T) {
		svc.LogImport("yaml", "Seed failed", 0, 0, errors.New("yaml: line 3: did not find expected key"))
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "yaml_import").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Contains(t, event.ErrorMsg, "did not find expected key")
	})
}

func TestService_LogMaintenance(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogMaintenance("overdue_scan", "3 loans overdue", map[string]any{"overdue": 3}, nil)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "overdue_scan").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventMaintenance, event.EventType)
	assert.Equal(t, `{"overdue":3}`, event.Metadata)
}

func TestService_GetEventsAndHistory(t *testing.T) {
	svc, _ := setupTestService(t)

	for i := 0; i < 5; i++ {
		svc.LogChange("book_update", "book", 1, "Updated book")
	}
	svc.LogChange("member_update", "member", 1, "Updated member")
	svc.Wait()

	events, total, err := svc.GetEvents(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, events, 6)

	byType, total, err := svc.GetEventsByType(entities.AuditEventMember, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "member_update", byType[0].Action)

	history, err := svc.History("book", 1)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestService_SinceAndEvent(t *testing.T) {
	svc, db := setupTestService(t)

	old := &entities.AuditEvent{EventType: entities.AuditEventBook, Action: "book_create", CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, db.Create(old).Error)
	svc.LogChange("book_update", "book", 1, "Updated book")
	svc.Wait()

	recent, err := svc.Since(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "book_update", recent[0].Action)

	event, err := svc.Event(old.ID)
	require.NoError(t, err)
	assert.Equal(t, "book_create", event.Action)

	_, err = svc.Event(999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	oldEvent := &entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		EventType: entities.AuditEventBook,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)

	_, err = svc.DeleteOldEvents(0)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		result := truncate(tc.input, tc.maxLen)
		assert.Equal(t, tc.expected, result)
	}
}
