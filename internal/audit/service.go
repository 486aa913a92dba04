package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database/audit"
	"github.com/mrlokans/librarydesk/internal/entities"
)

const maxMessageLen = 500

// ErrEventNotFound is returned by Event for an unknown ID.
var ErrEventNotFound = errors.New("audit event not found")

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("[AUDIT] Failed to log audit event %s: %v", event.Action, err)
		}
	}()
}

// Wait blocks until every event queued with LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogChange records a successful mutation of a book, member or loan.
func (s *Service) LogChange(action, entityType string, entityID uint, description string) {
	s.LogAsync(&entities.AuditEvent{
		EventType:   entities.EventTypeForEntity(entityType),
		Action:      action,
		Description: truncate(description, maxMessageLen),
		EntityType:  entityType,
		EntityID:    entityIDPtr(entityID),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogFailure records a rejected mutation.
func (s *Service) LogFailure(action, entityType string, entityID uint, err error) {
	event := &entities.AuditEvent{
		EventType:  entities.EventTypeForEntity(entityType),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityIDPtr(entityID),
		Status:     entities.AuditStatusFailed,
	}
	if err != nil {
		event.ErrorMsg = truncate(err.Error(), maxMessageLen)
	}
	s.LogAsync(event)
}

// LogImport records a bulk import with its success and failure counts.
func (s *Service) LogImport(source, description string, imported, failed int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventImport,
		Action:      source + "_import",
		Description: truncate(description, maxMessageLen),
		EntityType:  "book",
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"imported": imported,
		"failed":   failed,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxMessageLen)
	}

	s.LogAsync(event)
}

// LogMaintenance records a background job run, such as the overdue scan.
func (s *Service) LogMaintenance(action, description string, metadata map[string]any, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: truncate(description, maxMessageLen),
		Status:      entities.AuditStatusSuccess,
	}
	if len(metadata) > 0 {
		if mdBytes, e := json.Marshal(metadata); e == nil {
			event.Metadata = string(mdBytes)
		}
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxMessageLen)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, limit, offset)
}

// Since returns the events recorded after the given time.
func (s *Service) Since(since time.Time) ([]entities.AuditEvent, error) {
	return s.repo.GetRecentEvents(since)
}

// Event returns a single audit event, or ErrEventNotFound.
func (s *Service) Event(id uint) (*entities.AuditEvent, error) {
	event, err := s.repo.GetEventByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	return event, err
}

// History returns the audit trail of one record.
func (s *Service) History(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(entityType, entityID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", retention)
	}
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func entityIDPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
