package entities

import "time"

type AuditEventType string

const (
	AuditEventBook        AuditEventType = "book"
	AuditEventMember      AuditEventType = "member"
	AuditEventCirculation AuditEventType = "circulation"
	AuditEventImport      AuditEventType = "import"
	AuditEventMaintenance AuditEventType = "maintenance"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "book_create", "loan_issue"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`  // "book", "member", "borrowing"
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

// EventTypeForEntity maps an entity type name to the audit category it belongs to.
func EventTypeForEntity(entityType string) AuditEventType {
	switch entityType {
	case "book":
		return AuditEventBook
	case "member":
		return AuditEventMember
	case "borrowing":
		return AuditEventCirculation
	default:
		return AuditEventMaintenance
	}
}
