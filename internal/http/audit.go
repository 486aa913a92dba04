package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/entities"
)

type AuditController struct {
	audit AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{audit: reader}
}

// GetAuditEvents returns paginated audit events as JSON, the full history of
// one record with ?entity_type=book&entity_id=3, or everything recorded after
// an RFC 3339 timestamp with ?since=.
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	if entityType := c.Query("entity_type"); entityType != "" {
		ac.entityHistory(c, entityType)
		return
	}
	if since := c.Query("since"); since != "" {
		ac.recentEvents(c, since)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	var events []entities.AuditEvent
	var total int64
	var err error
	if eventType := c.Query("type"); eventType != "" {
		events, total, err = ac.audit.GetEventsByType(entities.AuditEventType(eventType), limit, offset)
	} else {
		events, total, err = ac.audit.GetEvents(limit, offset)
	}
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: totalPages,
	})
}

// GetAuditEvent returns one audit event.
// GET /api/audit/:id
func (ac *AuditController) GetAuditEvent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondNotFound(c, "Audit event")
		return
	}

	event, err := ac.audit.Event(uint(id))
	if errors.Is(err, audit.ErrEventNotFound) {
		respondNotFound(c, "Audit event")
		return
	}
	if err != nil {
		respondInternalError(c, err, "audit event")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (ac *AuditController) recentEvents(c *gin.Context, raw string) {
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondBadRequest(c, "since must be an RFC 3339 timestamp")
		return
	}

	events, err := ac.audit.Since(since)
	if err != nil {
		respondInternalError(c, err, "recent audit events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (ac *AuditController) entityHistory(c *gin.Context, entityType string) {
	id, err := strconv.ParseUint(c.Query("entity_id"), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "entity_id must be a positive integer")
		return
	}

	events, err := ac.audit.History(entityType, uint(id))
	if err != nil {
		respondInternalError(c, err, "audit history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
