package session

import (
	"context"

	"github.com/gin-gonic/gin"
)

const flashKey = "flashes"

// Flash categories, rendered as CSS classes.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot notice displayed on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// Flash queues a notice for the next page this browser renders.
func (m *Manager) Flash(c *gin.Context, kind, message string) {
	m.addFlash(c.Request.Context(), Flash{Kind: kind, Message: message})
}

// PopFlashes returns and clears the queued notices.
func (m *Manager) PopFlashes(c *gin.Context) []Flash {
	flashes, _ := m.Pop(c.Request.Context(), flashKey).([]Flash)
	return flashes
}

func (m *Manager) addFlash(ctx context.Context, f Flash) {
	flashes, _ := m.Get(ctx, flashKey).([]Flash)
	m.Put(ctx, flashKey, append(flashes, f))
}
