// Package maintenance implements the read-only switch used while the
// library database is being backed up or migrated.
package maintenance

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyReadOnly carries the read-only flag to templates.
const ContextKeyReadOnly = "read_only"

const (
	blockedMessage = "The library is in read-only maintenance mode. Please try again later."
	retryAfter     = "300"
)

// Middleware rejects mutating requests while read-only mode is on.
// GET, HEAD and OPTIONS always pass.
type Middleware struct {
	readOnly bool
}

func NewMiddleware(readOnly bool) *Middleware {
	return &Middleware{readOnly: readOnly}
}

func (m *Middleware) IsReadOnly() bool {
	return m.readOnly
}

// Handler returns a Gin middleware that answers writes with 503.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.readOnly {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		m.respondBlocked(c)
	}
}

func (m *Middleware) respondBlocked(c *gin.Context) {
	c.Header("Retry-After", retryAfter)

	if strings.Contains(c.GetHeader("Accept"), "application/json") || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     blockedMessage,
			"read_only": true,
		})
		return
	}

	c.Data(http.StatusServiceUnavailable, "text/html; charset=utf-8",
		[]byte("<!DOCTYPE html><html><head><title>Read-only mode</title></head><body><p>"+
			blockedMessage+`</p><p><a href="/">Back to the dashboard</a></p></body></html>`))
	c.Abort()
}

// InjectContext adds the read-only flag to the context for template rendering.
func (m *Middleware) InjectContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyReadOnly, m.readOnly)
		c.Next()
	}
}
