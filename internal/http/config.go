package http

import (
	"github.com/mrlokans/librarydesk/internal/maintenance"
	"github.com/mrlokans/librarydesk/internal/metadata"
	"github.com/mrlokans/librarydesk/internal/session"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Operation layer
	Catalog     BookCatalog
	Members     MemberDirectory
	Circulation Circulation
	Search      Searcher
	Dashboard   StatsProvider

	// Audit trail reader for /api/audit (optional)
	Audit AuditReader

	// Health checks
	Database Pinger
	Version  string

	// Sessions carry flash notices; CSRF is enabled when CSRFSecret is set.
	Sessions      *session.Manager
	CSRFSecret    []byte
	SecureCookies bool

	// Read-only maintenance mode (optional)
	Maintenance *maintenance.Middleware

	// Allowed origins for the JSON API; empty disables CORS headers.
	CORSOrigins []string

	// Static assets are served from disk when set, otherwise from the binary.
	StaticPath string

	// OpenLibrary lookups (optional)
	ISBNLookup metadata.ISBNLookup

	// Background enrichment of new books (optional)
	Tasks TaskEnqueuer

	// Periodic maintenance jobs shown on the dashboard (optional)
	Jobs JobRunner
}
