package session

import (
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

const cookieName = "librarydesk_session"

func init() {
	gob.Register([]Flash{})
}

// Options configures the session cookie.
type Options struct {
	Lifetime      time.Duration
	SecureCookies bool
}

// Manager wraps scs.SessionManager with flash notices and a gin adapter.
type Manager struct {
	*scs.SessionManager
}

// NewManager creates a session manager. When sqlDB is a SQLite handle the
// sessions survive restarts; pass nil to keep them in memory.
func NewManager(sqlDB *sql.DB, opts Options) (*Manager, error) {
	sm := scs.New()

	if sqlDB != nil {
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, fmt.Errorf("create sessions table: %w", err)
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	if opts.Lifetime <= 0 {
		opts.Lifetime = 24 * time.Hour
	}
	sm.Lifetime = opts.Lifetime
	sm.IdleTimeout = opts.Lifetime / 2

	sm.Cookie.Name = cookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = opts.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm}, nil
}
