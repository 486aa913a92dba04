package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Loans
		UI
		Session
		Audit
		Tasks
		Scheduler
		Metadata
	}

	HTTP struct {
		Port        int32
		Host        string
		CORSOrigins []string // empty disables CORS on /api
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		ReadOnly                 bool // reject every mutating request with 503
	}
	Database struct {
		Driver   string // sqlite, mysql or postgres
		Path     string // sqlite only
		DSN      string // mysql and postgres
		LogLevel string
	}
	Loans struct {
		DefaultDays int
		MaxDays     int
	}
	UI struct {
		StaticPath string // empty serves the embedded assets
	}
	Session struct {
		Secret        string // CSRF key, generated per process when empty
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
	}
	Audit struct {
		RetentionDays int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Scheduler struct {
		Enabled              bool
		OverdueScanSchedule  string // Cron format, empty disables the job
		AuditCleanupSchedule string
	}
	Metadata struct {
		Enabled        bool
		OpenLibraryURL string
		RequestGap     time.Duration // minimum gap between OpenLibrary calls
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(true) // OVERDUE_SCAN_SCHEDULE= disables the job
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("read_only", false)
	v.SetDefault("cors_allowed_origins", "")

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("loan_default_days", 14)
	v.SetDefault("loan_max_days", 90)
	v.SetDefault("static_path", "")

	v.SetDefault("session_secret", "")
	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("secure_cookies", false)

	v.SetDefault("audit_retention_days", 90)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_workers", 2)
	v.SetDefault("tasks_release_after", "15m")
	v.SetDefault("tasks_cleanup_interval", "1h")

	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("overdue_scan_schedule", DefaultOverdueScanSchedule)
	v.SetDefault("audit_cleanup_schedule", DefaultAuditCleanupSchedule)

	v.SetDefault("metadata_enabled", false)
	v.SetDefault("openlibrary_url", "https://openlibrary.org")
	v.SetDefault("openlibrary_request_gap", "1s")

	return &Config{
		HTTP: HTTP{
			Port:        v.GetInt32("PORT"),
			Host:        v.GetString("HOST"),
			CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			ReadOnly:                 v.GetBool("READ_ONLY"),
		},
		Database: Database{
			Driver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Loans: Loans{
			DefaultDays: v.GetInt("LOAN_DEFAULT_DAYS"),
			MaxDays:     v.GetInt("LOAN_MAX_DAYS"),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
		},
		Session: Session{
			Secret:        v.GetString("SESSION_SECRET"),
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASKS_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASKS_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASKS_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			Enabled:              v.GetBool("SCHEDULER_ENABLED"),
			OverdueScanSchedule:  v.GetString("OVERDUE_SCAN_SCHEDULE"),
			AuditCleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Metadata: Metadata{
			Enabled:        v.GetBool("METADATA_ENABLED"),
			OpenLibraryURL: v.GetString("OPENLIBRARY_URL"),
			RequestGap:     v.GetDuration("OPENLIBRARY_REQUEST_GAP"),
		},
	}
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
