package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./library.db"

	DefaultOverdueScanSchedule  = "0 8 * * *"  // daily at 08:00 UTC
	DefaultAuditCleanupSchedule = "30 3 * * *" // daily at 03:30 UTC
)
