package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarydesk/internal/entities"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Options selects the dialect and connection string for NewDatabase.
type Options struct {
	Driver   string // sqlite (default), mysql or postgres
	Path     string // sqlite file path, ":memory:" for tests
	DSN      string // mysql / postgres connection string
	LogLevel string // silent, error, warn (default), info
}

type Database struct {
	DB     *gorm.DB
	driver string
}

func NewDatabase(opts Options) (*Database, error) {
	dialector, err := openDialector(opts)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(opts.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driverName(opts.Driver) == DriverSQLite && opts.Path == ":memory:" {
		// Every pooled connection would otherwise get its own empty in-memory database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Member{},
		&entities.Borrowing{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully (%s)", describe(opts))

	return &Database{DB: db, driver: driverName(opts.Driver)}, nil
}

// NewSQLiteDatabase is a shorthand for the default file-backed setup.
func NewSQLiteDatabase(path string) (*Database, error) {
	return NewDatabase(Options{Driver: DriverSQLite, Path: path, LogLevel: "silent"})
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Driver returns the dialect name the database was opened with.
func (d *Database) Driver() string {
	return d.driver
}

func openDialector(opts Options) (gorm.Dialector, error) {
	switch driverName(opts.Driver) {
	case DriverSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("database path is required for sqlite")
		}
		return sqlite.Open(sqliteDSN(opts.Path)), nil
	case DriverMySQL:
		if opts.DSN == "" {
			return nil, fmt.Errorf("database DSN is required for mysql")
		}
		return mysql.Open(opts.DSN), nil
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("database DSN is required for postgres")
		}
		return postgres.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// sqliteDSN turns on FOREIGN KEY enforcement and a busy timeout for every
// pooled connection; SQLite leaves both off by default. Transactions begin
// IMMEDIATE so they take the write lock up front and wait on the busy timeout
// instead of failing when two readers both try to upgrade.
func sqliteDSN(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

func driverName(driver string) string {
	if driver == "" {
		return DriverSQLite
	}
	return strings.ToLower(driver)
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func describe(opts Options) string {
	if driverName(opts.Driver) == DriverSQLite {
		return "sqlite at " + opts.Path
	}
	return driverName(opts.Driver)
}
