package entrypoint

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/database"
	http_controllers "github.com/mrlokans/librarydesk/internal/http"
	"github.com/mrlokans/librarydesk/internal/maintenance"
	"github.com/mrlokans/librarydesk/internal/metadata"
	"github.com/mrlokans/librarydesk/internal/scheduler"
	"github.com/mrlokans/librarydesk/internal/session"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Stop background work after in-flight requests are drained.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting LibraryDesk v%s", version)

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	svc := NewServices(db, cfg)
	defer svc.Audit.Wait()

	var isbnLookup metadata.ISBNLookup
	var enricher *metadata.Enricher
	if cfg.Metadata.Enabled {
		client := metadata.NewOpenLibraryClient(cfg.Metadata.OpenLibraryURL, cfg.Metadata.RequestGap)
		isbnLookup = client
		enricher = metadata.NewEnricher(client, db.Repositories(context.Background()).Books)
		log.Printf("OpenLibrary metadata enabled (%s)", cfg.Metadata.OpenLibraryURL)
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var sched *scheduler.Scheduler
	if cfg.Tasks.Enabled {
		taskClient, err = newTaskClient(cfg, svc, enricher)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Scheduler.Enabled {
			sched = scheduler.New(taskClient, scheduler.Config{
				OverdueScanSchedule:  cfg.Scheduler.OverdueScanSchedule,
				AuditCleanupSchedule: cfg.Scheduler.AuditCleanupSchedule,
				AuditRetentionDays:   cfg.Audit.RetentionDays,
			})
			if err := sched.Start(taskCtx); err != nil {
				log.Fatalf("Failed to start scheduler: %v", err)
			}
		}
	} else if cfg.Scheduler.Enabled {
		log.Printf("WARNING: scheduler needs the task queue; set TASKS_ENABLED=true to run scheduled jobs")
	}

	sessions, err := newSessionManager(db, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	secret, err := CSRFSecret(cfg.Session.Secret)
	if err != nil {
		log.Fatalf("Failed to prepare CSRF secret: %v", err)
	}
	if cfg.Session.Secret == "" {
		log.Printf("Generated CSRF secret (set SESSION_SECRET to keep forms valid across restarts)")
	}

	if cfg.ReadOnly {
		log.Printf("Read-only mode enabled - write operations will be blocked")
	}

	routerCfg := http_controllers.RouterConfig{
		Catalog:       svc.Catalog,
		Members:       svc.Members,
		Circulation:   svc.Circulation,
		Search:        svc.Search,
		Dashboard:     svc.Dashboard,
		Audit:         svc.Audit,
		Database:      db,
		Version:       version,
		Sessions:      sessions,
		CSRFSecret:    secret,
		SecureCookies: cfg.Session.SecureCookies,
		Maintenance:   maintenance.NewMiddleware(cfg.ReadOnly),
		CORSOrigins:   cfg.CORSOrigins,
		StaticPath:    cfg.UI.StaticPath,
		ISBNLookup:    isbnLookup,
	}
	if taskClient != nil && enricher != nil {
		routerCfg.Tasks = taskClient
	}
	if sched != nil {
		routerCfg.Jobs = sched
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// OpenDatabase connects with the configured driver and migrates the schema.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	return database.NewDatabase(database.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.DSN,
		LogLevel: cfg.Database.LogLevel,
	})
}

func newTaskClient(cfg *config.Config, svc *Services, enricher *metadata.Enricher) (*tasks.Client, error) {
	taskCfg := tasks.DefaultConfig()
	if cfg.Tasks.Workers > 0 {
		taskCfg.Workers = cfg.Tasks.Workers
	}
	if cfg.Tasks.ReleaseAfter > 0 {
		taskCfg.ReleaseAfter = cfg.Tasks.ReleaseAfter
	}
	if cfg.Tasks.CleanupInterval > 0 {
		taskCfg.CleanupInterval = cfg.Tasks.CleanupInterval
	}
	if cfg.Audit.RetentionDays > 0 {
		taskCfg.AuditRetentionDays = cfg.Audit.RetentionDays
	}

	// The queue keeps its own SQLite file even when the library lives in
	// MySQL or PostgreSQL.
	client, err := tasks.NewClient(tasks.TasksDBPath(cfg.Database.Path), taskCfg)
	if err != nil {
		return nil, err
	}

	client.Register(
		tasks.NewOverdueScanQueue(svc.Circulation, svc.Audit),
		tasks.NewCleanupAuditEventsQueue(svc.Audit, svc.Audit),
	)
	if enricher != nil {
		client.Register(
			tasks.NewEnrichBookQueue(enricher),
			tasks.NewEnrichAllBooksQueue(enricher, svc.Audit),
		)
	}
	return client, nil
}

// newSessionManager keeps sessions in the library database when it is
// SQLite and in memory otherwise.
func newSessionManager(db *database.Database, cfg *config.Config) (*session.Manager, error) {
	opts := session.Options{
		Lifetime:      cfg.Session.Lifetime,
		SecureCookies: cfg.Session.SecureCookies,
	}
	if db.Driver() != database.DriverSQLite {
		log.Printf("Sessions are kept in memory for the %s driver", db.Driver())
		return session.NewManager(nil, opts)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("get SQL DB for sessions: %w", err)
	}
	return session.NewManager(sqlDB, opts)
}

// CSRFSecret decodes a hex SESSION_SECRET, uses any other value as raw
// bytes, and generates a random key when it is empty.
func CSRFSecret(configured string) ([]byte, error) {
	if configured == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		return secret, nil
	}
	if secret, err := hex.DecodeString(configured); err == nil && len(secret) == 32 {
		return secret, nil
	}
	if len(configured) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be 32 bytes or 64 hex characters")
	}
	return []byte(configured)[:32], nil
}
