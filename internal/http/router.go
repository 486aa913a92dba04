package http

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/session"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(session.SecurityHeadersMiddleware())

	// Session runs first so a CSRF rejection can leave a flash notice.
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.LoadSave())
		if len(cfg.CSRFSecret) > 0 {
			router.Use(cfg.Sessions.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
		}
	}

	if cfg.Maintenance != nil {
		router.Use(cfg.Maintenance.InjectContext())
		router.Use(cfg.Maintenance.Handler())
		if cfg.Maintenance.IsReadOnly() {
			log.Println("Read-only mode enabled: write requests will be rejected")
		}
	}

	router.SetHTMLTemplate(loadTemplates())

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	} else {
		router.StaticFS("/static", staticFiles())
	}

	p := pages{sessions: cfg.Sessions}
	health := NewHealthController(cfg.Database, cfg.Version)
	dashboard := NewDashboardController(p, cfg.Dashboard, cfg.Jobs)
	books := NewBooksController(p, cfg.Catalog, cfg.Tasks)
	members := NewMembersController(p, cfg.Members)
	borrowings := NewBorrowingsController(p, cfg.Circulation, cfg.Catalog, cfg.Members)
	search := NewSearchController(p, cfg.Search)
	api := NewAPIController(cfg.Catalog, cfg.Members, cfg.Circulation, cfg.Dashboard, cfg.ISBNLookup)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	router.GET("/", dashboard.Index)

	router.GET("/books", books.List)
	router.GET("/books/add", books.AddForm)
	router.POST("/books/add", books.Add)
	router.GET("/books/edit/:id", books.EditForm)
	router.POST("/books/edit/:id", books.Edit)
	router.POST("/books/delete/:id", books.Delete)

	router.GET("/members", members.List)
	router.GET("/members/add", members.AddForm)
	router.POST("/members/add", members.Add)
	router.GET("/members/edit/:id", members.EditForm)
	router.POST("/members/edit/:id", members.Edit)
	router.POST("/members/delete/:id", members.Delete)
	router.GET("/members/:id", members.Show)

	router.GET("/borrow", borrowings.List)
	router.GET("/borrow/issue", borrowings.IssueForm)
	router.POST("/borrow/issue", borrowings.Issue)
	router.POST("/borrow/return/:id", borrowings.Return)

	router.GET("/search", search.Search)

	if cfg.Jobs != nil {
		jobs := NewJobsController(p, cfg.Jobs)
		router.POST("/jobs/run/:name", jobs.Run)
		router.GET("/api/jobs", jobs.List)
	}

	// JSON API
	apiGroup := router.Group("/api")
	if len(cfg.CORSOrigins) > 0 {
		apiGroup.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{"GET", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Accept", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	apiGroup.GET("/book/:id", api.GetBook)
	apiGroup.GET("/member/:id", api.GetMember)
	apiGroup.GET("/borrowings", api.ListBorrowings)
	apiGroup.GET("/borrowings/:id", api.GetBorrowing)
	apiGroup.GET("/stats", api.Stats)
	if cfg.ISBNLookup != nil {
		apiGroup.GET("/isbn/:isbn", api.LookupISBN)
	}
	if cfg.Audit != nil {
		audit := NewAuditController(cfg.Audit)
		apiGroup.GET("/audit", audit.GetAuditEvents)
		apiGroup.GET("/audit/:id", audit.GetAuditEvent)
	}

	return router
}
