package entrypoint

import (
	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/services"
)

// Services is the set of application services shared by the HTTP server
// and the CLI commands.
type Services struct {
	Audit       *audit.Service
	Catalog     *services.CatalogService
	Members     *services.MemberService
	Circulation *services.CirculationService
	Search      *services.SearchService
	Dashboard   *services.DashboardService
}

func NewServices(db *database.Database, cfg *config.Config) *Services {
	clock := services.SystemClock()
	auditSvc := audit.NewService(db.Audit())

	policy := services.DefaultLoanPolicy()
	if cfg.Loans.DefaultDays > 0 {
		policy.DefaultDays = cfg.Loans.DefaultDays
	}
	if cfg.Loans.MaxDays > 0 {
		policy.MaxDays = cfg.Loans.MaxDays
	}

	return &Services{
		Audit:       auditSvc,
		Catalog:     services.NewCatalogService(db, clock, auditSvc),
		Members:     services.NewMemberService(db, clock, auditSvc),
		Circulation: services.NewCirculationService(db, clock, services.ULIDGenerator(), auditSvc, policy),
		Search:      services.NewSearchService(db),
		Dashboard:   services.NewDashboardService(db, clock),
	}
}
