package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	pages
	stats StatsProvider
	jobs  JobRunner
}

func NewDashboardController(p pages, stats StatsProvider, jobs JobRunner) *DashboardController {
	return &DashboardController{pages: p, stats: stats, jobs: jobs}
}

// Index renders the circulation counters and the latest loans.
// GET /
func (dc *DashboardController) Index(c *gin.Context) {
	stats, err := dc.stats.Stats(c.Request.Context())
	if err != nil {
		dc.internalError(c, err, "dashboard stats")
		return
	}

	dc.render(c, http.StatusOK, "index", gin.H{
		"Title": "Dashboard",
		"Stats": stats,
		"Loans": stats.RecentLoans,
		"Jobs":  scheduledJobs(dc.jobs),
	})
}
