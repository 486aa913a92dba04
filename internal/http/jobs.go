package http

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/scheduler"
	"github.com/mrlokans/librarydesk/internal/session"
)

var jobLabels = map[string]string{
	"overdue_scan":         "Overdue scan",
	"cleanup_audit_events": "Audit log cleanup",
}

type jobInfo struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	NextRun time.Time `json:"next_run"`
}

// scheduledJobs lists every known job, including disabled ones with a zero NextRun.
func scheduledJobs(jobs JobRunner) []jobInfo {
	if jobs == nil {
		return nil
	}
	next := jobs.NextRuns()

	out := make([]jobInfo, 0, len(jobLabels))
	for name, label := range jobLabels {
		out = append(out, jobInfo{Name: name, Label: label, NextRun: next[name]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type JobsController struct {
	pages
	jobs JobRunner
}

func NewJobsController(p pages, jobs JobRunner) *JobsController {
	return &JobsController{pages: p, jobs: jobs}
}

// GET /api/jobs
func (jc *JobsController) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": scheduledJobs(jc.jobs)})
}

// Run queues a job immediately; the dashboard's "Run now" buttons post here.
// POST /jobs/run/:name
func (jc *JobsController) Run(c *gin.Context) {
	name := c.Param("name")
	if err := jc.jobs.RunNow(name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			c.String(http.StatusNotFound, "Not found")
			return
		}
		jc.redirect(c, "/", session.FlashError, "Could not queue job: "+err.Error())
		return
	}
	jc.redirect(c, "/", session.FlashSuccess, fmt.Sprintf("%s queued.", jobLabels[name]))
}
