package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/librarydesk/internal/tasks"
)

// Enqueuer adds a task to the background queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Config holds the cron expressions of the periodic jobs. An empty
// expression disables that job.
type Config struct {
	OverdueScanSchedule  string
	AuditCleanupSchedule string
	AuditRetentionDays   int
}

// ErrUnknownJob is returned by RunNow for a name that is not a periodic job.
var ErrUnknownJob = errors.New("unknown job")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// DescribeSchedule returns a human-readable description of common schedules.
func DescribeSchedule(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 8 * * *":
		return "Daily at 08:00"
	case "30 3 * * *":
		return "Daily at 03:30"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// Scheduler enqueues the overdue scan and audit cleanup on their schedules.
// The jobs themselves run on the task queue workers.
type Scheduler struct {
	queue  Enqueuer
	config Config

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// New creates a scheduler. Schedules are validated by Start.
func New(queue Enqueuer, cfg Config) *Scheduler {
	return &Scheduler{
		queue:   queue,
		config:  cfg,
		cron:    cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the configured jobs and starts the cron loop. The
// scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	jobs := []struct {
		name     string
		schedule string
		task     backlite.Task
	}{
		{"overdue_scan", s.config.OverdueScanSchedule, tasks.OverdueScanTask{}},
		{"cleanup_audit_events", s.config.AuditCleanupSchedule, tasks.CleanupAuditEventsTask{RetentionDays: s.config.AuditRetentionDays}},
	}

	for _, job := range jobs {
		if job.schedule == "" {
			log.Printf("[SCHEDULER] %s: disabled", job.name)
			continue
		}
		if err := ValidateSchedule(job.schedule); err != nil {
			s.removeAll()
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.schedule, job.name, err)
		}

		task := job.task
		name := job.name
		entryID, err := s.cron.AddFunc(job.schedule, func() { s.enqueue(name, task) })
		if err != nil {
			s.removeAll()
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		s.entries[job.name] = entryID
		log.Printf("[SCHEDULER] %s: scheduled '%s' (%s)", job.name, job.schedule, DescribeSchedule(job.schedule))
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for in-flight enqueues.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("[SCHEDULER] stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next run time of each scheduled job.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		runs[name] = s.cron.Entry(id).Next
	}
	return runs
}

// RunNow enqueues the named job immediately.
func (s *Scheduler) RunNow(name string) error {
	switch name {
	case "overdue_scan":
		return s.enqueue(name, tasks.OverdueScanTask{})
	case "cleanup_audit_events":
		return s.enqueue(name, tasks.CleanupAuditEventsTask{RetentionDays: s.config.AuditRetentionDays})
	default:
		return fmt.Errorf("%w %q", ErrUnknownJob, name)
	}
}

func (s *Scheduler) enqueue(name string, task backlite.Task) error {
	id, err := s.queue.Enqueue(task)
	if err != nil {
		log.Printf("[SCHEDULER] %s: failed to enqueue: %v", name, err)
		return err
	}
	log.Printf("[SCHEDULER] %s: enqueued task %s", name, id)
	return nil
}

func (s *Scheduler) removeAll() {
	for name, id := range s.entries {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}
