package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarydesk/internal/services"
)

// OverdueLister returns the loans that are currently past due.
type OverdueLister interface {
	Overdue(ctx context.Context) ([]services.Loan, error)
}

// MaintenanceLogger records the outcome of a background job.
type MaintenanceLogger interface {
	LogMaintenance(action, description string, metadata map[string]any, err error)
}

// OverdueScanTask reports every loan past its due date.
type OverdueScanTask struct{}

// Config returns the queue configuration for overdue scans.
func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_scan",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueScanProcessor logs each overdue loan and writes one audit summary per run.
func OverdueScanProcessor(lister OverdueLister, logger MaintenanceLogger) backlite.QueueProcessor[OverdueScanTask] {
	return func(ctx context.Context, _ OverdueScanTask) error {
		if lister == nil {
			return fmt.Errorf("overdue lister not configured")
		}

		loans, err := lister.Overdue(ctx)
		if err != nil {
			if logger != nil {
				logger.LogMaintenance("overdue_scan", "Overdue scan failed", nil, err)
			}
			return fmt.Errorf("list overdue loans: %w", err)
		}

		maxDays := 0
		for _, loan := range loans {
			log.Printf("[TASK] Overdue: %q borrowed by %s, due %s (%d days late, ref %s)",
				loan.BookTitle, loan.MemberName, loan.DueDate.Format("2006-01-02"), loan.DaysOverdue, loan.Reference)
			if loan.DaysOverdue > maxDays {
				maxDays = loan.DaysOverdue
			}
		}

		log.Printf("[TASK] Overdue scan complete: %d loans overdue", len(loans))
		if logger != nil {
			logger.LogMaintenance("overdue_scan",
				fmt.Sprintf("%d loans overdue", len(loans)),
				map[string]any{"overdue": len(loans), "max_days_overdue": maxDays},
				nil)
		}
		return nil
	}
}

// NewOverdueScanQueue creates a backlite queue for overdue scans.
func NewOverdueScanQueue(lister OverdueLister, logger MaintenanceLogger) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(lister, logger))
}
