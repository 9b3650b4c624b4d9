package tasks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
	"rbxmart_echo/internal/services"
)

// ExpireStalePaymentsTaskDef encapsulates the pending payment expiry sweep.
// It runs as a recurring task so abandoned checkouts eventually leave the
// pending state even if the gateway never calls back.
type ExpireStalePaymentsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *ExpireStalePaymentsTaskDef) TaskID() string {
	return "expire_stale_payments"
}

// CreateTask builds the recurring ScheduledTask record for the sweep
func (t *ExpireStalePaymentsTaskDef) CreateTask(interval string) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), map[string]interface{}{}, time.Now(), &interval, models.ScheduledTaskTypeRecurring, 1)
}

// HandleExecution expires every pending bundle whose payment window elapsed
func (t *ExpireStalePaymentsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	reconcileService := services.NewReconcileService(db)

	expired, err := reconcileService.ExpireStalePayments(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":        "success",
		"expired_count": expired,
	}, nil
}

// ExpireStalePaymentsTask is the singleton instance of ExpireStalePaymentsTaskDef
var ExpireStalePaymentsTask = &ExpireStalePaymentsTaskDef{}
