package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
	"rbxmart_echo/internal/services"
)

// SendTransactionNotificationArgs defines the arguments for a transaction
// notification task
type SendTransactionNotificationArgs struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Event          string `json:"event"` // "invoice_created" or "payment_settled"
	AttemptCount   int    `json:"attempt_count"`
}

// SendTransactionNotificationTaskDef encapsulates the transaction notification
// task logic
type SendTransactionNotificationTaskDef struct{}

// TaskID returns the unique identifier for this task. Checkout and
// reconciliation enqueue rows under this same name.
func (t *SendTransactionNotificationTaskDef) TaskID() string {
	return "send_transaction_notification"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendTransactionNotificationTaskDef) CreateTask(args SendTransactionNotificationArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution loads the bundle and delivers the buyer email plus the
// realtime order event for it
func (t *SendTransactionNotificationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var parsedArgs SendTransactionNotificationArgs
	if err := parseArgs(task, &parsedArgs); err != nil {
		return nil, err
	}
	if parsedArgs.GatewayOrderID == "" {
		return nil, fmt.Errorf("gateway_order_id not provided")
	}

	viewService := services.NewTransactionViewService(db)
	bundle, err := viewService.LoadBundle(ctx, parsedArgs.GatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle %s: %w", parsedArgs.GatewayOrderID, err)
	}

	emailService := services.NewEmailService()
	var emailErr error
	switch parsedArgs.Event {
	case "payment_settled":
		emailErr = emailService.SendSettlementEmail(bundle)
	default:
		emailErr = emailService.SendInvoiceEmail(bundle)
	}
	if emailErr != nil {
		log.Printf("Failed to email %s for order %s: %v", parsedArgs.Event, parsedArgs.GatewayOrderID, emailErr)
	}

	notifier := services.NewNotifierService()
	eventErr := notifier.PublishOrderEvent(parsedArgs.Event, bundle)
	if eventErr != nil {
		log.Printf("Failed to publish %s event for order %s: %v", parsedArgs.Event, parsedArgs.GatewayOrderID, eventErr)
	}

	result := map[string]interface{}{
		"gateway_order_id": parsedArgs.GatewayOrderID,
		"event":            parsedArgs.Event,
		"email_sent":       emailErr == nil,
		"event_published":  eventErr == nil,
	}

	if emailErr != nil || eventErr != nil {
		attempt := parsedArgs.AttemptCount
		maxRetries := task.MaxAttempt

		if attempt < maxRetries {
			log.Printf("Notification for %s partially failed. Rescheduling for attempt %d", parsedArgs.GatewayOrderID, attempt+1)

			newArgs := parsedArgs
			newArgs.AttemptCount = attempt + 1

			// Re-schedule in 5 minutes
			nextRun := time.Now().Add(5 * time.Minute)

			newTask, err := BuildScheduledTask(t.TaskID(), newArgs, nextRun, nil, models.ScheduledTaskTypeOneTime, maxRetries)
			if err == nil {
				db.Create(newTask)
			} else {
				log.Printf("Failed to create retry task: %v", err)
			}
			return result, nil
		}

		log.Printf("Max attempts (%d) reached for order %s notification.", maxRetries, parsedArgs.GatewayOrderID)
		return result, fmt.Errorf("max attempts reached delivering notification for %s", parsedArgs.GatewayOrderID)
	}

	return result, nil
}

// SendTransactionNotificationTask is the singleton instance of
// SendTransactionNotificationTaskDef
var SendTransactionNotificationTask = &SendTransactionNotificationTaskDef{}
