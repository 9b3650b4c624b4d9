package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rbxmart_echo/internal/models"
)

// ReconcileService applies status transitions to whole bundles. It is the
// only path allowed to mutate payment/order status: webhook handlers, admin
// overrides and the expiry sweep all go through ApplyStatus so that history
// and side effects stay consistent.
type ReconcileService struct {
	db *gorm.DB
}

func NewReconcileService(db *gorm.DB) *ReconcileService {
	return &ReconcileService{db: db}
}

// ValidatePaymentTransition checks the payment state machine:
// pending -> settlement | expired | cancelled | failed, all terminal.
// Re-applying the current terminal status is a no-op, not an error.
func ValidatePaymentTransition(from, to models.PaymentStatus) (noop bool, err error) {
	switch to {
	case models.PaymentStatusSettlement, models.PaymentStatusExpired,
		models.PaymentStatusCancelled, models.PaymentStatusFailed:
	default:
		return false, &InvalidTransitionError{StatusType: "payment", From: string(from), To: string(to)}
	}
	if from == to {
		return true, nil
	}
	if from != models.PaymentStatusPending {
		// Already terminal with a different status; duplicate or late webhook
		return true, nil
	}
	return false, nil
}

// ValidateOrderTransition checks the order state machine:
// waiting_payment -> processing -> in_progress -> completed, with
// cancelled/failed reachable from any non-terminal state.
func ValidateOrderTransition(from, to models.OrderStatus) (noop bool, err error) {
	if from == to {
		return true, nil
	}

	terminal := func(s models.OrderStatus) bool {
		return s == models.OrderStatusCompleted || s == models.OrderStatusCancelled || s == models.OrderStatusFailed
	}
	if terminal(from) {
		return true, nil
	}

	switch to {
	case models.OrderStatusCancelled, models.OrderStatusFailed:
		return false, nil
	case models.OrderStatusProcessing:
		if from == models.OrderStatusWaitingPayment {
			return false, nil
		}
	case models.OrderStatusInProgress:
		if from == models.OrderStatusProcessing {
			return false, nil
		}
	case models.OrderStatusCompleted:
		if from == models.OrderStatusInProgress {
			return false, nil
		}
	}
	return false, &InvalidTransitionError{StatusType: "order", From: string(from), To: string(to)}
}

// ApplyStatus applies one transition to every transaction row sharing the
// gateway order id, atomically. Each affected row gets one status log entry.
// The first transition into settlement credits the buyer's spend counter
// exactly once, guarded by the unique settlement event row.
func (s *ReconcileService) ApplyStatus(ctx context.Context, gatewayOrderID string, statusType models.StatusLogType, newStatus, note, actor string) error {
	var settled bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bundle []models.Transaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_order_id = ?", gatewayOrderID).
			Order("id asc").
			Find(&bundle).Error; err != nil {
			return err
		}
		if len(bundle) == 0 {
			return fmt.Errorf("%w: %s", ErrTransactionNotFound, gatewayOrderID)
		}

		switch statusType {
		case models.StatusLogTypePayment:
			target := models.PaymentStatus(newStatus)
			// All rows of a bundle move together, so the first row decides
			noop, err := ValidatePaymentTransition(bundle[0].PaymentStatus, target)
			if err != nil {
				return err
			}
			if noop {
				return nil
			}
			if err := s.applyPayment(tx, bundle, target, note, actor); err != nil {
				return err
			}
			settled = target == models.PaymentStatusSettlement
			return nil

		case models.StatusLogTypeOrder:
			target := models.OrderStatus(newStatus)
			noop, err := ValidateOrderTransition(bundle[0].OrderStatus, target)
			if err != nil {
				return err
			}
			if noop {
				return nil
			}
			return s.applyOrder(tx, bundle, target, note, actor)

		default:
			return fmt.Errorf("unknown status type %q", statusType)
		}
	})
	if err != nil {
		return err
	}

	if settled {
		s.enqueueNotification(ctx, gatewayOrderID, "payment_settled")
	}
	return nil
}

func (s *ReconcileService) applyPayment(tx *gorm.DB, bundle []models.Transaction, target models.PaymentStatus, note, actor string) error {
	now := time.Now()
	ids := make([]uint, 0, len(bundle))
	logs := make([]models.TransactionStatusLog, 0, len(bundle))
	for _, row := range bundle {
		ids = append(ids, row.ID)
		logs = append(logs, models.TransactionStatusLog{
			TransactionID: row.ID,
			StatusType:    models.StatusLogTypePayment,
			OldStatus:     string(row.PaymentStatus),
			NewStatus:     string(target),
			Actor:         actor,
			Note:          note,
			ChangedAt:     now,
		})
	}

	if err := tx.Model(&models.Transaction{}).
		Where("id IN ?", ids).
		Update("payment_status", target).Error; err != nil {
		return err
	}
	if err := tx.Create(&logs).Error; err != nil {
		return err
	}

	if target != models.PaymentStatusSettlement {
		return nil
	}

	// Settlement side effects, exactly once per bundle. The unique index on
	// (gateway_order_id, status) turns a concurrent duplicate into a
	// constraint violation, which we treat as "someone else already did it".
	var total int64
	for _, row := range bundle {
		total += row.FinalAmount
	}
	event := models.SettlementEvent{
		GatewayOrderID: bundle[0].GatewayOrderID,
		Status:         target,
		AmountCredited: total,
		Actor:          actor,
	}
	if err := tx.Create(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("settlement for %s already recorded, skipping side effects", bundle[0].GatewayOrderID)
			return nil
		}
		return err
	}

	if bundle[0].UserID != nil {
		if err := tx.Model(&models.User{}).
			Where("id = ?", *bundle[0].UserID).
			Update("spend_total", gorm.Expr("spend_total + ?", total)).Error; err != nil {
			return err
		}
	}

	// Paid orders move straight into fulfillment, but only when the order
	// machine allows it. An order an admin already cancelled or failed while
	// payment was pending stays terminal; the money is reconciled, the
	// fulfillment decision is not reopened.
	if !settlementAdvancesOrder(bundle[0].OrderStatus) {
		return nil
	}
	return s.applyOrder(tx, bundle, models.OrderStatusProcessing, "payment settled", actor)
}

// settlementAdvancesOrder reports whether a freshly settled bundle's order
// status may move into processing from its current state
func settlementAdvancesOrder(from models.OrderStatus) bool {
	noop, err := ValidateOrderTransition(from, models.OrderStatusProcessing)
	return err == nil && !noop
}

func (s *ReconcileService) applyOrder(tx *gorm.DB, bundle []models.Transaction, target models.OrderStatus, note, actor string) error {
	now := time.Now()
	ids := make([]uint, 0, len(bundle))
	logs := make([]models.TransactionStatusLog, 0, len(bundle))
	for _, row := range bundle {
		ids = append(ids, row.ID)
		logs = append(logs, models.TransactionStatusLog{
			TransactionID: row.ID,
			StatusType:    models.StatusLogTypeOrder,
			OldStatus:     string(row.OrderStatus),
			NewStatus:     string(target),
			Actor:         actor,
			Note:          note,
			ChangedAt:     now,
		})
	}

	if err := tx.Model(&models.Transaction{}).
		Where("id IN ?", ids).
		Update("order_status", target).Error; err != nil {
		return err
	}
	return tx.Create(&logs).Error
}

// ExpireStalePayments closes bundles that sat pending past their expiry
// window. Called by the recurring worker task.
func (s *ReconcileService) ExpireStalePayments(ctx context.Context) (int, error) {
	var orderIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("payment_status = ? AND expires_at < ?", models.PaymentStatusPending, time.Now()).
		Distinct().
		Pluck("gateway_order_id", &orderIDs).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, orderID := range orderIDs {
		if err := s.ApplyStatus(ctx, orderID, models.StatusLogTypePayment, string(models.PaymentStatusExpired), "payment window elapsed", "worker"); err != nil {
			log.Printf("failed to expire bundle %s: %v", orderID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *ReconcileService) enqueueNotification(ctx context.Context, gatewayOrderID, event string) {
	task := models.ScheduledTask{
		TaskName: "send_transaction_notification",
		Arguments: map[string]interface{}{
			"gateway_order_id": gatewayOrderID,
			"event":            event,
		},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		log.Printf("failed to enqueue %s notification for %s: %v", event, gatewayOrderID, err)
	}
}
