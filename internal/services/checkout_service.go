package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
)

// gatewayCallTimeout bounds the only blocking external call in the checkout
// path. A timeout is treated like any other gateway failure: the bundle rows
// are rolled back and the buyer is asked to retry.
const gatewayCallTimeout = 30 * time.Second

// pendingPaymentWindow is how long a bundle stays payable before the expiry
// sweep closes it
const pendingPaymentWindow = 24 * time.Hour

// CustomerInfo is the buyer snapshot written onto every transaction row
type CustomerInfo struct {
	UserID *uint  `json:"user_id,omitempty"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone"`
}

// CheckoutResult is the response of a successful checkout
type CheckoutResult struct {
	GatewayOrderID string         `json:"gateway_order_id"`
	GrandTotal     int64          `json:"grand_total"`
	Handle         *PaymentHandle `json:"handle"`
	Transactions   []models.Transaction
}

type CheckoutService struct {
	db      *gorm.DB
	gateway PaymentGateway
}

func NewCheckoutService(db *gorm.DB, gateway PaymentGateway) *CheckoutService {
	return &CheckoutService{db: db, gateway: gateway}
}

// Checkout runs the whole submission pipeline: price the cart, persist the
// bundle, create the gateway order, write the payment handle back. A gateway
// failure rolls the bundle back so a failed checkout leaves zero rows behind.
func (s *CheckoutService) Checkout(ctx context.Context, items []LineItem, discountPercentage int, method models.PaymentMethod, customer CustomerInfo) (*CheckoutResult, error) {
	priced, err := PriceCart(items, discountPercentage, method)
	if err != nil {
		return nil, err
	}

	bundle, err := s.CreateBundle(ctx, priced, method, customer)
	if err != nil {
		return nil, err
	}

	handle, err := s.payBundle(ctx, bundle, priced, method)
	if err != nil {
		if delErr := s.deleteBundle(ctx, bundle[0].GatewayOrderID); delErr != nil {
			// Rows survive a failed rollback; the expiry sweep picks them up
			log.Printf("rollback of bundle %s failed: %v", bundle[0].GatewayOrderID, delErr)
		}
		return nil, err
	}

	if err := s.writeHandle(ctx, bundle[0].GatewayOrderID, handle); err != nil {
		return nil, err
	}
	for i := range bundle {
		applyHandle(&bundle[i], handle)
	}

	s.enqueueNotification(ctx, bundle[0], "invoice_created")

	return &CheckoutResult{
		GatewayOrderID: bundle[0].GatewayOrderID,
		GrandTotal:     priced.GrandTotal,
		Handle:         handle,
		Transactions:   bundle,
	}, nil
}

// CreateBundle persists one transaction row per line item, all sharing a
// fresh gateway order id, in a single database transaction. A reader querying
// by the order id mid-write sees either zero rows or all of them.
func (s *CheckoutService) CreateBundle(ctx context.Context, priced *PricedCart, method models.PaymentMethod, customer CustomerInfo) ([]models.Transaction, error) {
	rbx5Count := 0
	for _, item := range priced.Items {
		if item.ServiceType == models.ServiceTypeRobux5Day {
			rbx5Count++
		}
	}
	// The 5-day automation is one-shot per order; reject before any write
	if rbx5Count > 1 {
		return nil, ErrTooManyRbx5Items
	}

	orderID := GenerateGatewayOrderID()
	discounts := SplitDiscount(priced.Items, priced.Subtotal, priced.DiscountAmount)
	now := time.Now()
	expiresAt := now.Add(pendingPaymentWindow)

	bundle := make([]models.Transaction, 0, len(priced.Items))
	for idx, item := range priced.Items {
		payload, err := marshalServicePayload(item)
		if err != nil {
			return nil, &InvalidCartError{Reason: fmt.Sprintf("item %d: %v", idx+1, err)}
		}

		row := models.Transaction{
			InvoiceID:          GenerateInvoiceID(),
			ServiceType:        item.ServiceType,
			ServiceID:          item.ServiceID,
			ServiceName:        item.ServiceName,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			TotalAmount:        item.Amount(),
			DiscountPercentage: priced.DiscountPercentage,
			DiscountAmount:     discounts[idx],
			FinalAmount:        item.Amount() - discounts[idx],
			GatewayOrderID:     orderID,
			Gateway:            s.gateway.Name(),
			PaymentMethodCode:  method.Code,
			PaymentStatus:      models.PaymentStatusPending,
			OrderStatus:        models.OrderStatusWaitingPayment,
			UserID:             customer.UserID,
			CustomerName:       customer.Name,
			CustomerEmail:      customer.Email,
			CustomerPhone:      customer.Phone,
			ServicePayload:     payload,
			ExpiresAt:          &expiresAt,
		}
		// The fee lives on exactly one row of the bundle so that aggregate
		// sums never double-count it
		if idx == 0 {
			row.IsPrimary = true
			row.PaymentFee = priced.PaymentFee
		}
		bundle = append(bundle, row)
	}

	if err := s.db.WithContext(ctx).Create(&bundle).Error; err != nil {
		return nil, fmt.Errorf("failed to persist bundle: %w", err)
	}
	return bundle, nil
}

// payBundle creates the gateway order with a hard timeout. Calling it twice
// for the same bundle is refused so the buyer is never charged twice.
func (s *CheckoutService) payBundle(ctx context.Context, bundle []models.Transaction, priced *PricedCart, method models.PaymentMethod) (*PaymentHandle, error) {
	if HasPaymentHandle(bundle) {
		return nil, ErrBundleAlreadyPaid
	}

	callCtx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()

	type gatewayResult struct {
		handle *PaymentHandle
		err    error
	}
	resultCh := make(chan gatewayResult, 1)
	go func() {
		handle, err := s.gateway.CreateOrder(callCtx, bundle, priced, method)
		resultCh <- gatewayResult{handle: handle, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.handle, res.err
	case <-callCtx.Done():
		return nil, &GatewayUnavailableError{Gateway: string(s.gateway.Name()), Err: callCtx.Err()}
	}
}

// writeHandle copies the payment handle onto every row of the bundle
func (s *CheckoutService) writeHandle(ctx context.Context, orderID string, handle *PaymentHandle) error {
	updates := map[string]interface{}{
		"snap_token":        handle.Token,
		"redirect_url":      handle.RedirectURL,
		"va_number":         handle.VANumber,
		"qr_string":         handle.QRString,
		"gateway_reference": handle.Reference,
	}
	return s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("gateway_order_id = ?", orderID).
		Updates(updates).Error
}

func applyHandle(row *models.Transaction, handle *PaymentHandle) {
	row.SnapToken = handle.Token
	row.RedirectURL = handle.RedirectURL
	row.VANumber = handle.VANumber
	row.QRString = handle.QRString
	row.GatewayReference = handle.Reference
}

// deleteBundle is the compensating delete of the rollback path. Hard delete:
// a bundle that never reached the gateway is not an auditable order.
func (s *CheckoutService) deleteBundle(ctx context.Context, orderID string) error {
	return s.db.WithContext(ctx).
		Unscoped().
		Where("gateway_order_id = ?", orderID).
		Delete(&models.Transaction{}).Error
}

// enqueueNotification schedules the fire-and-forget notification task.
// Failures are logged, never propagated; a missing email must not fail a paid
// checkout.
func (s *CheckoutService) enqueueNotification(ctx context.Context, primary models.Transaction, event string) {
	task := models.ScheduledTask{
		TaskName: "send_transaction_notification",
		Arguments: map[string]interface{}{
			"gateway_order_id": primary.GatewayOrderID,
			"event":            event,
		},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		log.Printf("failed to enqueue %s notification for %s: %v", event, primary.GatewayOrderID, err)
	}
}

func marshalServicePayload(item LineItem) (datatypes.JSON, error) {
	var payload interface{}
	switch item.ServiceType {
	case models.ServiceTypeRobuxInstant, models.ServiceTypeRobux5Day, models.ServiceTypeReseller:
		if item.Robux == nil {
			return nil, fmt.Errorf("missing roblox account details")
		}
		payload = item.Robux
	case models.ServiceTypeGamepass:
		if item.Gamepass == nil {
			return nil, fmt.Errorf("missing gamepass details")
		}
		payload = item.Gamepass
	case models.ServiceTypeJoki:
		if item.Joki == nil {
			return nil, fmt.Errorf("missing joki details")
		}
		payload = item.Joki
	default:
		return nil, fmt.Errorf("unknown service type %q", item.ServiceType)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// GenerateGatewayOrderID builds the shared bundle key: sortable timestamp
// prefix plus a random suffix for uniqueness
func GenerateGatewayOrderID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("RBX-%s-%s", time.Now().Format("20060102150405"), strings.ToUpper(suffix))
}

// GenerateInvoiceID builds the per-row invoice number
func GenerateInvoiceID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("INV-%s-%s", time.Now().Format("20060102"), strings.ToUpper(suffix))
}
