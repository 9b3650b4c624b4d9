package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceType identifies what kind of product a transaction row was created for
type ServiceType string

const (
	ServiceTypeRobuxInstant ServiceType = "robux_instant"
	ServiceTypeRobux5Day    ServiceType = "robux_5day"
	ServiceTypeGamepass     ServiceType = "gamepass"
	ServiceTypeJoki         ServiceType = "joki"
	ServiceTypeReseller     ServiceType = "reseller"
)

// PaymentStatus tracks what the gateway told us about the money
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSettlement PaymentStatus = "settlement"
	PaymentStatusExpired    PaymentStatus = "expired"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// OrderStatus tracks fulfillment progress, independent of payment
type OrderStatus string

const (
	OrderStatusWaitingPayment OrderStatus = "waiting_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusInProgress     OrderStatus = "in_progress"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusFailed         OrderStatus = "failed"
)

// Transaction is one persisted row per purchased line item. Every row of a
// multi-item checkout shares the same GatewayOrderID; exactly one row per
// bundle carries the payment fee and is marked IsPrimary.
type Transaction struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID   string      `gorm:"type:varchar(100);uniqueIndex" json:"invoice_id"`
	ServiceType ServiceType `gorm:"type:varchar(50);index" json:"service_type"`
	ServiceID   string      `gorm:"type:varchar(100)" json:"service_id"`
	ServiceName string      `gorm:"type:varchar(255)" json:"service_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   int64       `json:"unit_price"`
	TotalAmount int64       `json:"total_amount"` // quantity * unit_price, pre-discount

	// Discount apportioned from the cart-level discount
	DiscountPercentage int   `json:"discount_percentage"`
	DiscountAmount     int64 `json:"discount_amount"`
	FinalAmount        int64 `json:"final_amount"`

	// Payment fee lives on the primary row only; all other rows carry 0
	PaymentFee int64 `json:"payment_fee"`
	IsPrimary  bool  `gorm:"default:false" json:"is_primary"`

	GatewayOrderID string         `gorm:"type:varchar(100);index" json:"gateway_order_id"`
	Gateway        PaymentGateway `gorm:"type:varchar(50)" json:"gateway"`

	PaymentMethodCode string        `gorm:"type:varchar(100)" json:"payment_method_code"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(50);index" json:"payment_status"`
	OrderStatus       OrderStatus   `gorm:"type:varchar(50);index" json:"order_status"`

	// Payment handle written back after the gateway order is created.
	// Any row of a bundle can answer "where do I pay".
	SnapToken        string `gorm:"type:text" json:"snap_token,omitempty"`
	RedirectURL      string `gorm:"type:text" json:"redirect_url,omitempty"`
	VANumber         string `gorm:"type:varchar(100)" json:"va_number,omitempty"`
	QRString         string `gorm:"type:text" json:"qr_string,omitempty"`
	GatewayReference string `gorm:"type:varchar(255)" json:"gateway_reference,omitempty"`

	// Buyer snapshot at checkout time
	UserID        *uint  `gorm:"index" json:"user_id"`
	CustomerName  string `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerEmail string `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerPhone string `gorm:"type:varchar(50)" json:"customer_phone"`

	// Service-specific payload, shape depends on ServiceType
	// (roblox credentials, gamepass reference, joki brief)
	ServicePayload datatypes.JSON `gorm:"type:jsonb" json:"service_payload,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Relationships
	User       *User                  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	StatusLogs []TransactionStatusLog `gorm:"foreignKey:TransactionID" json:"status_logs,omitempty"`
}

// IsPaymentTerminal reports whether no further payment transitions are allowed
func (t Transaction) IsPaymentTerminal() bool {
	switch t.PaymentStatus {
	case PaymentStatusSettlement, PaymentStatusExpired, PaymentStatusCancelled, PaymentStatusFailed:
		return true
	}
	return false
}

// IsOrderTerminal reports whether fulfillment has reached a final state
func (t Transaction) IsOrderTerminal() bool {
	switch t.OrderStatus {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}
