package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type PaymentGateway string

const (
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
	PaymentGatewayDuitku   PaymentGateway = "duitku"
)

// PaymentCallbackHistory keeps the raw body of every webhook we receive,
// accepted or rejected, for audit and replay debugging.
type PaymentCallbackHistory struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	GatewayOrderID string          `gorm:"type:varchar(100);index" json:"gateway_order_id"`
	Accepted       bool            `json:"accepted"`
	RejectReason   string          `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
