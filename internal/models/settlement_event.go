package models

import (
	"time"

	"gorm.io/gorm"
)

// SettlementEvent records that a payment status was applied to a bundle for
// the first time. The unique index on (gateway_order_id, status) is what makes
// settlement side effects exactly-once under duplicate webhook delivery: the
// second insert fails and the reconciler treats that as "already applied".
type SettlementEvent struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	GatewayOrderID string        `gorm:"type:varchar(100);uniqueIndex:idx_settlement_events_order_status,priority:1" json:"gateway_order_id"`
	Status         PaymentStatus `gorm:"type:varchar(50);uniqueIndex:idx_settlement_events_order_status,priority:2" json:"status"`
	AmountCredited int64         `json:"amount_credited"`
	Actor          string        `gorm:"type:varchar(255)" json:"actor"`
}
