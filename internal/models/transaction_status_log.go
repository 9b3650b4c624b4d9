package models

import (
	"time"

	"gorm.io/gorm"
)

// StatusLogType distinguishes which of the two state machines a log entry belongs to
type StatusLogType string

const (
	StatusLogTypePayment StatusLogType = "payment"
	StatusLogTypeOrder   StatusLogType = "order"
)

// TransactionStatusLog is the append-only history of status transitions for a
// transaction row. Rows are only ever inserted, never updated.
type TransactionStatusLog struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TransactionID uint          `gorm:"index" json:"transaction_id"`
	StatusType    StatusLogType `gorm:"type:varchar(20)" json:"status_type"`
	OldStatus     string        `gorm:"type:varchar(50)" json:"old_status"`
	NewStatus     string        `gorm:"type:varchar(50)" json:"new_status"`
	Actor         string        `gorm:"type:varchar(255)" json:"actor"` // "webhook:midtrans", "admin:<email>", "worker"
	Note          string        `gorm:"type:text" json:"note"`
	ChangedAt     time.Time     `json:"changed_at"`
}
