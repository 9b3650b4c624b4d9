package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentMethodCategory groups methods the way the checkout UI presents them
type PaymentMethodCategory string

const (
	PaymentCategoryEwallet      PaymentMethodCategory = "ewallet"
	PaymentCategoryQRIS         PaymentMethodCategory = "qris"
	PaymentCategoryBankTransfer PaymentMethodCategory = "bank_transfer"
	PaymentCategoryRetail       PaymentMethodCategory = "retail"
	PaymentCategoryCreditCard   PaymentMethodCategory = "credit_card"
)

// FeeType says how a payment method's fee is computed
type FeeType string

const (
	FeeTypeFixed      FeeType = "fixed"
	FeeTypePercentage FeeType = "percentage"
)

// PaymentMethod is a catalog entry. Read-only at checkout time; admins manage
// the catalog separately.
type PaymentMethod struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code     string                `gorm:"type:varchar(100);uniqueIndex" json:"code"`
	Name     string                `gorm:"type:varchar(255)" json:"name"`
	Category PaymentMethodCategory `gorm:"type:varchar(50)" json:"category"`

	// Fee is an absolute amount for FeeTypeFixed, a percentage for FeeTypePercentage
	Fee     float64 `json:"fee"`
	FeeType FeeType `gorm:"type:varchar(20)" json:"fee_type"`

	// Amount limits checked against what the gateway is asked to collect
	MinimumAmount int64 `json:"minimum_amount"`
	MaximumAmount int64 `json:"maximum_amount"`

	// Gateway-specific routing codes, e.g. Midtrans enabled-payment name or
	// Duitku paymentMethod code
	MidtransCode string `gorm:"type:varchar(100)" json:"midtrans_code"`
	DuitkuCode   string `gorm:"type:varchar(100)" json:"duitku_code"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

// CalculateFee returns the fee for the given amount-after-discount
func (m PaymentMethod) CalculateFee(amount int64) int64 {
	if m.FeeType == FeeTypeFixed {
		return int64(m.Fee)
	}
	// Round half-up, same policy as the pricing engine
	return int64(float64(amount)*m.Fee/100 + 0.5)
}
