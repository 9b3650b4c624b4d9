package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a purchasable catalog entry: a robux package, a gamepass, or a
// joki service tier. LineItems reference products by code but snapshot the
// price at checkout time, so later catalog edits never change past invoices.
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code        string      `gorm:"type:varchar(100);uniqueIndex" json:"code"`
	ServiceType ServiceType `gorm:"type:varchar(50);index" json:"service_type"`
	Name        string      `gorm:"type:varchar(255)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`

	// Price per unit in IDR. For robux packages a unit is the package
	// (e.g. 1000 R$); for joki a unit is one task.
	UnitPrice int64 `json:"unit_price"`

	// Robux amount delivered per unit, 0 for joki/gamepass services
	RobuxAmount int64 `json:"robux_amount"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}
