package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a user
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleMember   UserRole = "member"
	UserRoleReseller UserRole = "reseller"
)

// User represents a buyer or admin account. FirebaseUID links the row to the
// identity the auth middleware verifies.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirebaseUID string   `gorm:"type:varchar(255);uniqueIndex" json:"firebase_uid"`
	Name        string   `gorm:"type:varchar(255)" json:"name"`
	Phone       string   `gorm:"type:varchar(50)" json:"phone"`
	Email       string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role        UserRole `gorm:"type:varchar(20);default:'member'" json:"role"`

	// Tier discount applied to the whole cart at checkout, 0-100
	DiscountPercentage int `json:"discount_percentage"`

	// Cumulative settled spend in IDR. Credited exactly once per settled
	// bundle by the reconciler; drives reseller tier upgrades.
	SpendTotal int64 `json:"spend_total"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
