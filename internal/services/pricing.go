package services

import (
	"fmt"

	"rbxmart_echo/internal/models"
)

// RobuxOrderDetails is the payload for robux_instant and robux_5day items
type RobuxOrderDetails struct {
	RobloxUsername string `json:"roblox_username" validate:"required"`
	RobloxPassword string `json:"roblox_password,omitempty"`
	BackupCode     string `json:"backup_code,omitempty"`
}

// GamepassOrderDetails is the payload for gamepass items
type GamepassOrderDetails struct {
	RobloxUsername string `json:"roblox_username" validate:"required"`
	GamepassID     string `json:"gamepass_id" validate:"required"`
	GamepassName   string `json:"gamepass_name,omitempty"`
}

// JokiOrderDetails is the payload for joki (boosting) items
type JokiOrderDetails struct {
	RobloxUsername string `json:"roblox_username" validate:"required"`
	RobloxPassword string `json:"roblox_password" validate:"required"`
	GameName       string `json:"game_name" validate:"required"`
	TaskBrief      string `json:"task_brief" validate:"required"`
}

// LineItem is one purchasable unit in a cart. Exactly one of the payload
// pointers is set, matching ServiceType; the rest stay nil.
type LineItem struct {
	ServiceType models.ServiceType `json:"service_type" validate:"required,oneof=robux_instant robux_5day gamepass joki reseller"`
	ServiceID   string             `json:"service_id" validate:"required"`
	ServiceName string             `json:"service_name" validate:"required"`
	Quantity    int                `json:"quantity" validate:"required,min=1"`
	UnitPrice   int64              `json:"unit_price" validate:"min=0"`

	Robux    *RobuxOrderDetails    `json:"robux,omitempty"`
	Gamepass *GamepassOrderDetails `json:"gamepass,omitempty"`
	Joki     *JokiOrderDetails     `json:"joki,omitempty"`
}

// Amount is the item's pre-discount amount
func (i LineItem) Amount() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// PricedCart is the output of PriceCart. GrandTotal is the exact amount the
// gateway will be asked to collect; everything downstream must reproduce it.
type PricedCart struct {
	Items               []LineItem           `json:"items"`
	Subtotal            int64                `json:"subtotal"`
	DiscountPercentage  int                  `json:"discount_percentage"`
	DiscountAmount      int64                `json:"discount_amount"`
	AmountAfterDiscount int64                `json:"amount_after_discount"`
	PaymentFee          int64                `json:"payment_fee"`
	GrandTotal          int64                `json:"grand_total"`
	PaymentMethod       models.PaymentMethod `json:"payment_method"`
}

// roundHalfUpPct computes round(amount * pct / 100) with round-half-up,
// in integer arithmetic so many-item carts never accumulate float drift
func roundHalfUpPct(amount int64, pct int) int64 {
	return (amount*int64(pct) + 50) / 100
}

// PriceCart computes subtotal, cart-level discount, payment fee and grand
// total for a cart. The discount is applied once to the cart total, never per
// item; per-item apportioning happens later in CreateBundle.
func PriceCart(items []LineItem, discountPercentage int, method models.PaymentMethod) (*PricedCart, error) {
	if len(items) == 0 {
		return nil, &InvalidCartError{Reason: "cart is empty"}
	}
	if discountPercentage < 0 || discountPercentage > 100 {
		return nil, &InvalidCartError{Reason: fmt.Sprintf("discount percentage %d out of range", discountPercentage)}
	}

	var subtotal int64
	for idx, item := range items {
		if item.Quantity < 1 {
			return nil, &InvalidCartError{Reason: fmt.Sprintf("item %d: quantity must be at least 1", idx+1)}
		}
		if item.UnitPrice < 0 {
			return nil, &InvalidCartError{Reason: fmt.Sprintf("item %d: unit price must not be negative", idx+1)}
		}
		subtotal += item.Amount()
	}

	discountAmount := roundHalfUpPct(subtotal, discountPercentage)
	amountAfterDiscount := subtotal - discountAmount

	paymentFee := method.CalculateFee(amountAfterDiscount)
	grandTotal := amountAfterDiscount + paymentFee

	// Amount limits are checked against what the gateway collects pre-fee
	if method.MinimumAmount > 0 && amountAfterDiscount < method.MinimumAmount {
		return nil, &InvalidCartError{Reason: fmt.Sprintf("amount %d is below the minimum %d for %s", amountAfterDiscount, method.MinimumAmount, method.Name)}
	}
	if method.MaximumAmount > 0 && amountAfterDiscount > method.MaximumAmount {
		return nil, &InvalidCartError{Reason: fmt.Sprintf("amount %d is above the maximum %d for %s", amountAfterDiscount, method.MaximumAmount, method.Name)}
	}

	return &PricedCart{
		Items:               items,
		Subtotal:            subtotal,
		DiscountPercentage:  discountPercentage,
		DiscountAmount:      discountAmount,
		AmountAfterDiscount: amountAfterDiscount,
		PaymentFee:          paymentFee,
		GrandTotal:          grandTotal,
		PaymentMethod:       method,
	}, nil
}

// SplitDiscount apportions the cart-level discount across items
// proportionally to their amounts. The rounding remainder is assigned to the
// last item so the per-item discounts always sum exactly to discountAmount.
// If the remainder would push an item's discount past its amount, the excess
// is pushed onto the preceding items; no line ever goes negative.
func SplitDiscount(items []LineItem, subtotal, discountAmount int64) []int64 {
	discounts := make([]int64, len(items))
	if subtotal <= 0 || discountAmount <= 0 {
		return discounts
	}

	var assigned int64
	for idx, item := range items {
		if idx == len(items)-1 {
			discounts[idx] = discountAmount - assigned
			break
		}
		// round(discountAmount * amount / subtotal), half-up
		d := (discountAmount*item.Amount() + subtotal/2) / subtotal
		discounts[idx] = d
		assigned += d
	}

	for idx := len(items) - 1; idx > 0; idx-- {
		over := discounts[idx] - items[idx].Amount()
		if over <= 0 {
			break
		}
		discounts[idx] = items[idx].Amount()
		discounts[idx-1] += over
	}
	return discounts
}
