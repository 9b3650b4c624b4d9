package services

import (
	"errors"
	"testing"

	"rbxmart_echo/internal/models"
)

func robuxItem(name string, qty int, unitPrice int64) LineItem {
	return LineItem{
		ServiceType: models.ServiceTypeRobuxInstant,
		ServiceID:   "rbx-100",
		ServiceName: name,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		Robux:       &RobuxOrderDetails{RobloxUsername: "builderman"},
	}
}

func TestPriceCart(t *testing.T) {
	fixedFee := models.PaymentMethod{
		Code:    "qris",
		Name:    "QRIS",
		Fee:     2500,
		FeeType: models.FeeTypeFixed,
	}

	tests := []struct {
		name               string
		items              []LineItem
		discountPercentage int
		method             models.PaymentMethod
		wantSubtotal       int64
		wantDiscount       int64
		wantFee            int64
		wantGrandTotal     int64
	}{
		{
			name: "two items with member discount and fixed fee",
			items: []LineItem{
				robuxItem("Robux 100", 2, 10000),
				robuxItem("Robux 250", 1, 25000),
			},
			discountPercentage: 10,
			method:             fixedFee,
			wantSubtotal:       45000,
			wantDiscount:       4500,
			wantFee:            2500,
			wantGrandTotal:     43000,
		},
		{
			name:               "no discount",
			items:              []LineItem{robuxItem("Robux 100", 1, 10000)},
			discountPercentage: 0,
			method:             fixedFee,
			wantSubtotal:       10000,
			wantDiscount:       0,
			wantFee:            2500,
			wantGrandTotal:     12500,
		},
		{
			name:               "percentage fee rounds half up",
			items:              []LineItem{robuxItem("Robux 100", 1, 10050)},
			discountPercentage: 0,
			method: models.PaymentMethod{
				Code:    "gopay",
				Name:    "GoPay",
				Fee:     2.5,
				FeeType: models.FeeTypePercentage,
			},
			wantSubtotal:   10050,
			wantDiscount:   0,
			wantFee:        251, // 251.25 rounds to 251
			wantGrandTotal: 10301,
		},
		{
			name:               "discount rounds half up",
			items:              []LineItem{robuxItem("Robux odd", 1, 999)},
			discountPercentage: 5,
			method:             models.PaymentMethod{Code: "bank", Name: "Bank"},
			wantSubtotal:       999,
			wantDiscount:       50, // 49.95 rounds to 50
			wantFee:            0,
			wantGrandTotal:     949,
		},
		{
			name:               "full discount",
			items:              []LineItem{robuxItem("Robux 100", 1, 10000)},
			discountPercentage: 100,
			method:             models.PaymentMethod{Code: "bank", Name: "Bank"},
			wantSubtotal:       10000,
			wantDiscount:       10000,
			wantFee:            0,
			wantGrandTotal:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priced, err := PriceCart(tt.items, tt.discountPercentage, tt.method)
			if err != nil {
				t.Fatalf("PriceCart() error = %v", err)
			}
			if priced.Subtotal != tt.wantSubtotal {
				t.Errorf("Subtotal = %d; want %d", priced.Subtotal, tt.wantSubtotal)
			}
			if priced.DiscountAmount != tt.wantDiscount {
				t.Errorf("DiscountAmount = %d; want %d", priced.DiscountAmount, tt.wantDiscount)
			}
			if priced.PaymentFee != tt.wantFee {
				t.Errorf("PaymentFee = %d; want %d", priced.PaymentFee, tt.wantFee)
			}
			if priced.GrandTotal != tt.wantGrandTotal {
				t.Errorf("GrandTotal = %d; want %d", priced.GrandTotal, tt.wantGrandTotal)
			}
		})
	}
}

func TestPriceCartRejectsBadInput(t *testing.T) {
	method := models.PaymentMethod{Code: "qris", Name: "QRIS"}

	tests := []struct {
		name               string
		items              []LineItem
		discountPercentage int
	}{
		{
			name:               "empty cart",
			items:              nil,
			discountPercentage: 0,
		},
		{
			name:               "zero quantity",
			items:              []LineItem{robuxItem("Robux 100", 0, 10000)},
			discountPercentage: 0,
		},
		{
			name:               "negative unit price",
			items:              []LineItem{robuxItem("Robux 100", 1, -1)},
			discountPercentage: 0,
		},
		{
			name:               "discount above 100",
			items:              []LineItem{robuxItem("Robux 100", 1, 10000)},
			discountPercentage: 101,
		},
		{
			name:               "negative discount",
			items:              []LineItem{robuxItem("Robux 100", 1, 10000)},
			discountPercentage: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PriceCart(tt.items, tt.discountPercentage, method)
			var cartErr *InvalidCartError
			if !errors.As(err, &cartErr) {
				t.Errorf("PriceCart() error = %v; want InvalidCartError", err)
			}
		})
	}
}

func TestPriceCartAmountLimits(t *testing.T) {
	method := models.PaymentMethod{
		Code:          "dana",
		Name:          "DANA",
		MinimumAmount: 10000,
		MaximumAmount: 2000000,
	}

	tests := []struct {
		name               string
		unitPrice          int64
		discountPercentage int
		wantErr            bool
	}{
		{name: "at minimum", unitPrice: 10000, wantErr: false},
		{name: "below minimum", unitPrice: 9999, wantErr: true},
		{name: "at maximum", unitPrice: 2000000, wantErr: false},
		{name: "above maximum", unitPrice: 2000001, wantErr: true},
		// 10500 - 5% = 9975, below the minimum even though the raw subtotal is not
		{name: "discount pushes below minimum", unitPrice: 10500, discountPercentage: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PriceCart([]LineItem{robuxItem("Robux", 1, tt.unitPrice)}, tt.discountPercentage, method)
			if (err != nil) != tt.wantErr {
				t.Errorf("PriceCart() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitDiscount(t *testing.T) {
	tests := []struct {
		name           string
		items          []LineItem
		discountAmount int64
		want           []int64
	}{
		{
			name: "proportional with remainder on last item",
			items: []LineItem{
				robuxItem("A", 2, 10000), // 20000 of 45000
				robuxItem("B", 1, 25000), // 25000 of 45000
			},
			discountAmount: 4500,
			want:           []int64{2000, 2500},
		},
		{
			name: "remainder lands on last item",
			items: []LineItem{
				robuxItem("A", 1, 3333),
				robuxItem("B", 1, 3333),
				robuxItem("C", 1, 3334),
			},
			discountAmount: 1000,
			want:           []int64{333, 333, 334},
		},
		{
			name:           "single item takes everything",
			items:          []LineItem{robuxItem("A", 1, 9999)},
			discountAmount: 500,
			want:           []int64{500},
		},
		{
			name: "zero discount",
			items: []LineItem{
				robuxItem("A", 1, 10000),
				robuxItem("B", 1, 5000),
			},
			discountAmount: 0,
			want:           []int64{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subtotal int64
			for _, item := range tt.items {
				subtotal += item.Amount()
			}
			got := SplitDiscount(tt.items, subtotal, tt.discountAmount)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitDiscount() returned %d entries; want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitDiscount()[%d] = %d; want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// The apportioned discounts must sum exactly to the cart discount for any cart
// shape, otherwise bundle totals drift from what the gateway collected.
func TestSplitDiscountConservation(t *testing.T) {
	for itemCount := 1; itemCount <= 50; itemCount++ {
		for pct := 0; pct <= 100; pct += 7 {
			items := make([]LineItem, 0, itemCount)
			for i := 0; i < itemCount; i++ {
				// deliberately awkward prices to force rounding
				items = append(items, robuxItem("item", i%3+1, int64(997+i*131)))
			}

			var subtotal int64
			for _, item := range items {
				subtotal += item.Amount()
			}
			discountAmount := roundHalfUpPct(subtotal, pct)

			discounts := SplitDiscount(items, subtotal, discountAmount)

			var sum int64
			for idx, d := range discounts {
				if d < 0 {
					t.Fatalf("items=%d pct=%d: discount[%d] = %d is negative", itemCount, pct, idx, d)
				}
				if d > items[idx].Amount() {
					t.Fatalf("items=%d pct=%d: discount[%d] = %d exceeds item amount %d", itemCount, pct, idx, d, items[idx].Amount())
				}
				sum += d
			}
			if sum != discountAmount {
				t.Fatalf("items=%d pct=%d: discounts sum to %d; want %d", itemCount, pct, sum, discountAmount)
			}
		}
	}
}

// A cart ending in a tiny line must not absorb more remainder than its own
// amount; the excess moves to the preceding lines so no final price goes
// negative.
func TestSplitDiscountClampsTinyLastItem(t *testing.T) {
	items := make([]LineItem, 0, 50)
	for i := 0; i < 49; i++ {
		items = append(items, robuxItem("Robux 110", 1, 110))
	}
	items = append(items, robuxItem("Robux 1", 1, 1))

	var subtotal int64
	for _, item := range items {
		subtotal += item.Amount()
	}
	discountAmount := roundHalfUpPct(subtotal, 1)

	discounts := SplitDiscount(items, subtotal, discountAmount)

	var sum int64
	for idx, d := range discounts {
		if d < 0 {
			t.Fatalf("discount[%d] = %d is negative", idx, d)
		}
		if d > items[idx].Amount() {
			t.Fatalf("discount[%d] = %d exceeds item amount %d", idx, d, items[idx].Amount())
		}
		sum += d
	}
	if sum != discountAmount {
		t.Fatalf("discounts sum to %d; want %d", sum, discountAmount)
	}
	if last := discounts[len(discounts)-1]; last != 1 {
		t.Errorf("last item discount = %d; want 1 (clamped to its amount)", last)
	}
}
