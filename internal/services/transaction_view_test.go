package services

import (
	"testing"

	"rbxmart_echo/internal/models"
)

// buildBundle prices a cart and maps it onto transaction rows the same way
// CreateBundle does, without a database
func buildBundle(t *testing.T, items []LineItem, discountPercentage int, method models.PaymentMethod) ([]models.Transaction, *PricedCart) {
	t.Helper()

	priced, err := PriceCart(items, discountPercentage, method)
	if err != nil {
		t.Fatalf("PriceCart() error = %v", err)
	}
	discounts := SplitDiscount(priced.Items, priced.Subtotal, priced.DiscountAmount)

	bundle := make([]models.Transaction, 0, len(items))
	for idx, item := range priced.Items {
		row := models.Transaction{
			ID:             uint(idx + 1),
			InvoiceID:      GenerateInvoiceID(),
			GatewayOrderID: "RBX-TEST",
			ServiceName:    item.ServiceName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalAmount:    item.Amount(),
			DiscountAmount: discounts[idx],
			FinalAmount:    item.Amount() - discounts[idx],
		}
		if idx == 0 {
			row.IsPrimary = true
			row.PaymentFee = priced.PaymentFee
		}
		bundle = append(bundle, row)
	}
	return bundle, priced
}

// Whatever cart shape checkout produced, the read side must reproduce the
// charged totals exactly from the stored rows.
func TestBundleTotalsMatchPricing(t *testing.T) {
	method := models.PaymentMethod{Code: "qris", Name: "QRIS", Fee: 2500, FeeType: models.FeeTypeFixed}

	tests := []struct {
		name               string
		items              []LineItem
		discountPercentage int
	}{
		{
			name: "two items with discount",
			items: []LineItem{
				robuxItem("Robux 100", 2, 10000),
				robuxItem("Robux 250", 1, 25000),
			},
			discountPercentage: 10,
		},
		{
			name:               "single item no discount",
			items:              []LineItem{robuxItem("Robux 100", 1, 10000)},
			discountPercentage: 0,
		},
		{
			name: "awkward prices force rounding",
			items: []LineItem{
				robuxItem("A", 3, 997),
				robuxItem("B", 1, 1333),
				robuxItem("C", 2, 7919),
			},
			discountPercentage: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle, priced := buildBundle(t, tt.items, tt.discountPercentage, method)

			if got := BundleGrandTotal(bundle); got != priced.GrandTotal {
				t.Errorf("BundleGrandTotal() = %d; want %d", got, priced.GrandTotal)
			}
			if got := BundleOriginalTotal(bundle); got != priced.Subtotal {
				t.Errorf("BundleOriginalTotal() = %d; want %d", got, priced.Subtotal)
			}
			if got := BundleTotalDiscount(bundle); got != priced.DiscountAmount {
				t.Errorf("BundleTotalDiscount() = %d; want %d", got, priced.DiscountAmount)
			}
			if got := BundleSubtotalAfterDiscount(bundle); got != priced.AmountAfterDiscount {
				t.Errorf("BundleSubtotalAfterDiscount() = %d; want %d", got, priced.AmountAfterDiscount)
			}
			if got := BundlePaymentFee(bundle); got != priced.PaymentFee {
				t.Errorf("BundlePaymentFee() = %d; want %d", got, priced.PaymentFee)
			}
		})
	}
}

func TestIsMultiCheckout(t *testing.T) {
	bundle := []models.Transaction{
		{ID: 1, GatewayOrderID: "RBX-A"},
		{ID: 2, GatewayOrderID: "RBX-A"},
	}
	if !IsMultiCheckout(bundle[0], bundle) {
		t.Error("IsMultiCheckout() = false for a two-row bundle; want true")
	}

	single := []models.Transaction{{ID: 3, GatewayOrderID: "RBX-B"}}
	if IsMultiCheckout(single[0], single) {
		t.Error("IsMultiCheckout() = true for a single-row bundle; want false")
	}
}

func TestAllItemsPutsRecordFirst(t *testing.T) {
	bundle := []models.Transaction{
		{ID: 1, GatewayOrderID: "RBX-A"},
		{ID: 2, GatewayOrderID: "RBX-A"},
		{ID: 3, GatewayOrderID: "RBX-A"},
	}

	items := AllItems(bundle[1], bundle)
	if len(items) != 3 {
		t.Fatalf("AllItems() returned %d items; want 3", len(items))
	}
	if items[0].ID != 2 {
		t.Errorf("first item ID = %d; want 2", items[0].ID)
	}
	seen := map[uint]bool{}
	for _, item := range items {
		if seen[item.ID] {
			t.Errorf("duplicate item ID %d", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestBundlePaymentFeeWithoutPrimary(t *testing.T) {
	bundle := []models.Transaction{{ID: 1, PaymentFee: 2500}}
	if got := BundlePaymentFee(bundle); got != 0 {
		t.Errorf("BundlePaymentFee() = %d without a primary row; want 0", got)
	}
}
