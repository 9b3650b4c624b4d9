package handlers

import (
	"testing"
	"time"

	"rbxmart_echo/internal/models"
)

func TestTransactionCSVRow(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	record := models.Transaction{
		InvoiceID:          "INV-20260314-AB12CD34",
		GatewayOrderID:     "RBX-20260314093000-AB12CD34",
		ServiceType:        models.ServiceTypeRobuxInstant,
		ServiceName:        "Robux 100",
		Quantity:           2,
		UnitPrice:          10000,
		TotalAmount:        20000,
		DiscountPercentage: 10,
		DiscountAmount:     2000,
		FinalAmount:        18000,
		PaymentFee:         2500,
		IsPrimary:          true,
		Gateway:            models.PaymentGatewayMidtrans,
		PaymentMethodCode:  "qris",
		PaymentStatus:      models.PaymentStatusSettlement,
		OrderStatus:        models.OrderStatusProcessing,
		CustomerName:       "Budi",
		CustomerEmail:      "budi@example.com",
	}
	record.CreatedAt = created

	row := TransactionCSVRow(record)
	header := TransactionCSVHeader()

	if len(row) != len(header) {
		t.Fatalf("row has %d columns; header has %d", len(row), len(header))
	}

	want := map[string]string{
		"invoice_id":          "INV-20260314-AB12CD34",
		"gateway_order_id":    "RBX-20260314093000-AB12CD34",
		"service_type":        "robux_instant",
		"quantity":            "2",
		"unit_price":          "10000",
		"total_amount":        "20000",
		"discount_percentage": "10",
		"discount_amount":     "2000",
		"final_amount":        "18000",
		"payment_fee":         "2500",
		"is_primary":          "true",
		"gateway":             "midtrans",
		"payment_method":      "qris",
		"payment_status":      "settlement",
		"order_status":        "processing",
		"customer_email":      "budi@example.com",
		"created_at":          "2026-03-14T09:30:00Z",
	}

	byColumn := map[string]string{}
	for i, name := range header {
		byColumn[name] = row[i]
	}
	for column, expected := range want {
		if byColumn[column] != expected {
			t.Errorf("column %s = %q; want %q", column, byColumn[column], expected)
		}
	}
}
