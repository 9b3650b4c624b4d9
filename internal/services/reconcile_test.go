package services

import (
	"testing"

	"rbxmart_echo/internal/models"
)

func TestValidatePaymentTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     models.PaymentStatus
		to       models.PaymentStatus
		wantNoop bool
		wantErr  bool
	}{
		{name: "pending to settlement", from: models.PaymentStatusPending, to: models.PaymentStatusSettlement},
		{name: "pending to expired", from: models.PaymentStatusPending, to: models.PaymentStatusExpired},
		{name: "pending to cancelled", from: models.PaymentStatusPending, to: models.PaymentStatusCancelled},
		{name: "pending to failed", from: models.PaymentStatusPending, to: models.PaymentStatusFailed},
		{name: "duplicate settlement is a noop", from: models.PaymentStatusSettlement, to: models.PaymentStatusSettlement, wantNoop: true},
		{name: "late expiry after settlement is a noop", from: models.PaymentStatusSettlement, to: models.PaymentStatusExpired, wantNoop: true},
		{name: "settlement after expiry is a noop", from: models.PaymentStatusExpired, to: models.PaymentStatusSettlement, wantNoop: true},
		{name: "cannot target pending", from: models.PaymentStatusPending, to: models.PaymentStatusPending, wantErr: true},
		{name: "unknown target", from: models.PaymentStatusPending, to: models.PaymentStatus("refunded"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noop, err := ValidatePaymentTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePaymentTransition(%s, %s) error = %v; wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err == nil && noop != tt.wantNoop {
				t.Errorf("ValidatePaymentTransition(%s, %s) noop = %v; want %v", tt.from, tt.to, noop, tt.wantNoop)
			}
		})
	}
}

func TestValidateOrderTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     models.OrderStatus
		to       models.OrderStatus
		wantNoop bool
		wantErr  bool
	}{
		{name: "waiting to processing", from: models.OrderStatusWaitingPayment, to: models.OrderStatusProcessing},
		{name: "processing to in progress", from: models.OrderStatusProcessing, to: models.OrderStatusInProgress},
		{name: "in progress to completed", from: models.OrderStatusInProgress, to: models.OrderStatusCompleted},
		{name: "waiting to cancelled", from: models.OrderStatusWaitingPayment, to: models.OrderStatusCancelled},
		{name: "processing to failed", from: models.OrderStatusProcessing, to: models.OrderStatusFailed},
		{name: "in progress to cancelled", from: models.OrderStatusInProgress, to: models.OrderStatusCancelled},
		{name: "same status is a noop", from: models.OrderStatusProcessing, to: models.OrderStatusProcessing, wantNoop: true},
		{name: "completed is terminal", from: models.OrderStatusCompleted, to: models.OrderStatusProcessing, wantNoop: true},
		{name: "cancelled is terminal", from: models.OrderStatusCancelled, to: models.OrderStatusCompleted, wantNoop: true},
		{name: "failed is terminal", from: models.OrderStatusFailed, to: models.OrderStatusInProgress, wantNoop: true},
		{name: "cannot skip processing", from: models.OrderStatusWaitingPayment, to: models.OrderStatusInProgress, wantErr: true},
		{name: "cannot skip in progress", from: models.OrderStatusProcessing, to: models.OrderStatusCompleted, wantErr: true},
		{name: "cannot complete before payment", from: models.OrderStatusWaitingPayment, to: models.OrderStatusCompleted, wantErr: true},
		{name: "cannot move backwards", from: models.OrderStatusInProgress, to: models.OrderStatusProcessing, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noop, err := ValidateOrderTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateOrderTransition(%s, %s) error = %v; wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err == nil && noop != tt.wantNoop {
				t.Errorf("ValidateOrderTransition(%s, %s) noop = %v; want %v", tt.from, tt.to, noop, tt.wantNoop)
			}
		})
	}
}

// A settlement landing on a bundle whose order already reached a terminal
// state must not resurrect fulfillment.
func TestSettlementAdvancesOrder(t *testing.T) {
	tests := []struct {
		name string
		from models.OrderStatus
		want bool
	}{
		{name: "waiting payment advances", from: models.OrderStatusWaitingPayment, want: true},
		{name: "cancelled stays cancelled", from: models.OrderStatusCancelled, want: false},
		{name: "failed stays failed", from: models.OrderStatusFailed, want: false},
		{name: "completed stays completed", from: models.OrderStatusCompleted, want: false},
		{name: "processing is not re-applied", from: models.OrderStatusProcessing, want: false},
		{name: "in progress is not rewound", from: models.OrderStatusInProgress, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settlementAdvancesOrder(tt.from); got != tt.want {
				t.Errorf("settlementAdvancesOrder(%s) = %v; want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestIsPaymentTerminal(t *testing.T) {
	terminal := []models.PaymentStatus{
		models.PaymentStatusSettlement,
		models.PaymentStatusExpired,
		models.PaymentStatusCancelled,
		models.PaymentStatusFailed,
	}
	for _, status := range terminal {
		row := models.Transaction{PaymentStatus: status}
		if !row.IsPaymentTerminal() {
			t.Errorf("IsPaymentTerminal() = false for %s; want true", status)
		}
	}
	pending := models.Transaction{PaymentStatus: models.PaymentStatusPending}
	if pending.IsPaymentTerminal() {
		t.Error("IsPaymentTerminal() = true for pending; want false")
	}
}
