package handlers

import (
	"testing"

	"rbxmart_echo/internal/models"
)

func TestMapMidtransStatus(t *testing.T) {
	tests := []struct {
		name              string
		transactionStatus string
		fraudStatus       string
		wantStatus        models.PaymentStatus
		wantOK            bool
	}{
		{name: "settlement", transactionStatus: "settlement", wantStatus: models.PaymentStatusSettlement, wantOK: true},
		{name: "capture accepted", transactionStatus: "capture", fraudStatus: "accept", wantStatus: models.PaymentStatusSettlement, wantOK: true},
		{name: "capture without fraud status", transactionStatus: "capture", wantStatus: models.PaymentStatusSettlement, wantOK: true},
		{name: "capture challenged", transactionStatus: "capture", fraudStatus: "challenge", wantStatus: models.PaymentStatusFailed, wantOK: true},
		{name: "deny", transactionStatus: "deny", wantStatus: models.PaymentStatusFailed, wantOK: true},
		{name: "failure", transactionStatus: "failure", wantStatus: models.PaymentStatusFailed, wantOK: true},
		{name: "cancel", transactionStatus: "cancel", wantStatus: models.PaymentStatusCancelled, wantOK: true},
		{name: "expire", transactionStatus: "expire", wantStatus: models.PaymentStatusExpired, wantOK: true},
		{name: "pending carries no transition", transactionStatus: "pending", wantOK: false},
		{name: "refund is not handled", transactionStatus: "refund", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := mapMidtransStatus(tt.transactionStatus, tt.fraudStatus)
			if ok != tt.wantOK {
				t.Fatalf("mapMidtransStatus(%q, %q) ok = %v; want %v", tt.transactionStatus, tt.fraudStatus, ok, tt.wantOK)
			}
			if ok && status != tt.wantStatus {
				t.Errorf("mapMidtransStatus(%q, %q) = %s; want %s", tt.transactionStatus, tt.fraudStatus, status, tt.wantStatus)
			}
		})
	}
}
