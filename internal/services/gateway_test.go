package services

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"
	"unicode/utf8"

	"rbxmart_echo/internal/models"
)

func TestBuildGatewayItems(t *testing.T) {
	tests := []struct {
		name      string
		bundle    []models.Transaction
		grand     int64
		wantItems int
		wantErr   bool
	}{
		{
			name: "even split keeps quantity",
			bundle: []models.Transaction{
				{InvoiceID: "INV-1", ServiceName: "Robux 100", Quantity: 2, FinalAmount: 18000, IsPrimary: true, PaymentFee: 2500},
				{InvoiceID: "INV-2", ServiceName: "Robux 250", Quantity: 1, FinalAmount: 22500},
			},
			grand:     43000,
			wantItems: 3, // two lines plus the admin fee line
		},
		{
			name: "odd amount collapses into qty-1 line",
			bundle: []models.Transaction{
				// 10001 does not divide by 3
				{InvoiceID: "INV-1", ServiceName: "Robux 100", Quantity: 3, FinalAmount: 10001, IsPrimary: true},
			},
			grand:     10001,
			wantItems: 1,
		},
		{
			name: "no fee line when fee is zero",
			bundle: []models.Transaction{
				{InvoiceID: "INV-1", ServiceName: "Robux 100", Quantity: 1, FinalAmount: 10000, IsPrimary: true},
			},
			grand:     10000,
			wantItems: 1,
		},
		{
			name: "mismatched grand total is refused",
			bundle: []models.Transaction{
				{InvoiceID: "INV-1", ServiceName: "Robux 100", Quantity: 1, FinalAmount: 10000, IsPrimary: true},
			},
			grand:   9999,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priced := &PricedCart{GrandTotal: tt.grand}
			items, err := BuildGatewayItems(tt.bundle, priced)
			if tt.wantErr {
				if !errors.Is(err, ErrInconsistentTotals) {
					t.Fatalf("BuildGatewayItems() error = %v; want ErrInconsistentTotals", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildGatewayItems() error = %v", err)
			}
			if len(items) != tt.wantItems {
				t.Fatalf("BuildGatewayItems() returned %d items; want %d", len(items), tt.wantItems)
			}

			var sum int64
			for _, item := range items {
				sum += item.Price * int64(item.Qty)
			}
			if sum != tt.grand {
				t.Errorf("items sum to %d; want grand total %d", sum, tt.grand)
			}
		})
	}
}

func TestBuildGatewayItemsQtyCollapse(t *testing.T) {
	bundle := []models.Transaction{
		{InvoiceID: "INV-1", ServiceName: "Robux 100", Quantity: 3, FinalAmount: 10001, IsPrimary: true},
	}
	items, err := BuildGatewayItems(bundle, &PricedCart{GrandTotal: 10001})
	if err != nil {
		t.Fatalf("BuildGatewayItems() error = %v", err)
	}
	if items[0].Qty != 1 {
		t.Errorf("Qty = %d; want 1", items[0].Qty)
	}
	if items[0].Price != 10001 {
		t.Errorf("Price = %d; want 10001", items[0].Price)
	}
	if items[0].Name != "Robux 100 x3" {
		t.Errorf("Name = %q; want %q", items[0].Name, "Robux 100 x3")
	}
}

func TestHasPaymentHandle(t *testing.T) {
	tests := []struct {
		name   string
		bundle []models.Transaction
		want   bool
	}{
		{
			name:   "fresh bundle",
			bundle: []models.Transaction{{InvoiceID: "INV-1"}, {InvoiceID: "INV-2"}},
			want:   false,
		},
		{
			name:   "snap token present",
			bundle: []models.Transaction{{InvoiceID: "INV-1", SnapToken: "tok"}},
			want:   true,
		},
		{
			name:   "va number on second row",
			bundle: []models.Transaction{{InvoiceID: "INV-1"}, {InvoiceID: "INV-2", VANumber: "8888123"}},
			want:   true,
		},
		{
			name:   "gateway reference present",
			bundle: []models.Transaction{{InvoiceID: "INV-1", GatewayReference: "D0001"}},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPaymentHandle(tt.bundle); got != tt.want {
				t.Errorf("HasPaymentHandle() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyMidtransSignature(t *testing.T) {
	const serverKey = "SB-Mid-server-testkey"
	sum := sha512.Sum512([]byte("RBX-1200" + "200" + "43000.00" + serverKey))
	valid := hex.EncodeToString(sum[:])

	tests := []struct {
		name        string
		orderID     string
		statusCode  string
		grossAmount string
		signature   string
		want        bool
	}{
		{name: "valid", orderID: "RBX-1200", statusCode: "200", grossAmount: "43000.00", signature: valid, want: true},
		{name: "wrong order id", orderID: "RBX-1201", statusCode: "200", grossAmount: "43000.00", signature: valid, want: false},
		{name: "wrong amount", orderID: "RBX-1200", statusCode: "200", grossAmount: "44000.00", signature: valid, want: false},
		{name: "wrong status code", orderID: "RBX-1200", statusCode: "201", grossAmount: "43000.00", signature: valid, want: false},
		{name: "empty signature", orderID: "RBX-1200", statusCode: "200", grossAmount: "43000.00", signature: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := verifyMidtransSignature(tt.orderID, tt.statusCode, tt.grossAmount, serverKey, tt.signature)
			if got != tt.want {
				t.Errorf("verifyMidtransSignature() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyDuitkuSignature(t *testing.T) {
	const merchantCode = "D0001"
	const apiKey = "testapikey"

	valid := md5Hex(merchantCode + "43000" + "RBX-1200" + apiKey)

	tests := []struct {
		name      string
		amount    string
		orderID   string
		signature string
		want      bool
	}{
		{name: "valid", amount: "43000", orderID: "RBX-1200", signature: valid, want: true},
		{name: "wrong amount", amount: "44000", orderID: "RBX-1200", signature: valid, want: false},
		{name: "wrong order id", amount: "43000", orderID: "RBX-1201", signature: valid, want: false},
		{name: "empty signature", amount: "43000", orderID: "RBX-1200", signature: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := verifyDuitkuSignature(merchantCode, tt.amount, tt.orderID, apiKey, tt.signature)
			if got != tt.want {
				t.Errorf("verifyDuitkuSignature() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestTruncateName(t *testing.T) {
	long := "Jasa Joki Brainrot Evolution Max Level Speedrun Paket Lengkap"
	got := truncateName(long, 50)
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("rune count = %d; want 50", n)
	}
	if short := truncateName("Robux 100", 50); short != "Robux 100" {
		t.Errorf("truncateName() = %q; want unchanged", short)
	}

	// Multibyte names must be cut on rune boundaries, never mid-sequence
	emoji := "Paket Sultan 💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎💎"
	got = truncateName(emoji, 50)
	if !utf8.ValidString(got) {
		t.Errorf("truncateName() produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("rune count = %d; want 50", n)
	}
}
