package services

import (
	"context"
	"fmt"
	"os"

	"rbxmart_echo/internal/models"
)

// PaymentHandle is the normalized "where do I pay" answer returned by both
// gateway backends. Which fields are set depends on the gateway and method.
type PaymentHandle struct {
	RedirectURL string `json:"redirect_url,omitempty"`
	Token       string `json:"token,omitempty"`
	VANumber    string `json:"va_number,omitempty"`
	QRString    string `json:"qr_string,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// PaymentGateway abstracts Midtrans and Duitku behind one contract. The
// active backend is chosen once at startup, not swapped at runtime.
type PaymentGateway interface {
	Name() models.PaymentGateway
	CreateOrder(ctx context.Context, bundle []models.Transaction, priced *PricedCart, method models.PaymentMethod) (*PaymentHandle, error)
}

// GatewayItem is one line of the order sent to the gateway
type GatewayItem struct {
	ID    string
	Name  string
	Price int64
	Qty   int
}

// BuildGatewayItems mirrors the bundle rows into the gateway-side item list.
// Prices are the post-discount amounts, never the raw unit price; one
// synthetic admin-fee line carries the primary row's payment fee. When an
// item's final amount does not divide evenly by its quantity it is collapsed
// into a single qty-1 line, because gateways require sum(price*qty) to match
// the gross amount to the rupiah.
func BuildGatewayItems(bundle []models.Transaction, priced *PricedCart) ([]GatewayItem, error) {
	items := make([]GatewayItem, 0, len(bundle)+1)

	var sum int64
	for _, row := range bundle {
		item := GatewayItem{
			ID:   row.InvoiceID,
			Name: row.ServiceName,
		}
		if row.Quantity > 0 && row.FinalAmount%int64(row.Quantity) == 0 {
			item.Price = row.FinalAmount / int64(row.Quantity)
			item.Qty = row.Quantity
		} else {
			item.Name = fmt.Sprintf("%s x%d", row.ServiceName, row.Quantity)
			item.Price = row.FinalAmount
			item.Qty = 1
		}
		sum += item.Price * int64(item.Qty)
		items = append(items, item)

		if row.IsPrimary && row.PaymentFee > 0 {
			fee := GatewayItem{
				ID:    "ADMIN-FEE",
				Name:  "Biaya Admin",
				Price: row.PaymentFee,
				Qty:   1,
			}
			sum += fee.Price
			items = append(items, fee)
		}
	}

	// A payment the buyer did not agree to must never reach the gateway
	if sum != priced.GrandTotal {
		return nil, fmt.Errorf("%w: items sum to %d, grand total is %d", ErrInconsistentTotals, sum, priced.GrandTotal)
	}

	return items, nil
}

// HasPaymentHandle reports whether a gateway order was already created for
// this bundle. Callers must check this before retrying a pay call.
func HasPaymentHandle(bundle []models.Transaction) bool {
	for _, row := range bundle {
		if row.SnapToken != "" || row.RedirectURL != "" || row.VANumber != "" || row.QRString != "" || row.GatewayReference != "" {
			return true
		}
	}
	return false
}

// NewPaymentGatewayFromEnv selects the active gateway backend from
// ACTIVE_PAYMENT_GATEWAY. Read once per process, injected everywhere else.
func NewPaymentGatewayFromEnv() (PaymentGateway, error) {
	switch os.Getenv("ACTIVE_PAYMENT_GATEWAY") {
	case "duitku":
		return NewDuitkuService(), nil
	case "midtrans", "":
		return NewMidtransService(), nil
	default:
		return nil, fmt.Errorf("unknown ACTIVE_PAYMENT_GATEWAY %q", os.Getenv("ACTIVE_PAYMENT_GATEWAY"))
	}
}
