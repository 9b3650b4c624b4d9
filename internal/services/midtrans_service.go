package services

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"os"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"rbxmart_echo/internal/models"
)

// MidtransService is the Midtrans backend of the PaymentGateway interface.
// Snap creates payable orders; the core API client is kept for status checks
// and cancellation.
type MidtransService struct {
	SnapClient snap.Client
	CoreClient coreapi.Client
	serverKey  string
}

func NewMidtransService() *MidtransService {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	clientKey := os.Getenv("MIDTRANS_CLIENT_KEY")
	envStr := os.Getenv("MIDTRANS_IS_PRODUCTION")

	env := midtrans.Sandbox
	if envStr == "true" {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	// Set Default Options
	midtrans.ServerKey = serverKey
	midtrans.ClientKey = clientKey
	midtrans.Environment = env

	return &MidtransService{
		SnapClient: s,
		CoreClient: c,
		serverKey:  serverKey,
	}
}

func (s *MidtransService) Name() models.PaymentGateway {
	return models.PaymentGatewayMidtrans
}

// CreateOrder creates one Snap transaction covering the whole bundle and
// returns the token and redirect URL
func (s *MidtransService) CreateOrder(ctx context.Context, bundle []models.Transaction, priced *PricedCart, method models.PaymentMethod) (*PaymentHandle, error) {
	gatewayItems, err := BuildGatewayItems(bundle, priced)
	if err != nil {
		return nil, err
	}

	items := make([]midtrans.ItemDetails, 0, len(gatewayItems))
	for _, gi := range gatewayItems {
		items = append(items, midtrans.ItemDetails{
			ID:    gi.ID,
			Name:  truncateName(gi.Name, 50),
			Price: gi.Price,
			Qty:   int32(gi.Qty),
		})
	}

	primary := bundle[0]
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  primary.GatewayOrderID,
			GrossAmt: priced.GrandTotal,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: primary.CustomerName,
			Email: primary.CustomerEmail,
			Phone: primary.CustomerPhone,
		},
		Items: &items,
	}

	if method.MidtransCode != "" {
		req.EnabledPayments = []snap.SnapPaymentType{snap.SnapPaymentType(method.MidtransCode)}
	} else {
		req.EnabledPayments = snap.AllSnapPaymentType
	}
	if finishURL := os.Getenv("MIDTRANS_FINISH_URL"); finishURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: finishURL}
	}

	resp, snapErr := s.SnapClient.CreateTransaction(req)
	if snapErr != nil {
		return nil, &GatewayUnavailableError{Gateway: "midtrans", Err: snapErr}
	}

	return &PaymentHandle{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// CheckTransaction asks Midtrans for the current status of an order
func (s *MidtransService) CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, error) {
	resp, err := s.CoreClient.CheckTransaction(orderID)
	if err != nil {
		return nil, &GatewayUnavailableError{Gateway: "midtrans", Err: err}
	}
	return resp, nil
}

// CancelTransaction cancels a pending order at Midtrans
func (s *MidtransService) CancelTransaction(orderID string) error {
	if _, err := s.CoreClient.CancelTransaction(orderID); err != nil {
		return &GatewayUnavailableError{Gateway: "midtrans", Err: err}
	}
	return nil
}

// VerifySignature checks a notification's signature_key. Midtrans signs
// notifications with SHA512(order_id + status_code + gross_amount + server key).
func (s *MidtransService) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	return verifyMidtransSignature(orderID, statusCode, grossAmount, s.serverKey, signatureKey)
}

func verifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, signatureKey string) bool {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}

func truncateName(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
