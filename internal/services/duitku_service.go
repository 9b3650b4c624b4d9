package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"rbxmart_echo/internal/models"
)

const (
	duitkuSandboxBaseURL    = "https://sandbox.duitku.com/webapi"
	duitkuProductionBaseURL = "https://passport.duitku.com/webapi"
)

// DuitkuService is the Duitku backend of the PaymentGateway interface.
// Duitku has no official Go SDK, so this talks to the v2 merchant API
// directly over HTTP.
type DuitkuService struct {
	baseURL      string
	merchantCode string
	apiKey       string
	client       *http.Client
}

func NewDuitkuService() *DuitkuService {
	baseURL := duitkuSandboxBaseURL
	if os.Getenv("DUITKU_IS_PRODUCTION") == "true" {
		baseURL = duitkuProductionBaseURL
	}
	return &DuitkuService{
		baseURL:      baseURL,
		merchantCode: os.Getenv("DUITKU_MERCHANT_CODE"),
		apiKey:       os.Getenv("DUITKU_API_KEY"),
		client:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *DuitkuService) Name() models.PaymentGateway {
	return models.PaymentGatewayDuitku
}

type duitkuItemDetail struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type duitkuInquiryRequest struct {
	MerchantCode    string             `json:"merchantCode"`
	PaymentAmount   int64              `json:"paymentAmount"`
	PaymentMethod   string             `json:"paymentMethod"`
	MerchantOrderID string             `json:"merchantOrderId"`
	ProductDetails  string             `json:"productDetails"`
	CustomerVaName  string             `json:"customerVaName"`
	Email           string             `json:"email"`
	PhoneNumber     string             `json:"phoneNumber"`
	ItemDetails     []duitkuItemDetail `json:"itemDetails"`
	CallbackURL     string             `json:"callbackUrl"`
	ReturnURL       string             `json:"returnUrl"`
	Signature       string             `json:"signature"`
	ExpiryPeriod    int                `json:"expiryPeriod"`
}

type duitkuInquiryResponse struct {
	MerchantCode  string `json:"merchantCode"`
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	VANumber      string `json:"vaNumber"`
	QRString      string `json:"qrString"`
	Amount        string `json:"amount"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// CreateOrder creates one Duitku payment inquiry covering the whole bundle
func (s *DuitkuService) CreateOrder(ctx context.Context, bundle []models.Transaction, priced *PricedCart, method models.PaymentMethod) (*PaymentHandle, error) {
	gatewayItems, err := BuildGatewayItems(bundle, priced)
	if err != nil {
		return nil, err
	}

	items := make([]duitkuItemDetail, 0, len(gatewayItems))
	for _, gi := range gatewayItems {
		items = append(items, duitkuItemDetail{
			Name:     gi.Name,
			Price:    gi.Price,
			Quantity: gi.Qty,
		})
	}

	primary := bundle[0]
	orderID := primary.GatewayOrderID

	req := duitkuInquiryRequest{
		MerchantCode:    s.merchantCode,
		PaymentAmount:   priced.GrandTotal,
		PaymentMethod:   method.DuitkuCode,
		MerchantOrderID: orderID,
		ProductDetails:  fmt.Sprintf("RbxMart order %s", orderID),
		CustomerVaName:  primary.CustomerName,
		Email:           primary.CustomerEmail,
		PhoneNumber:     primary.CustomerPhone,
		ItemDetails:     items,
		CallbackURL:     os.Getenv("DUITKU_CALLBACK_URL"),
		ReturnURL:       os.Getenv("DUITKU_RETURN_URL"),
		// inquiry signature: MD5(merchantCode + merchantOrderId + paymentAmount + apiKey)
		Signature:    s.inquirySignature(orderID, priced.GrandTotal),
		ExpiryPeriod: 1440, // minutes
	}

	var resp duitkuInquiryResponse
	if err := s.postJSON(ctx, "/api/merchant/v2/inquiry", req, &resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != "00" {
		return nil, &GatewayUnavailableError{
			Gateway: "duitku",
			Err:     fmt.Errorf("inquiry rejected: %s %s", resp.StatusCode, resp.StatusMessage),
		}
	}

	return &PaymentHandle{
		RedirectURL: resp.PaymentURL,
		VANumber:    resp.VANumber,
		QRString:    resp.QRString,
		Reference:   resp.Reference,
	}, nil
}

func (s *DuitkuService) postJSON(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &GatewayUnavailableError{Gateway: "duitku", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &GatewayUnavailableError{
			Gateway: "duitku",
			Err:     fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayUnavailableError{Gateway: "duitku", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (s *DuitkuService) inquirySignature(orderID string, amount int64) string {
	return md5Hex(s.merchantCode + orderID + strconv.FormatInt(amount, 10) + s.apiKey)
}

// VerifySignature checks a callback's signature. Duitku signs callbacks with
// MD5(merchantCode + amount + merchantOrderId + apiKey).
func (s *DuitkuService) VerifySignature(orderID, amount, signature string) bool {
	return verifyDuitkuSignature(s.merchantCode, amount, orderID, s.apiKey, signature)
}

func verifyDuitkuSignature(merchantCode, amount, orderID, apiKey, signature string) bool {
	expected := md5Hex(merchantCode + amount + orderID + apiKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
