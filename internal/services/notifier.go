package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"rbxmart_echo/internal/models"
)

// NotifierService pushes order events to the realtime notification bridge
// (the endpoint that fans out to the storefront's live order tracker and the
// admin dashboard). Delivery is best effort; callers treat failures as
// log-and-continue.
type NotifierService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewNotifierService() *NotifierService {
	url := os.Getenv("NOTIFIER_BASE_URL")
	if url == "" {
		url = "http://notifier:3000"
	}
	return &NotifierService{
		baseURL: url,
		apiKey:  os.Getenv("NOTIFIER_API_KEY"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// OrderEvent is the payload pushed for every notable order lifecycle change
type OrderEvent struct {
	Event          string `json:"event"` // "invoice_created", "payment_settled", ...
	GatewayOrderID string `json:"gateway_order_id"`
	CustomerEmail  string `json:"customer_email"`
	GrandTotal     int64  `json:"grand_total"`
	ItemCount      int    `json:"item_count"`
}

func (s *NotifierService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// PublishOrderEvent pushes one event describing the current state of a bundle
func (s *NotifierService) PublishOrderEvent(event string, bundle []models.Transaction) error {
	if len(bundle) == 0 {
		return fmt.Errorf("empty bundle")
	}
	primary := bundle[0]
	return s.makeRequest("POST", "/api/events", OrderEvent{
		Event:          event,
		GatewayOrderID: primary.GatewayOrderID,
		CustomerEmail:  primary.CustomerEmail,
		GrandTotal:     BundleGrandTotal(bundle),
		ItemCount:      len(bundle),
	})
}
