package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
	"rbxmart_echo/internal/services"
)

// WebhookHandler receives gateway callbacks. Both gateways stay wired even
// when only one is active for new checkouts, because in-flight orders created
// before a gateway switch still deliver to the old one.
type WebhookHandler struct {
	db        *gorm.DB
	cache     *services.RedisCache
	midtrans  *services.MidtransService
	duitku    *services.DuitkuService
	reconcile *services.ReconcileService
}

func NewWebhookHandler(db *gorm.DB, cache *services.RedisCache, midtrans *services.MidtransService, duitku *services.DuitkuService, reconcile *services.ReconcileService) *WebhookHandler {
	return &WebhookHandler{
		db:        db,
		cache:     cache,
		midtrans:  midtrans,
		duitku:    duitku,
		reconcile: reconcile,
	}
}

// midtransNotification is the subset of the Midtrans HTTP notification we act on
type midtransNotification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status"`
}

// HandleMidtrans handles POST /api/webhooks/midtrans
func (h *WebhookHandler) HandleMidtrans(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	var notif midtransNotification
	if err := json.Unmarshal(body, &notif); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed notification")
	}

	if !h.midtrans.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		h.recordCallback(c, models.PaymentGatewayMidtrans, notif.OrderID, body, false, "bad signature")
		return services.ErrSignatureInvalid
	}

	newStatus, ok := mapMidtransStatus(notif.TransactionStatus, notif.FraudStatus)
	if !ok {
		// Informational status (pending, refund we don't handle); store and ack
		h.recordCallback(c, models.PaymentGatewayMidtrans, notif.OrderID, body, true, "")
		return c.JSON(http.StatusOK, MessageResponse{Message: "ok"})
	}

	if err := h.applyWithLock(c, notif.OrderID, newStatus, "webhook:midtrans"); err != nil {
		h.recordCallback(c, models.PaymentGatewayMidtrans, notif.OrderID, body, false, err.Error())
		return err
	}

	h.recordCallback(c, models.PaymentGatewayMidtrans, notif.OrderID, body, true, "")
	return c.JSON(http.StatusOK, MessageResponse{Message: "ok"})
}

// mapMidtransStatus translates Midtrans transaction statuses onto the
// internal payment state machine. The second return is false for statuses
// that carry no transition.
func mapMidtransStatus(transactionStatus, fraudStatus string) (models.PaymentStatus, bool) {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" || fraudStatus == "" {
			return models.PaymentStatusSettlement, true
		}
		return models.PaymentStatusFailed, true
	case "settlement":
		return models.PaymentStatusSettlement, true
	case "deny", "failure":
		return models.PaymentStatusFailed, true
	case "cancel":
		return models.PaymentStatusCancelled, true
	case "expire":
		return models.PaymentStatusExpired, true
	}
	return "", false
}

// HandleDuitku handles POST /api/webhooks/duitku. Duitku posts
// form-encoded callbacks.
func (h *WebhookHandler) HandleDuitku(c echo.Context) error {
	orderID := c.FormValue("merchantOrderId")
	amount := c.FormValue("amount")
	resultCode := c.FormValue("resultCode")
	signature := c.FormValue("signature")

	raw, _ := json.Marshal(map[string]string{
		"merchantOrderId": orderID,
		"amount":          amount,
		"resultCode":      resultCode,
		"reference":       c.FormValue("reference"),
		"paymentCode":     c.FormValue("paymentCode"),
	})

	if !h.duitku.VerifySignature(orderID, amount, signature) {
		h.recordCallback(c, models.PaymentGatewayDuitku, orderID, raw, false, "bad signature")
		return services.ErrSignatureInvalid
	}

	var newStatus models.PaymentStatus
	switch resultCode {
	case "00":
		newStatus = models.PaymentStatusSettlement
	case "01":
		newStatus = models.PaymentStatusFailed
	default:
		h.recordCallback(c, models.PaymentGatewayDuitku, orderID, raw, true, "")
		return c.JSON(http.StatusOK, MessageResponse{Message: "ok"})
	}

	if err := h.applyWithLock(c, orderID, newStatus, "webhook:duitku"); err != nil {
		h.recordCallback(c, models.PaymentGatewayDuitku, orderID, raw, false, err.Error())
		return err
	}

	h.recordCallback(c, models.PaymentGatewayDuitku, orderID, raw, true, "")
	return c.JSON(http.StatusOK, MessageResponse{Message: "ok"})
}

// applyWithLock serializes concurrent deliveries for the same order. The
// Redis lock is best effort; the settlement event unique constraint is what
// actually guarantees exactly-once side effects.
func (h *WebhookHandler) applyWithLock(c echo.Context, orderID string, newStatus models.PaymentStatus, actor string) error {
	ctx := c.Request().Context()

	lockKey := fmt.Sprintf("webhook:lock:%s", orderID)
	if h.cache != nil {
		if ok, err := h.cache.AcquireLock(ctx, lockKey, 30*time.Second); err == nil && ok {
			defer h.cache.ReleaseLock(ctx, lockKey)
		}
	}

	return h.reconcile.ApplyStatus(ctx, orderID, models.StatusLogTypePayment, string(newStatus), "gateway notification", actor)
}

func (h *WebhookHandler) recordCallback(c echo.Context, gateway models.PaymentGateway, orderID string, raw []byte, accepted bool, reason string) {
	history := models.PaymentCallbackHistory{
		PaymentGateway: gateway,
		GatewayOrderID: orderID,
		Accepted:       accepted,
		RejectReason:   reason,
		Metadata:       raw,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&history).Error; err != nil {
		c.Logger().Errorf("failed to record %s callback for %s: %v", gateway, orderID, err)
	}
}
