package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/middleware"
	"rbxmart_echo/internal/models"
	"rbxmart_echo/internal/services"
)

type CheckoutHandler struct {
	db       *gorm.DB
	checkout *services.CheckoutService
	validate *validator.Validate
}

func NewCheckoutHandler(db *gorm.DB, checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		db:       db,
		checkout: checkout,
		validate: validator.New(),
	}
}

// CheckoutRequest is the checkout submission body. Guests check out with
// customer info only; logged-in buyers get their tier discount applied
// automatically.
type CheckoutRequest struct {
	Items             []services.LineItem `json:"items" validate:"required,min=1,dive"`
	CustomerName      string              `json:"customer_name" validate:"required"`
	CustomerEmail     string              `json:"customer_email" validate:"required,email"`
	CustomerPhone     string              `json:"customer_phone"`
	PaymentMethodCode string              `json:"payment_method_code" validate:"required"`
}

// CheckoutResponse tells the buyer where to pay
type CheckoutResponse struct {
	GatewayOrderID string   `json:"gateway_order_id"`
	GrandTotal     int64    `json:"grand_total"`
	RedirectURL    string   `json:"redirect_url,omitempty"`
	Token          string   `json:"token,omitempty"`
	VANumber       string   `json:"va_number,omitempty"`
	QRString       string   `json:"qr_string,omitempty"`
	Invoices       []string `json:"invoices"`
}

// SubmitCheckout handles POST /api/checkout
func (h *CheckoutHandler) SubmitCheckout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var method models.PaymentMethod
	if err := h.db.Where("code = ? AND is_active = ?", req.PaymentMethodCode, true).First(&method).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown payment method")
		}
		return err
	}

	customer := services.CustomerInfo{
		Name:  req.CustomerName,
		Email: req.CustomerEmail,
		Phone: req.CustomerPhone,
	}

	// Tier discount comes from the account, never from the request body
	discountPercentage := 0
	if user, ok := middleware.CurrentUser(c); ok {
		customer.UserID = &user.ID
		discountPercentage = user.DiscountPercentage
	}

	result, err := h.checkout.Checkout(c.Request().Context(), req.Items, discountPercentage, method, customer)
	if err != nil {
		return err
	}

	invoices := make([]string, 0, len(result.Transactions))
	for _, row := range result.Transactions {
		invoices = append(invoices, row.InvoiceID)
	}

	return c.JSON(http.StatusCreated, CheckoutResponse{
		GatewayOrderID: result.GatewayOrderID,
		GrandTotal:     result.GrandTotal,
		RedirectURL:    result.Handle.RedirectURL,
		Token:          result.Handle.Token,
		VANumber:       result.Handle.VANumber,
		QRString:       result.Handle.QRString,
		Invoices:       invoices,
	})
}
