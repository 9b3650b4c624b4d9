package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
	"rbxmart_echo/internal/services"
)

const paymentMethodsCacheKey = "catalog:payment_methods"

type PaymentMethodHandler struct {
	db       *gorm.DB
	cache    *services.RedisCache
	validate *validator.Validate
}

func NewPaymentMethodHandler(db *gorm.DB, cache *services.RedisCache) *PaymentMethodHandler {
	return &PaymentMethodHandler{db: db, cache: cache, validate: validator.New()}
}

// PaymentMethodView is a catalog entry with an optional fee preview for the
// amount the buyer is about to pay
type PaymentMethodView struct {
	models.PaymentMethod
	FeePreview *int64 `json:"fee_preview,omitempty"`
}

// ListPaymentMethods handles GET /api/payment-methods. Pass ?amount= to get
// per-method fee previews and availability for that amount.
func (h *PaymentMethodHandler) ListPaymentMethods(c echo.Context) error {
	ctx := c.Request().Context()

	fetch := func() ([]models.PaymentMethod, error) {
		var methods []models.PaymentMethod
		err := h.db.Where("is_active = ?", true).Order("category asc, fee asc").Find(&methods).Error
		return methods, err
	}

	var methods []models.PaymentMethod
	var err error
	if h.cache != nil {
		methods, err = services.GetOrSet(h.cache, ctx, paymentMethodsCacheKey, 10*time.Minute, fetch)
	} else {
		methods, err = fetch()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch payment methods")
	}

	var amount int64
	if amountStr := c.QueryParam("amount"); amountStr != "" {
		amount, _ = strconv.ParseInt(amountStr, 10, 64)
	}

	views := make([]PaymentMethodView, 0, len(methods))
	for _, m := range methods {
		view := PaymentMethodView{PaymentMethod: m}
		if amount > 0 {
			fee := m.CalculateFee(amount)
			view.FeePreview = &fee
		}
		views = append(views, view)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": views})
}

// PaymentMethodRequest is the admin create/update body
type PaymentMethodRequest struct {
	Code          string  `json:"code" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Category      string  `json:"category" validate:"required,oneof=ewallet qris bank_transfer retail credit_card"`
	Fee           float64 `json:"fee" validate:"min=0"`
	FeeType       string  `json:"fee_type" validate:"required,oneof=fixed percentage"`
	MinimumAmount int64   `json:"minimum_amount" validate:"min=0"`
	MaximumAmount int64   `json:"maximum_amount" validate:"min=0"`
	MidtransCode  string  `json:"midtrans_code"`
	DuitkuCode    string  `json:"duitku_code"`
	IsActive      *bool   `json:"is_active"`
}

// CreatePaymentMethod handles POST /api/admin/payment-methods
func (h *PaymentMethodHandler) CreatePaymentMethod(c echo.Context) error {
	var req PaymentMethodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	method := models.PaymentMethod{
		Code:          req.Code,
		Name:          req.Name,
		Category:      models.PaymentMethodCategory(req.Category),
		Fee:           req.Fee,
		FeeType:       models.FeeType(req.FeeType),
		MinimumAmount: req.MinimumAmount,
		MaximumAmount: req.MaximumAmount,
		MidtransCode:  req.MidtransCode,
		DuitkuCode:    req.DuitkuCode,
		IsActive:      true,
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}

	if err := h.db.Create(&method).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create payment method")
	}
	h.invalidateCache(c)

	return c.JSON(http.StatusCreated, method)
}

// UpdatePaymentMethod handles PUT /api/admin/payment-methods/:id
func (h *PaymentMethodHandler) UpdatePaymentMethod(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var method models.PaymentMethod
	if err := h.db.First(&method, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "payment method not found")
		}
		return err
	}

	var req PaymentMethodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	method.Code = req.Code
	method.Name = req.Name
	method.Category = models.PaymentMethodCategory(req.Category)
	method.Fee = req.Fee
	method.FeeType = models.FeeType(req.FeeType)
	method.MinimumAmount = req.MinimumAmount
	method.MaximumAmount = req.MaximumAmount
	method.MidtransCode = req.MidtransCode
	method.DuitkuCode = req.DuitkuCode
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}

	if err := h.db.Save(&method).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update payment method")
	}
	h.invalidateCache(c)

	return c.JSON(http.StatusOK, method)
}

func (h *PaymentMethodHandler) invalidateCache(c echo.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(c.Request().Context(), paymentMethodsCacheKey); err != nil {
		c.Logger().Errorf("failed to invalidate payment method cache: %v", err)
	}
}
