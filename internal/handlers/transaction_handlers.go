package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/middleware"
	"rbxmart_echo/internal/models"
	"rbxmart_echo/internal/services"
)

type TransactionHandler struct {
	db   *gorm.DB
	view *services.TransactionViewService
}

func NewTransactionHandler(db *gorm.DB, view *services.TransactionViewService) *TransactionHandler {
	return &TransactionHandler{db: db, view: view}
}

// BundleView is one checkout as the buyer sees it: the anchor record plus
// display totals computed from the whole bundle
type BundleView struct {
	GatewayOrderID        string               `json:"gateway_order_id"`
	IsMultiCheckout       bool                 `json:"is_multi_checkout"`
	Items                 []models.Transaction `json:"items"`
	OriginalTotal         int64                `json:"original_total"`
	TotalDiscount         int64                `json:"total_discount"`
	SubtotalAfterDiscount int64                `json:"subtotal_after_discount"`
	PaymentFee            int64                `json:"payment_fee"`
	GrandTotal            int64                `json:"grand_total"`
	PaymentStatus         models.PaymentStatus `json:"payment_status"`
	OrderStatus           models.OrderStatus   `json:"order_status"`
}

func buildBundleView(record models.Transaction, bundle []models.Transaction) BundleView {
	return BundleView{
		GatewayOrderID:        record.GatewayOrderID,
		IsMultiCheckout:       services.IsMultiCheckout(record, bundle),
		Items:                 services.AllItems(record, bundle),
		OriginalTotal:         services.BundleOriginalTotal(bundle),
		TotalDiscount:         services.BundleTotalDiscount(bundle),
		SubtotalAfterDiscount: services.BundleSubtotalAfterDiscount(bundle),
		PaymentFee:            services.BundlePaymentFee(bundle),
		GrandTotal:            services.BundleGrandTotal(bundle),
		PaymentStatus:         record.PaymentStatus,
		OrderStatus:           record.OrderStatus,
	}
}

// ListTransactions handles GET /api/transactions: the buyer's purchase
// history, one entry per bundle, newest first
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}

	// Parse pagination parameters
	page := 1
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	pageSize := 20

	// Primary rows anchor bundles, so paginating them paginates checkouts
	query := h.db.Model(&models.Transaction{}).
		Where("user_id = ? AND is_primary = ?", user.ID, true)

	if status := c.QueryParam("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if status := c.QueryParam("order_status"); status != "" {
		query = query.Where("order_status = ?", status)
	}
	if serviceType := c.QueryParam("service_type"); serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count transactions")
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * pageSize

	var primaries []models.Transaction
	if err := query.Order("created_at desc").Limit(pageSize).Offset(offset).Find(&primaries).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transactions")
	}

	views := make([]BundleView, 0, len(primaries))
	for _, primary := range primaries {
		bundle, err := h.view.LoadBundle(c.Request().Context(), primary.GatewayOrderID)
		if err != nil {
			return err
		}
		views = append(views, buildBundleView(primary, bundle))
	}

	return c.JSON(http.StatusOK, ListResponse{
		Data: views,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: totalCount,
			TotalPages: totalPages,
		},
	})
}

// GetTransaction handles GET /api/transactions/:invoice. Any invoice of a
// multi-item checkout resolves to the whole bundle.
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	invoiceID := c.Param("invoice")

	record, bundle, err := h.view.LoadBundleByInvoice(c.Request().Context(), invoiceID)
	if err != nil {
		return err
	}

	// Guests may look up by invoice id; logged-in buyers only see their own
	if user, ok := middleware.CurrentUser(c); ok && user.Role != models.UserRoleAdmin {
		if record.UserID == nil || *record.UserID != user.ID {
			return services.ErrTransactionNotFound
		}
	}

	return c.JSON(http.StatusOK, buildBundleView(record, bundle))
}
