package handlers

import (
	"encoding/csv"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/middleware"
	"rbxmart_echo/internal/models"
	"rbxmart_echo/internal/services"
)

type AdminHandler struct {
	db        *gorm.DB
	reconcile *services.ReconcileService
	midtrans  *services.MidtransService
	validate  *validator.Validate
}

func NewAdminHandler(db *gorm.DB, reconcile *services.ReconcileService, midtrans *services.MidtransService) *AdminHandler {
	return &AdminHandler{
		db:        db,
		reconcile: reconcile,
		midtrans:  midtrans,
		validate:  validator.New(),
	}
}

// ListTransactions handles GET /api/admin/transactions with filtering and
// sorting over individual records (admins see rows, not collapsed bundles)
func (h *AdminHandler) ListTransactions(c echo.Context) error {
	page := 1
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	pageSize := 50

	query := h.db.Model(&models.Transaction{})

	if status := c.QueryParam("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if status := c.QueryParam("order_status"); status != "" {
		query = query.Where("order_status = ?", status)
	}
	if serviceType := c.QueryParam("service_type"); serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}
	if gateway := c.QueryParam("gateway"); gateway != "" {
		query = query.Where("gateway = ?", gateway)
	}
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("invoice_id ILIKE ? OR gateway_order_id ILIKE ? OR customer_email ILIKE ?", like, like, like)
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("created_at < ?", t.Add(24*time.Hour))
		}
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

	sortOrder := "desc"
	if c.QueryParam("sort_order") == "asc" {
		sortOrder = "asc"
	}

	var records []models.Transaction
	if err := query.Order("created_at " + sortOrder).
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&records).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transactions")
	}

	return c.JSON(http.StatusOK, ListResponse{
		Data: records,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: totalCount,
			TotalPages: totalPages,
		},
	})
}

// StatusOverrideRequest is the manual status edit body. Either the gateway
// order id or a record's invoice id identifies the bundle; either way the
// change applies to the whole bundle through the reconciler.
type StatusOverrideRequest struct {
	GatewayOrderID string `json:"gateway_order_id"`
	InvoiceID      string `json:"invoice_id"`
	StatusType     string `json:"status_type" validate:"required,oneof=payment order"`
	NewStatus      string `json:"new_status" validate:"required"`
	Note           string `json:"note"`
}

// OverrideStatus handles POST /api/admin/transactions/status
func (h *AdminHandler) OverrideStatus(c echo.Context) error {
	var req StatusOverrideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	record, err := h.findRecord(req.GatewayOrderID, req.InvoiceID)
	if err != nil {
		return err
	}
	orderID := record.GatewayOrderID

	actor := "admin"
	if user, ok := middleware.CurrentUser(c); ok {
		actor = "admin:" + user.Email
	}

	if err := h.reconcile.ApplyStatus(c.Request().Context(), orderID, models.StatusLogType(req.StatusType), req.NewStatus, req.Note, actor); err != nil {
		return err
	}

	// Cancelling a pending Midtrans payment should also close the payable
	// order at the gateway so the customer cannot pay a dead invoice. Best
	// effort; the local status is already committed.
	if models.StatusLogType(req.StatusType) == models.StatusLogTypePayment &&
		models.PaymentStatus(req.NewStatus) == models.PaymentStatusCancelled &&
		record.Gateway == models.PaymentGatewayMidtrans {
		if err := h.midtrans.CancelTransaction(orderID); err != nil {
			log.Printf("failed to cancel %s at midtrans: %v", orderID, err)
		}
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "status updated"})
}

// findRecord resolves one transaction row from either identifier
func (h *AdminHandler) findRecord(gatewayOrderID, invoiceID string) (*models.Transaction, error) {
	query := h.db.Model(&models.Transaction{})
	switch {
	case gatewayOrderID != "":
		query = query.Where("gateway_order_id = ?", gatewayOrderID)
	case invoiceID != "":
		query = query.Where("invoice_id = ?", invoiceID)
	default:
		return nil, echo.NewHTTPError(http.StatusBadRequest, "gateway_order_id or invoice_id is required")
	}

	var record models.Transaction
	if err := query.First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrTransactionNotFound
		}
		return nil, err
	}
	return &record, nil
}

// RecheckRequest identifies the bundle to re-query at the gateway
type RecheckRequest struct {
	GatewayOrderID string `json:"gateway_order_id"`
	InvoiceID      string `json:"invoice_id"`
}

// RecheckTransaction handles POST /api/admin/transactions/recheck. It asks
// Midtrans for the order's current status and feeds the answer through the
// same reconciliation path a webhook would take, for bundles whose
// notification never arrived.
func (h *AdminHandler) RecheckTransaction(c echo.Context) error {
	var req RecheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	record, err := h.findRecord(req.GatewayOrderID, req.InvoiceID)
	if err != nil {
		return err
	}
	if record.Gateway != models.PaymentGatewayMidtrans {
		return echo.NewHTTPError(http.StatusBadRequest, "status recheck is only available for midtrans orders")
	}

	resp, err := h.midtrans.CheckTransaction(record.GatewayOrderID)
	if err != nil {
		return err
	}

	newStatus, ok := mapMidtransStatus(resp.TransactionStatus, resp.FraudStatus)
	if !ok {
		return c.JSON(http.StatusOK, MessageResponse{
			Message: "gateway reports " + resp.TransactionStatus + "; no status change",
		})
	}

	actor := "admin"
	if user, ok := middleware.CurrentUser(c); ok {
		actor = "admin:" + user.Email
	}

	if err := h.reconcile.ApplyStatus(c.Request().Context(), record.GatewayOrderID, models.StatusLogTypePayment, string(newStatus), "gateway status recheck", actor); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "status updated to " + string(newStatus)})
}

// ExportTransactionsCSV handles GET /api/admin/transactions/export: a flat
// projection, one row per record. Bundle membership shows through the shared
// gateway order id column.
func (h *AdminHandler) ExportTransactionsCSV(c echo.Context) error {
	query := h.db.Model(&models.Transaction{})
	if from := c.QueryParam("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("created_at < ?", t.Add(24*time.Hour))
		}
	}

	var records []models.Transaction
	if err := query.Order("gateway_order_id asc, id asc").Find(&records).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch transactions")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="transactions.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	defer w.Flush()

	if err := w.Write(TransactionCSVHeader()); err != nil {
		return err
	}
	for _, record := range records {
		if err := w.Write(TransactionCSVRow(record)); err != nil {
			return err
		}
	}
	return nil
}

// TransactionCSVHeader returns the export column names
func TransactionCSVHeader() []string {
	return []string{
		"invoice_id", "gateway_order_id", "service_type", "service_name",
		"quantity", "unit_price", "total_amount", "discount_percentage",
		"discount_amount", "final_amount", "payment_fee", "is_primary",
		"gateway", "payment_method", "payment_status", "order_status",
		"customer_name", "customer_email", "created_at",
	}
}

// TransactionCSVRow flattens one record for export
func TransactionCSVRow(t models.Transaction) []string {
	return []string{
		t.InvoiceID,
		t.GatewayOrderID,
		string(t.ServiceType),
		t.ServiceName,
		strconv.Itoa(t.Quantity),
		strconv.FormatInt(t.UnitPrice, 10),
		strconv.FormatInt(t.TotalAmount, 10),
		strconv.Itoa(t.DiscountPercentage),
		strconv.FormatInt(t.DiscountAmount, 10),
		strconv.FormatInt(t.FinalAmount, 10),
		strconv.FormatInt(t.PaymentFee, 10),
		strconv.FormatBool(t.IsPrimary),
		string(t.Gateway),
		t.PaymentMethodCode,
		string(t.PaymentStatus),
		string(t.OrderStatus),
		t.CustomerName,
		t.CustomerEmail,
		t.CreatedAt.Format(time.RFC3339),
	}
}

// AdminStats is the revenue summary for the admin dashboard
type AdminStats struct {
	TotalTransactions int64 `json:"total_transactions"`
	PendingPayments   int64 `json:"pending_payments"`
	SettledBundles    int64 `json:"settled_bundles"`
	RevenueSettled    int64 `json:"revenue_settled"`
	FeesCollected     int64 `json:"fees_collected"`
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(c echo.Context) error {
	var stats AdminStats

	if err := h.db.Model(&models.Transaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Transaction{}).
		Where("payment_status = ?", models.PaymentStatusPending).
		Count(&stats.PendingPayments).Error; err != nil {
		return err
	}
	if err := h.db.Model(&models.Transaction{}).
		Where("payment_status = ? AND is_primary = ?", models.PaymentStatusSettlement, true).
		Count(&stats.SettledBundles).Error; err != nil {
		return err
	}

	// Fee is summed from primary rows only; final amounts from every row.
	// The two together mirror BundleGrandTotal across all settled bundles.
	row := h.db.Model(&models.Transaction{}).
		Where("payment_status = ?", models.PaymentStatusSettlement).
		Select("COALESCE(SUM(final_amount), 0)").Row()
	if err := row.Scan(&stats.RevenueSettled); err != nil {
		return err
	}
	row = h.db.Model(&models.Transaction{}).
		Where("payment_status = ? AND is_primary = ?", models.PaymentStatusSettlement, true).
		Select("COALESCE(SUM(payment_fee), 0)").Row()
	if err := row.Scan(&stats.FeesCollected); err != nil {
		return err
	}
	stats.RevenueSettled += stats.FeesCollected

	return c.JSON(http.StatusOK, stats)
}
