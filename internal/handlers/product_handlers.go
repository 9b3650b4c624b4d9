package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
)

type ProductHandler struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db, validate: validator.New()}
}

// ListProducts handles GET /api/products, optionally filtered by service type
func (h *ProductHandler) ListProducts(c echo.Context) error {
	query := h.db.Where("is_active = ?", true)
	if serviceType := c.QueryParam("service_type"); serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}

	var products []models.Product
	if err := query.Order("service_type asc, unit_price asc").Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch products")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": products})
}

// ProductRequest is the admin create/update body
type ProductRequest struct {
	Code        string `json:"code" validate:"required"`
	ServiceType string `json:"service_type" validate:"required,oneof=robux_instant robux_5day gamepass joki reseller"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	UnitPrice   int64  `json:"unit_price" validate:"min=0"`
	RobuxAmount int64  `json:"robux_amount" validate:"min=0"`
	IsActive    *bool  `json:"is_active"`
}

// CreateProduct handles POST /api/admin/products
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product := models.Product{
		Code:        req.Code,
		ServiceType: models.ServiceType(req.ServiceType),
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		RobuxAmount: req.RobuxAmount,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.Create(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create product")
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/admin/products/:id
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return err
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product.Code = req.Code
	product.ServiceType = models.ServiceType(req.ServiceType)
	product.Name = req.Name
	product.Description = req.Description
	product.UnitPrice = req.UnitPrice
	product.RobuxAmount = req.RobuxAmount
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.Save(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update product")
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/admin/products/:id (soft delete)
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.db.Delete(&models.Product{}, uint(id)).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete product")
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "product deleted"})
}
