package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
)

type UserHandler struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db, validate: validator.New()}
}

// ListUsers handles GET /api/admin/users
func (h *UserHandler) ListUsers(c echo.Context) error {
	query := h.db.Model(&models.User{})
	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("email ILIKE ? OR name ILIKE ?", like, like)
	}

	var users []models.User
	if err := query.Order("spend_total desc").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": users})
}

// UserTierRequest is the admin body for role/tier changes
type UserTierRequest struct {
	Role               string `json:"role" validate:"required,oneof=member reseller admin"`
	DiscountPercentage int    `json:"discount_percentage" validate:"min=0,max=100"`
}

// UpdateUserTier handles PUT /api/admin/users/:id/tier: promotes buyers to
// reseller tiers and sets their cart-wide discount percentage
func (h *UserHandler) UpdateUserTier(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req UserTierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}

	user.Role = models.UserRole(req.Role)
	user.DiscountPercentage = req.DiscountPercentage
	if err := h.db.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user")
	}

	return c.JSON(http.StatusOK, user)
}
