package handlers

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/middleware"
	"rbxmart_echo/internal/models"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authClient *auth.Client
	db         *gorm.DB
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authClient *auth.Client, db *gorm.DB) *AuthHandler {
	return &AuthHandler{authClient: authClient, db: db}
}

// SyncAccount handles POST /api/auth/sync: verifies the Firebase ID token
// and upserts the matching user row. The storefront calls this right after
// sign-in so a local account with a spend counter exists before the first
// checkout.
func (h *AuthHandler) SyncAccount(c echo.Context) error {
	if h.authClient == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication is not configured")
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	decodedToken, err := h.authClient.VerifyIDToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	email, _ := decodedToken.Claims["email"].(string)
	name, _ := decodedToken.Claims["name"].(string)

	var user models.User
	err = h.db.Where("firebase_uid = ?", decodedToken.UID).First(&user).Error
	switch err {
	case nil:
		// Keep profile fields in sync with the identity provider
		if email != "" && user.Email != email {
			user.Email = email
		}
		if name != "" && user.Name != name {
			user.Name = name
		}
		if err := h.db.Save(&user).Error; err != nil {
			return err
		}
	case gorm.ErrRecordNotFound:
		user = models.User{
			FirebaseUID: decodedToken.UID,
			Email:       email,
			Name:        name,
			Role:        models.UserRoleMember,
		}
		if err := h.db.Create(&user).Error; err != nil {
			return err
		}
	default:
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// GetProfile handles GET /api/me for authenticated buyers
func (h *AuthHandler) GetProfile(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	return c.JSON(http.StatusOK, user)
}
