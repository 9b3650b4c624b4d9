package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"rbxmart_echo/internal/models"
)

// RequireAuth returns a middleware that verifies Firebase bearer ID tokens
// and loads the matching user row into the request context
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Check if Firebase is initialized
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication is not configured")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			decodedToken, err := authClient.VerifyIDToken(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			var user models.User
			if err := db.Where("firebase_uid = ?", decodedToken.UID).First(&user).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return echo.NewHTTPError(http.StatusUnauthorized, "no account for this identity")
				}
				return err
			}

			// Set user info in context for downstream handlers
			c.Set("user", user)
			c.Set("userUID", decodedToken.UID)
			c.Set("userEmail", user.Email)

			return next(c)
		}
	}
}

// OptionalAuth loads the user when a valid bearer token is present but lets
// anonymous requests through. Guest checkout depends on this.
func OptionalAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header {
				return next(c)
			}

			decodedToken, err := authClient.VerifyIDToken(c.Request().Context(), token)
			if err != nil {
				return next(c)
			}

			var user models.User
			if err := db.Where("firebase_uid = ?", decodedToken.UID).First(&user).Error; err != nil {
				return next(c)
			}

			c.Set("user", user)
			c.Set("userUID", decodedToken.UID)
			c.Set("userEmail", user.Email)

			return next(c)
		}
	}
}

// RequireAdmin must run after RequireAuth; it gates admin-only routes
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get("user").(models.User)
			if !ok || user.Role != models.UserRoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// CurrentUser pulls the authenticated user out of the context, if any
func CurrentUser(c echo.Context) (models.User, bool) {
	user, ok := c.Get("user").(models.User)
	return user, ok
}
