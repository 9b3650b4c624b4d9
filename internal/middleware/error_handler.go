package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"rbxmart_echo/internal/services"
)

// ErrorResponse is the JSON body returned for every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CustomErrorHandler translates service errors into JSON problem responses.
// Validation and business-rule failures keep their message; gateway failures
// collapse into a generic retryable error so internals never leak to buyers.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errorTitle := "internal_error"
	errorMessage := "Something went wrong. Please try again later."

	var invalidCart *services.InvalidCartError
	var invalidTransition *services.InvalidTransitionError
	var gatewayDown *services.GatewayUnavailableError

	switch {
	case errors.As(err, &invalidCart):
		code = http.StatusBadRequest
		errorTitle = "invalid_cart"
		errorMessage = invalidCart.Error()

	case errors.Is(err, services.ErrTooManyRbx5Items):
		code = http.StatusBadRequest
		errorTitle = "too_many_rbx5_items"
		errorMessage = services.ErrTooManyRbx5Items.Error()

	case errors.As(err, &invalidTransition):
		code = http.StatusConflict
		errorTitle = "invalid_status_transition"
		errorMessage = invalidTransition.Error()

	case errors.Is(err, services.ErrBundleAlreadyPaid):
		code = http.StatusConflict
		errorTitle = "already_paid"
		errorMessage = services.ErrBundleAlreadyPaid.Error()

	case errors.Is(err, services.ErrTransactionNotFound):
		code = http.StatusNotFound
		errorTitle = "not_found"
		errorMessage = "Transaction not found."

	case errors.Is(err, services.ErrSignatureInvalid):
		code = http.StatusForbidden
		errorTitle = "signature_invalid"
		errorMessage = "Signature verification failed."

	case errors.As(err, &gatewayDown):
		// Bundle was already rolled back; safe for the buyer to retry
		code = http.StatusBadGateway
		errorTitle = "gateway_unavailable"
		errorMessage = "The payment provider is unavailable. Please try again."

	case errors.Is(err, services.ErrInconsistentTotals):
		// Pricing drift; keep the generic 500 body but log loudly below

	default:
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok && msg != "" {
				errorMessage = msg
			}
			switch code {
			case http.StatusNotFound:
				errorTitle = "not_found"
			case http.StatusForbidden:
				errorTitle = "forbidden"
			case http.StatusUnauthorized:
				errorTitle = "unauthorized"
			case http.StatusBadRequest:
				errorTitle = "bad_request"
			}
		}
	}

	// Log the error
	c.Logger().Error(err)

	if err := c.JSON(code, ErrorResponse{Error: errorTitle, Message: errorMessage}); err != nil {
		c.Logger().Error(err)
	}
}
