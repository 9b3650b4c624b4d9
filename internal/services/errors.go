package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to handlers. The Echo error handler maps these to
// HTTP responses; services only ever return wrapped versions of them.
var (
	// ErrTooManyRbx5Items rejects carts with more than one robux_5day item.
	// The 5-day fulfillment automation is one-shot per order and cannot run
	// for two items of the same bundle.
	ErrTooManyRbx5Items = errors.New("only one robux 5-day item is allowed per checkout")

	// ErrTransactionNotFound means no transaction rows match the gateway order id
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSignatureInvalid rejects a webhook before any state is touched
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrInconsistentTotals is the defensive check that the amount we are
	// about to charge equals the priced grand total. It must never fire in
	// production; if it does, the pricing math has drifted.
	ErrInconsistentTotals = errors.New("gateway charge amount does not match priced grand total")

	// ErrBundleAlreadyPaid guards against creating a second gateway order for
	// a bundle that already carries a payment handle
	ErrBundleAlreadyPaid = errors.New("a gateway order already exists for this bundle")
)

// InvalidCartError rejects a cart before any row is written
type InvalidCartError struct {
	Reason string
}

func (e *InvalidCartError) Error() string {
	return "invalid cart: " + e.Reason
}

// GatewayUnavailableError wraps a network or timeout failure talking to the
// payment gateway. It triggers the compensating rollback of bundle rows.
type GatewayUnavailableError struct {
	Gateway string
	Err     error
}

func (e *GatewayUnavailableError) Error() string {
	return fmt.Sprintf("payment gateway %s unavailable: %v", e.Gateway, e.Err)
}

func (e *GatewayUnavailableError) Unwrap() error {
	return e.Err
}

// InvalidTransitionError reports a status change the state machine forbids
type InvalidTransitionError struct {
	StatusType string
	From       string
	To         string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition from %q to %q", e.StatusType, e.From, e.To)
}
