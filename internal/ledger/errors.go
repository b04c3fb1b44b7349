package ledger

import "errors"

// Domain errors returned by aggregate operations. Callers match them
// with errors.Is; the HTTP layer maps each to a status code.
var (
	// ErrOrderNotOpen is returned for any line or payment mutation on
	// an order that is not open. Never retried.
	ErrOrderNotOpen = errors.New("order is not open")

	// ErrInactiveProduct is returned when adding a product that is no
	// longer available for sale.
	ErrInactiveProduct = errors.New("product is not active")

	// ErrInvalidPayment is returned for a non-positive payment amount.
	ErrInvalidPayment = errors.New("payment amount must be positive")

	// ErrNotFound is returned when a referenced order or line does not
	// exist.
	ErrNotFound = errors.New("not found")
)
