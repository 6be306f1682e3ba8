package service

import "errors"

// Domain failure taxonomy. Services return these sentinels (possibly wrapped
// with %w) and guarantee that no partial mutation was committed alongside
// them; handlers map each one to an HTTP status code.
var (
	// ErrValidation: malformed or missing input, caught before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidQuantity: a stock adjustment with a zero or non-positive amount.
	ErrInvalidQuantity = errors.New("adjustment quantity must be positive")

	// ErrInsufficientStock: the movement would drive quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidOrderTransition: the state machine rejects the event.
	ErrInvalidOrderTransition = errors.New("invalid order transition")

	// ErrPaymentNotCompleted: the checkout session exists but the provider
	// has not settled it yet — the confirm event is rejected without any
	// state change.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// Not-found family.
	ErrStockItemNotFound  = errors.New("stock item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrVariationNotFound  = errors.New("product variation not found")
)

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStockItemNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrVariationNotFound)
}
