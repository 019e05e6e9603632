package entities

import "errors"

// Business-rule errors surfaced by the purchase and winner-selection flows.
// Callers match them with errors.Is after the repository layer wraps them
// with context.
var (
	// ErrDrawNotFound indicates the referenced draw does not exist
	ErrDrawNotFound = errors.New("draw not found")

	// ErrDrawNotOpen indicates the draw is not accepting ticket purchases
	ErrDrawNotOpen = errors.New("draw is not open for ticket purchases")

	// ErrUserNotFound indicates the referenced user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientStars indicates the user's spendable balance cannot
	// cover the purchase
	ErrInsufficientStars = errors.New("insufficient stars")

	// ErrAlreadyResolved indicates a winner has already been applied to the
	// draw. Winner selection treats this as success, never as a failure.
	ErrAlreadyResolved = errors.New("draw already resolved")
)
