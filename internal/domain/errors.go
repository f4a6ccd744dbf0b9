package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced product, order or customer does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrTotalMismatch is returned when a submitted total differs from the cart total.
	ErrTotalMismatch = errors.New("submitted total does not match cart total")
	// ErrUnauthenticated is returned when an operation needs a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")
)
