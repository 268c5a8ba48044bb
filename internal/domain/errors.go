package domain

import "errors"

// Every failure in the core is a rejected operation the caller can recover
// from; none of these abort the process.
var (
	ErrValidation            = errors.New("invalid input")
	ErrTripNotFound          = errors.New("trip not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrInsufficientSeats     = errors.New("not enough seats available")
	ErrInvalidPassengerCount = errors.New("invalid passenger count")
	ErrNotAuthorized         = errors.New("not authorized")
)
