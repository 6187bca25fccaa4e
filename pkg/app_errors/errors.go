package apperrors

import "errors"

var (
	ErrSectionNotFound     = errors.New("section not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrInsufficientSeats   = errors.New("insufficient seats")
	ErrAlreadyResolved     = errors.New("booking already resolved")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different request")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInternalServerError = errors.New("internal server error")
)
