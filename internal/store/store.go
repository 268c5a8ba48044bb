// Package store defines the storage contracts the engines run against. The
// engines require nothing more than durable collections with point lookup,
// scan and a conditional seat update; memory and postgres provide them.
package store

import (
	"context"

	"github.com/voyago/travel-bookings/internal/domain"
)

// TripStore owns the trip collection. Get returns (nil, nil) when the id is
// unknown; callers translate that into domain.ErrTripNotFound.
type TripStore interface {
	// Insert assigns a unique id, persists the trip and returns the stored copy.
	Insert(ctx context.Context, t domain.Trip) (domain.Trip, error)
	// Delete removes the trip. Removing an unknown id returns
	// domain.ErrTripNotFound. Bookings referencing the trip are untouched.
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Trip, error)
	// ListAll returns a snapshot of the full inventory. Order carries no meaning.
	ListAll(ctx context.Context) ([]domain.Trip, error)

	// DecrementSeats atomically runs availableSeats -= count, but only when
	// availableSeats >= count; otherwise it fails with
	// domain.ErrInsufficientSeats and changes nothing. This is the single
	// mutation path for seat counts and the check-and-decrement must be one
	// atomic unit with respect to concurrent callers on the same trip.
	DecrementSeats(ctx context.Context, id string, count int) (*domain.Trip, error)
	// IncrementSeats returns count seats to the trip. Used by the optional
	// restock-on-cancel policy and to compensate a failed booking insert.
	IncrementSeats(ctx context.Context, id string, count int) (*domain.Trip, error)
}

// BookingStore owns the booking collection. Bookings are never deleted.
type BookingStore interface {
	// Insert assigns a time-ordered unique id, persists the booking and
	// returns the stored copy.
	Insert(ctx context.Context, b domain.Booking) (domain.Booking, error)
	Get(ctx context.Context, id string) (*domain.Booking, error)
	// ListByUser returns the user's bookings, most recent first.
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	// ListAll returns every booking, most recent first.
	ListAll(ctx context.Context) ([]domain.Booking, error)
	// Cancel transitions the booking to cancelled, but only when it is not
	// cancelled already. The check and the write are one atomic unit, so of
	// any number of concurrent callers exactly one observes transitioned ==
	// true; the rest get the already-cancelled record. Unknown ids fail with
	// domain.ErrBookingNotFound.
	Cancel(ctx context.Context, id string) (b *domain.Booking, transitioned bool, err error)
}

// IdempotencyStore maps client-supplied booking keys to the booking they
// produced, so a retried create returns the original booking instead of
// consuming inventory twice.
type IdempotencyStore interface {
	// Lookup returns the booking id recorded for key, or "" when unseen.
	Lookup(ctx context.Context, key string) (string, error)
	Remember(ctx context.Context, key, bookingID string) error
}
