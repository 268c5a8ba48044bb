package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/store"
	"github.com/voyago/travel-bookings/pkg/events"
	"github.com/voyago/travel-bookings/pkg/logger"
)

// BookingService runs the booking lifecycle: confirmed on creation, cancelled
// as the only further transition. Cancelled is terminal.
type BookingService struct {
	trips    store.TripStore
	bookings store.BookingStore
	idem     store.IdempotencyStore
	bus      events.Publisher

	// restockOnCancel returns a cancelled booking's seats to the trip. The
	// default keeps released seats off the market.
	restockOnCancel bool
}

func NewBookingService(
	trips store.TripStore,
	bookings store.BookingStore,
	idem store.IdempotencyStore,
	bus events.Publisher,
	restockOnCancel bool,
) *BookingService {
	return &BookingService{
		trips:           trips,
		bookings:        bookings,
		idem:            idem,
		bus:             bus,
		restockOnCancel: restockOnCancel,
	}
}

// CreateBooking reserves passengers seats on a trip for the calling user. The
// seat check and decrement are one atomic store operation, so concurrent
// callers cannot oversell; any failure after the decrement compensates it, so
// a failed booking never consumes inventory.
//
// idempotencyKey may be empty. When set, retries with the same key return the
// booking created by the first attempt instead of booking again.
func (s *BookingService) CreateBooking(ctx context.Context, ident domain.Identity, tripID string, passengers int, idempotencyKey string) (domain.Booking, error) {
	// Keys are scoped per user so one client's key can never surface another
	// client's booking.
	//
	// Lookup and Remember are separate store calls, so two in-flight creates
	// racing on the same key can both book; the store's first-write-wins
	// Remember only pins which booking later retries converge on. Closing the
	// window would need a reserve-then-fill key protocol, which sequential
	// client retries (the case the key exists for) never hit.
	idemKey := ident.UserID + ":" + idempotencyKey
	if idempotencyKey != "" {
		existingID, err := s.idem.Lookup(ctx, idemKey)
		if err != nil {
			return domain.Booking{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if existingID != "" {
			existing, err := s.bookings.Get(ctx, existingID)
			if err != nil {
				return domain.Booking{}, err
			}
			if existing != nil {
				return *existing, nil
			}
		}
	}

	// Snapshot before the decrement: the booking freezes the trip as the
	// traveler saw it, and the price is immune to concurrent edits.
	snapshot, err := s.trips.Get(ctx, tripID)
	if err != nil {
		return domain.Booking{}, err
	}
	if snapshot == nil {
		return domain.Booking{}, domain.ErrTripNotFound
	}

	if passengers < domain.MinPassengers {
		return domain.Booking{}, fmt.Errorf("%w: at least %d passenger required", domain.ErrInvalidPassengerCount, domain.MinPassengers)
	}
	if passengers > domain.MaxPassengers {
		return domain.Booking{}, fmt.Errorf("%w: at most %d passengers per booking", domain.ErrInvalidPassengerCount, domain.MaxPassengers)
	}

	decremented, err := s.trips.DecrementSeats(ctx, tripID, passengers)
	if err != nil {
		return domain.Booking{}, err
	}

	booking := domain.Booking{
		UserID:      ident.UserID,
		TripID:      tripID,
		Trip:        *snapshot,
		Status:      domain.BookingConfirmed,
		Passengers:  passengers,
		TotalAmount: snapshot.Price.Mul(decimal.NewFromInt(int64(passengers))),
		BookingDate: time.Now().UTC(),
	}

	created, err := s.bookings.Insert(ctx, booking)
	if err != nil {
		// Undo the decrement so the failed attempt leaves the trip unchanged.
		if _, restoreErr := s.trips.IncrementSeats(ctx, tripID, passengers); restoreErr != nil {
			logger.ErrorContext(ctx, "Failed to restore seats after booking insert failure",
				"error", restoreErr, "trip_id", tripID, "passengers", passengers)
		}
		return domain.Booking{}, fmt.Errorf("failed to create booking: %w", err)
	}

	if idempotencyKey != "" {
		if err := s.idem.Remember(ctx, idemKey, created.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "booking_id", created.ID)
		}
	}

	event := events.BookingCreatedEvent{
		BookingID:   created.ID,
		UserID:      created.UserID,
		TripID:      created.TripID,
		Passengers:  created.Passengers,
		TotalAmount: created.TotalAmount,
		SeatsLeft:   decremented.AvailableSeats,
		CreatedAt:   created.BookingDate,
	}
	if err := s.bus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", created.ID)
	}

	return created, nil
}

// CancelBooking marks a booking cancelled. Only the owner or an admin may
// cancel. Cancelling an already-cancelled booking is a no-op returning the
// unchanged record, so retries converge on the same terminal state.
func (s *BookingService) CancelBooking(ctx context.Context, ident domain.Identity, bookingID string) (domain.Booking, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if booking == nil {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	if booking.UserID != ident.UserID && !ident.Admin {
		return domain.Booking{}, fmt.Errorf("%w: booking belongs to another user", domain.ErrNotAuthorized)
	}
	// The store's conditional transition decides the winner among racing
	// cancels; only the caller whose transition fired restocks and publishes,
	// so inventory is released at most once per booking.
	updated, transitioned, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !transitioned {
		return *updated, nil
	}

	restocked := false
	if s.restockOnCancel {
		_, err := s.trips.IncrementSeats(ctx, booking.TripID, booking.Passengers)
		switch {
		case err == nil:
			restocked = true
		case errors.Is(err, domain.ErrTripNotFound):
			// Trip was deleted after booking; nothing to restock.
		default:
			logger.ErrorContext(ctx, "Failed to restock seats on cancellation",
				"error", err, "trip_id", booking.TripID, "booking_id", bookingID)
		}
	}

	event := events.BookingCanceledEvent{
		BookingID:  updated.ID,
		UserID:     updated.UserID,
		TripID:     updated.TripID,
		Passengers: updated.Passengers,
		Restocked:  restocked,
		CanceledAt: time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, events.BookingCanceled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", updated.ID)
	}

	return *updated, nil
}

// GetUserBookings returns the caller's bookings, most recent first.
func (s *BookingService) GetUserBookings(ctx context.Context, ident domain.Identity) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, ident.UserID)
}

// GetAllBookings returns every booking for admin reporting.
func (s *BookingService) GetAllBookings(ctx context.Context, ident domain.Identity) ([]domain.Booking, error) {
	if !ident.Admin {
		return nil, fmt.Errorf("%w: listing all bookings requires admin access", domain.ErrNotAuthorized)
	}
	return s.bookings.ListAll(ctx)
}
