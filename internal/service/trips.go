package service

import (
	"context"
	"fmt"
	"time"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/store"
	"github.com/voyago/travel-bookings/pkg/events"
	"github.com/voyago/travel-bookings/pkg/logger"
)

// TripService owns the admin-side trip inventory operations. Authorization is
// enforced here, not in the transport layer, so the service stays safe to call
// directly.
type TripService struct {
	trips store.TripStore
	bus   events.Publisher
}

func NewTripService(trips store.TripStore, bus events.Publisher) *TripService {
	return &TripService{trips: trips, bus: bus}
}

func (s *TripService) AddTrip(ctx context.Context, ident domain.Identity, in domain.TripInput) (domain.Trip, error) {
	if !ident.Admin {
		return domain.Trip{}, fmt.Errorf("%w: adding trips requires admin access", domain.ErrNotAuthorized)
	}
	if err := in.Validate(); err != nil {
		return domain.Trip{}, err
	}

	trip, err := s.trips.Insert(ctx, in.Trip())
	if err != nil {
		return domain.Trip{}, fmt.Errorf("failed to insert trip: %w", err)
	}

	event := events.TripCreatedEvent{
		TripID:      trip.ID,
		Source:      trip.Source,
		Destination: trip.Destination,
		Date:        trip.Date,
		Mode:        string(trip.Mode),
		Price:       trip.Price,
		Seats:       trip.AvailableSeats,
	}
	if err := s.bus.Publish(ctx, events.TripCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish trip created event", "error", err, "trip_id", trip.ID)
	}

	return trip, nil
}

// DeleteTrip removes a trip from the inventory. Existing bookings keep their
// frozen snapshot, so no cascade runs; deleting an unknown id fails with
// domain.ErrTripNotFound.
func (s *TripService) DeleteTrip(ctx context.Context, ident domain.Identity, id string) error {
	if !ident.Admin {
		return fmt.Errorf("%w: deleting trips requires admin access", domain.ErrNotAuthorized)
	}

	if err := s.trips.Delete(ctx, id); err != nil {
		return err
	}

	event := events.TripDeletedEvent{TripID: id, DeletedAt: time.Now().UTC()}
	if err := s.bus.Publish(ctx, events.TripDeleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish trip deleted event", "error", err, "trip_id", id)
	}
	return nil
}

func (s *TripService) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	t, err := s.trips.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}
	if t == nil {
		return domain.Trip{}, domain.ErrTripNotFound
	}
	return *t, nil
}
