// Package memory holds the in-process store implementations. They back the
// engine tests and the memory driver used for local development; a single
// mutex per store gives the same atomicity the postgres implementations get
// from conditional updates.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/store"
)

type TripStore struct {
	mu    sync.RWMutex
	trips map[string]domain.Trip
}

func NewTripStore() *TripStore {
	return &TripStore{trips: make(map[string]domain.Trip)}
}

func (s *TripStore) Insert(_ context.Context, t domain.Trip) (domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	s.trips[t.ID] = t
	return t, nil
}

func (s *TripStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[id]; !ok {
		return domain.ErrTripNotFound
	}
	delete(s.trips, id)
	return nil
}

func (s *TripStore) Get(_ context.Context, id string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trips[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *TripStore) ListAll(_ context.Context) ([]domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		out = append(out, t)
	}
	return out, nil
}

func (s *TripStore) DecrementSeats(_ context.Context, id string, count int) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[id]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	if t.AvailableSeats < count {
		return nil, domain.ErrInsufficientSeats
	}
	t.AvailableSeats -= count
	s.trips[id] = t
	return &t, nil
}

func (s *TripStore) IncrementSeats(_ context.Context, id string, count int) (*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[id]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	t.AvailableSeats += count
	s.trips[id] = t
	return &t, nil
}

type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]domain.Booking)}
}

func (s *BookingStore) Insert(_ context.Context, b domain.Booking) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// UUIDv7 ids are creation-time ordered.
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Booking{}, err
	}
	b.ID = id.String()
	s.bookings[b.ID] = b
	return b, nil
}

func (s *BookingStore) Get(_ context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *BookingStore) ListByUser(_ context.Context, userID string) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *BookingStore) ListAll(_ context.Context) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *BookingStore) Cancel(_ context.Context, id string) (*domain.Booking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, false, domain.ErrBookingNotFound
	}
	if b.Status == domain.BookingCancelled {
		return &b, false, nil
	}
	b.Status = domain.BookingCancelled
	s.bookings[id] = b
	return &b, true, nil
}

func sortNewestFirst(bs []domain.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].BookingDate.Equal(bs[j].BookingDate) {
			return bs[i].ID > bs[j].ID
		}
		return bs[i].BookingDate.After(bs[j].BookingDate)
	})
}

type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]string)}
}

func (s *IdempotencyStore) Lookup(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *IdempotencyStore) Remember(_ context.Context, key, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; !ok {
		s.keys[key] = bookingID
	}
	return nil
}

var (
	_ store.TripStore        = (*TripStore)(nil)
	_ store.BookingStore     = (*BookingStore)(nil)
	_ store.IdempotencyStore = (*IdempotencyStore)(nil)
)
