package service

import (
	"context"
	"fmt"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/store"
)

// ReportService derives the admin aggregates from a booking snapshot. Nothing
// is cached; every call recomputes from the store.
type ReportService struct {
	bookings store.BookingStore
}

func NewReportService(bookings store.BookingStore) *ReportService {
	return &ReportService{bookings: bookings}
}

func (s *ReportService) Stats(ctx context.Context, ident domain.Identity) (domain.BookingStats, error) {
	if !ident.Admin {
		return domain.BookingStats{}, fmt.Errorf("%w: reporting requires admin access", domain.ErrNotAuthorized)
	}

	all, err := s.bookings.ListAll(ctx)
	if err != nil {
		return domain.BookingStats{}, err
	}

	stats := domain.BookingStats{TotalBookings: len(all)}
	for _, b := range all {
		switch b.Status {
		case domain.BookingConfirmed:
			stats.TotalRevenue = stats.TotalRevenue.Add(b.TotalAmount)
			stats.TotalPassengers += b.Passengers
		case domain.BookingCancelled:
			stats.CancelledBookings++
		}
	}
	return stats, nil
}
