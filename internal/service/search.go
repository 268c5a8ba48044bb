package service

import (
	"context"
	"sort"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/store"
)

// SearchService filters a snapshot of the trip inventory. It never mutates
// anything; results are copies detached from the store.
type SearchService struct {
	trips store.TripStore
}

func NewSearchService(trips store.TripStore) *SearchService {
	return &SearchService{trips: trips}
}

// Search returns every trip matching q. The zero query returns the full
// inventory. Results are ordered by date, then price, then id; the order is
// deterministic so repeated listings stay stable.
func (s *SearchService) Search(ctx context.Context, q domain.TripQuery) ([]domain.Trip, error) {
	all, err := s.trips.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Trip, 0, len(all))
	for i := range all {
		if q.Matches(&all[i]) {
			out = append(out, all[i])
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
