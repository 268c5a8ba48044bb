package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyago/travel-bookings/internal/domain"
)

func TestTripStoreDecrementSeats(t *testing.T) {
	s := NewTripStore()
	ctx := context.Background()

	trip, err := s.Insert(ctx, domain.Trip{
		Source: "Delhi", Destination: "Mumbai", Date: "2025-01-20",
		Mode: domain.ModeFlight, Price: decimal.NewFromInt(5500), AvailableSeats: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.DecrementSeats(ctx, trip.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.AvailableSeats != 1 {
		t.Errorf("seats = %d, want 1", got.AvailableSeats)
	}

	if _, err := s.DecrementSeats(ctx, trip.ID, 2); !errors.Is(err, domain.ErrInsufficientSeats) {
		t.Errorf("err = %v, want ErrInsufficientSeats", err)
	}
	// A rejected decrement changes nothing.
	live, _ := s.Get(ctx, trip.ID)
	if live.AvailableSeats != 1 {
		t.Errorf("seats after rejection = %d, want 1", live.AvailableSeats)
	}

	if _, err := s.DecrementSeats(ctx, "missing", 1); !errors.Is(err, domain.ErrTripNotFound) {
		t.Errorf("err = %v, want ErrTripNotFound", err)
	}
}

func TestTripStoreDecrementSeatsConcurrent(t *testing.T) {
	s := NewTripStore()
	ctx := context.Background()

	trip, err := s.Insert(ctx, domain.Trip{
		Source: "A", Destination: "B", Date: "2025-01-20",
		Mode: domain.ModeBus, Price: decimal.NewFromInt(100), AvailableSeats: 50,
	})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.DecrementSeats(ctx, trip.ID, 1)
		}()
	}
	wg.Wait()

	live, _ := s.Get(ctx, trip.ID)
	if live.AvailableSeats != 0 {
		t.Errorf("seats = %d, want exactly 0 after 100 attempts on 50 seats", live.AvailableSeats)
	}
}

func TestTripStoreGetReturnsCopy(t *testing.T) {
	s := NewTripStore()
	ctx := context.Background()

	trip, _ := s.Insert(ctx, domain.Trip{
		Source: "Delhi", Destination: "Mumbai", Date: "2025-01-20",
		Mode: domain.ModeFlight, Price: decimal.NewFromInt(5500), AvailableSeats: 10,
	})

	got, _ := s.Get(ctx, trip.ID)
	got.AvailableSeats = 0

	fresh, _ := s.Get(ctx, trip.ID)
	if fresh.AvailableSeats != 10 {
		t.Errorf("store mutated through a returned copy: %d", fresh.AvailableSeats)
	}
}

func TestBookingStoreOrdering(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		b, err := s.Insert(ctx, domain.Booking{
			UserID:      "u-1",
			TripID:      "t-1",
			Status:      domain.BookingConfirmed,
			Passengers:  1,
			TotalAmount: decimal.NewFromInt(100),
			BookingDate: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}

	got, err := s.ListByUser(ctx, "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Most recent first.
	if got[0].ID != ids[2] || got[2].ID != ids[0] {
		t.Errorf("order = [%s %s %s], want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestBookingStoreCancel(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	b, err := s.Insert(ctx, domain.Booking{
		UserID: "u-1", TripID: "t-1", Status: domain.BookingConfirmed,
		Passengers: 1, TotalAmount: decimal.NewFromInt(100), BookingDate: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, transitioned, err := s.Cancel(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !transitioned {
		t.Error("first cancel did not transition")
	}
	if updated.Status != domain.BookingCancelled {
		t.Errorf("status = %q, want cancelled", updated.Status)
	}

	again, transitioned, err := s.Cancel(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if transitioned {
		t.Error("second cancel claimed the transition too")
	}
	if again.Status != domain.BookingCancelled {
		t.Errorf("status = %q, want cancelled", again.Status)
	}

	if _, _, err := s.Cancel(ctx, "missing"); !errors.Is(err, domain.ErrBookingNotFound) {
		t.Errorf("err = %v, want ErrBookingNotFound", err)
	}
}

func TestBookingStoreCancelConcurrent(t *testing.T) {
	s := NewBookingStore()
	ctx := context.Background()

	b, err := s.Insert(ctx, domain.Booking{
		UserID: "u-1", TripID: "t-1", Status: domain.BookingConfirmed,
		Passengers: 1, TotalAmount: decimal.NewFromInt(100), BookingDate: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	const callers = 50
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, transitioned, err := s.Cancel(ctx, b.ID)
			if err != nil {
				t.Error(err)
				return
			}
			if transitioned {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("%d callers won the transition, want exactly 1", got)
	}
}

func TestIdempotencyStoreFirstWriteWins(t *testing.T) {
	s := NewIdempotencyStore()
	ctx := context.Background()

	if got, _ := s.Lookup(ctx, "k"); got != "" {
		t.Fatalf("unseen key returned %q", got)
	}
	if err := s.Remember(ctx, "k", "b-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remember(ctx, "k", "b-2"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Lookup(ctx, "k"); got != "b-1" {
		t.Errorf("Lookup = %q, want b-1", got)
	}
}
