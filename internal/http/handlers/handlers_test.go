package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/http/handlers"
	imw "github.com/voyago/travel-bookings/internal/http/middleware"
	"github.com/voyago/travel-bookings/internal/service"
	"github.com/voyago/travel-bookings/internal/store/memory"
	"github.com/voyago/travel-bookings/pkg/auth"
	"github.com/voyago/travel-bookings/pkg/events"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	trips := memory.NewTripStore()
	bookings := memory.NewBookingStore()

	searchService := service.NewSearchService(trips)
	tripService := service.NewTripService(trips, events.Noop{})
	bookingService := service.NewBookingService(trips, bookings, memory.NewIdempotencyStore(), events.Noop{}, false)
	reportService := service.NewReportService(bookings)

	tripHandler := handlers.NewTripHandler(searchService, tripService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	adminHandler := handlers.NewAdminHandler(bookingService, reportService)

	requireIdentity := imw.RequireIdentity(testSecret)

	r := chi.NewRouter()
	r.Route("/trips", func(r chi.Router) {
		r.Get("/", tripHandler.Search)
		r.Get("/{id}", tripHandler.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireIdentity)
			r.Post("/", tripHandler.Create)
			r.Delete("/{id}", tripHandler.Delete)
		})
	})
	r.Route("/bookings", func(r chi.Router) {
		r.Use(requireIdentity)
		r.Post("/", bookingHandler.Create)
		r.Get("/", bookingHandler.List)
		r.Delete("/{id}", bookingHandler.Cancel)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(requireIdentity)
		r.Get("/bookings", adminHandler.ListBookings)
		r.Get("/stats", adminHandler.Stats)
	})
	return r
}

func token(t *testing.T, sub string, isAdmin bool) string {
	t.Helper()
	tok, err := auth.NewAccessToken(sub, isAdmin, testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func sampleTrip(seats int) map[string]any {
	return map[string]any{
		"source":         "Delhi",
		"destination":    "Mumbai",
		"date":           "2025-01-20",
		"mode":           "flight",
		"price":          "5500",
		"duration":       "2h 15m",
		"departureTime":  "06:00",
		"arrivalTime":    "08:15",
		"availableSeats": seats,
	}
}

func TestBookingLifecycle(t *testing.T) {
	router := newTestRouter(t)
	adminTok := token(t, "adm-1", true)
	userTok := token(t, "u-1", false)

	// Admin adds a trip with a single seat.
	rec := doJSON(t, router, "POST", "/trips", adminTok, sampleTrip(1))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add trip: status = %d, body %s", rec.Code, rec.Body.String())
	}
	trip := decodeBody[domain.Trip](t, rec)

	// First booking takes the seat.
	rec = doJSON(t, router, "POST", "/bookings", userTok, map[string]any{"tripId": trip.ID, "passengers": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: status = %d, body %s", rec.Code, rec.Body.String())
	}
	booking := decodeBody[domain.Booking](t, rec)
	if booking.Status != domain.BookingConfirmed {
		t.Errorf("status = %q, want confirmed", booking.Status)
	}
	if want := decimal.NewFromInt(5500); !booking.TotalAmount.Equal(want) {
		t.Errorf("totalAmount = %s, want %s", booking.TotalAmount, want)
	}

	rec = doJSON(t, router, "GET", "/trips/"+trip.ID, "", nil)
	if got := decodeBody[domain.Trip](t, rec); got.AvailableSeats != 0 {
		t.Errorf("seats after booking = %d, want 0", got.AvailableSeats)
	}

	// Second booking is rejected: the trip is sold out.
	rec = doJSON(t, router, "POST", "/bookings", userTok, map[string]any{"tripId": trip.ID, "passengers": 1})
	if rec.Code != http.StatusConflict {
		t.Fatalf("overbook: status = %d, want 409", rec.Code)
	}

	// Cancel; the booking flips to cancelled and, under the default policy,
	// the seat stays off the market.
	rec = doJSON(t, router, "DELETE", "/bookings/"+booking.ID, userTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[domain.Booking](t, rec); got.Status != domain.BookingCancelled {
		t.Errorf("status after cancel = %q, want cancelled", got.Status)
	}

	rec = doJSON(t, router, "GET", "/trips/"+trip.ID, "", nil)
	if got := decodeBody[domain.Trip](t, rec); got.AvailableSeats != 0 {
		t.Errorf("seats after cancel = %d, want 0 under no-restock default", got.AvailableSeats)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t)
	adminTok := token(t, "adm-1", true)

	seed := []map[string]any{
		sampleTrip(45),
		{"source": "Delhi", "destination": "Mumbai", "date": "2025-01-20", "mode": "train", "price": "1200", "availableSeats": 120},
		{"source": "Mumbai", "destination": "Bangalore", "date": "2025-01-21", "mode": "flight", "price": "4200", "availableSeats": 30},
	}
	for _, s := range seed {
		if rec := doJSON(t, router, "POST", "/trips", adminTok, s); rec.Code != http.StatusCreated {
			t.Fatalf("seed trip: %d %s", rec.Code, rec.Body.String())
		}
	}

	// Browsing needs no filters and no token.
	rec := doJSON(t, router, "GET", "/trips", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("browse: status = %d", rec.Code)
	}
	if all := decodeBody[[]domain.Trip](t, rec); len(all) != 3 {
		t.Errorf("browse returned %d trips, want 3", len(all))
	}

	rec = doJSON(t, router, "GET", "/trips?source=del&mode=flight", "", nil)
	got := decodeBody[[]domain.Trip](t, rec)
	if len(got) != 1 || got[0].Destination != "Mumbai" || got[0].Mode != domain.ModeFlight {
		t.Errorf("filtered search returned %+v", got)
	}

	rec = doJSON(t, router, "GET", "/trips?mode=submarine", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid mode: status = %d, want 400", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	if rec := doJSON(t, router, "POST", "/bookings", "", map[string]any{"tripId": "x"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := doJSON(t, router, "POST", "/bookings", "not-a-jwt", map[string]any{"tripId": "x"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestAdminGating(t *testing.T) {
	router := newTestRouter(t)
	userTok := token(t, "u-1", false)

	if rec := doJSON(t, router, "POST", "/trips", userTok, sampleTrip(10)); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin add trip: status = %d, want 403", rec.Code)
	}
	if rec := doJSON(t, router, "GET", "/admin/bookings", userTok, nil); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin admin list: status = %d, want 403", rec.Code)
	}
	if rec := doJSON(t, router, "GET", "/admin/stats", userTok, nil); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin stats: status = %d, want 403", rec.Code)
	}
}

func TestAdminStatsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	adminTok := token(t, "adm-1", true)
	userTok := token(t, "u-1", false)

	rec := doJSON(t, router, "POST", "/trips", adminTok, sampleTrip(45))
	trip := decodeBody[domain.Trip](t, rec)

	if rec := doJSON(t, router, "POST", "/bookings", userTok, map[string]any{"tripId": trip.ID, "passengers": 2}); rec.Code != http.StatusCreated {
		t.Fatalf("book: %d", rec.Code)
	}

	rec = doJSON(t, router, "GET", "/admin/stats", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", rec.Code)
	}
	stats := decodeBody[domain.BookingStats](t, rec)
	if want := decimal.NewFromInt(11000); !stats.TotalRevenue.Equal(want) {
		t.Errorf("totalRevenue = %s, want %s", stats.TotalRevenue, want)
	}
	if stats.TotalPassengers != 2 || stats.TotalBookings != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUserBookingsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	adminTok := token(t, "adm-1", true)
	aliceTok := token(t, "alice", false)
	bobTok := token(t, "bob", false)

	rec := doJSON(t, router, "POST", "/trips", adminTok, sampleTrip(45))
	trip := decodeBody[domain.Trip](t, rec)

	for _, tok := range []string{aliceTok, bobTok} {
		if rec := doJSON(t, router, "POST", "/bookings", tok, map[string]any{"tripId": trip.ID}); rec.Code != http.StatusCreated {
			t.Fatalf("book: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec = doJSON(t, router, "GET", "/bookings", aliceTok, nil)
	mine := decodeBody[[]domain.Booking](t, rec)
	if len(mine) != 1 || mine[0].UserID != "alice" {
		t.Errorf("alice sees %+v, want only her booking", mine)
	}
	// Omitted passenger count defaulted to 1.
	if len(mine) == 1 && mine[0].Passengers != 1 {
		t.Errorf("passengers = %d, want default 1", mine[0].Passengers)
	}
}

func TestCancelOtherUsersBooking(t *testing.T) {
	router := newTestRouter(t)
	adminTok := token(t, "adm-1", true)
	aliceTok := token(t, "alice", false)
	bobTok := token(t, "bob", false)

	rec := doJSON(t, router, "POST", "/trips", adminTok, sampleTrip(45))
	trip := decodeBody[domain.Trip](t, rec)

	rec = doJSON(t, router, "POST", "/bookings", aliceTok, map[string]any{"tripId": trip.ID})
	booking := decodeBody[domain.Booking](t, rec)

	if rec := doJSON(t, router, "DELETE", "/bookings/"+booking.ID, bobTok, nil); rec.Code != http.StatusForbidden {
		t.Errorf("bob cancelling alice's booking: status = %d, want 403", rec.Code)
	}
	if rec := doJSON(t, router, "DELETE", "/bookings/"+booking.ID, adminTok, nil); rec.Code != http.StatusOK {
		t.Errorf("admin cancel: status = %d, want 200", rec.Code)
	}
}

func TestBookingNotFoundStatuses(t *testing.T) {
	router := newTestRouter(t)
	userTok := token(t, "u-1", false)

	if rec := doJSON(t, router, "POST", "/bookings", userTok, map[string]any{"tripId": "ghost"}); rec.Code != http.StatusNotFound {
		t.Errorf("booking unknown trip: status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, router, "DELETE", "/bookings/ghost", userTok, nil); rec.Code != http.StatusNotFound {
		t.Errorf("cancel unknown booking: status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, router, "GET", "/trips/ghost", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get unknown trip: status = %d, want 404", rec.Code)
	}
}

func TestIdempotencyKeyHeader(t *testing.T) {
	router := newTestRouter(t)
	adminTok := token(t, "adm-1", true)
	userTok := token(t, "u-1", false)

	rec := doJSON(t, router, "POST", "/trips", adminTok, sampleTrip(10))
	trip := decodeBody[domain.Trip](t, rec)

	send := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]any{"tripId": trip.ID, "passengers": 2})
		req := httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+userTok)
		req.Header.Set("Idempotency-Key", "retry-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := decodeBody[domain.Booking](t, send())
	second := decodeBody[domain.Booking](t, send())
	if first.ID != second.ID {
		t.Errorf("retried request created a second booking")
	}

	rec = doJSON(t, router, "GET", "/trips/"+trip.ID, "", nil)
	if got := decodeBody[domain.Trip](t, rec); got.AvailableSeats != 8 {
		t.Errorf("seats = %d, want 8 after one effective booking", got.AvailableSeats)
	}
}
