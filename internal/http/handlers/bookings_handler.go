package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyago/travel-bookings/internal/domain"
	mw "github.com/voyago/travel-bookings/internal/http/middleware"
	"github.com/voyago/travel-bookings/internal/http/response"
	"github.com/voyago/travel-bookings/internal/service"
)

type BookingHandler struct {
	bookings *service.BookingService
}

func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type createBookingReq struct {
	TripID     string `json:"tripId"`
	Passengers int    `json:"passengers"`
}

// Create handles POST /bookings. Passengers defaults to 1 when omitted. An
// Idempotency-Key header makes retries return the original booking.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := mw.Identity(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var in createBookingReq
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.TripID == "" {
		response.BadRequest(w, "tripId is required")
		return
	}
	if in.Passengers == 0 {
		in.Passengers = 1
	}

	booking, err := h.bookings.CreateBooking(r.Context(), ident, in.TripID, in.Passengers, r.Header.Get("Idempotency-Key"))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, booking)
}

// List handles GET /bookings: the caller's own bookings, most recent first.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := mw.Identity(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	bs, err := h.bookings.GetUserBookings(r.Context(), ident)
	if err != nil {
		response.InternalError(w, "error listing bookings")
		return
	}
	if bs == nil {
		bs = []domain.Booking{}
	}
	response.WriteJSON(w, http.StatusOK, bs)
}

// Cancel handles DELETE /bookings/{id}. Repeating the call is safe; the
// booking stays cancelled.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ident, ok := mw.Identity(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	booking, err := h.bookings.CancelBooking(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("empty body")
	}
	return err
}
