package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voyago/travel-bookings/internal/domain"
	mw "github.com/voyago/travel-bookings/internal/http/middleware"
	"github.com/voyago/travel-bookings/internal/http/response"
	"github.com/voyago/travel-bookings/internal/service"
)

type TripHandler struct {
	search *service.SearchService
	trips  *service.TripService
}

func NewTripHandler(search *service.SearchService, trips *service.TripService) *TripHandler {
	return &TripHandler{search: search, trips: trips}
}

// Search handles GET /trips. All filter params are optional; no params means
// browse the full inventory.
func (h *TripHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := domain.TripQuery{
		Source:      r.URL.Query().Get("source"),
		Destination: r.URL.Query().Get("destination"),
		Date:        r.URL.Query().Get("date"),
	}
	if raw := r.URL.Query().Get("mode"); raw != "" {
		if _, ok := domain.ParseTravelMode(raw); !ok {
			response.BadRequest(w, "invalid mode (allowed: flight, train, bus)")
			return
		}
		q.Mode = raw
	}
	if raw := r.URL.Query().Get("available_only"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, "invalid available_only")
			return
		}
		q.AvailableOnly = b
	}

	trips, err := h.search.Search(r.Context(), q)
	if err != nil {
		response.InternalError(w, "error searching trips")
		return
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	response.WriteJSON(w, http.StatusOK, trips)
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	trip, err := h.trips.GetTrip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, trip)
}

// Create handles POST /trips (admin).
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := mw.Identity(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var in domain.TripInput
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	trip, err := h.trips.AddTrip(r.Context(), ident, in)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, trip)
}

// Delete handles DELETE /trips/{id} (admin).
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := mw.Identity(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	if err := h.trips.DeleteTrip(r.Context(), ident, chi.URLParam(r, "id")); err != nil {
		response.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
