package handlers

import (
	"net/http"

	"github.com/voyago/travel-bookings/internal/domain"
	mw "github.com/voyago/travel-bookings/internal/http/middleware"
	"github.com/voyago/travel-bookings/internal/http/response"
	"github.com/voyago/travel-bookings/internal/service"
)

type AdminHandler struct {
	bookings *service.BookingService
	reports  *service.ReportService
}

func NewAdminHandler(bookings *service.BookingService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{bookings: bookings, reports: reports}
}

// ListBookings handles GET /admin/bookings.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	ident, ok := mw.Identity(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	bs, err := h.bookings.GetAllBookings(r.Context(), ident)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	if bs == nil {
		bs = []domain.Booking{}
	}
	response.WriteJSON(w, http.StatusOK, bs)
}

// Stats handles GET /admin/stats: revenue and passenger totals over confirmed
// bookings, plus overall booking counts.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ident, ok := mw.Identity(r)
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	stats, err := h.reports.Stats(r.Context(), ident)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}
