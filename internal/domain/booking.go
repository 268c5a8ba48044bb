package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingConfirmed, BookingCancelled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

const (
	MinPassengers = 1
	MaxPassengers = 6
)

// Booking is a user's reservation against a trip. Trip holds a frozen copy of
// the trip as it was when the booking was made; later seat decrements or trip
// deletion never change what a past booking reports.
type Booking struct {
	ID     string        `json:"id"`
	UserID string        `json:"userId"`
	TripID string        `json:"tripId"`
	Trip   Trip          `json:"trip"`
	Status BookingStatus `json:"status"`

	Passengers  int             `json:"passengers"`
	TotalAmount decimal.Decimal `json:"totalAmount"`

	BookingDate time.Time `json:"bookingDate"`
}

// BookingStats is the admin aggregate over the booking collection. Revenue and
// passenger totals count confirmed bookings only; TotalBookings counts every
// status.
type BookingStats struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalPassengers   int             `json:"totalPassengers"`
	TotalBookings     int             `json:"totalBookings"`
	CancelledBookings int             `json:"cancelledBookings"`
}
