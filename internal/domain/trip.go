package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TravelMode string

const (
	ModeFlight TravelMode = "flight"
	ModeTrain  TravelMode = "train"
	ModeBus    TravelMode = "bus"
)

func ParseTravelMode(s string) (TravelMode, bool) {
	switch TravelMode(s) {
	case ModeFlight, ModeTrain, ModeBus:
		return TravelMode(s), true
	default:
		return "", false
	}
}

// DateLayout is the calendar-date format used for trip dates. Trip dates are
// date-only and carry no timezone.
const DateLayout = "2006-01-02"

type Trip struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Date        string     `json:"date"`
	Mode        TravelMode `json:"mode"`

	Price decimal.Decimal `json:"price"`

	// Display-only fields, never used in computation.
	Duration      string `json:"duration"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`

	AvailableSeats int `json:"availableSeats"`
}

// TripInput carries the admin-supplied fields of a new trip; the store assigns
// the id on insert.
type TripInput struct {
	Source         string          `json:"source"`
	Destination    string          `json:"destination"`
	Date           string          `json:"date"`
	Mode           TravelMode      `json:"mode"`
	Price          decimal.Decimal `json:"price"`
	Duration       string          `json:"duration"`
	DepartureTime  string          `json:"departureTime"`
	ArrivalTime    string          `json:"arrivalTime"`
	AvailableSeats int             `json:"availableSeats"`
}

func (in *TripInput) Validate() error {
	if strings.TrimSpace(in.Source) == "" {
		return fmt.Errorf("%w: source is required", ErrValidation)
	}
	if strings.TrimSpace(in.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if in.Date == "" {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return fmt.Errorf("%w: date must be formatted as %s", ErrValidation, DateLayout)
	}
	if _, ok := ParseTravelMode(string(in.Mode)); !ok {
		return fmt.Errorf("%w: mode must be one of 'flight', 'train', 'bus'", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if in.AvailableSeats < 0 {
		return fmt.Errorf("%w: availableSeats must not be negative", ErrValidation)
	}
	return nil
}

func (in *TripInput) Trip() Trip {
	return Trip{
		Source:         strings.TrimSpace(in.Source),
		Destination:    strings.TrimSpace(in.Destination),
		Date:           in.Date,
		Mode:           in.Mode,
		Price:          in.Price,
		Duration:       in.Duration,
		DepartureTime:  in.DepartureTime,
		ArrivalTime:    in.ArrivalTime,
		AvailableSeats: in.AvailableSeats,
	}
}

// TripQuery filters trips. Zero-valued fields impose no constraint, so the
// zero query matches the full inventory.
type TripQuery struct {
	Source      string
	Destination string
	Date        string
	Mode        string

	// AvailableOnly drops sold-out trips from the result.
	AvailableOnly bool
}

// Matches reports whether t satisfies every provided predicate. Source and
// destination are case-insensitive substring matches; date and mode are exact.
func (q *TripQuery) Matches(t *Trip) bool {
	if q.Source != "" && !strings.Contains(strings.ToLower(t.Source), strings.ToLower(q.Source)) {
		return false
	}
	if q.Destination != "" && !strings.Contains(strings.ToLower(t.Destination), strings.ToLower(q.Destination)) {
		return false
	}
	if q.Date != "" && t.Date != q.Date {
		return false
	}
	if q.Mode != "" && string(t.Mode) != q.Mode {
		return false
	}
	if q.AvailableOnly && t.AvailableSeats <= 0 {
		return false
	}
	return true
}
