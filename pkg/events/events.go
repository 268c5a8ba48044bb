package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/voyago/travel-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Noop drops every event. Used when no NATS URL is configured and in tests.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }

var (
	_ Publisher = (*NATSEventBus)(nil)
	_ Publisher = Noop{}
)

// Subjects
const (
	TripCreated     = "trip.created"
	TripDeleted     = "trip.deleted"
	BookingCreated  = "booking.created"
	BookingCanceled = "booking.canceled"
)

// Event payloads
type TripCreatedEvent struct {
	TripID      string          `json:"trip_id"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Date        string          `json:"date"`
	Mode        string          `json:"mode"`
	Price       decimal.Decimal `json:"price"`
	Seats       int             `json:"seats"`
}

type TripDeletedEvent struct {
	TripID    string    `json:"trip_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type BookingCreatedEvent struct {
	BookingID   string          `json:"booking_id"`
	UserID      string          `json:"user_id"`
	TripID      string          `json:"trip_id"`
	Passengers  int             `json:"passengers"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SeatsLeft   int             `json:"seats_left"`
	CreatedAt   time.Time       `json:"created_at"`
}

type BookingCanceledEvent struct {
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	TripID     string    `json:"trip_id"`
	Passengers int       `json:"passengers"`
	Restocked  bool      `json:"restocked"`
	CanceledAt time.Time `json:"canceled_at"`
}
