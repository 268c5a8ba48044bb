package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/store"
)

type BookingRepo struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo { return &BookingRepo{pool: pool} }

const bookingCols = `id, user_id, trip_id, trip, status, passengers, total_amount, booking_date`

// The embedded trip snapshot travels as JSONB; it is frozen at booking time
// and deliberately not joined against the live trips table.
func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b    domain.Booking
		trip []byte
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.TripID, &trip, &b.Status,
		&b.Passengers, &b.TotalAmount, &b.BookingDate,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(trip, &b.Trip); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) Insert(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	const q = `INSERT INTO bookings (` + bookingCols + `)
  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  RETURNING ` + bookingCols

	// UUIDv7 ids are creation-time ordered.
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Booking{}, err
	}
	snapshot, err := json.Marshal(b.Trip)
	if err != nil {
		return domain.Booking{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stored, err := scanBooking(r.pool.QueryRow(ctx, q,
		id.String(), b.UserID, b.TripID, snapshot, b.Status,
		b.Passengers, b.TotalAmount, b.BookingDate,
	))
	if err != nil {
		return domain.Booking{}, err
	}
	return *stored, nil
}

func (r *BookingRepo) Get(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
  WHERE user_id=$1 ORDER BY booking_date DESC, id DESC`
	return r.list(ctx, q, userID)
}

func (r *BookingRepo) ListAll(ctx context.Context) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
  ORDER BY booking_date DESC, id DESC`
	return r.list(ctx, q)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bs []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}

// Cancel is a conditional UPDATE so the already-cancelled check and the
// status write are one statement; of any number of racing cancels exactly one
// row transition fires.
func (r *BookingRepo) Cancel(ctx context.Context, id string) (*domain.Booking, bool, error) {
	const q = `UPDATE bookings SET status=$2 WHERE id=$1 AND status <> $2 RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, domain.BookingCancelled))
	if errors.Is(err, pgx.ErrNoRows) {
		// No row transitioned: either the booking is unknown or it was
		// cancelled already. Re-read to tell the two apart.
		b, err := r.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if b == nil {
			return nil, false, domain.ErrBookingNotFound
		}
		return b, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

var _ store.BookingStore = (*BookingRepo)(nil)
