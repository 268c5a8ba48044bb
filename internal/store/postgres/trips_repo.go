package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voyago/travel-bookings/internal/domain"
	"github.com/voyago/travel-bookings/internal/store"
)

const opTimeout = 3 * time.Second

type TripRepo struct{ pool *pgxpool.Pool }

func NewTripRepo(pool *pgxpool.Pool) *TripRepo { return &TripRepo{pool: pool} }

const tripCols = `id, source, destination, date, mode, price,
duration, departure_time, arrival_time, available_seats`

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	err := row.Scan(
		&t.ID, &t.Source, &t.Destination, &t.Date, &t.Mode, &t.Price,
		&t.Duration, &t.DepartureTime, &t.ArrivalTime, &t.AvailableSeats,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TripRepo) Insert(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	const q = `INSERT INTO trips (` + tripCols + `)
  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  RETURNING ` + tripCols

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stored, err := scanTrip(r.pool.QueryRow(ctx, q,
		uuid.NewString(), t.Source, t.Destination, t.Date, t.Mode, t.Price,
		t.Duration, t.DepartureTime, t.ArrivalTime, t.AvailableSeats,
	))
	if err != nil {
		return domain.Trip{}, err
	}
	return *stored, nil
}

func (r *TripRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM trips WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrTripNotFound
	}
	return nil
}

func (r *TripRepo) Get(ctx context.Context, id string) (*domain.Trip, error) {
	const q = `SELECT ` + tripCols + ` FROM trips WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	t, err := scanTrip(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *TripRepo) ListAll(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT ` + tripCols + ` FROM trips`

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ts []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		ts = append(ts, *t)
	}
	return ts, rows.Err()
}

// DecrementSeats relies on a conditional UPDATE so the seat check and the
// decrement execute as one atomic statement; concurrent bookings against the
// same trip serialize on the row and can never drive the count negative.
func (r *TripRepo) DecrementSeats(ctx context.Context, id string, count int) (*domain.Trip, error) {
	const q = `UPDATE trips SET available_seats = available_seats - $2
  WHERE id=$1 AND available_seats >= $2
  RETURNING ` + tripCols

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	t, err := scanTrip(r.pool.QueryRow(ctx, q, id, count))
	if errors.Is(err, pgx.ErrNoRows) {
		// No row matched: either the trip is gone or there were too few seats.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id=$1)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrTripNotFound
		}
		return nil, domain.ErrInsufficientSeats
	}
	return t, err
}

func (r *TripRepo) IncrementSeats(ctx context.Context, id string, count int) (*domain.Trip, error) {
	const q = `UPDATE trips SET available_seats = available_seats + $2
  WHERE id=$1
  RETURNING ` + tripCols

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	t, err := scanTrip(r.pool.QueryRow(ctx, q, id, count))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTripNotFound
	}
	return t, err
}

var _ store.TripStore = (*TripRepo)(nil)
