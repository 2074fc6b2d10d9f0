package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/movie-booking/internal/model"
)

// SeatLock selects how Create guards against two bookings claiming the
// same seat of a showing.
type SeatLock string

const (
	// SeatLockStrict locks the showing's booked seats inside the insert
	// transaction and rejects overlapping bookings.
	SeatLockStrict SeatLock = "strict"
	// SeatLockOff inserts without checking; the last writer wins.
	SeatLockOff SeatLock = "off"
)

// ParseSeatLock maps a config value to a SeatLock.  Unknown values are
// rejected; empty means strict.
func ParseSeatLock(s string) (SeatLock, error) {
	switch SeatLock(strings.ToLower(strings.TrimSpace(s))) {
	case "", SeatLockStrict:
		return SeatLockStrict, nil
	case SeatLockOff:
		return SeatLockOff, nil
	}
	return "", fmt.Errorf("unknown seat lock mode %q", s)
}

// BookingRepo stores bookings in the `bookings` table and their ordered
// seat labels in `booking_seats`.
type BookingRepo struct {
	db   *sql.DB
	lock SeatLock
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB, lock SeatLock) *BookingRepo {
	if lock == "" {
		lock = SeatLockStrict
	}
	return &BookingRepo{db: db, lock: lock}
}

const bookingColumns = `b.id, b.user_email, b.movie_name, b.location, b.show_time, b.show_date,
       b.seat_count, b.seat_subtotal_cents, b.food_items, b.food_subtotal_cents,
       b.grand_total_cents, b.cardholder_name, b.card_number_masked, b.created_at`

// List returns the bookings matching f, newest first, with their seats.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	var (
		conds []string
		args  []interface{}
	)
	exact := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	exact("b.movie_name", f.Movie)
	exact("b.location", f.Location)
	exact("b.show_time", f.Time)
	exact("b.show_date", f.Date)
	exact("b.user_email", f.UserEmail)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		conds = append(conds, `(LOWER(b.movie_name) LIKE ? OR LOWER(b.location) LIKE ?
       OR LOWER(b.user_email) LIKE ? OR LOWER(b.cardholder_name) LIKE ?
       OR EXISTS (SELECT 1 FROM booking_seats s WHERE s.booking_id = b.id AND LOWER(s.seat_label) LIKE ?))`)
		args = append(args, like, like, like, like, like)
	}

	query := `SELECT ` + bookingColumns + `
FROM bookings b`
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY b.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	// Load the seats of every listed booking in one query.
	ids := make([]interface{}, 0, len(out))
	for _, b := range out {
		ids = append(ids, b.ID)
	}
	seatQ := `SELECT booking_id, seat_label FROM booking_seats
WHERE booking_id IN (` + placeholders(len(ids)) + `)
ORDER BY booking_id, position`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, fmt.Errorf("list booking seats: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var (
			id    uint64
			label string
		)
		if err := srows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan booking seat: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Seats = append(out[i].Seats, label)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, fmt.Errorf("list booking seats: %w", err)
	}
	return out, nil
}

// Create inserts b and its seats in one transaction and sets b.ID.  In
// strict mode it first locks the seats already booked for b's showing
// and fails with a *SeatsTakenError when any overlaps.  A concurrent
// booking that got past the lock collides on the unique seat key and is
// reported the same way.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) (uint64, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	food := b.FoodItems
	if food == nil {
		food = []model.FoodItem{}
	}
	foodJSON, err := json.Marshal(food)
	if err != nil {
		return 0, fmt.Errorf("encode food items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback()

	strict := r.lock == SeatLockStrict && len(b.Seats) > 0
	if strict {
		taken, err := lockBookedSeatsTx(ctx, tx, b.Showing(), b.Seats)
		if err != nil {
			if isSeatConflict(err) {
				tx.Rollback()
				return 0, r.seatsTaken(ctx, b)
			}
			return 0, err
		}
		if len(taken) > 0 {
			return 0, &SeatsTakenError{Seats: taken}
		}
	}

	const ins = `INSERT INTO bookings (user_email, movie_name, location, show_time, show_date,
  seat_count, seat_subtotal_cents, food_items, food_subtotal_cents, grand_total_cents,
  cardholder_name, card_number_masked, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins,
		b.UserEmail, b.MovieName, b.Location, b.ShowTime, b.ShowDate,
		len(b.Seats), b.SeatSubtotalCents, foodJSON, b.FoodSubtotalCents, b.GrandTotalCents,
		b.CardholderName, b.CardNumberMasked, b.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}

	if len(b.Seats) > 0 {
		var claim interface{}
		if strict {
			claim = 1
		}
		q := `INSERT INTO booking_seats (booking_id, position, movie_name, location, show_time, seat_label, claim) VALUES `
		args := make([]interface{}, 0, len(b.Seats)*7)
		for i, s := range b.Seats {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?, ?, ?, ?)"
			args = append(args, id, i, b.MovieName, b.Location, b.ShowTime, s, claim)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			if strict && isSeatConflict(err) {
				tx.Rollback()
				return 0, r.seatsTaken(ctx, b)
			}
			return 0, fmt.Errorf("insert booking seats: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit booking: %w", err)
	}
	b.ID = uint64(id)
	b.SeatCount = len(b.Seats)
	return b.ID, nil
}

// seatsTaken builds the conflict error for a strict booking that lost a
// race.  The winner may not have committed yet, in which case every
// requested seat is reported.
func (r *BookingRepo) seatsTaken(ctx context.Context, b *model.Booking) error {
	key := b.Showing()
	q := `SELECT DISTINCT seat_label FROM booking_seats
WHERE movie_name = ? AND location = ? AND show_time = ?
  AND seat_label IN (` + placeholders(len(b.Seats)) + `)`
	args := make([]interface{}, 0, len(b.Seats)+3)
	args = append(args, key.Movie, key.Location, key.Time)
	for _, s := range b.Seats {
		args = append(args, s)
	}
	var taken []string
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var label string
			if rows.Scan(&label) == nil {
				taken = append(taken, label)
			}
		}
	}
	if len(taken) == 0 {
		taken = append([]string(nil), b.Seats...)
	}
	return &SeatsTakenError{Seats: taken}
}

// lockBookedSeatsTx returns which of seats are already booked for key,
// holding row locks on them until the transaction ends.
func lockBookedSeatsTx(ctx context.Context, tx *sql.Tx, key model.Showing, seats []string) ([]string, error) {
	q := `SELECT seat_label FROM booking_seats
WHERE movie_name = ? AND location = ? AND show_time = ?
  AND seat_label IN (` + placeholders(len(seats)) + `)
FOR UPDATE`
	args := make([]interface{}, 0, len(seats)+3)
	args = append(args, key.Movie, key.Location, key.Time)
	for _, s := range seats {
		args = append(args, s)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("lock booked seats: %w", err)
	}
	defer rows.Close()
	seen := make(map[string]bool)
	var taken []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan booked seat: %w", err)
		}
		// Seats double booked while the lock was off show up once.
		if !seen[label] {
			seen[label] = true
			taken = append(taken, label)
		}
	}
	return taken, rows.Err()
}

// Delete removes a booking and, by cascade, its seats.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b    model.Booking
		date sql.NullString
		food []byte
	)
	if err := s.Scan(&b.ID, &b.UserEmail, &b.MovieName, &b.Location, &b.ShowTime, &date,
		&b.SeatCount, &b.SeatSubtotalCents, &food, &b.FoodSubtotalCents,
		&b.GrandTotalCents, &b.CardholderName, &b.CardNumberMasked, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, ErrBookingNotFound
		}
		return b, fmt.Errorf("scan booking: %w", err)
	}
	b.ShowDate = date.String
	b.FoodItems = []model.FoodItem{}
	if len(food) > 0 {
		if err := json.Unmarshal(food, &b.FoodItems); err != nil {
			return b, fmt.Errorf("decode food items of booking %d: %w", b.ID, err)
		}
	}
	b.Seats = []string{}
	return b, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
