// Package repository holds the MySQL stores.  Each store translates
// driver level failures (no rows, duplicate keys) into the sentinel
// errors below so that handlers can map them to HTTP statuses without
// looking at SQL errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrBookingNotFound is returned when deleting or loading an unknown booking.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrMovieNotFound is returned for unknown movie ids.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrMovieExists is returned when a create or rename collides with an existing title.
	ErrMovieExists = errors.New("movie already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when signing up with a registered email.
	ErrEmailExists = errors.New("email already exists")
	// ErrSeatsTaken is matched by SeatsTakenError.
	ErrSeatsTaken = errors.New("seats already taken")
)

// SeatsTakenError lists the seats of a new booking that another booking
// for the same showing already holds.
type SeatsTakenError struct {
	Seats []string
}

func (e *SeatsTakenError) Error() string {
	return "seats already taken: " + strings.Join(e.Seats, ", ")
}

// Is makes errors.Is(err, ErrSeatsTaken) true.
func (e *SeatsTakenError) Is(target error) bool { return target == ErrSeatsTaken }

const (
	mysqlDuplicateEntry = 1062
	mysqlDeadlock       = 1213
)

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// isSeatConflict reports whether a strict booking lost a race for its
// seats: either the unique seat key fired or InnoDB picked it as the
// deadlock victim between two gap locks.
func isSeatConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDuplicateEntry || me.Number == mysqlDeadlock
}
