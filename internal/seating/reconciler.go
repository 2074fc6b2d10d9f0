// Package seating derives seat availability for a showing from the
// bookings already recorded for it.  Availability is never stored: a seat
// is taken exactly when some booking with the same (movie, location,
// time) lists it.
package seating

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/model"
)

// Seat statuses rendered on the seat map.
const (
	StatusAvailable = "available"
	StatusTaken     = "taken"
)

// SeatSet is a set of seat labels.
type SeatSet map[string]struct{}

// Has reports whether label is in the set.
func (s SeatSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Sorted returns the labels in lexical order.
func (s SeatSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// TakenSeats returns the union of seats across bookings whose movie,
// location and time all equal key exactly.  The result is empty, never
// nil, when nothing matches.
func TakenSeats(bookings []model.Booking, key model.Showing) SeatSet {
	taken := make(SeatSet)
	for _, b := range bookings {
		if b.Showing() != key {
			continue
		}
		for _, s := range b.Seats {
			if s != "" {
				taken[s] = struct{}{}
			}
		}
	}
	return taken
}

// BookingLister is the read side of the booking store used here.
type BookingLister interface {
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
}

// Availability is the result of a reconciliation.  Degraded is set when
// the bookings could not be read and Taken is therefore empty.
type Availability struct {
	Showing  model.Showing
	Taken    SeatSet
	Degraded bool
}

// SeatStatus is one entry of a rendered seat map.
type SeatStatus struct {
	Seat   string `json:"seat"`
	Status string `json:"status"`
}

// SeatMap marks every label in layout as taken or available.
func (a Availability) SeatMap(layout []string) []SeatStatus {
	out := make([]SeatStatus, 0, len(layout))
	for _, l := range layout {
		st := StatusAvailable
		if a.Taken.Has(l) {
			st = StatusTaken
		}
		out = append(out, SeatStatus{Seat: l, Status: st})
	}
	return out
}

// Reconciler computes availability from the booking store.
type Reconciler struct {
	bookings BookingLister
	log      *zap.Logger
}

// NewReconciler returns a Reconciler reading from bookings.
func NewReconciler(bookings BookingLister, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{bookings: bookings, log: log}
}

// Taken returns the seats claimed for key.  If the store cannot be read
// the reconciler fails open: no seat is marked taken and the result is
// flagged Degraded so callers can surface it.  There is no seat lock at
// this point, so a concurrent booking for the same seat is possible
// until the store rejects it at insert time.
func (r *Reconciler) Taken(ctx context.Context, key model.Showing) Availability {
	bookings, err := r.bookings.List(ctx, model.BookingFilter{
		Movie:    key.Movie,
		Location: key.Location,
		Time:     key.Time,
	})
	if err != nil {
		r.log.Warn("seat reconciliation degraded",
			zap.String("movie", key.Movie),
			zap.String("location", key.Location),
			zap.String("time", key.Time),
			zap.Error(err))
		return Availability{Showing: key, Taken: SeatSet{}, Degraded: true}
	}
	// The store filter may match loosely (collation); re-apply exactly.
	return Availability{Showing: key, Taken: TakenSeats(bookings, key)}
}
