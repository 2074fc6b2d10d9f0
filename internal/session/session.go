// Package session models the step-by-step booking selection of one user.
// A Session records which steps were completed and the data chosen at
// each; every step requires the previous one.  The state tag is stored
// explicitly so a session can be persisted and resumed.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/seating"
	"github.com/iliyamo/movie-booking/internal/venue"
)

// State is the furthest contiguous step a session has completed.
type State int

const (
	NoSelection State = iota
	MovieDateChosen
	ShowtimeChosen
	SeatsChosen
	FoodChosen
	Completed
)

var stateNames = [...]string{
	NoSelection:     "no_selection",
	MovieDateChosen: "movie_date_chosen",
	ShowtimeChosen:  "showtime_chosen",
	SeatsChosen:     "seats_chosen",
	FoodChosen:      "food_chosen",
	Completed:       "completed",
}

func (s State) String() string {
	if s < NoSelection || s > Completed {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if s < NoSelection || s > Completed {
		return nil, fmt.Errorf("session: unknown state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("session: unknown state %q", string(b))
}

// Step names the page a client must return to.
type Step string

const (
	StepMovie    Step = "movie"
	StepShowtime Step = "showtime"
	StepSeats    Step = "seats"
	StepFood     Step = "food"
)

// MissingStepError is returned when a step is attempted before the steps
// it depends on.
type MissingStepError struct {
	BackTo Step
}

func (e *MissingStepError) Error() string {
	return "missing data, go back to " + string(e.BackTo)
}

// InputError reports invalid step input.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// ErrCompleted is returned when a finished session is modified.
var ErrCompleted = errors.New("session already completed")

// SeatsTakenError lists requested seats that are already booked.
type SeatsTakenError struct {
	Seats []string
}

func (e *SeatsTakenError) Error() string {
	return "seats already taken: " + strings.Join(e.Seats, ", ")
}

type MovieChoice struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

type ShowtimeChoice struct {
	Location string `json:"location"`
	Time     string `json:"time"`
}

// SeatChoice remembers the showing it was checked against, so it can be
// discarded when the showing changes.
type SeatChoice struct {
	Labels        []string      `json:"labels"`
	Showing       model.Showing `json:"showing"`
	SubtotalCents int64         `json:"subtotal_cents"`
}

type FoodChoice struct {
	Items         []model.FoodItem `json:"items"`
	SubtotalCents int64            `json:"subtotal_cents"`
}

// Session is one user's in-progress selection.
type Session struct {
	ID        string          `json:"id"`
	UserEmail string          `json:"user_email"`
	State     State           `json:"state"`
	Movie     *MovieChoice    `json:"movie,omitempty"`
	Showtime  *ShowtimeChoice `json:"showtime,omitempty"`
	Seats     *SeatChoice     `json:"seats,omitempty"`
	Food      *FoodChoice     `json:"food,omitempty"`
	BookingID uint64          `json:"booking_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// New returns an empty session.
func New(id, userEmail string, now time.Time) *Session {
	if userEmail == "" {
		userEmail = model.GuestEmail
	}
	return &Session{ID: id, UserEmail: userEmail, State: NoSelection, CreatedAt: now, UpdatedAt: now}
}

// Showing returns the showing key of the current movie and showtime
// choice.  It is zero until both are chosen.
func (s *Session) Showing() model.Showing {
	if s.Movie == nil || s.Showtime == nil {
		return model.Showing{}
	}
	return model.Showing{Movie: s.Movie.Title, Location: s.Showtime.Location, Time: s.Showtime.Time}
}

// ChooseMovieDate records the movie and date.
func (s *Session) ChooseMovieDate(title, date string) error {
	if s.State == Completed {
		return ErrCompleted
	}
	title = strings.TrimSpace(title)
	date = strings.TrimSpace(date)
	if title == "" || date == "" {
		return &InputError{Message: "movie and date are required"}
	}
	s.Movie = &MovieChoice{Title: title, Date: date}
	s.dropStaleSeats()
	s.recompute()
	return nil
}

// ChooseShowtime records the location and time.  The movie must be chosen.
func (s *Session) ChooseShowtime(location, showTime string, v *venue.Venue) error {
	if s.State == Completed {
		return ErrCompleted
	}
	if s.State < MovieDateChosen {
		return &MissingStepError{BackTo: StepMovie}
	}
	if !v.HasLocation(location) {
		return &InputError{Message: "unknown location"}
	}
	if !v.HasShowtime(showTime) {
		return &InputError{Message: "unknown showtime"}
	}
	s.Showtime = &ShowtimeChoice{Location: location, Time: showTime}
	s.dropStaleSeats()
	s.recompute()
	return nil
}

// ChooseSeats records the seat labels after checking them against the
// layout and the seats already taken for the session's showing.
func (s *Session) ChooseSeats(labels []string, taken seating.SeatSet, v *venue.Venue) error {
	if s.State == Completed {
		return ErrCompleted
	}
	if s.State < MovieDateChosen {
		return &MissingStepError{BackTo: StepMovie}
	}
	if s.State < ShowtimeChosen {
		return &MissingStepError{BackTo: StepShowtime}
	}
	if len(labels) == 0 {
		return &InputError{Message: "select at least one seat"}
	}
	seen := make(map[string]struct{}, len(labels))
	var conflicts []string
	for _, l := range labels {
		if !v.IsSeat(l) {
			return &InputError{Message: "unknown seat " + l}
		}
		if _, dup := seen[l]; dup {
			return &InputError{Message: "duplicate seat " + l}
		}
		seen[l] = struct{}{}
		if taken.Has(l) {
			conflicts = append(conflicts, l)
		}
	}
	if len(conflicts) > 0 {
		return &SeatsTakenError{Seats: conflicts}
	}
	s.Seats = &SeatChoice{
		Labels:        append([]string(nil), labels...),
		Showing:       s.Showing(),
		SubtotalCents: int64(len(labels)) * v.SeatPriceCents,
	}
	s.recompute()
	return nil
}

// ChooseFood records the food order; an empty order is valid.  Prices
// come from the venue menu.
func (s *Session) ChooseFood(names []string, v *venue.Venue) error {
	if s.State == Completed {
		return ErrCompleted
	}
	if back, ok := s.require(SeatsChosen); !ok {
		return &MissingStepError{BackTo: back}
	}
	items := make([]model.FoodItem, 0, len(names))
	var total int64
	for _, n := range names {
		m, ok := v.MenuItem(n)
		if !ok {
			return &InputError{Message: "unknown food item " + n}
		}
		items = append(items, model.FoodItem{Name: m.Name, PriceCents: m.PriceCents})
		total += m.PriceCents
	}
	s.Food = &FoodChoice{Items: items, SubtotalCents: total}
	s.recompute()
	return nil
}

// ReadyForPayment reports whether every selection step is done, and if
// not, which step to return to.
func (s *Session) ReadyForPayment() (Step, bool) {
	if s.State == Completed {
		return "", false
	}
	return s.require(FoodChosen)
}

// Complete marks the session as paid with the stored booking id.
func (s *Session) Complete(bookingID uint64) error {
	if s.State == Completed {
		return ErrCompleted
	}
	if back, ok := s.require(FoodChosen); !ok {
		return &MissingStepError{BackTo: back}
	}
	s.BookingID = bookingID
	s.recompute()
	return nil
}

// require reports whether the session reached want, and otherwise the
// first step that is missing.
func (s *Session) require(want State) (Step, bool) {
	switch {
	case s.State >= want:
		return "", true
	case s.State < MovieDateChosen:
		return StepMovie, false
	case s.State < ShowtimeChosen:
		return StepShowtime, false
	case s.State < SeatsChosen:
		return StepSeats, false
	default:
		return StepFood, false
	}
}

// dropStaleSeats clears a seat selection made for a different showing.
func (s *Session) dropStaleSeats() {
	if s.Seats != nil && s.Seats.Showing != s.Showing() {
		s.Seats = nil
	}
}

func (s *Session) recompute() {
	st := NoSelection
	if s.Movie != nil {
		st = MovieDateChosen
		if s.Showtime != nil {
			st = ShowtimeChosen
			if s.Seats != nil {
				st = SeatsChosen
				if s.Food != nil {
					st = FoodChosen
					if s.BookingID != 0 {
						st = Completed
					}
				}
			}
		}
	}
	s.State = st
}
