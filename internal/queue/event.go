// Package queue defines the booking events exchanged over RabbitMQ and
// the consumer that records them.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/movie-booking/internal/model"
)

// DefaultBookingQueue is the durable queue booking events are sent to.
const DefaultBookingQueue = "booking.confirmed"

// BookingConfirmedEvent is published after a booking is stored.  It
// carries enough for consumers to log or notify without reading the
// database.  Card data other than the cardholder name is never included.
type BookingConfirmedEvent struct {
	BookingID         uint64   `json:"booking_id"`
	UserEmail         string   `json:"user_email"`
	MovieName         string   `json:"movie_name"`
	Location          string   `json:"location"`
	ShowTime          string   `json:"time"`
	ShowDate          string   `json:"selected_date"`
	Seats             []string `json:"seats"`
	FoodItems         []string `json:"food_items"`
	SeatSubtotalCents int64    `json:"seats_price_cents"`
	FoodSubtotalCents int64    `json:"food_total_cents"`
	GrandTotalCents   int64    `json:"grand_total_cents"`
	ConfirmedAt       string   `json:"confirmed_at"`
}

// NewBookingConfirmed builds the event for a stored booking.
func NewBookingConfirmed(b model.Booking, at time.Time) BookingConfirmedEvent {
	food := make([]string, 0, len(b.FoodItems))
	for _, f := range b.FoodItems {
		food = append(food, f.Name)
	}
	return BookingConfirmedEvent{
		BookingID:         b.ID,
		UserEmail:         b.UserEmail,
		MovieName:         b.MovieName,
		Location:          b.Location,
		ShowTime:          b.ShowTime,
		ShowDate:          b.ShowDate,
		Seats:             append([]string(nil), b.Seats...),
		FoodItems:         food,
		SeatSubtotalCents: b.SeatSubtotalCents,
		FoodSubtotalCents: b.FoodSubtotalCents,
		GrandTotalCents:   b.GrandTotalCents,
		ConfirmedAt:       at.UTC().Format(time.RFC3339),
	}
}

// LogLine renders the event as one line of the booking log.
func (ev BookingConfirmedEvent) LogLine() string {
	return fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | user=%q | movie=%q | location=%q | time=%q | date=%s | seats=[%s] | food=%d items | total=%d cents\n",
		ev.ConfirmedAt, ev.BookingID, ev.UserEmail, ev.MovieName, ev.Location, ev.ShowTime, ev.ShowDate,
		strings.Join(ev.Seats, ","), len(ev.FoodItems), ev.GrandTotalCents)
}
