package model

import "time"

// GuestEmail is recorded as the user identifier when a booking is made
// without an authenticated user.
const GuestEmail = "guest@example.com"

// Booking records a confirmed, paid reservation of seats (and optional
// food) for one showing.  It corresponds to a row in the `bookings`
// table plus its ordered `booking_seats` rows.  Bookings are created once
// at checkout and never updated in place.
//
// Fields:
//  ID                – primary key, assigned by the store (monotonic).
//  UserEmail         – email of the booking user or GuestEmail.
//  MovieName         – title of the movie at booking time.
//  Location          – auditorium location.
//  ShowTime          – showtime label, e.g. "7:00 PM".
//  ShowDate          – showing date as YYYY-MM-DD.
//  Seats             – seat labels in the order they were picked.
//  SeatCount         – len(Seats).
//  SeatSubtotalCents – price of all seats.
//  FoodItems         – ordered food items.
//  FoodSubtotalCents – price of all food items (0 when none).
//  GrandTotalCents   – SeatSubtotalCents + FoodSubtotalCents.
//  CardholderName    – name on the card.
//  CardNumberMasked  – first 4 + placeholder + last 4 digits.
//  CreatedAt         – creation timestamp.
type Booking struct {
	ID                uint64     `json:"id"`
	UserEmail         string     `json:"user_email"`
	MovieName         string     `json:"movie_name"`
	Location          string     `json:"location"`
	ShowTime          string     `json:"time"`
	ShowDate          string     `json:"selected_date"`
	Seats             []string   `json:"seats_list"`
	SeatCount         int        `json:"seats_count"`
	SeatSubtotalCents int64      `json:"seats_price_cents"`
	FoodItems         []FoodItem `json:"food_items"`
	FoodSubtotalCents int64      `json:"food_total_cents"`
	GrandTotalCents   int64      `json:"grand_total_cents"`
	CardholderName    string     `json:"cardholder_name"`
	CardNumberMasked  string     `json:"card_number_masked"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Showing returns the key used to reconcile seat availability.
func (b Booking) Showing() Showing {
	return Showing{Movie: b.MovieName, Location: b.Location, Time: b.ShowTime}
}

// FoodItem is one ordered concession item.
type FoodItem struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Showing identifies the seats of one screening for availability purposes.
// All three parts are compared exactly; the date is not part of the key.
type Showing struct {
	Movie    string `json:"movie"`
	Location string `json:"location"`
	Time     string `json:"time"`
}

// IsZero reports whether any part of the key is missing.
func (s Showing) IsZero() bool {
	return s.Movie == "" || s.Location == "" || s.Time == ""
}

// BookingFilter narrows a booking listing.  Empty fields do not filter.
// Movie, Location, Time, Date and UserEmail match exactly.  Query is a
// case-insensitive substring search across the movie, location, user
// email, cardholder name and seat labels.
type BookingFilter struct {
	Movie     string
	Location  string
	Time      string
	Date      string
	UserEmail string
	Query     string
}
