// Package service holds the booking flow logic that sits between the
// HTTP handlers and the stores: checkout and the catalog rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/payment"
	"github.com/iliyamo/movie-booking/internal/queue"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/venue"
)

// BookingStore is the write side of the booking store.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) (uint64, error)
}

// MovieFinder looks a movie up by its exact title.
type MovieFinder interface {
	GetByTitle(ctx context.Context, title string) (model.Movie, error)
}

// EventPublisher announces stored bookings.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Draft is everything chosen before payment.  Food lists menu item
// names; prices always come from the venue.
type Draft struct {
	UserEmail string
	Movie     string
	Date      string
	Location  string
	Time      string
	Seats     []string
	Food      []string
}

// DraftError reports a selection that cannot be booked.
type DraftError struct {
	Message string
}

func (e *DraftError) Error() string { return e.Message }

// ErrSaveBooking wraps store failures other than seat conflicts.
var ErrSaveBooking = errors.New("could not save booking")

// CheckoutService turns a validated draft and card into a stored booking.
type CheckoutService struct {
	store  BookingStore
	movies MovieFinder
	events EventPublisher
	venue  *venue.Venue
	log    *zap.Logger
	now    func() time.Time
}

// NewCheckoutService wires the checkout flow.  movies may be nil to skip
// the catalog check and events may be nil to disable publishing.
func NewCheckoutService(store BookingStore, movies MovieFinder, events EventPublisher, v *venue.Venue, log *zap.Logger) *CheckoutService {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutService{store: store, movies: movies, events: events, venue: v, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.now = now
	return s
}

// Checkout validates card and draft, prices the order, stores it with a
// masked card number and publishes a confirmation.  Publishing failures
// are logged and do not fail the checkout.
func (s *CheckoutService) Checkout(ctx context.Context, d Draft, card payment.Card) (*model.Booking, error) {
	now := s.now()
	if err := payment.Validate(card, now); err != nil {
		return nil, err
	}
	b, err := s.Price(ctx, d, now)
	if err != nil {
		return nil, err
	}
	b.CardholderName = strings.TrimSpace(card.Name)
	b.CardNumberMasked = payment.MaskCardNumber(card.Number)
	b.CreatedAt = now.UTC()

	if _, err := s.store.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrSeatsTaken) {
			return nil, err
		}
		s.log.Error("save booking failed",
			zap.String("movie", b.MovieName),
			zap.String("location", b.Location),
			zap.String("time", b.ShowTime),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSaveBooking, err)
	}
	s.log.Info("booking created",
		zap.Uint64("booking_id", b.ID),
		zap.String("user", b.UserEmail),
		zap.Strings("seats", b.Seats),
		zap.Int64("grand_total_cents", b.GrandTotalCents))

	if err := s.events.PublishBookingConfirmed(ctx, queue.NewBookingConfirmed(*b, now)); err != nil {
		s.log.Warn("publish booking confirmed failed", zap.Uint64("booking_id", b.ID), zap.Error(err))
	}
	return b, nil
}

// Price checks d against the venue and catalog and returns an unsaved
// booking with all totals filled in.
func (s *CheckoutService) Price(ctx context.Context, d Draft, now time.Time) (*model.Booking, error) {
	movie := strings.TrimSpace(d.Movie)
	if movie == "" {
		return nil, &DraftError{Message: "movie is required"}
	}
	if !s.venue.IsBookableDate(d.Date, now) {
		return nil, &DraftError{Message: "date is not bookable"}
	}
	if !s.venue.HasLocation(d.Location) {
		return nil, &DraftError{Message: "unknown location"}
	}
	if !s.venue.HasShowtime(d.Time) {
		return nil, &DraftError{Message: "unknown showtime"}
	}
	if len(d.Seats) == 0 {
		return nil, &DraftError{Message: "select at least one seat"}
	}
	seen := make(map[string]bool, len(d.Seats))
	for _, seat := range d.Seats {
		if !s.venue.IsSeat(seat) {
			return nil, &DraftError{Message: "unknown seat " + seat}
		}
		if seen[seat] {
			return nil, &DraftError{Message: "duplicate seat " + seat}
		}
		seen[seat] = true
	}
	food := make([]model.FoodItem, 0, len(d.Food))
	var foodTotal int64
	for _, name := range d.Food {
		item, ok := s.venue.MenuItem(name)
		if !ok {
			return nil, &DraftError{Message: "unknown food item " + name}
		}
		food = append(food, model.FoodItem{Name: item.Name, PriceCents: item.PriceCents})
		foodTotal += item.PriceCents
	}
	if s.movies != nil {
		if _, err := s.movies.GetByTitle(ctx, movie); err != nil {
			if errors.Is(err, repository.ErrMovieNotFound) {
				return nil, &DraftError{Message: "unknown movie"}
			}
			return nil, fmt.Errorf("look up movie: %w", err)
		}
	}

	email := strings.TrimSpace(d.UserEmail)
	if email == "" {
		email = model.GuestEmail
	}
	seatTotal := int64(len(d.Seats)) * s.venue.SeatPriceCents
	return &model.Booking{
		UserEmail:         email,
		MovieName:         movie,
		Location:          d.Location,
		ShowTime:          d.Time,
		ShowDate:          d.Date,
		Seats:             append([]string(nil), d.Seats...),
		SeatCount:         len(d.Seats),
		SeatSubtotalCents: seatTotal,
		FoodItems:         food,
		FoodSubtotalCents: foodTotal,
		GrandTotalCents:   seatTotal + foodTotal,
	}, nil
}
