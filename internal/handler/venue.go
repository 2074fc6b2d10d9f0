package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/seating"
	"github.com/iliyamo/movie-booking/internal/venue"
)

// AvailabilityReader reports the seats taken for a showing.
type AvailabilityReader interface {
	Taken(ctx context.Context, key model.Showing) seating.Availability
}

// VenueHandler serves the static venue data and seat maps.
type VenueHandler struct {
	Venue *venue.Venue
	Seats AvailabilityReader
	Now   func() time.Time
}

func NewVenueHandler(v *venue.Venue, seats AvailabilityReader) *VenueHandler {
	return &VenueHandler{Venue: v, Seats: seats, Now: time.Now}
}

// Info lists locations, showtimes, bookable dates, the seat layout and
// the food menu.
func (h *VenueHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"locations":        h.Venue.Locations,
		"showtimes":        h.Venue.Showtimes,
		"dates":            h.Venue.Dates(h.Now()),
		"layout":           h.Venue.Layout,
		"seat_price_cents": h.Venue.SeatPriceCents,
		"food":             h.Venue.Food,
	})
}

// SeatMap renders the seat map of ?movie=&location=&time=.
func (h *VenueHandler) SeatMap(c echo.Context) error {
	key := model.Showing{
		Movie:    strings.TrimSpace(c.QueryParam("movie")),
		Location: c.QueryParam("location"),
		Time:     c.QueryParam("time"),
	}
	if key.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie, location and time are required"})
	}
	av := h.Seats.Taken(c.Request().Context(), key)
	return c.JSON(http.StatusOK, seatMapResp(h.Venue, av, nil))
}

func seatMapResp(v *venue.Venue, av seating.Availability, selected []string) echo.Map {
	if selected == nil {
		selected = []string{}
	}
	return echo.Map{
		"showing":  av.Showing,
		"seats":    av.SeatMap(v.SeatLabels()),
		"taken":    av.Taken.Sorted(),
		"selected": selected,
		"degraded": av.Degraded,
	}
}
