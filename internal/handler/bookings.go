package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/middleware"
	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/payment"
	"github.com/iliyamo/movie-booking/internal/service"
)

// BookingManager is the booking store as used by the admin endpoints.
type BookingManager interface {
	List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	Delete(ctx context.Context, id uint64) error
}

// Checkouter validates, prices and stores a booking.
type Checkouter interface {
	Checkout(ctx context.Context, d service.Draft, card payment.Card) (*model.Booking, error)
}

// BookingHandler serves direct checkout, a user's own bookings and the
// admin listing.
type BookingHandler struct {
	Checkout Checkouter
	Bookings BookingManager
	Log      *zap.Logger
}

func NewBookingHandler(checkout Checkouter, bookings BookingManager, log *zap.Logger) *BookingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Checkout: checkout, Bookings: bookings, Log: log}
}

type foodReq struct {
	Name string `json:"name"`
}

// createBookingReq carries a complete selection plus the card.  Card
// fields sit at the top level next to the selection.
type createBookingReq struct {
	MovieName    string    `json:"movie_name" validate:"required"`
	Location     string    `json:"location" validate:"required"`
	Time         string    `json:"time" validate:"required"`
	SelectedDate string    `json:"selected_date" validate:"required"`
	Seats        []string  `json:"seats_list" validate:"required,min=1,dive,required"`
	FoodItems    []foodReq `json:"food_items"`
	payment.Card
}

// Create books a complete selection in one request.  Totals are always
// computed server-side.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	food := make([]string, 0, len(req.FoodItems))
	for _, f := range req.FoodItems {
		food = append(food, f.Name)
	}
	b, err := h.Checkout.Checkout(c.Request().Context(), service.Draft{
		UserEmail: middleware.Email(c),
		Movie:     req.MovieName,
		Date:      req.SelectedDate,
		Location:  req.Location,
		Time:      req.Time,
		Seats:     req.Seats,
		Food:      food,
	}, req.Card)
	if err != nil {
		return respondError(c, h.Log, err, "Failed to save booking")
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": b.ID, "booking": b})
}

// Mine lists the authenticated user's bookings, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
	email := middleware.Email(c)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Bookings.List(c.Request().Context(), model.BookingFilter{UserEmail: email})
	if err != nil {
		return respondError(c, h.Log, err, "list bookings failed")
	}
	return c.JSON(http.StatusOK, bookingsResp(list))
}

// AdminList lists bookings filtered by ?movie=&location=&time=&date=&email=
// and searched by ?q=.
func (h *BookingHandler) AdminList(c echo.Context) error {
	f := model.BookingFilter{
		Movie:     strings.TrimSpace(c.QueryParam("movie")),
		Location:  c.QueryParam("location"),
		Time:      c.QueryParam("time"),
		Date:      c.QueryParam("date"),
		UserEmail: strings.TrimSpace(c.QueryParam("email")),
		Query:     strings.TrimSpace(c.QueryParam("q")),
	}
	list, err := h.Bookings.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, h.Log, err, "list bookings failed")
	}
	return c.JSON(http.StatusOK, bookingsResp(list))
}

// AdminDelete removes one booking by id.
func (h *BookingHandler) AdminDelete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Bookings.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err, "delete booking failed")
	}
	h.Log.Info("booking deleted", zap.Uint64("booking_id", id), zap.String("by", middleware.Email(c)))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "deleted": true})
}

func bookingsResp(list []model.Booking) echo.Map {
	if list == nil {
		list = []model.Booking{}
	}
	return echo.Map{"bookings": list, "count": len(list)}
}
