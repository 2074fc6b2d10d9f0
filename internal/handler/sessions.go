package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/middleware"
	"github.com/iliyamo/movie-booking/internal/payment"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/service"
	"github.com/iliyamo/movie-booking/internal/session"
	"github.com/iliyamo/movie-booking/internal/venue"
)

// SessionStore persists selection sessions.
type SessionStore interface {
	Create(ctx context.Context, userEmail string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// SessionHandler drives the step by step booking flow: movie and date,
// showtime, seats, food, then payment.
type SessionHandler struct {
	Sessions SessionStore
	Seats    AvailabilityReader
	Movies   service.MovieFinder
	Checkout Checkouter
	Venue    *venue.Venue
	Now      func() time.Time
	Log      *zap.Logger
}

func NewSessionHandler(sessions SessionStore, seats AvailabilityReader, movies service.MovieFinder,
	checkout Checkouter, v *venue.Venue, log *zap.Logger) *SessionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{
		Sessions: sessions,
		Seats:    seats,
		Movies:   movies,
		Checkout: checkout,
		Venue:    v,
		Now:      time.Now,
		Log:      log,
	}
}

type movieStepReq struct {
	Movie string `json:"movie" validate:"required"`
	Date  string `json:"date" validate:"required"`
}
type showtimeStepReq struct {
	Location string `json:"location" validate:"required"`
	Time     string `json:"time" validate:"required"`
}
type seatsStepReq struct {
	Seats []string `json:"seats" validate:"required,min=1"`
}
type foodStepReq struct {
	Items []string `json:"items"`
}

// sessionView is the session plus where the client may go next.
type sessionView struct {
	*session.Session
	CanProceed bool         `json:"can_proceed"`
	BackTo     session.Step `json:"back_to,omitempty"`
}

func view(s *session.Session) sessionView {
	back, ok := s.ReadyForPayment()
	return sessionView{Session: s, CanProceed: ok, BackTo: back}
}

// Create starts a new session for the caller, or for a guest.
func (h *SessionHandler) Create(c echo.Context) error {
	s, err := h.Sessions.Create(c.Request().Context(), middleware.Email(c))
	if err != nil {
		return respondError(c, h.Log, err, "create session failed")
	}
	return c.JSON(http.StatusCreated, view(s))
}

func (h *SessionHandler) Get(c echo.Context) error {
	s, err := h.Sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err, "load session failed")
	}
	return c.JSON(http.StatusOK, view(s))
}

func (h *SessionHandler) Delete(c echo.Context) error {
	if err := h.Sessions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, h.Log, err, "delete session failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// ChooseMovie records the movie and date.  The movie must be in the
// catalog and the date inside the booking window.
func (h *SessionHandler) ChooseMovie(c echo.Context) error {
	var req movieStepReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	title, date := strings.TrimSpace(req.Movie), strings.TrimSpace(req.Date)
	if !h.Venue.IsBookableDate(date, h.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is not bookable"})
	}
	if h.Movies != nil && title != "" {
		if _, err := h.Movies.GetByTitle(ctx, title); err != nil {
			if errors.Is(err, repository.ErrMovieNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown movie"})
			}
			return respondError(c, h.Log, err, "look up movie failed")
		}
	}
	return h.update(c, func(s *session.Session) error {
		return s.ChooseMovieDate(title, date)
	})
}

func (h *SessionHandler) ChooseShowtime(c echo.Context) error {
	var req showtimeStepReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return h.update(c, func(s *session.Session) error {
		return s.ChooseShowtime(req.Location, req.Time, h.Venue)
	})
}

// SeatMap renders the seat map of the session's showing with the
// session's own selection marked.
func (h *SessionHandler) SeatMap(c echo.Context) error {
	ctx := c.Request().Context()
	s, err := h.Sessions.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err, "load session failed")
	}
	key := s.Showing()
	if key.IsZero() {
		back := session.StepShowtime
		if s.Movie == nil {
			back = session.StepMovie
		}
		return respondError(c, h.Log, &session.MissingStepError{BackTo: back}, "")
	}
	var selected []string
	if s.Seats != nil {
		selected = s.Seats.Labels
	}
	return c.JSON(http.StatusOK, seatMapResp(h.Venue, h.Seats.Taken(ctx, key), selected))
}

// ChooseSeats checks the seats against the current bookings of the
// session's showing before recording them.
func (h *SessionHandler) ChooseSeats(c echo.Context) error {
	var req seatsStepReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return h.update(c, func(s *session.Session) error {
		key := s.Showing()
		if key.IsZero() {
			return s.ChooseSeats(req.Seats, nil, h.Venue)
		}
		av := h.Seats.Taken(c.Request().Context(), key)
		return s.ChooseSeats(req.Seats, av.Taken, h.Venue)
	})
}

func (h *SessionHandler) ChooseFood(c echo.Context) error {
	var req foodStepReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	return h.update(c, func(s *session.Session) error {
		return s.ChooseFood(req.Items, h.Venue)
	})
}

// Pay checks out a complete session with the given card.  The booking
// is attributed to the authenticated caller when there is one.
func (h *SessionHandler) Pay(c echo.Context) error {
	var card payment.Card
	if err := c.Bind(&card); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	id := c.Param("id")
	claimed, err := h.Sessions.Claim(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err, "claim session failed")
	}
	if !claimed {
		return respondError(c, h.Log, session.ErrCheckoutInProgress, "")
	}
	defer func() {
		if err := h.Sessions.Release(context.WithoutCancel(ctx), id); err != nil {
			h.Log.Warn("release session claim failed", zap.String("session", id), zap.Error(err))
		}
	}()

	// Loaded under the claim so a checkout that just finished is seen
	// as completed.
	s, err := h.Sessions.Get(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err, "load session failed")
	}
	if s.State == session.Completed {
		return respondError(c, h.Log, session.ErrCompleted, "")
	}
	if back, ok := s.ReadyForPayment(); !ok {
		return respondError(c, h.Log, &session.MissingStepError{BackTo: back}, "")
	}

	email := s.UserEmail
	if e := middleware.Email(c); e != "" {
		email = e
	}
	food := make([]string, 0, len(s.Food.Items))
	for _, it := range s.Food.Items {
		food = append(food, it.Name)
	}
	b, err := h.Checkout.Checkout(ctx, service.Draft{
		UserEmail: email,
		Movie:     s.Movie.Title,
		Date:      s.Movie.Date,
		Location:  s.Showtime.Location,
		Time:      s.Showtime.Time,
		Seats:     s.Seats.Labels,
		Food:      food,
	}, card)
	if err != nil {
		return respondError(c, h.Log, err, "Failed to save booking")
	}
	if err := s.Complete(b.ID); err != nil {
		return respondError(c, h.Log, err, "complete session failed")
	}
	if err := h.Sessions.Save(ctx, s); err != nil {
		// The booking is stored; only the session bookkeeping is lost.
		h.Log.Warn("save completed session failed", zap.String("session", s.ID), zap.Error(err))
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": b.ID, "booking": b, "session": view(s)})
}

// update loads the session, applies fn and saves the result.
func (h *SessionHandler) update(c echo.Context, fn func(*session.Session) error) error {
	ctx := c.Request().Context()
	s, err := h.Sessions.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err, "load session failed")
	}
	if err := fn(s); err != nil {
		return respondError(c, h.Log, err, "update session failed")
	}
	if err := h.Sessions.Save(ctx, s); err != nil {
		return respondError(c, h.Log, err, "save session failed")
	}
	return c.JSON(http.StatusOK, view(s))
}
