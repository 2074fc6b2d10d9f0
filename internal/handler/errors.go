package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/payment"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/service"
	"github.com/iliyamo/movie-booking/internal/session"
)

// respondError maps domain errors to HTTP responses.  Anything it does
// not recognise is logged and reported as 500 with fallback as message.
func respondError(c echo.Context, log *zap.Logger, err error, fallback string) error {
	var (
		pve  *payment.ValidationError
		de   *service.DraftError
		ie   *session.InputError
		mse  *session.MissingStepError
		sste *session.SeatsTakenError
		rste *repository.SeatsTakenError
	)
	switch {
	case errors.As(err, &pve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": pve.Message, "field": pve.Field})
	case errors.As(err, &de):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": de.Message})
	case errors.As(err, &ie):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ie.Message})
	case errors.Is(err, service.ErrInvalidMovie):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &mse):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "missing data, go back",
			"back_to":     mse.BackTo,
			"can_proceed": false,
		})
	case errors.As(err, &sste):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats already taken", "seats": sste.Seats})
	case errors.As(err, &rste):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats already taken", "seats": rste.Seats, "back_to": session.StepSeats})
	case errors.Is(err, session.ErrCompleted), errors.Is(err, session.ErrCheckoutInProgress):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrMovieExists), errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrMovieNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, session.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Error(fallback,
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
