package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/movie-booking/internal/config"
	"github.com/iliyamo/movie-booking/internal/handler"
)

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newTestEcho() *echo.Echo {
	const secret = "s"
	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	movies := handler.NewMovieHandler(nil, nil, nil, nil)
	bookings := handler.NewBookingHandler(nil, nil, nil)
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{}, nil, nil, nil), secret, passthrough)
	RegisterPublic(e, movies, handler.NewVenueHandler(nil, nil), secret, passthrough)
	RegisterCustomer(e, bookings, handler.NewSessionHandler(nil, nil, nil, nil, nil, nil), secret, passthrough)
	RegisterAdmin(e, movies, bookings, secret)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestEcho()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/signup",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"PUT /v1/me/categories",
		"GET /v1/me/bookings",
		"GET /v1/movies",
		"GET /v1/movies/recommended",
		"GET /v1/movies/:id",
		"GET /v1/venue",
		"GET /v1/showings/seats",
		"POST /v1/bookings",
		"POST /v1/sessions",
		"PUT /v1/sessions/:id/seats",
		"POST /v1/sessions/:id/checkout",
		"POST /v1/admin/movies",
		"GET /v1/admin/bookings",
		"DELETE /v1/admin/bookings/:id",
	} {
		assert.True(t, have[want], "missing route %s", want)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newTestEcho()
	for _, target := range []string{"/v1/admin/bookings", "/v1/me", "/v1/me/bookings"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
