package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-booking/internal/handler"
	"github.com/iliyamo/movie-booking/internal/middleware"
)

// RegisterCustomer registers the booking flow.  Guests may book, so the
// session and checkout routes only identify the caller when a token is
// present; listing one's own bookings requires a token.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, s *handler.SessionHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	optional := middleware.OptionalJWT(jwtSecret)

	e.POST("/v1/bookings", b.Create, optional, limit)
	e.GET("/v1/me/bookings", b.Mine, middleware.JWTAuth(jwtSecret))

	g := e.Group("/v1/sessions", optional, limit)
	g.POST("", s.Create)
	g.GET("/:id", s.Get)
	g.DELETE("/:id", s.Delete)
	g.PUT("/:id/movie", s.ChooseMovie)
	g.PUT("/:id/showtime", s.ChooseShowtime)
	g.GET("/:id/seats", s.SeatMap)
	g.PUT("/:id/seats", s.ChooseSeats)
	g.PUT("/:id/food", s.ChooseFood)
	g.POST("/:id/checkout", s.Pay)
}
