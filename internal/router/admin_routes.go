package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-booking/internal/handler"
	"github.com/iliyamo/movie-booking/internal/middleware"
	"github.com/iliyamo/movie-booking/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, m *handler.MovieHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Movies ----
	g.POST("/movies", m.Create)
	g.PUT("/movies/:id", m.Update)
	g.DELETE("/movies/:id", m.Delete)

	// ---- Bookings ----
	g.GET("/bookings", b.AdminList)
	g.DELETE("/bookings/:id", b.AdminDelete)
}
