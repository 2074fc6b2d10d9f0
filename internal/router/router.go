// Package router registers the HTTP routes of the API.  Each Register*
// function owns one audience: public, auth, customer flow and admin.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-booking/internal/handler"
	"github.com/iliyamo/movie-booking/internal/middleware"
)

// RegisterRoutes registers routes that need no dependencies.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers signup, login and token endpoints under
// /v1/auth and the caller's profile under /v1/me.  limit throttles the
// credential endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout works with either a refresh token in the body or a bearer.
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	me := e.Group("/v1/me", middleware.JWTAuth(jwtSecret))
	me.GET("", a.Me)
	me.PUT("/categories", a.UpdateCategories)
}

// RegisterPublic registers the browse endpoints.  Movie listings go
// through cache; admin writes invalidate it.
func RegisterPublic(e *echo.Echo, m *handler.MovieHandler, v *handler.VenueHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/movies", m.List, cache)
	// Registered before /:id so the static segment wins.
	e.GET("/v1/movies/recommended", m.Recommended, middleware.OptionalJWT(jwtSecret))
	e.GET("/v1/movies/:id", m.Get, cache)
	e.GET("/v1/venue", v.Info)
	e.GET("/v1/showings/seats", v.SeatMap)
}
