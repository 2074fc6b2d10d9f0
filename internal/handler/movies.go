package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/middleware"
	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/service"
)

// CategoryReader loads a user's favourite categories.
type CategoryReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// MovieHandler serves the catalog.  OnChange runs after every successful
// admin write, typically to drop cached listings.
type MovieHandler struct {
	Catalog  *service.CatalogService
	Users    CategoryReader
	OnChange func(ctx context.Context) error
	Log      *zap.Logger
}

func NewMovieHandler(catalog *service.CatalogService, users CategoryReader, onChange func(context.Context) error, log *zap.Logger) *MovieHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MovieHandler{Catalog: catalog, Users: users, OnChange: onChange, Log: log}
}

// movieView is a catalog entry keyed by its title in listings.
type movieView struct {
	ID          uint64   `json:"id"`
	Description string   `json:"description"`
	Trailer     string   `json:"trailer"`
	Image       string   `json:"image"`
	Rating      *float64 `json:"rating"`
	Labels      []string `json:"labels"`
}

// List returns {"movies": {title: {...}}}.
func (h *MovieHandler) List(c echo.Context) error {
	movies, err := h.Catalog.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err, "list movies failed")
	}
	out := make(map[string]movieView, len(movies))
	for _, m := range movies {
		labels := m.Labels
		if labels == nil {
			labels = []string{}
		}
		out[m.Title] = movieView{
			ID:          m.ID,
			Description: m.Description,
			Trailer:     m.Trailer,
			Image:       m.Image,
			Rating:      m.Rating,
			Labels:      labels,
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Catalog.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Log, err, "get movie failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"movie": m})
}

// Recommended orders the catalog by the caller's favourite categories.
// Guests get the plain title order.
func (h *MovieHandler) Recommended(c echo.Context) error {
	ctx := c.Request().Context()
	var categories []string
	if uid, ok := middleware.UserID(c); ok && h.Users != nil {
		u, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			return respondError(c, h.Log, err, "load user failed")
		}
		categories = u.Categories
	}
	recs, err := h.Catalog.Recommended(ctx, categories)
	if err != nil {
		return respondError(c, h.Log, err, "list movies failed")
	}
	if categories == nil {
		categories = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": categories, "movies": recs})
}

func (h *MovieHandler) Create(c echo.Context) error {
	var in service.MovieInput
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	m, err := h.Catalog.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err, "create movie failed")
	}
	h.changed(c)
	return c.JSON(http.StatusCreated, echo.Map{"movie": m})
}

func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var in service.MovieInput
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	m, err := h.Catalog.Update(c.Request().Context(), id, in)
	if err != nil {
		return respondError(c, h.Log, err, "update movie failed")
	}
	h.changed(c)
	return c.JSON(http.StatusOK, echo.Map{"movie": m})
}

func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Catalog.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err, "delete movie failed")
	}
	h.changed(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *MovieHandler) changed(c echo.Context) {
	if h.OnChange == nil {
		return
	}
	if err := h.OnChange(c.Request().Context()); err != nil {
		h.Log.Warn("invalidate movie cache failed", zap.Error(err))
	}
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
