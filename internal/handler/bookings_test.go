package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-booking/internal/middleware"
	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/utils"
)

const testSecret = "test-secret"

func bookingServer(t *testing.T, store *memBookings) *echo.Echo {
	t.Helper()
	h := NewBookingHandler(newCheckout(t, store, newMemMovies("Dune", "Arrival")), store, nil)
	e := newEcho()
	e.POST("/v1/bookings", h.Create, middleware.OptionalJWT(testSecret))
	e.GET("/v1/me/bookings", h.Mine, middleware.JWTAuth(testSecret))
	admin := e.Group("/v1/admin", middleware.JWTAuth(testSecret), middleware.RequireRole(model.RoleAdmin))
	admin.GET("/bookings", h.AdminList)
	admin.DELETE("/bookings/:id", h.AdminDelete)
	return e
}

func bearerFor(t *testing.T, id uint64, email, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, id, email, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func bookingBody(seats ...string) map[string]interface{} {
	body := map[string]interface{}{
		"movie_name":    "Dune",
		"location":      "Hall A",
		"time":          "7:00 PM",
		"selected_date": today(),
		"seats_list":    seats,
		"food_items":    []map[string]string{{"name": "Nachos"}},
	}
	for k, v := range cardFields() {
		body[k] = v
	}
	return body
}

func TestCreateBookingStoresMaskedCard(t *testing.T) {
	store := &memBookings{}
	e := bookingServer(t, store)

	rec := do(t, e, http.MethodPost, "/v1/bookings", bookingBody("C3", "C4"),
		echo.HeaderAuthorization, bearerFor(t, 7, "jane@example.com", model.RoleCustomer))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["id"])

	require.Len(t, store.rows, 1)
	b := store.rows[0]
	assert.Equal(t, "4111XXXXXXXX1111", b.CardNumberMasked)
	assert.Equal(t, "jane@example.com", b.UserEmail)
	assert.Equal(t, int64(3000), b.SeatSubtotalCents)
	assert.Equal(t, int64(1000), b.FoodSubtotalCents)
	assert.Equal(t, int64(4000), b.GrandTotalCents)
	assert.NotContains(t, rec.Body.String(), "4111111111111111")
}

func TestCreateBookingAsGuest(t *testing.T) {
	store := &memBookings{}
	rec := do(t, bookingServer(t, store), http.MethodPost, "/v1/bookings", bookingBody("D1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.GuestEmail, store.rows[0].UserEmail)
}

func TestCreateBookingRejectsBadCardWithoutStoring(t *testing.T) {
	store := &memBookings{}
	body := bookingBody("C3")
	body["card_number"] = "4111"

	rec := do(t, bookingServer(t, store), http.MethodPost, "/v1/bookings", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "card_number", decode(t, rec)["field"])
	assert.Empty(t, store.rows)
}

func TestCreateBookingRequiresSeats(t *testing.T) {
	store := &memBookings{}
	rec := do(t, bookingServer(t, store), http.MethodPost, "/v1/bookings", bookingBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.rows)
}

func TestCreateBookingSeatConflict(t *testing.T) {
	store := &memBookings{}
	store.seed(model.Booking{MovieName: "Dune", Location: "Hall A", ShowTime: "7:00 PM", ShowDate: today(), Seats: []string{"A1", "A2"}})

	rec := do(t, bookingServer(t, store), http.MethodPost, "/v1/bookings", bookingBody("A2", "A3"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []interface{}{"A2"}, decode(t, rec)["seats"])
	assert.Len(t, store.rows, 1)
}

func TestMyBookings(t *testing.T) {
	store := &memBookings{}
	store.seed(model.Booking{UserEmail: "jane@example.com", MovieName: "Dune", Location: "Hall A", ShowTime: "7:00 PM", Seats: []string{"A1"}})
	store.seed(model.Booking{UserEmail: "bob@example.com", MovieName: "Dune", Location: "Hall B", ShowTime: "7:00 PM", Seats: []string{"A1"}})
	e := bookingServer(t, store)

	rec := do(t, e, http.MethodGet, "/v1/me/bookings", nil,
		echo.HeaderAuthorization, bearerFor(t, 7, "jane@example.com", model.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, e, http.MethodGet, "/v1/me/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminListFiltersAndSearch(t *testing.T) {
	store := &memBookings{}
	store.seed(model.Booking{UserEmail: "jane@example.com", MovieName: "Dune", Location: "Hall A", ShowTime: "7:00 PM", Seats: []string{"A1"}})
	store.seed(model.Booking{UserEmail: "bob@example.com", MovieName: "Arrival", Location: "Hall B", ShowTime: "1:00 PM", Seats: []string{"B7"}})
	e := bookingServer(t, store)
	admin := bearerFor(t, 1, "admin@example.com", model.RoleAdmin)

	rec := do(t, e, http.MethodGet, "/v1/admin/bookings", nil, echo.HeaderAuthorization, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	rec = do(t, e, http.MethodGet, "/v1/admin/bookings?movie=Dune", nil, echo.HeaderAuthorization, admin)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, e, http.MethodGet, "/v1/admin/bookings?q=b7", nil, echo.HeaderAuthorization, admin)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	rec = do(t, e, http.MethodGet, "/v1/admin/bookings", nil,
		echo.HeaderAuthorization, bearerFor(t, 7, "jane@example.com", model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminDelete(t *testing.T) {
	store := &memBookings{}
	store.seed(model.Booking{MovieName: "Dune", Location: "Hall A", ShowTime: "7:00 PM", Seats: []string{"A1"}})
	e := bookingServer(t, store)
	admin := bearerFor(t, 1, "admin@example.com", model.RoleAdmin)

	rec := do(t, e, http.MethodDelete, "/v1/admin/bookings/999", nil, echo.HeaderAuthorization, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "booking not found", decode(t, rec)["error"])
	assert.Len(t, store.rows, 1)

	rec = do(t, e, http.MethodDelete, "/v1/admin/bookings/abc", nil, echo.HeaderAuthorization, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodDelete, "/v1/admin/bookings/1", nil, echo.HeaderAuthorization, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.rows)
}
