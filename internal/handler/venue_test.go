package handler

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/seating"
)

func seatStatuses(t *testing.T, body map[string]interface{}) map[string]string {
	t.Helper()
	seats, ok := body["seats"].([]interface{})
	require.True(t, ok)
	out := make(map[string]string, len(seats))
	for _, s := range seats {
		m := s.(map[string]interface{})
		out[m["seat"].(string)] = m["status"].(string)
	}
	return out
}

func TestSeatMapMarksOnlyExactShowing(t *testing.T) {
	store := &memBookings{}
	store.seed(model.Booking{MovieName: "Dune", Location: "Hall A", ShowTime: "7:00 PM", Seats: []string{"A1", "A2"}})
	store.seed(model.Booking{MovieName: "Dune", Location: "Hall B", ShowTime: "7:00 PM", Seats: []string{"A3"}})
	store.seed(model.Booking{MovieName: "Dune", Location: "Hall A", ShowTime: "4:00 PM", Seats: []string{"A4"}})

	h := NewVenueHandler(testVenue(t), seating.NewReconciler(store, zap.NewNop()))
	e := newEcho()
	e.GET("/v1/showings/seats", h.SeatMap)

	q := url.Values{"movie": {"Dune"}, "location": {"Hall A"}, "time": {"7:00 PM"}}
	rec := do(t, e, http.MethodGet, "/v1/showings/seats?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	st := seatStatuses(t, body)
	assert.Equal(t, seating.StatusTaken, st["A1"])
	assert.Equal(t, seating.StatusTaken, st["A2"])
	assert.Equal(t, seating.StatusAvailable, st["A3"])
	assert.Equal(t, seating.StatusAvailable, st["A4"])
	assert.Len(t, st, len(testVenue(t).SeatLabels()))
	assert.Equal(t, false, body["degraded"])
}

func TestSeatMapDegradedWhenStoreFails(t *testing.T) {
	store := &memBookings{listErr: errors.New("db down")}
	h := NewVenueHandler(testVenue(t), seating.NewReconciler(store, zap.NewNop()))
	e := newEcho()
	e.GET("/v1/showings/seats", h.SeatMap)

	q := url.Values{"movie": {"Dune"}, "location": {"Hall A"}, "time": {"7:00 PM"}}
	rec := do(t, e, http.MethodGet, "/v1/showings/seats?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, seating.StatusAvailable, seatStatuses(t, body)["A1"])
}

func TestSeatMapRequiresShowing(t *testing.T) {
	h := NewVenueHandler(testVenue(t), seating.NewReconciler(&memBookings{}, nil))
	e := newEcho()
	e.GET("/v1/showings/seats", h.SeatMap)

	rec := do(t, e, http.MethodGet, "/v1/showings/seats?movie=Dune", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVenueInfo(t *testing.T) {
	h := NewVenueHandler(testVenue(t), nil)
	h.Now = func() time.Time { return testNow }
	e := newEcho()
	e.GET("/v1/venue", h.Info)

	rec := do(t, e, http.MethodGet, "/v1/venue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["locations"], "Hall A")
	assert.Contains(t, body["showtimes"], "7:00 PM")
	assert.EqualValues(t, 1500, body["seat_price_cents"])
	dates := body["dates"].([]interface{})
	require.Len(t, dates, 7)
	assert.Equal(t, today(), dates[0].(map[string]interface{})["value"])
}
