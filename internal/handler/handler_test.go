package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/seating"
	"github.com/iliyamo/movie-booking/internal/service"
	"github.com/iliyamo/movie-booking/internal/venue"
)

// memBookings is an in-memory booking store that rejects seats already
// booked for the same showing, like the strict MySQL store.
type memBookings struct {
	mu      sync.Mutex
	rows    []model.Booking
	nextID  uint64
	listErr error
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := seating.TakenSeats(m.rows, b.Showing())
	var conflicts []string
	for _, s := range b.Seats {
		if taken.Has(s) {
			conflicts = append(conflicts, s)
		}
	}
	if len(conflicts) > 0 {
		return 0, &repository.SeatsTakenError{Seats: conflicts}
	}
	m.nextID++
	b.ID = m.nextID
	m.rows = append(m.rows, *b)
	return b.ID, nil
}

func (m *memBookings) List(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Booking
	for _, b := range m.rows {
		if f.Movie != "" && b.MovieName != f.Movie ||
			f.Location != "" && b.Location != f.Location ||
			f.Time != "" && b.ShowTime != f.Time ||
			f.Date != "" && b.ShowDate != f.Date ||
			f.UserEmail != "" && b.UserEmail != f.UserEmail {
			continue
		}
		if q := strings.ToLower(f.Query); q != "" {
			hay := strings.ToLower(strings.Join(append([]string{b.MovieName, b.Location, b.UserEmail, b.CardholderName}, b.Seats...), "|"))
			if !strings.Contains(hay, q) {
				continue
			}
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memBookings) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.rows {
		if b.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrBookingNotFound
}

func (m *memBookings) seed(b model.Booking) {
	b.SeatCount = len(b.Seats)
	_, _ = m.Create(context.Background(), &b)
}

// memMovies implements both the catalog store and the title lookup.
type memMovies struct {
	mu     sync.Mutex
	byID   map[uint64]model.Movie
	nextID uint64
}

func newMemMovies(titles ...string) *memMovies {
	m := &memMovies{byID: map[uint64]model.Movie{}}
	for _, t := range titles {
		_ = m.Create(context.Background(), &model.Movie{Title: t, Labels: []string{}})
	}
	return m
}

func (m *memMovies) ListAll(context.Context) ([]model.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Movie, 0, len(m.byID))
	for _, mv := range m.byID {
		out = append(out, mv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memMovies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv, ok := m.byID[id]
	if !ok {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	return mv, nil
}

func (m *memMovies) GetByTitle(_ context.Context, title string) (model.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range m.byID {
		if mv.Title == title {
			return mv, nil
		}
	}
	return model.Movie{}, repository.ErrMovieNotFound
}

func (m *memMovies) Create(_ context.Context, mv *model.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Title == mv.Title {
			return repository.ErrMovieExists
		}
	}
	m.nextID++
	mv.ID = m.nextID
	m.byID[mv.ID] = *mv
	return nil
}

func (m *memMovies) Update(_ context.Context, mv *model.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[mv.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	for id, x := range m.byID {
		if id != mv.ID && x.Title == mv.Title {
			return repository.ErrMovieExists
		}
	}
	m.byID[mv.ID] = *mv
	return nil
}

func (m *memMovies) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrMovieNotFound
	}
	delete(m.byID, id)
	return nil
}

var testNow = time.Date(2026, time.June, 1, 15, 0, 0, 0, time.UTC)

func testVenue(t *testing.T) *venue.Venue {
	t.Helper()
	v, err := venue.Default()
	require.NoError(t, err)
	return v
}

func today() string { return testNow.Format("2006-01-02") }

func cardFields() map[string]string {
	return map[string]string{
		"card_number":  "4111 1111 1111 1111",
		"card_name":    "Jane Doe",
		"expiry_month": "12",
		"expiry_year":  strconv.Itoa(testNow.Year() % 100),
		"cvv":          "123",
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func do(t *testing.T, e *echo.Echo, method, target string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = strings.NewReader(string(b))
	} else {
		rd = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newCheckout(t *testing.T, store *memBookings, movies *memMovies) *service.CheckoutService {
	t.Helper()
	return service.NewCheckoutService(store, movies, nil, testVenue(t), zap.NewNop()).
		WithClock(func() time.Time { return testNow })
}

func TestRespondErrorFallsBackTo500(t *testing.T) {
	e := newEcho()
	e.GET("/boom", func(c echo.Context) error {
		return respondError(c, nil, errors.New("db down"), "list bookings failed")
	})
	rec := do(t, e, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "list bookings failed", decode(t, rec)["error"])
}
