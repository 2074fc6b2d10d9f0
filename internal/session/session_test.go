package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-booking/internal/seating"
	"github.com/iliyamo/movie-booking/internal/venue"
)

func testVenue(t *testing.T) *venue.Venue {
	t.Helper()
	v, err := venue.Default()
	require.NoError(t, err)
	return v
}

func newSession() *Session {
	return New("s1", "", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
}

func TestNewSessionUsesGuestEmail(t *testing.T) {
	s := newSession()
	assert.Equal(t, "guest@example.com", s.UserEmail)
	assert.Equal(t, NoSelection, s.State)
}

func TestStepsInOrder(t *testing.T) {
	v := testVenue(t)
	s := newSession()

	require.NoError(t, s.ChooseMovieDate("Dune", "2026-06-01"))
	assert.Equal(t, MovieDateChosen, s.State)

	require.NoError(t, s.ChooseShowtime("Hall A", "7:00 PM", v))
	assert.Equal(t, ShowtimeChosen, s.State)

	require.NoError(t, s.ChooseSeats([]string{"A3", "A4"}, seating.SeatSet{"A1": {}}, v))
	assert.Equal(t, SeatsChosen, s.State)
	assert.Equal(t, int64(2)*v.SeatPriceCents, s.Seats.SubtotalCents)

	require.NoError(t, s.ChooseFood(nil, v))
	assert.Equal(t, FoodChosen, s.State)
	assert.Zero(t, s.Food.SubtotalCents)

	_, ready := s.ReadyForPayment()
	assert.True(t, ready)

	require.NoError(t, s.Complete(42))
	assert.Equal(t, Completed, s.State)
	assert.ErrorIs(t, s.ChooseFood(nil, v), ErrCompleted)
}

func TestMissingStepReportsBackTo(t *testing.T) {
	v := testVenue(t)
	s := newSession()

	var mse *MissingStepError
	err := s.ChooseShowtime("Hall A", "7:00 PM", v)
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, StepMovie, mse.BackTo)

	require.NoError(t, s.ChooseMovieDate("Dune", "2026-06-01"))
	err = s.ChooseSeats([]string{"A1"}, nil, v)
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, StepShowtime, mse.BackTo)

	err = s.ChooseFood([]string{"Nachos"}, v)
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, StepShowtime, mse.BackTo)

	require.NoError(t, s.ChooseShowtime("Hall A", "7:00 PM", v))
	back, ready := s.ReadyForPayment()
	assert.False(t, ready)
	assert.Equal(t, StepSeats, back)

	err = s.Complete(1)
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, StepSeats, mse.BackTo)
}

func TestChooseSeatsValidation(t *testing.T) {
	v := testVenue(t)
	s := newSession()
	require.NoError(t, s.ChooseMovieDate("Dune", "2026-06-01"))
	require.NoError(t, s.ChooseShowtime("Hall A", "7:00 PM", v))

	var ie *InputError
	assert.ErrorAs(t, s.ChooseSeats(nil, nil, v), &ie)
	assert.ErrorAs(t, s.ChooseSeats([]string{"Z99"}, nil, v), &ie)
	assert.ErrorAs(t, s.ChooseSeats([]string{"A1", "A1"}, nil, v), &ie)

	var ste *SeatsTakenError
	err := s.ChooseSeats([]string{"A1", "A2", "B5"}, seating.SeatSet{"A1": {}, "A2": {}}, v)
	require.ErrorAs(t, err, &ste)
	assert.Equal(t, []string{"A1", "A2"}, ste.Seats)
	assert.Nil(t, s.Seats)
	assert.Equal(t, ShowtimeChosen, s.State)
}

func TestChooseShowtimeRejectsUnknownValues(t *testing.T) {
	v := testVenue(t)
	s := newSession()
	require.NoError(t, s.ChooseMovieDate("Dune", "2026-06-01"))

	var ie *InputError
	assert.ErrorAs(t, s.ChooseShowtime("Hall Z", "7:00 PM", v), &ie)
	assert.ErrorAs(t, s.ChooseShowtime("Hall A", "3:33 AM", v), &ie)
	assert.ErrorAs(t, newSession().ChooseMovieDate(" ", "2026-06-01"), &ie)
}

func TestChangingShowingDropsSeatsKeepsFood(t *testing.T) {
	v := testVenue(t)
	s := newSession()
	require.NoError(t, s.ChooseMovieDate("Dune", "2026-06-01"))
	require.NoError(t, s.ChooseShowtime("Hall A", "7:00 PM", v))
	require.NoError(t, s.ChooseSeats([]string{"C1"}, nil, v))
	require.NoError(t, s.ChooseFood([]string{"Nachos", "Soft Drink"}, v))
	assert.Equal(t, FoodChosen, s.State)
	assert.Equal(t, int64(1500), s.Food.SubtotalCents)

	// Same showing: selection stays.
	require.NoError(t, s.ChooseShowtime("Hall A", "7:00 PM", v))
	assert.Equal(t, FoodChosen, s.State)

	// Date is not part of the showing key.
	require.NoError(t, s.ChooseMovieDate("Dune", "2026-06-02"))
	assert.NotNil(t, s.Seats)

	require.NoError(t, s.ChooseShowtime("Hall B", "7:00 PM", v))
	assert.Nil(t, s.Seats)
	assert.NotNil(t, s.Food)
	assert.Equal(t, ShowtimeChosen, s.State)

	require.NoError(t, s.ChooseSeats([]string{"C2"}, nil, v))
	assert.Equal(t, FoodChosen, s.State, "kept food completes the chain again")

	require.NoError(t, s.ChooseMovieDate("Arrival", "2026-06-02"))
	assert.Nil(t, s.Seats)
	assert.Equal(t, ShowtimeChosen, s.State)
}

func TestChooseFoodRejectsUnknownItem(t *testing.T) {
	v := testVenue(t)
	s := newSession()
	require.NoError(t, s.ChooseMovieDate("Dune", "2026-06-01"))
	require.NoError(t, s.ChooseShowtime("Hall A", "7:00 PM", v))
	require.NoError(t, s.ChooseSeats([]string{"C1"}, nil, v))

	var ie *InputError
	assert.ErrorAs(t, s.ChooseFood([]string{"Caviar"}, v), &ie)
	assert.Nil(t, s.Food)
}

func TestStateJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(struct{ S State }{SeatsChosen})
	require.NoError(t, err)
	assert.JSONEq(t, `{"S":"seats_chosen"}`, string(b))

	var out struct{ S State }
	require.NoError(t, json.Unmarshal([]byte(`{"S":"food_chosen"}`), &out))
	assert.Equal(t, FoodChosen, out.S)

	assert.Error(t, json.Unmarshal([]byte(`{"S":"bogus"}`), &out))
}
