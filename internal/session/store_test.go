package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Minute), mr
}

func TestStoreCreateGetSave(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := st.Create(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+sess.ID))
	assert.Equal(t, time.Minute, mr.TTL("session:"+sess.ID))

	require.NoError(t, sess.ChooseMovieDate("Dune", "2026-06-01"))
	require.NoError(t, st.Save(ctx, sess))

	got, err := st.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, MovieDateChosen, got.State)
	assert.Equal(t, "Dune", got.Movie.Title)
	assert.Equal(t, "jane@example.com", got.UserEmail)
}

func TestStoreGetUnknown(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.Get(context.Background(), "6f1c3c2e-8a4b-4d7e-9a51-0d3c2b1a0f00")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreExpiry(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()
	sess, err := st.Create(ctx, "")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = st.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	sess, err := st.Create(ctx, "")
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, sess.ID))
	assert.ErrorIs(t, st.Delete(ctx, sess.ID), ErrNotFound)
}

func TestStoreDefaultTTL(t *testing.T) {
	st := NewStore(nil, 0)
	assert.Equal(t, DefaultTTL, st.ttl)
}

func TestStoreClaimIsExclusive(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()
	sess, err := st.Create(ctx, "")
	require.NoError(t, err)

	ok, err := st.Claim(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, claimTTL, mr.TTL("session:"+sess.ID+":paying"))

	ok, err = st.Claim(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second checkout must wait")

	require.NoError(t, st.Release(ctx, sess.ID))
	ok, err = st.Claim(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(claimTTL + time.Second)
	ok, err = st.Claim(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, ok, "stale claims expire")
	assert.True(t, mr.Exists("session:"+sess.ID), "the session itself is untouched")
}

func TestStoreClaimRejectsBadID(t *testing.T) {
	st, _ := newTestStore(t)
	_, err := st.Claim(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}
