package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRefresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"user_id", "expires_at", "revoked_at"}
	q := `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=\?`
	future := time.Now().UTC().Add(time.Hour)

	mock.ExpectQuery(q).WithArgs("live").WillReturnRows(sqlmock.NewRows(cols).AddRow(3, future, nil))
	mock.ExpectQuery(q).WithArgs("revoked").WillReturnRows(sqlmock.NewRows(cols).AddRow(3, future, time.Now()))
	mock.ExpectQuery(q).WithArgs("expired").WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().Add(-time.Hour), nil))
	mock.ExpectQuery(q).WithArgs("unknown").WillReturnRows(sqlmock.NewRows(cols))

	repo := NewTokenRepo(db)
	uid, err := repo.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), uid)

	for _, h := range []string{"revoked", "expired", "unknown"} {
		_, err := repo.ValidateRefresh(context.Background(), h)
		assert.ErrorIs(t, err, ErrInvalidRefresh, h)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
