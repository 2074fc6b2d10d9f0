package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-booking/internal/utils"
)

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users \(email, password_hash, role, categories\)`).
		WithArgs("jane@example.com", sqlmock.AnyArg(), "CUSTOMER", []byte(`["Drama"]`)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	u, err := NewUserRepo(db).Create(context.Background(), "  Jane@Example.com ", "secret", "CUSTOMER", []string{"Drama"}, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "secret"))
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&mysql.MySQLError{Number: 1062})
	_, err = NewUserRepo(db).Create(context.Background(), "a@b.c", "pw", "CUSTOMER", nil, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "email", "password_hash", "role", "categories", "created_at"}
	mock.ExpectQuery(`FROM users WHERE email=\?`).WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "a@b.c", "h", "ADMIN", []byte(`["Action"]`), time.Now()))
	mock.ExpectQuery(`FROM users WHERE email=\?`).WithArgs("x@y.z").
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewUserRepo(db)
	u, err := repo.GetByEmail(context.Background(), "A@B.C")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", u.Role)
	assert.Equal(t, []string{"Action"}, u.Categories)

	_, err = repo.GetByEmail(context.Background(), "x@y.z")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
